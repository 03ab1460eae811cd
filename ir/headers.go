package ir

import (
	"fmt"

	"gopkg.in/yaml.v2"
)

// AddHeader declares a header to add to requests or responses. A nil
// Append means the legacy default, which is to append.
type AddHeader struct {
	Key    string
	Value  string
	Append *bool
}

// AddHeaderList parses from the YAML mapping form used by the
// resource layer:
//
//	add_request_headers:
//	  X-Foo: bar
//	  X-Baz:
//	    value: qux
//	    append: false
//
// Declaration order is preserved.
type AddHeaderList []AddHeader

func (l *AddHeaderList) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var ms yaml.MapSlice
	if err := unmarshal(&ms); err != nil {
		return err
	}

	out := make(AddHeaderList, 0, len(ms))
	for _, item := range ms {
		key, ok := item.Key.(string)
		if !ok {
			return fmt.Errorf("header name must be a string, got %v", item.Key)
		}

		switch v := item.Value.(type) {
		case yaml.MapSlice:
			h := AddHeader{Key: key}
			for _, field := range v {
				switch field.Key {
				case "value":
					h.Value = fmt.Sprintf("%v", field.Value)
				case "append":
					if appnd, ok := field.Value.(bool); ok {
						h.Append = &appnd
					}
				}
			}
			out = append(out, h)
		default:
			out = append(out, AddHeader{Key: key, Value: fmt.Sprintf("%v", v)})
		}
	}

	*l = out
	return nil
}

// HeaderNames is a list of header names that also parses from a bare
// scalar, wrapping it into a one-element list.
type HeaderNames []string

func (h *HeaderNames) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var one string
	if err := unmarshal(&one); err == nil {
		*h = HeaderNames{one}
		return nil
	}

	var many []string
	if err := unmarshal(&many); err != nil {
		return err
	}

	*h = many
	return nil
}
