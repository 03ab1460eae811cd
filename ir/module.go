package ir

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v2"
)

// Regex safety modes accepted by the ambassador module. The default
// is RegexTypeSafe; "unsafe" must be requested explicitly.
const (
	RegexTypeSafe   = "safe"
	RegexTypeUnsafe = "unsafe"
)

// DefaultRegexMaxSize bounds the RE2 program size of safe regex
// matchers when the module does not configure one.
const DefaultRegexMaxSize = 200

// Module is the global configuration surface of the ambassador
// module.
type Module struct {

	// RegexType selects the regex safety mode, "safe" or "unsafe".
	// Empty means safe.
	RegexType string `yaml:"regex_type"`

	// RegexMaxSize is the maximum RE2 program size for safe regex
	// matchers. Zero means DefaultRegexMaxSize.
	RegexMaxSize int `yaml:"regex_max_size"`

	// CORS and RetryPolicy are module-level defaults, applied to
	// groups that do not override them.
	CORS        *CORSPolicy  `yaml:"cors"`
	RetryPolicy *RetryPolicy `yaml:"retry_policy"`
}

// ParseModule reads the module settings from a YAML document.
func ParseModule(doc []byte) (*Module, error) {
	var m Module
	if err := yaml.Unmarshal(doc, &m); err != nil {
		return nil, fmt.Errorf("parsing ambassador module: %w", err)
	}

	return &m, nil
}

// EffectiveRegexType returns the configured regex safety mode,
// normalized to lower case, defaulting to safe.
func (m *Module) EffectiveRegexType() string {
	t := strings.ToLower(m.RegexType)
	if t == "" {
		t = RegexTypeSafe
	}

	return t
}

// EffectiveRegexMaxSize returns the configured RE2 program size
// bound, or the default.
func (m *Module) EffectiveRegexMaxSize() int {
	if m.RegexMaxSize <= 0 {
		return DefaultRegexMaxSize
	}

	return m.RegexMaxSize
}
