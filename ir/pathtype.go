package ir

// PathMatchType classifies how a group's path is matched.
type PathMatchType int

const (
	// PathPrefix matches the path as a literal prefix.
	PathPrefix PathMatchType = iota

	// PathExact matches the whole path literally.
	PathExact

	// PathRegex matches the path by regular expression.
	PathRegex
)

func (t PathMatchType) String() string {
	switch t {
	case PathExact:
		return "path"
	case PathRegex:
		return "regex"
	default:
		return "prefix"
	}
}

// PathMatchType classifies the group's path form from its prefix
// flags. A regex prefix wins over an exact one.
func (g *HTTPMappingGroup) PathMatchType() PathMatchType {
	switch {
	case g.PrefixRegex:
		return PathRegex
	case g.PrefixExact:
		return PathExact
	default:
		return PathPrefix
	}
}
