package envoy

import (
	log "github.com/sirupsen/logrus"

	"github.com/LukeShu/ambassador/ir"
)

// SafeRegex is a complexity-bounded RE2 matcher.
type SafeRegex struct {
	GoogleRE2 GoogleRE2 `json:"google_re2"`
	Regex     string    `json:"regex"`
}

// GoogleRE2 bounds the compiled program size of a safe regex.
type GoogleRE2 struct {
	MaxProgramSize int `json:"max_program_size"`
}

// regexMatch is the outcome of the regex safety policy. Exactly one
// of Safe and Raw is set; the caller places it under its own keyed
// field (safe_regex/regex, safe_regex_match/regex_match, pattern).
type regexMatch struct {
	Safe *SafeRegex
	Raw  string
}

// regexMatcher applies the regex safety policy to a pattern. With
// forceBounded the configured mode is ignored and a bounded matcher
// is always produced; rewrite patterns must never run unbounded.
func regexMatcher(m *ir.Module, pattern string, forceBounded bool) regexMatch {
	reType := m.EffectiveRegexType()
	if forceBounded {
		reType = ir.RegexTypeSafe
	}

	log.Debugf("regex type %s", reType)

	if reType != ir.RegexTypeUnsafe {
		return regexMatch{
			Safe: &SafeRegex{
				GoogleRE2: GoogleRE2{MaxProgramSize: m.EffectiveRegexMaxSize()},
				Regex:     pattern,
			},
		}
	}

	return regexMatch{Raw: pattern}
}
