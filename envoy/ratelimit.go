package envoy

import (
	"github.com/LukeShu/ambassador/ir"
)

// RateLimitAction is one entry of a route's rate_limits list, in the
// shape the rate limit filter expects. The compiler treats it as
// opaque.
type RateLimitAction map[string]interface{}

// RateLimitTranslator turns a rate limit label group into a rate
// limit action. ok is false when the label does not translate to a
// valid action; such labels are dropped.
type RateLimitTranslator interface {
	Translate(label ir.RateLimitLabel) (action RateLimitAction, ok bool)
}
