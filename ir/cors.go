package ir

// CORSPolicy is the CORS configuration of a group or of the module.
// It is a value type: routes never share a policy instance, they
// receive a duplicate stamped with their own group id, see Dup and
// SetID.
type CORSPolicy struct {
	AllowOrigin      []string `json:"allow_origin,omitempty" yaml:"origins"`
	AllowMethods     string   `json:"allow_methods,omitempty" yaml:"methods"`
	AllowHeaders     string   `json:"allow_headers,omitempty" yaml:"headers"`
	ExposeHeaders    string   `json:"expose_headers,omitempty" yaml:"exposed_headers"`
	MaxAge           string   `json:"max_age,omitempty" yaml:"max_age"`
	AllowCredentials *bool    `json:"allow_credentials,omitempty" yaml:"credentials"`

	// groupID identifies the group the policy was duplicated for.
	// It is not part of the wire format.
	groupID string
}

// Dup returns a deep copy of the policy. Mutating the copy cannot
// affect the original, notably the shared module-level default.
func (c *CORSPolicy) Dup() *CORSPolicy {
	d := *c
	d.AllowOrigin = make([]string, len(c.AllowOrigin))
	copy(d.AllowOrigin, c.AllowOrigin)
	if c.AllowCredentials != nil {
		v := *c.AllowCredentials
		d.AllowCredentials = &v
	}

	return &d
}

// SetID stamps the policy with the id of the group it belongs to.
func (c *CORSPolicy) SetID(groupID string) { c.groupID = groupID }

// GroupID returns the id set by SetID.
func (c *CORSPolicy) GroupID() string { return c.groupID }

// RetryPolicy configures upstream request retries for a group or as
// the module-level default.
type RetryPolicy struct {
	RetryOn       string `json:"retry_on,omitempty" yaml:"retry_on"`
	NumRetries    *int   `json:"num_retries,omitempty" yaml:"num_retries"`
	PerTryTimeout string `json:"per_try_timeout,omitempty" yaml:"per_try_timeout"`
}
