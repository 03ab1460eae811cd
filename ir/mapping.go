package ir

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Mapping is a single weighted target within a mapping group.
type Mapping struct {
	Name    string   `json:"name,omitempty"`
	Cluster *Cluster `json:"cluster,omitempty"`

	// Weight is the traffic share of this mapping within its
	// group, in percent. Nil means 100.
	Weight *int `json:"weight,omitempty"`

	// Prefix overrides the group's path when set.
	Prefix string `json:"prefix,omitempty"`

	// Rewrite is a literal path rewrite. RegexRewrite takes
	// precedence over it when both are set.
	Rewrite      string            `json:"rewrite,omitempty"`
	RegexRewrite *RegexRewriteSpec `json:"regex_rewrite,omitempty"`

	CaseSensitive *bool `json:"case_sensitive,omitempty"`

	// Timeout is the upstream request timeout. Nil means the 3s
	// default. IdleTimeout is only emitted when set.
	Timeout     *time.Duration `json:"timeout,omitempty"`
	IdleTimeout *time.Duration `json:"idle_timeout,omitempty"`

	HostRewrite     string `json:"host_rewrite,omitempty"`
	AutoHostRewrite *bool  `json:"auto_host_rewrite,omitempty"`

	// BypassAuth disables the external authorization filter for
	// routes compiled from this mapping.
	BypassAuth bool `json:"bypass_auth,omitempty"`
}

// Empty reports whether this is the synthetic zero mapping used for
// redirect-only groups. Real mappings always reference a cluster.
func (m *Mapping) Empty() bool {
	return m == nil || m.Cluster == nil
}

// CacheKey returns a stable key derived from the mapping's content.
// Two mappings with equal content share a key, so compiled routes can
// be shared across configuration generations.
func (m *Mapping) CacheKey() string {
	b, err := json.Marshal(m)
	if err != nil {
		// A mapping is a plain value, this cannot happen.
		panic(err)
	}

	return fmt.Sprintf("Mapping-%s-%016x", m.Name, xxhash.Sum64(b))
}

// RegexRewriteSpec rewrites the matched path by regex substitution.
type RegexRewriteSpec struct {
	Pattern      string `json:"pattern,omitempty"`
	Substitution string `json:"substitution,omitempty"`
}

// Cluster refers to a registered upstream cluster. Cluster naming and
// registration happen in the model builder, the compiler only reads
// the stable name.
type Cluster struct {
	Name string `json:"name"`
}

// EnvoyName returns the name the cluster is registered under in the
// emitted Envoy configuration.
func (c *Cluster) EnvoyName() string { return c.Name }
