// Copyright 2018 Datawire. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License

// Package ir holds the intermediate routing model that the Envoy
// config compiler consumes. The model is assembled by the resource
// layer from higher-level configuration; once constructed it is
// treated as immutable by the compiler.
package ir

// IR is the root of the intermediate routing model for one
// configuration generation.
type IR struct {

	// Groups are the routable groups, already sorted by the model
	// builder into their evaluation priority order. The compiler
	// preserves this order in its output.
	Groups []Group

	// Module carries the global settings of the ambassador module.
	Module Module

	// RateLimit is set when a rate limit service is configured
	// process-wide.
	RateLimit *RateLimitService

	// EdgeStackAllowed reports whether the operating context runs
	// in privileged mode.
	EdgeStackAllowed bool
}

// Group is a routable group of the model. The compiler only handles
// HTTP mapping groups and skips every other implementation.
type Group interface {
	GroupID() string
	CacheKey() string
}

// HTTPMappingGroup is a set of mappings sharing a routing prefix and
// precedence.
type HTTPMappingGroup struct {
	ID string

	// Prefix is the path to match, shared by the group's mappings
	// unless a mapping overrides it. PrefixRegex and PrefixExact
	// select how the prefix is interpreted, see PathMatchType.
	Prefix      string
	PrefixRegex bool
	PrefixExact bool

	Precedence    int
	Priority      string
	CaseSensitive *bool

	// SNI is set when the group is scoped to TLS server names.
	SNI *SNIScope

	Headers         []HeaderMatchSpec
	QueryParameters []QueryParameterSpec

	// CORS and RetryPolicy override the module-level defaults when
	// set.
	CORS        *CORSPolicy
	RetryPolicy *RetryPolicy

	// Labels holds rate limit label groups keyed by rate limit
	// domain.
	Labels map[string][]RateLimitLabel

	// Shadows lists mirror targets. Only the first one is honored
	// by the compiler.
	Shadows []*Shadow

	// HostRedirect turns the group's routes into redirects instead
	// of forwarding routes.
	HostRedirect *HostRedirect

	// AllowUpgrade lists protocols the routes may upgrade to, e.g.
	// "websocket".
	AllowUpgrade []string

	AddRequestHeaders     AddHeaderList
	AddResponseHeaders    AddHeaderList
	RemoveRequestHeaders  HeaderNames
	RemoveResponseHeaders HeaderNames

	LoadBalancer *LoadBalancer

	// Mappings are the group's weighted targets, in declaration
	// order.
	Mappings []*Mapping
}

func (g *HTTPMappingGroup) GroupID() string { return g.ID }

func (g *HTTPMappingGroup) CacheKey() string { return "HTTPMappingGroup-" + g.ID }

// SNIScope records the TLS server names and the secret that a group
// is scoped to.
type SNIScope struct {
	Hosts      []string
	SecretInfo map[string]string
}

// HeaderMatchSpec is a request header constraint of a group. Value is
// matched literally unless Regex is set.
type HeaderMatchSpec struct {
	Name  string
	Value string
	Regex bool
}

// QueryParameterSpec is a query parameter constraint of a group. A
// nil Value with Regex unset means presence-only matching.
type QueryParameterSpec struct {
	Name  string
	Value *string
	Regex bool
}

// Shadow is a traffic mirror target.
type Shadow struct {
	Cluster *Cluster
	Weight  *int
}

// HostRedirect redirects requests to another service instead of
// forwarding them.
type HostRedirect struct {
	Service      string
	PathRedirect string
}

// RateLimitService describes the process-wide rate limit service. The
// filter supports a single domain, so labels are looked up by this
// domain only.
type RateLimitService struct {
	Domain string
}

// RateLimitLabel is an opaque label group attached to a mapping
// group. Its structure is interpreted by the rate limit action
// translator only.
type RateLimitLabel map[string]interface{}
