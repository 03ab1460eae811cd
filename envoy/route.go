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

// Package envoy compiles the intermediate routing model into Envoy
// route configuration fragments. The emitted field names and nesting
// are part of the wire contract with the proxy and with the snapshot
// diffing tooling, and must stay byte-for-byte deterministic for
// unchanged input.
package envoy

import (
	"fmt"
	"time"

	"github.com/LukeShu/ambassador/ir"
)

// edgeStackBoundedPrecedence is the reserved precedence tier whose
// regex routes always get a complexity-bounded matcher in privileged
// mode, regardless of the configured regex type.
const edgeStackBoundedPrecedence = -1000000

const defaultRouteTimeout = 3 * time.Second

const denominatorHundred = "HUNDRED"

// Route is the compiled route for one (group, mapping) pair. Exactly
// one of Redirect and Action is set. A route is immutable once it has
// been handed out by the cache.
type Route struct {
	cacheKey string

	// SNI scope and precedence of the producing group, kept out of
	// the wire format for later host constraint queries.
	sni        *ir.SNIScope
	precedence int

	Match                   RouteMatch             `json:"match"`
	PerFilterConfig         map[string]interface{} `json:"per_filter_config,omitempty"`
	RequestHeadersToAdd     []HeaderValueOption    `json:"request_headers_to_add,omitempty"`
	ResponseHeadersToAdd    []HeaderValueOption    `json:"response_headers_to_add,omitempty"`
	RequestHeadersToRemove  []string               `json:"request_headers_to_remove,omitempty"`
	ResponseHeadersToRemove []string               `json:"response_headers_to_remove,omitempty"`
	Redirect                *RedirectAction        `json:"redirect,omitempty"`
	Action                  *RouteAction           `json:"route,omitempty"`
}

func (r *Route) CacheKey() string { return r.cacheKey }

// Precedence returns the precedence of the group this route was
// compiled from.
func (r *Route) Precedence() int { return r.precedence }

// RouteMatch is the request matching predicate of a route.
type RouteMatch struct {
	CaseSensitive   bool                    `json:"case_sensitive"`
	RuntimeFraction RuntimeFraction         `json:"runtime_fraction"`
	Prefix          string                  `json:"prefix,omitempty"`
	Path            string                  `json:"path,omitempty"`
	SafeRegex       *SafeRegex              `json:"safe_regex,omitempty"`
	Regex           string                  `json:"regex,omitempty"`
	Headers         []HeaderMatcher         `json:"headers,omitempty"`
	QueryParameters []QueryParameterMatcher `json:"query_parameters,omitempty"`
}

// RuntimeFraction drives weighted traffic shifting. The runtime key
// allows shifting the weight at runtime without recompiling.
type RuntimeFraction struct {
	DefaultValue FractionalPercent `json:"default_value"`
	RuntimeKey   string            `json:"runtime_key,omitempty"`
}

type FractionalPercent struct {
	Numerator   int    `json:"numerator"`
	Denominator string `json:"denominator"`
}

// HeaderMatcher matches one request header, either literally or by
// regex per the regex safety policy.
type HeaderMatcher struct {
	Name           string     `json:"name"`
	ExactMatch     *string    `json:"exact_match,omitempty"`
	SafeRegexMatch *SafeRegex `json:"safe_regex_match,omitempty"`
	RegexMatch     string     `json:"regex_match,omitempty"`
}

// QueryParameterMatcher matches one query parameter by value or by
// mere presence.
type QueryParameterMatcher struct {
	Name         string       `json:"name"`
	StringMatch  *StringMatch `json:"string_match,omitempty"`
	PresentMatch bool         `json:"present_match,omitempty"`
}

type StringMatch struct {
	Exact     *string    `json:"exact,omitempty"`
	SafeRegex *SafeRegex `json:"safe_regex,omitempty"`
	Regex     string     `json:"regex,omitempty"`
}

// HeaderValueOption adds one header to requests or responses.
type HeaderValueOption struct {
	Header HeaderValue `json:"header"`
	Append bool        `json:"append"`
}

type HeaderValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// RedirectAction redirects the request to another host instead of
// forwarding it.
type RedirectAction struct {
	HostRedirect string `json:"host_redirect"`
	PathRedirect string `json:"path_redirect,omitempty"`
}

// RouteAction is the forwarding action of a route.
type RouteAction struct {
	Priority            *string              `json:"priority"`
	Timeout             string               `json:"timeout"`
	Cluster             string               `json:"cluster"`
	IdleTimeout         string               `json:"idle_timeout,omitempty"`
	RegexRewrite        *RegexRewrite        `json:"regex_rewrite,omitempty"`
	PrefixRewrite       string               `json:"prefix_rewrite,omitempty"`
	HostRewrite         string               `json:"host_rewrite,omitempty"`
	AutoHostRewrite     *bool                `json:"auto_host_rewrite,omitempty"`
	HashPolicy          []HashPolicy         `json:"hash_policy,omitempty"`
	CORS                *ir.CORSPolicy       `json:"cors,omitempty"`
	RetryPolicy         *ir.RetryPolicy      `json:"retry_policy,omitempty"`
	RequestMirrorPolicy *RequestMirrorPolicy `json:"request_mirror_policy,omitempty"`
	RateLimits          []RateLimitAction    `json:"rate_limits,omitempty"`
	UpgradeConfigs      []UpgradeConfig      `json:"upgrade_configs,omitempty"`
}

// RegexRewrite rewrites the matched path by regex substitution. The
// pattern is always complexity-bounded.
type RegexRewrite struct {
	Pattern      *SafeRegex `json:"pattern,omitempty"`
	Substitution string     `json:"substitution,omitempty"`
}

// HashPolicy configures session affinity for hash-based load
// balancing. Exactly one of its fields is set.
type HashPolicy struct {
	Cookie               *CookieHashPolicy     `json:"cookie,omitempty"`
	Header               *HeaderHashPolicy     `json:"header,omitempty"`
	ConnectionProperties *ConnectionProperties `json:"connection_properties,omitempty"`
}

type CookieHashPolicy struct {
	Name string `json:"name"`
	Path string `json:"path,omitempty"`
	TTL  string `json:"ttl,omitempty"`
}

type HeaderHashPolicy struct {
	HeaderName string `json:"header_name"`
}

type ConnectionProperties struct {
	SourceIP bool `json:"source_ip"`
}

// RequestMirrorPolicy mirrors a fraction of the traffic to a shadow
// cluster.
type RequestMirrorPolicy struct {
	Cluster         string          `json:"cluster"`
	RuntimeFraction RuntimeFraction `json:"runtime_fraction"`
}

type UpgradeConfig struct {
	UpgradeType string `json:"upgrade_type"`
}

// extAuthzPerRoute disables the external authorization filter on a
// route.
type extAuthzPerRoute struct {
	Disabled bool `json:"disabled"`
}

// NewRoute compiles one (group, mapping) pair. The output is fully
// determined by the group and mapping content and the module
// settings.
func NewRoute(cfg *Config, group *ir.HTTPMappingGroup, mapping *ir.Mapping) *Route {
	r := &Route{
		sni:        group.SNI,
		precedence: group.Precedence,
	}

	r.Match = buildMatch(cfg, group, mapping)

	// per_filter_config customizes individual Envoy filters for
	// this route only.
	perFilterConfig := map[string]interface{}{}

	if mapping.BypassAuth {
		perFilterConfig["envoy.ext_authz"] = extAuthzPerRoute{Disabled: true}
	}

	if len(perFilterConfig) > 0 {
		r.PerFilterConfig = perFilterConfig
	}

	if len(group.AddRequestHeaders) > 0 {
		r.RequestHeadersToAdd = headersToAdd(group.AddRequestHeaders)
	}

	if len(group.AddResponseHeaders) > 0 {
		r.ResponseHeadersToAdd = headersToAdd(group.AddResponseHeaders)
	}

	if len(group.RemoveRequestHeaders) > 0 {
		r.RequestHeadersToRemove = group.RemoveRequestHeaders
	}

	if len(group.RemoveResponseHeaders) > 0 {
		r.ResponseHeadersToRemove = group.RemoveResponseHeaders
	}

	if group.HostRedirect != nil {
		// A host redirect short-circuits the route action
		// entirely.
		r.Redirect = &RedirectAction{
			HostRedirect: group.HostRedirect.Service,
			PathRedirect: group.HostRedirect.PathRedirect,
		}

		return r
	}

	r.Action = buildAction(cfg, group, mapping)

	return r
}

// buildMatch builds the request matching predicate of the route.
func buildMatch(cfg *Config, group *ir.HTTPMappingGroup, mapping *ir.Mapping) RouteMatch {
	routePrefix := group.Prefix
	if mapping.Prefix != "" {
		routePrefix = mapping.Prefix
	}

	caseSensitive := true
	switch {
	case mapping.CaseSensitive != nil:
		caseSensitive = *mapping.CaseSensitive
	case group.CaseSensitive != nil:
		caseSensitive = *group.CaseSensitive
	}

	weight := 100
	if mapping.Weight != nil {
		weight = *mapping.Weight
	}

	runtimeFraction := RuntimeFraction{
		DefaultValue: FractionalPercent{
			Numerator:   weight,
			Denominator: denominatorHundred,
		},
	}

	if !mapping.Empty() {
		runtimeFraction.RuntimeKey = "routing.traffic_shift." + mapping.Cluster.EnvoyName()
	}

	match := RouteMatch{
		CaseSensitive:   caseSensitive,
		RuntimeFraction: runtimeFraction,
	}

	switch group.PathMatchType() {
	case ir.PathPrefix:
		match.Prefix = routePrefix
	case ir.PathExact:
		match.Path = routePrefix
	default:
		if cfg.IR.EdgeStackAllowed && group.Precedence == edgeStackBoundedPrecedence {
			// Routes in the reserved precedence tier always
			// get the bounded engine, with the stock program
			// size bound.
			match.SafeRegex = &SafeRegex{
				GoogleRE2: GoogleRE2{MaxProgramSize: ir.DefaultRegexMaxSize},
				Regex:     routePrefix,
			}
		} else {
			rm := regexMatcher(&cfg.IR.Module, routePrefix, false)
			match.SafeRegex = rm.Safe
			match.Regex = rm.Raw
		}
	}

	if headers := buildHeaderMatchers(cfg, group); len(headers) > 0 {
		match.Headers = headers
	}

	if queryParameters := buildQueryParameterMatchers(cfg, group); len(queryParameters) > 0 {
		match.QueryParameters = queryParameters
	}

	return match
}

// buildAction builds the forwarding action of the route. The caller
// has already ruled out host redirects.
func buildAction(cfg *Config, group *ir.HTTPMappingGroup, mapping *ir.Mapping) *RouteAction {
	timeout := defaultRouteTimeout
	if mapping.Timeout != nil {
		timeout = *mapping.Timeout
	}

	action := &RouteAction{
		Timeout: formatSeconds(timeout),
		Cluster: mapping.Cluster.EnvoyName(),
	}

	if group.Priority != "" {
		priority := group.Priority
		action.Priority = &priority
	}

	if mapping.IdleTimeout != nil {
		action.IdleTimeout = formatSeconds(*mapping.IdleTimeout)
	}

	// A regex rewrite wins over a literal one.
	if rr := mapping.RegexRewrite; rr != nil {
		action.RegexRewrite = buildRegexRewrite(cfg, rr)
	} else if mapping.Rewrite != "" {
		action.PrefixRewrite = mapping.Rewrite
	}

	if mapping.HostRewrite != "" {
		action.HostRewrite = mapping.HostRewrite
	}

	if mapping.AutoHostRewrite != nil {
		autoHostRewrite := *mapping.AutoHostRewrite
		action.AutoHostRewrite = &autoHostRewrite
	}

	if hashPolicy := buildHashPolicy(group); hashPolicy != nil {
		action.HashPolicy = []HashPolicy{*hashPolicy}
	}

	cors := group.CORS
	if cors == nil {
		cors = cfg.IR.Module.CORS
	}

	if cors != nil {
		// Duplicate before stamping the group id, so per-route
		// state never aliases the shared module default.
		cors = cors.Dup()
		cors.SetID(group.ID)
		action.CORS = cors
	}

	retryPolicy := group.RetryPolicy
	if retryPolicy == nil {
		retryPolicy = cfg.IR.Module.RetryPolicy
	}

	if retryPolicy != nil {
		action.RetryPolicy = retryPolicy
	}

	if len(group.Shadows) > 0 {
		// The mirror policy supports a single target, take the
		// first shadow only.
		shadow := group.Shadows[0]

		weight := 100
		if shadow.Weight != nil {
			weight = *shadow.Weight
		}

		action.RequestMirrorPolicy = &RequestMirrorPolicy{
			Cluster: shadow.Cluster.EnvoyName(),
			RuntimeFraction: RuntimeFraction{
				DefaultValue: FractionalPercent{
					Numerator:   weight,
					Denominator: denominatorHundred,
				},
			},
		}
	}

	if rlsvc := cfg.IR.RateLimit; rlsvc != nil && cfg.RateLimits != nil && len(group.Labels) > 0 {
		// The rate limit filter supports one domain only, so use
		// the service's domain to pick the label set.
		var rateLimits []RateLimitAction

		for _, label := range group.Labels[rlsvc.Domain] {
			if rl, ok := cfg.RateLimits.Translate(label); ok {
				rateLimits = append(rateLimits, rl)
			}
		}

		if len(rateLimits) > 0 {
			action.RateLimits = rateLimits
		}
	}

	for _, proto := range group.AllowUpgrade {
		action.UpgradeConfigs = append(action.UpgradeConfigs, UpgradeConfig{UpgradeType: proto})
	}

	return action
}

func buildHeaderMatchers(cfg *Config, group *ir.HTTPMappingGroup) []HeaderMatcher {
	var headers []HeaderMatcher

	for _, spec := range group.Headers {
		header := HeaderMatcher{Name: spec.Name}

		if spec.Regex {
			rm := regexMatcher(&cfg.IR.Module, spec.Value, false)
			header.SafeRegexMatch = rm.Safe
			header.RegexMatch = rm.Raw
		} else {
			value := spec.Value
			header.ExactMatch = &value
		}

		headers = append(headers, header)
	}

	return headers
}

func buildQueryParameterMatchers(cfg *Config, group *ir.HTTPMappingGroup) []QueryParameterMatcher {
	var queryParameters []QueryParameterMatcher

	for _, spec := range group.QueryParameters {
		queryParameter := QueryParameterMatcher{Name: spec.Name}

		switch {
		case spec.Regex:
			rm := regexMatcher(&cfg.IR.Module, *spec.Value, false)
			queryParameter.StringMatch = &StringMatch{
				SafeRegex: rm.Safe,
				Regex:     rm.Raw,
			}
		case spec.Value != nil:
			value := *spec.Value
			queryParameter.StringMatch = &StringMatch{Exact: &value}
		default:
			// No value at all: match on mere presence.
			queryParameter.PresentMatch = true
		}

		queryParameters = append(queryParameters, queryParameter)
	}

	return queryParameters
}

// buildHashPolicy returns the session affinity policy of the group,
// or nil. Hash policies are only meaningful for hash-based load
// balancing; under any other policy the affinity settings are ignored
// and no hash policy is emitted. The proxy's own validation is the
// final authority on such combinations.
func buildHashPolicy(group *ir.HTTPMappingGroup) *HashPolicy {
	lb := group.LoadBalancer
	if lb == nil || !lb.HashBased() {
		return nil
	}

	// First configured source wins: cookie, then header, then
	// source ip.
	switch {
	case lb.Cookie != nil:
		cookie := &CookieHashPolicy{
			Name: lb.Cookie.Name,
			Path: lb.Cookie.Path,
			TTL:  lb.Cookie.TTL,
		}
		return &HashPolicy{Cookie: cookie}
	case lb.Header != "":
		return &HashPolicy{Header: &HeaderHashPolicy{HeaderName: lb.Header}}
	case lb.SourceIP:
		return &HashPolicy{ConnectionProperties: &ConnectionProperties{SourceIP: true}}
	}

	return nil
}

// headersToAdd expands the declared header-add list. Append defaults
// to true for both the structured and the bare literal form, the
// latter for backward compatibility.
func headersToAdd(spec ir.AddHeaderList) []HeaderValueOption {
	headers := make([]HeaderValueOption, 0, len(spec))

	for _, h := range spec {
		appnd := true
		if h.Append != nil {
			appnd = *h.Append
		}

		headers = append(headers, HeaderValueOption{
			Header: HeaderValue{Key: h.Key, Value: h.Value},
			Append: appnd,
		})
	}

	return headers
}

// buildRegexRewrite forces the rewrite pattern through the bounded
// matcher; rewrite patterns never run unbounded, whatever the module
// configures.
func buildRegexRewrite(cfg *Config, spec *ir.RegexRewriteSpec) *RegexRewrite {
	rewrite := &RegexRewrite{Substitution: spec.Substitution}

	if spec.Pattern != "" {
		rm := regexMatcher(&cfg.IR.Module, spec.Pattern, true)
		rewrite.Pattern = rm.Safe
	}

	return rewrite
}

// formatSeconds renders a duration as seconds with millisecond
// precision, e.g. "3.000s".
func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%0.3fs", d.Seconds())
}
