package envoy

import "strings"

// HostglobMatches reports whether a hostglob matches a hostname. "*"
// matches everything, a trailing "*" makes a prefix match, a leading
// "*" a suffix match, anything else matches exactly.
func HostglobMatches(glob, value string) bool {
	switch {
	case glob == "*":
		return true
	case strings.HasSuffix(glob, "*"):
		return strings.HasPrefix(value, glob[:len(glob)-1])
	case strings.HasPrefix(glob, "*"):
		return strings.HasSuffix(value, glob[1:])
	default:
		return value == glob
	}
}

// HostConstraints returns a set of hostglobs matching a superset of
// all hostnames this route can apply to. An empty set means the route
// cannot apply to any hostname.
//
// The result considers the SNI scope and header matchers that
// exact-match the :authority header. Other constraints that could
// narrow the set further (like regex matches on :authority) are not
// considered, so the set may be too broad. That is fine for
// correctness, the proxy just carries some unreachable routes.
func (r *Route) HostConstraints(pruneUnreachableRoutes bool) map[string]bool {
	ret := map[string]bool{"*": true}
	if r.sni != nil {
		ret = make(map[string]bool, len(r.sni.Hosts))
		for _, host := range r.sni.Hosts {
			ret[host] = true
		}
	}

	if pruneUnreachableRoutes {
		for _, header := range r.Match.Headers {
			if header.Name != ":authority" || header.ExactMatch == nil {
				continue
			}

			// The authority header is singular, only the
			// first qualifying matcher counts.
			for glob := range ret {
				if HostglobMatches(glob, *header.ExactMatch) {
					return map[string]bool{*header.ExactMatch: true}
				}
			}

			return map[string]bool{}
		}
	}

	return ret
}
