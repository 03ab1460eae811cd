package envoy

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/LukeShu/ambassador/cache"
	"github.com/LukeShu/ambassador/ir"
)

// Config carries the collaborators of one compilation pass: the
// routing model, the cache generation the pass owns exclusively, and
// the optional rate limit action translator. Passing them in
// explicitly keeps the compiler free of ambient state.
type Config struct {
	IR         *ir.IR
	Cache      *cache.Cache
	RateLimits RateLimitTranslator
}

// GenerateRoutes compiles every routable group of the model into an
// ordered route list. The output order follows the model's group
// order and, within a group, the mapping order; it governs the
// proxy's first-match-wins evaluation and is stable across runs for
// stable input.
func (cfg *Config) GenerateRoutes() ([]*Route, error) {
	var routes []*Route

	for _, g := range cfg.IR.Groups {
		group, ok := g.(*ir.HTTPMappingGroup)
		if !ok {
			// Only HTTP mapping groups produce routes.
			continue
		}

		if group.HostRedirect != nil && len(group.Mappings) == 0 {
			// A host-redirect-only group is weird, but can
			// happen. Compile it once with a synthetic empty
			// mapping.
			key := fmt.Sprintf("Route-%s-hostredirect", group.ID)

			route, err := getRoute(cfg, key, group, &ir.Mapping{})
			if err != nil {
				return nil, err
			}

			routes = append(routes, route)
		}

		for _, mapping := range group.Mappings {
			key := fmt.Sprintf("Route-%s-%s", group.ID, mapping.CacheKey())

			route, err := getRoute(cfg, key, group, mapping)
			if err != nil {
				return nil, err
			}

			routes = append(routes, route)
		}
	}

	return routes, nil
}

// getRoute returns the cached route for cacheKey, compiling and
// caching it on a miss. Hits return the stored object itself, so
// identical intent shares a single artifact within a generation.
func getRoute(cfg *Config, cacheKey string, group *ir.HTTPMappingGroup, mapping *ir.Mapping) (*Route, error) {
	if cached, ok := cfg.Cache.Get(cacheKey); ok {
		route, ok := cached.(*Route)
		if !ok {
			// The store is shared with other artifact kinds; a
			// different kind under a route key means the pass
			// would miscompile. Abort instead.
			return nil, fmt.Errorf("cache entry %s: expected route, got %T", cacheKey, cached)
		}

		log.Debugf("route cache hit for %s", cacheKey)
		return route, nil
	}

	log.Debugf("route cache miss for %s, synthesizing route", cacheKey)

	route := NewRoute(cfg, group, mapping)

	// Force the composite key before the route becomes visible;
	// external tooling relies on its exact textual form.
	route.cacheKey = cacheKey

	cfg.Cache.Add(route)
	cfg.Cache.Link(group, route)

	return route, nil
}
