// Package cache implements a content-addressed store for compiled
// configuration artifacts, with dependency links between source
// resources and the artifacts derived from them.
//
// One Cache instance is one cache generation. A single compilation
// pass owns its generation exclusively; the driver that manages
// snapshot lifecycles discards the whole generation when a pass
// fails. Entries are immutable once added.
package cache

import (
	log "github.com/sirupsen/logrus"
)

// Cacheable is anything addressable by a stable key.
type Cacheable interface {
	CacheKey() string
}

// Cache stores artifacts by key and records which source produced
// which artifacts.
type Cache struct {
	entries map[string]Cacheable

	// links maps a source key to the keys of the artifacts derived
	// from it.
	links map[string]map[string]bool
}

func New() *Cache {
	return &Cache{
		entries: make(map[string]Cacheable),
		links:   make(map[string]map[string]bool),
	}
}

// Get returns the entry stored under key, if any.
func (c *Cache) Get(key string) (Cacheable, bool) {
	e, ok := c.entries[key]
	return e, ok
}

// Add stores an entry under its own key. Re-adding a key overwrites,
// callers are expected to check Get first.
func (c *Cache) Add(entry Cacheable) {
	key := entry.CacheKey()
	log.Debugf("cache add %s", key)
	c.entries[key] = entry
}

// Link records that artifact was derived from source, so that
// invalidating the source also invalidates the artifact. Neither side
// needs to be present in the store.
func (c *Cache) Link(source, artifact Cacheable) {
	from := source.CacheKey()
	to := artifact.CacheKey()

	deps := c.links[from]
	if deps == nil {
		deps = make(map[string]bool)
		c.links[from] = deps
	}
	deps[to] = true
}

// Invalidate removes the entries stored under the given keys and,
// transitively over recorded links, everything derived from them.
func (c *Cache) Invalidate(keys ...string) {
	worklist := append([]string(nil), keys...)

	for len(worklist) > 0 {
		key := worklist[0]
		worklist = worklist[1:]

		if _, ok := c.entries[key]; ok {
			log.Debugf("cache invalidate %s", key)
			delete(c.entries, key)
		}

		for dep := range c.links[key] {
			worklist = append(worklist, dep)
		}
		delete(c.links, key)
	}
}

// Len returns the number of stored entries.
func (c *Cache) Len() int { return len(c.entries) }
