package unionfs

import (
	"sync"
	"time"
)

// resolution is what the stat cache stores: the concrete path and origin
// tag a prior findFile call resolved a logical path to.
type resolution struct {
	concrete ConcretePath
	origin   OriginTag
}

// Cache caches branch-resolution results so repeated lookups of the same
// logical path don't re-probe both branches, keyed on resolution rather than
// a bare layer index since the resolver returns an OriginTag rather than a
// slot in a layer stack.
type Cache struct {
	mu            sync.RWMutex
	resolveCache  map[string]*resolveCacheEntry
	negativeCache map[string]*negativeCacheEntry
	statTTL       time.Duration
	negativeTTL   time.Duration
	maxEntries    int
	enabled       bool
}

type resolveCacheEntry struct {
	resolution resolution
	expires    time.Time
}

type negativeCacheEntry struct {
	expires time.Time
}

func newCache(enabled bool, statTTL, negativeTTL time.Duration, maxEntries int) *Cache {
	if !enabled {
		return &Cache{enabled: false}
	}
	return &Cache{
		resolveCache:  make(map[string]*resolveCacheEntry),
		negativeCache: make(map[string]*negativeCacheEntry),
		statTTL:       statTTL,
		negativeTTL:   negativeTTL,
		maxEntries:    maxEntries,
		enabled:       true,
	}
}

func (c *Cache) getResolution(logical string) (resolution, bool) {
	if !c.enabled {
		return resolution{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.resolveCache[logical]
	if !ok || time.Now().After(entry.expires) {
		return resolution{}, false
	}
	return entry.resolution, true
}

func (c *Cache) putResolution(logical string, r resolution) {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.resolveCache) >= c.maxEntries {
		c.evictOldestResolution()
	}
	c.resolveCache[logical] = &resolveCacheEntry{resolution: r, expires: time.Now().Add(c.statTTL)}
}

func (c *Cache) isNegative(logical string) bool {
	if !c.enabled {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.negativeCache[logical]
	if !ok {
		return false
	}
	return !time.Now().After(entry.expires)
}

func (c *Cache) putNegative(logical string) {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.negativeCache) >= c.maxEntries {
		c.evictOldestNegative()
	}
	c.negativeCache[logical] = &negativeCacheEntry{expires: time.Now().Add(c.negativeTTL)}
}

func (c *Cache) invalidate(logical string) {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.resolveCache, logical)
	delete(c.negativeCache, logical)
}

func (c *Cache) invalidateTree(prefix string) {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for p := range c.resolveCache {
		if hasPathPrefix(p, prefix) {
			delete(c.resolveCache, p)
		}
	}
	for p := range c.negativeCache {
		if hasPathPrefix(p, prefix) {
			delete(c.negativeCache, p)
		}
	}
}

func hasPathPrefix(p, prefix string) bool {
	if prefix == "/" {
		return true
	}
	return p == prefix || (len(p) > len(prefix) && p[:len(prefix)] == prefix && p[len(prefix)] == '/')
}

func (c *Cache) clear() {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolveCache = make(map[string]*resolveCacheEntry)
	c.negativeCache = make(map[string]*negativeCacheEntry)
}

func (c *Cache) evictOldestResolution() {
	var oldestKey string
	var oldestTime time.Time
	for k, entry := range c.resolveCache {
		if oldestKey == "" || entry.expires.Before(oldestTime) {
			oldestKey, oldestTime = k, entry.expires
		}
	}
	if oldestKey != "" {
		delete(c.resolveCache, oldestKey)
	}
}

func (c *Cache) evictOldestNegative() {
	var oldestKey string
	var oldestTime time.Time
	for k, entry := range c.negativeCache {
		if oldestKey == "" || entry.expires.Before(oldestTime) {
			oldestKey, oldestTime = k, entry.expires
		}
	}
	if oldestKey != "" {
		delete(c.negativeCache, oldestKey)
	}
}

// Stats returns a snapshot of cache occupancy and configuration.
func (c *Cache) Stats() CacheStats {
	if !c.enabled {
		return CacheStats{Enabled: false}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStats{
		Enabled:           true,
		ResolveCacheSize:  len(c.resolveCache),
		NegativeCacheSize: len(c.negativeCache),
		MaxEntries:        c.maxEntries,
		StatTTL:           c.statTTL,
		NegativeTTL:       c.negativeTTL,
	}
}

// CacheStats is a point-in-time snapshot of cache occupancy.
type CacheStats struct {
	Enabled           bool
	ResolveCacheSize  int
	NegativeCacheSize int
	MaxEntries        int
	StatTTL           time.Duration
	NegativeTTL       time.Duration
}
