package media

import (
	"sort"
	"sync"
	"time"
)

// cacheEntry is one cached string value with its expiry and insertion time.
// Entries are replaced wholesale on refresh, never mutated in place.
type cacheEntry struct {
	value     string
	expiresAt time.Time
	cachedAt  time.Time
}

// boundedCache is a concurrency-safe string cache with a maximum entry
// count. Reads take a shared lock; inserts take the exclusive lock and run
// eviction inline whenever the bound is exceeded, so capacity is never
// violated for long. Overwrites are last-writer-wins: values are
// recomputable, so a lost race only wastes work.
type boundedCache struct {
	mu         sync.RWMutex
	entries    map[string]cacheEntry
	maxEntries int
}

func newBoundedCache(maxEntries int) *boundedCache {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	return &boundedCache{
		entries:    make(map[string]cacheEntry),
		maxEntries: maxEntries,
	}
}

// get returns the entry for key, if present. Expiry interpretation is the
// caller's: the signed-URL cache applies a refresh window, the preview-path
// cache a plain TTL.
func (c *boundedCache) get(key string) (cacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

// put stores value under key and evicts if the bound is now exceeded.
func (c *boundedCache) put(key, value string, now, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, expiresAt: expiresAt, cachedAt: now}
	if len(c.entries) > c.maxEntries {
		c.evictLocked(now)
	}
}

func (c *boundedCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// evictLocked drops every entry already past its expiry, then, if the cache
// is still over capacity, the oldest-cachedAt entries until at capacity.
// Callers must hold the exclusive lock.
func (c *boundedCache) evictLocked(now time.Time) {
	for key, e := range c.entries {
		if !e.expiresAt.After(now) {
			delete(c.entries, key)
		}
	}

	overflow := len(c.entries) - c.maxEntries
	if overflow <= 0 {
		return
	}

	type aged struct {
		key      string
		cachedAt time.Time
	}
	byAge := make([]aged, 0, len(c.entries))
	for key, e := range c.entries {
		byAge = append(byAge, aged{key: key, cachedAt: e.cachedAt})
	}
	sort.Slice(byAge, func(i, j int) bool { return byAge[i].cachedAt.Before(byAge[j].cachedAt) })
	for i := 0; i < overflow; i++ {
		delete(c.entries, byAge[i].key)
	}
}
