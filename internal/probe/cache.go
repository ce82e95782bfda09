package probe

import (
	"sync"
	"time"

	"github.com/siftarr/siftarr/internal/models"
)

// Cache defaults. Entries past the TTL are dropped lazily on access;
// the entry cap evicts oldest-by-creation first.
const (
	DefaultCacheTTL        = 5 * time.Minute
	DefaultCacheMaxEntries = 10
)

type cacheEntry struct {
	results   models.RankedResultSet
	createdAt time.Time
}

// ResultCache keeps recent race results keyed by title so repeat
// requests within the TTL skip the race entirely. Safe for concurrent
// use.
type ResultCache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// NewResultCache creates a cache with the given TTL and entry cap.
// Non-positive arguments fall back to the defaults.
func NewResultCache(ttl time.Duration, maxEntries int) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultCacheMaxEntries
	}
	return &ResultCache{
		entries:    make(map[string]cacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns the cached results for a title, or false when absent or
// expired. Expired entries are removed on the way out.
func (c *ResultCache) Get(title string) (models.RankedResultSet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[title]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.createdAt) >= c.ttl {
		delete(c.entries, title)
		return nil, false
	}
	return entry.results, true
}

// Set stores results for a title, evicting the oldest entry when the
// cap would be exceeded.
func (c *ResultCache) Set(title string, results models.RankedResultSet) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	// Drop expired entries first so they do not count against the cap.
	for key, entry := range c.entries {
		if now.Sub(entry.createdAt) >= c.ttl {
			delete(c.entries, key)
		}
	}

	if _, exists := c.entries[title]; !exists && len(c.entries) >= c.maxEntries {
		var oldestKey string
		var oldestAt time.Time
		for key, entry := range c.entries {
			if oldestKey == "" || entry.createdAt.Before(oldestAt) {
				oldestKey = key
				oldestAt = entry.createdAt
			}
		}
		delete(c.entries, oldestKey)
	}

	c.entries[title] = cacheEntry{results: results, createdAt: now}
}

// Invalidate removes the entry for a title if present.
func (c *ResultCache) Invalidate(title string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, title)
}

// Len reports the number of entries currently held, including any not
// yet lazily expired.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
