package analyze

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"reelforge/internal/types"
)

// Key derives the cache key for one enrichment request: a hash of the script,
// the platform and the sorted connected-provider set. The budget is not part
// of the key — enrichment re-prices against the caller's ledger either way.
func Key(script string, platform types.Platform, connected []string) string {
	sorted := make([]string, len(connected))
	copy(sorted, connected)
	sort.Strings(sorted)

	h := sha256.New()
	h.Write([]byte(script))
	h.Write([]byte{0})
	h.Write([]byte(platform))
	for _, p := range sorted {
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

type cacheEntry struct {
	analysis types.ScriptAnalysis
	created  time.Time
}

// Cache is a small TTL + capacity bounded store for enrichment results.
// It is purely a latency/cost optimization: a miss never changes correctness.
// Construct one per engine and inject it; there is no package-level instance.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	cap     int
	now     func() time.Time
	entries map[string]cacheEntry
}

// NewCache returns a cache with the given TTL and entry cap.
func NewCache(ttl time.Duration, capacity int) *Cache {
	return newCache(ttl, capacity, time.Now)
}

// newCache lets tests inject a clock.
func newCache(ttl time.Duration, capacity int, now func() time.Time) *Cache {
	return &Cache{
		ttl:     ttl,
		cap:     capacity,
		now:     now,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns a copy of the cached analysis, or false on miss/expiry.
func (c *Cache) Get(key string) (*types.ScriptAnalysis, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.created) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	a := cloneAnalysis(e.analysis)
	return &a, true
}

// Put stores a copy of the analysis, evicting the oldest entry once over cap.
func (c *Cache) Put(key string, a *types.ScriptAnalysis) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists {
		for len(c.entries) >= c.cap {
			c.evictOldestLocked()
		}
	}
	c.entries[key] = cacheEntry{analysis: cloneAnalysis(*a), created: c.now()}
}

// Len reports the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	first := true
	for k, e := range c.entries {
		// Tie-break on key so eviction order is deterministic.
		if first || e.created.Before(oldest) || (e.created.Equal(oldest) && k < oldestKey) {
			oldestKey, oldest = k, e.created
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
	}
}

// cloneAnalysis deep-copies the slices so cached values stay immutable even if
// a caller mutates the returned analysis.
func cloneAnalysis(a types.ScriptAnalysis) types.ScriptAnalysis {
	out := a
	out.Scenes = append([]types.Scene(nil), a.Scenes...)
	out.Warnings = append([]string(nil), a.Warnings...)
	out.SuggestedRewrites = append([]types.Rewrite(nil), a.SuggestedRewrites...)
	return out
}
