package cache

import (
	"strings"
	"sync"
	"time"
)

// EmbeddingCache memoizes query-text to embedding lookups.
//
// Besides the TTL store it keeps a small set of warm patterns: common
// query terms whose first computed embedding is retained without expiry
// and survives Clear. A query containing a warm pattern falls back to the
// pattern's embedding when its exact key misses, which keeps the most
// frequent topics cheap even across cache churn.
type EmbeddingCache struct {
	store *Store

	mu       sync.RWMutex
	patterns map[string][]float32 // pattern -> embedding, nil until first seen
}

// NewEmbeddingCache creates an embedding cache with the given TTL, entry
// cap, and warm pattern list.
func NewEmbeddingCache(ttl time.Duration, maxEntries int, warmPatterns []string) *EmbeddingCache {
	patterns := make(map[string][]float32, len(warmPatterns))
	for _, p := range warmPatterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			patterns[p] = nil
		}
	}
	return &EmbeddingCache{
		store:    NewStore(ttl, maxEntries),
		patterns: patterns,
	}
}

// SetMetrics attaches optional metrics tracking to the backing store.
func (c *EmbeddingCache) SetMetrics(m *Metrics) { c.store.SetMetrics(m) }

// SetClock replaces the backing store's time source. For tests.
func (c *EmbeddingCache) SetClock(now func() time.Time) { c.store.SetClock(now) }

// Get returns the cached embedding for query, trying the exact key first
// and then any matching warm pattern.
func (c *EmbeddingCache) Get(query string) ([]float32, bool) {
	if v, ok := c.store.Get(QueryKey(query)); ok {
		if vec, ok := v.([]float32); ok {
			return vec, true
		}
		// Corrupt entry: treat as a miss and drop it.
		c.store.Delete(QueryKey(query))
	}

	if pattern := c.matchPattern(query); pattern != "" {
		c.mu.RLock()
		vec := c.patterns[pattern]
		c.mu.RUnlock()
		if vec != nil {
			return vec, true
		}
	}

	return nil, false
}

// Set caches the embedding for query, and pins it for the first matching
// warm pattern not yet populated.
func (c *EmbeddingCache) Set(query string, embedding []float32) {
	c.store.Set(QueryKey(query), embedding)

	if pattern := c.matchPattern(query); pattern != "" {
		c.mu.Lock()
		if c.patterns[pattern] == nil {
			c.patterns[pattern] = embedding
		}
		c.mu.Unlock()
	}
}

// Clear drops all exact entries. Warm pattern embeddings are kept.
func (c *EmbeddingCache) Clear() {
	c.store.Clear()
}

// Len returns the number of exact entries.
func (c *EmbeddingCache) Len() int { return c.store.Len() }

func (c *EmbeddingCache) matchPattern(query string) string {
	q := NormalizeQuery(query)
	c.mu.RLock()
	defer c.mu.RUnlock()
	for pattern := range c.patterns {
		if strings.Contains(q, pattern) {
			return pattern
		}
	}
	return ""
}
