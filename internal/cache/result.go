package cache

import "time"

// ResultCache memoizes full ranked result sets for a (query, filters)
// pair. Independent from the embedding cache: clearing one never touches
// the other.
type ResultCache[T any] struct {
	store *Store
}

// NewResultCache creates a result cache with the given TTL and entry cap.
func NewResultCache[T any](ttl time.Duration, maxEntries int) *ResultCache[T] {
	return &ResultCache[T]{store: NewStore(ttl, maxEntries)}
}

// SetMetrics attaches optional metrics tracking to the backing store.
func (c *ResultCache[T]) SetMetrics(m *Metrics) { c.store.SetMetrics(m) }

// SetClock replaces the backing store's time source. For tests.
func (c *ResultCache[T]) SetClock(now func() time.Time) { c.store.SetClock(now) }

// Get returns the cached results for the query and filter set.
func (c *ResultCache[T]) Get(query, sourceWork string, documentIDs []string) ([]T, bool) {
	key := ResultKey(query, sourceWork, documentIDs)
	v, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	results, ok := v.([]T)
	if !ok {
		// Corrupt entry: treat as a miss and drop it.
		c.store.Delete(key)
		return nil, false
	}
	return results, true
}

// Set caches the results for the query and filter set.
func (c *ResultCache[T]) Set(query, sourceWork string, documentIDs []string, results []T) {
	c.store.Set(ResultKey(query, sourceWork, documentIDs), results)
}

// Clear drops all entries.
func (c *ResultCache[T]) Clear() { c.store.Clear() }

// Len returns the number of entries.
func (c *ResultCache[T]) Len() int { return c.store.Len() }
