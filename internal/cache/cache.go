// Package cache provides in-memory TTL caching for the retrieval pipeline.
//
// Two independent tiers share the same store: an embedding cache keyed by
// normalized query text, and a result cache keyed by normalized query text
// plus the canonicalized filter set. Expired entries behave as misses and
// are evicted lazily on lookup; nothing sweeps proactively.
//
// Concurrent misses on the same key may both recompute; last write wins.
// Results are idempotent for a given key at a point in time, so in-flight
// deduplication is deliberately not attempted.
package cache

import (
	"sync"
	"time"
)

// Entry is a stored value with its creation time.
type Entry struct {
	Value     any
	CreatedAt time.Time
	ExpiresAt time.Time

	lastAccessed time.Time
}

// Store is a thread-safe in-memory cache with TTL and LRU eviction.
type Store struct {
	mu         sync.RWMutex
	entries    map[string]*Entry
	ttl        time.Duration
	maxEntries int
	metrics    *Metrics

	// now is replaceable in tests to exercise expiry without sleeping.
	now func() time.Time
}

// NewStore creates a store with the given TTL and entry cap.
func NewStore(ttl time.Duration, maxEntries int) *Store {
	return &Store{
		entries:    make(map[string]*Entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// SetMetrics attaches optional metrics tracking.
func (s *Store) SetMetrics(m *Metrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = m
}

// SetClock replaces the time source. For tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Set stores a value under key, replacing any existing entry.
// At capacity the least recently used entry is evicted first.
func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if len(s.entries) >= s.maxEntries {
		if _, exists := s.entries[key]; !exists {
			s.evictLRU()
		}
	}

	s.entries[key] = &Entry{
		Value:        value,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.ttl),
		lastAccessed: now,
	}

	if s.metrics != nil {
		s.metrics.SetSize(len(s.entries))
	}
}

// Get retrieves the value for key. An expired entry is removed and
// reported as a miss.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	entry, exists := s.entries[key]
	metrics := s.metrics
	s.mu.RUnlock()

	if !exists {
		if metrics != nil {
			metrics.RecordMiss()
		}
		return nil, false
	}

	if s.nowLocked().After(entry.ExpiresAt) || s.nowLocked().Equal(entry.ExpiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		if s.metrics != nil {
			s.metrics.SetSize(len(s.entries))
		}
		s.mu.Unlock()

		if metrics != nil {
			metrics.RecordMiss()
		}
		return nil, false
	}

	s.mu.Lock()
	entry.lastAccessed = s.now()
	s.mu.Unlock()

	if metrics != nil {
		metrics.RecordHit()
	}
	return entry.Value, true
}

// Delete removes an entry. No-op for absent keys.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	if s.metrics != nil {
		s.metrics.SetSize(len(s.entries))
	}
}

// Clear removes all entries.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*Entry)
	if s.metrics != nil {
		s.metrics.SetSize(0)
	}
}

// Len returns the number of stored entries, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) nowLocked() time.Time {
	s.mu.RLock()
	now := s.now
	s.mu.RUnlock()
	return now()
}

// evictLRU removes the least recently used entry. Caller holds the write lock.
func (s *Store) evictLRU() {
	var oldestKey string
	var oldestTime time.Time

	first := true
	for key, entry := range s.entries {
		if first || entry.lastAccessed.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.lastAccessed
			first = false
		}
	}

	if oldestKey != "" {
		delete(s.entries, oldestKey)
	}
}
