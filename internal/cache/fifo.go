// Package cache provides the bounded, insertion-ordered cache used for
// memoized token values, generated stylesheets and breakpoint matches.
package cache

import (
	"sync"
	"sync/atomic"
)

// DefaultLimit is the entry bound used when a non-positive limit is given.
const DefaultLimit = 20

// FIFO is a size-bounded cache that evicts the oldest inserted key when full.
// Reads do not refresh an entry's position. Values are pure functions of
// their keys, so size pressure is the only reason an entry leaves.
type FIFO[K comparable, V any] struct {
	mu      sync.Mutex
	limit   int
	entries map[K]V
	order   []K

	hits      int64
	misses    int64
	evictions int64
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Entries   int     `json:"entries"`
	Limit     int     `json:"limit"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	HitRate   float64 `json:"hit_rate"`
}

// NewFIFO creates a cache holding at most limit entries.
func NewFIFO[K comparable, V any](limit int) *FIFO[K, V] {
	if limit <= 0 {
		limit = DefaultLimit
	}

	return &FIFO[K, V]{
		limit:   limit,
		entries: make(map[K]V, limit),
		order:   make([]K, 0, limit),
	}
}

// Get returns the cached value for key.
func (c *FIFO[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	v, ok := c.entries[key]
	c.mu.Unlock()

	if ok {
		atomic.AddInt64(&c.hits, 1)
	} else {
		atomic.AddInt64(&c.misses, 1)
	}

	return v, ok
}

// Put stores value under key. Overwriting an existing key keeps its
// original insertion position. Keys that do not equal themselves, such as a
// NaN float, could never be found or evicted again and are not stored.
func (c *FIFO[K, V]) Put(key K, value V) {
	if !cacheable(key) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = value
		return
	}

	for len(c.order) >= c.limit {
		oldest := c.order[0]
		var zero K
		c.order[0] = zero
		c.order = c.order[1:]
		delete(c.entries, oldest)
		atomic.AddInt64(&c.evictions, 1)
	}

	c.entries[key] = value
	c.order = append(c.order, key)
}

// GetOrCompute returns the cached value for key, computing and storing it on
// a miss. compute runs outside the lock; concurrent misses may both compute,
// and the first stored value wins.
func (c *FIFO[K, V]) GetOrCompute(key K, compute func() V) V {
	if v, ok := c.Get(key); ok {
		return v
	}

	v := compute()
	if !cacheable(key) {
		return v
	}

	c.mu.Lock()
	if existing, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return existing
	}
	c.mu.Unlock()

	c.Put(key, v)

	return v
}

// cacheable reports whether key is usable as a map key that can later be
// looked up and deleted.
func cacheable[K comparable](key K) bool {
	// False for NaN and for structs or arrays holding a NaN.
	return key == key
}

// Keys returns keys oldest first.
func (c *FIFO[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, len(c.order))
	copy(keys, c.order)

	return keys
}

// Len returns the number of cached entries.
func (c *FIFO[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Limit returns the configured bound.
func (c *FIFO[K, V]) Limit() int {
	return c.limit
}

// Clear drops every entry. Counters are kept.
func (c *FIFO[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]V, c.limit)
	c.order = make([]K, 0, c.limit)
}

// Stats returns current counters.
func (c *FIFO[K, V]) Stats() Stats {
	hits := atomic.LoadInt64(&c.hits)
	misses := atomic.LoadInt64(&c.misses)

	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}

	return Stats{
		Entries:   c.Len(),
		Limit:     c.limit,
		Hits:      hits,
		Misses:    misses,
		Evictions: atomic.LoadInt64(&c.evictions),
		HitRate:   rate,
	}
}
