// Package cache provides a generic, thread-safe LRU cache with
// hit-rate metrics. It backs the compiled-expression cache of the
// FHIRPath adapter and any other bounded lookup table the engine needs.
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// Cache is a thread-safe LRU cache. When full, the least recently used
// entry is evicted.
type Cache[K comparable, V any] struct {
	mu       sync.RWMutex
	items    map[K]*entry[K, V]
	order    *list.List
	capacity int

	hits   atomic.Uint64
	misses atomic.Uint64
	evicts atomic.Uint64
}

type entry[K comparable, V any] struct {
	key     K
	value   V
	element *list.Element
}

// New creates a cache holding at most capacity entries.
// Non-positive capacities default to 100.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	if capacity <= 0 {
		capacity = 100
	}
	return &Cache[K, V]{
		items:    make(map[K]*entry[K, V], capacity),
		order:    list.New(),
		capacity: capacity,
	}
}

// Get retrieves a value and refreshes its recency.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}

	c.hits.Add(1)
	c.mu.Lock()
	c.order.MoveToFront(e.element)
	c.mu.Unlock()
	return e.value, true
}

// Set stores a value, evicting the oldest entry when full.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[key]; ok {
		e.value = value
		c.order.MoveToFront(e.element)
		return
	}

	if len(c.items) >= c.capacity {
		c.evictOldest()
	}

	e := &entry[K, V]{key: key, value: value}
	e.element = c.order.PushFront(e)
	c.items[key] = e
}

// evictOldest removes the LRU entry. Caller holds the write lock.
func (c *Cache[K, V]) evictOldest() {
	back := c.order.Back()
	if back == nil {
		return
	}
	e := back.Value.(*entry[K, V])
	c.order.Remove(back)
	delete(c.items, e.key)
	c.evicts.Add(1)
}

// Delete removes a key from the cache.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.items[key]; ok {
		c.order.Remove(e.element)
		delete(c.items, key)
	}
}

// Len returns the number of cached entries.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Clear removes all entries and resets the metrics.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	c.items = make(map[K]*entry[K, V], c.capacity)
	c.order.Init()
	c.mu.Unlock()

	c.hits.Store(0)
	c.misses.Store(0)
	c.evicts.Store(0)
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits     uint64
	Misses   uint64
	Evicts   uint64
	Len      int
	Capacity int
}

// HitRate returns hits / (hits + misses), or 0 when untouched.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Stats returns a snapshot of the cache metrics.
func (c *Cache[K, V]) Stats() Stats {
	return Stats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Evicts:   c.evicts.Load(),
		Len:      c.Len(),
		Capacity: c.capacity,
	}
}
