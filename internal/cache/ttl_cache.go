// Package cache persists conversion results. The durable layer is a
// SQLite store keyed by content hash; TTLCache sits in front of it as a
// short-lived in-memory hot layer so repeat conversions in one run
// never touch the database.
package cache

import (
	"sync"
	"time"
)

// TTLCache is a thread-safe map with whole-cache expiration: a single
// timestamp covers every entry, and once the TTL elapses all entries
// are stale at once. That coarse granularity is fine for a hot layer
// whose source of truth is the store underneath.
type TTLCache[K comparable, V any] struct {
	mu        sync.RWMutex
	data      map[K]V
	timestamp time.Time
	ttl       time.Duration
}

// New creates a new TTLCache with the given TTL duration.
// The cache starts empty and with a zero timestamp (expired).
func New[K comparable, V any](ttl time.Duration) *TTLCache[K, V] {
	return &TTLCache[K, V]{
		data: make(map[K]V),
		ttl:  ttl,
	}
}

// Get retrieves a value. ok is false when the key is absent or the
// cache as a whole has expired.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.IsExpiredLocked() {
		var zero V
		return zero, false
	}

	value, ok := c.data[key]
	return value, ok
}

// Set stores a value and restarts the TTL timer for the whole cache.
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.data == nil {
		c.data = make(map[K]V)
	}
	c.data[key] = value
	c.timestamp = time.Now()
}

// GetAll returns a shallow copy of all cached values, or nil when the
// cache has expired. The copy is safe to modify.
func (c *TTLCache[K, V]) GetAll() map[K]V {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.IsExpiredLocked() {
		return nil
	}

	result := make(map[K]V, len(c.data))
	for k, v := range c.data {
		result[k] = v
	}
	return result
}

// SetAll replaces the entire contents and restarts the TTL timer.
func (c *TTLCache[K, V]) SetAll(data map[K]V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = make(map[K]V, len(data))
	for k, v := range data {
		c.data[k] = v
	}
	c.timestamp = time.Now()
}

// IsExpired reports whether the cache has expired. A zero timestamp
// (never written, or invalidated) counts as expired.
func (c *TTLCache[K, V]) IsExpired() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.IsExpiredLocked()
}

// IsExpiredLocked is IsExpired without locking. The caller must hold
// at least a read lock.
func (c *TTLCache[K, V]) IsExpiredLocked() bool {
	return c.timestamp.IsZero() || time.Since(c.timestamp) >= c.ttl
}

// Invalidate drops every entry and zeroes the timestamp, so the cache
// reads as expired until the next Set.
func (c *TTLCache[K, V]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = make(map[K]V)
	c.timestamp = time.Time{}
}

// Len returns the entry count, expired or not.
func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
