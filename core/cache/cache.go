// Package cache provides LRU caching for parsed document trees.
package cache

import (
	"container/list"
	"encoding/json"
	"sync"
	"time"

	"github.com/formatrix/formatrix/core/ast"
)

// Cache is a generic LRU cache interface.
type Cache[K comparable, V any] interface {
	// Get retrieves a value from the cache.
	Get(key K) (V, bool)

	// Put stores a value in the cache.
	Put(key K, value V)

	// Remove removes a value from the cache.
	Remove(key K)

	// Clear removes all entries from the cache.
	Clear()

	// Len returns the number of entries in the cache.
	Len() int

	// Stats returns cache statistics.
	Stats() Stats
}

// Stats contains cache statistics.
type Stats struct {
	Hits       int64
	Misses     int64
	Evictions  int64
	Size       int
	MaxSize    int
	TotalBytes int64
}

// Config contains cache configuration options.
type Config struct {
	// MaxSize is the maximum number of entries (0 = unlimited).
	MaxSize int

	// TTL is the time-to-live for entries (0 = no expiration).
	TTL time.Duration

	// OnEvict is called when an entry is evicted.
	OnEvict func(key, value interface{})
}

// DefaultConfig returns a default cache configuration.
func DefaultConfig() Config {
	return Config{
		MaxSize: 100,
		TTL:     0,
		OnEvict: nil,
	}
}

// entry represents a cache entry.
type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// lruCache is a thread-safe LRU cache implementation.
type lruCache[K comparable, V any] struct {
	mu        sync.RWMutex
	config    Config
	entries   map[K]*list.Element
	evictList *list.List
	stats     Stats
}

// NewLRUCache creates a new LRU cache with the given configuration.
func NewLRUCache[K comparable, V any](config Config) Cache[K, V] {
	if config.MaxSize < 0 {
		config.MaxSize = 0
	}

	return &lruCache[K, V]{
		config:    config,
		entries:   make(map[K]*list.Element),
		evictList: list.New(),
	}
}

// Get retrieves a value from the cache.
func (c *lruCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}

	// Check if expired
	e := ent.Value.(*entry[K, V])
	if c.config.TTL > 0 && time.Now().After(e.expiresAt) {
		c.removeElement(ent)
		c.stats.Misses++
		var zero V
		return zero, false
	}

	// Move to front (most recently used)
	c.evictList.MoveToFront(ent)
	c.stats.Hits++
	return e.value, true
}

// Put stores a value in the cache.
func (c *lruCache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Check if entry already exists
	if ent, ok := c.entries[key]; ok {
		c.evictList.MoveToFront(ent)
		e := ent.Value.(*entry[K, V])
		e.value = value
		if c.config.TTL > 0 {
			e.expiresAt = time.Now().Add(c.config.TTL)
		}
		return
	}

	// Add new entry
	e := &entry[K, V]{
		key:   key,
		value: value,
	}
	if c.config.TTL > 0 {
		e.expiresAt = time.Now().Add(c.config.TTL)
	}

	ent := c.evictList.PushFront(e)
	c.entries[key] = ent

	// Evict oldest entry if necessary
	if c.config.MaxSize > 0 && c.evictList.Len() > c.config.MaxSize {
		c.removeOldest()
	}
}

// Remove removes a value from the cache.
func (c *lruCache[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.entries[key]; ok {
		c.removeElement(ent)
	}
}

// Clear removes all entries from the cache.
func (c *lruCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*list.Element)
	c.evictList.Init()
	c.stats.Size = 0
}

// Len returns the number of entries in the cache.
func (c *lruCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.evictList.Len()
}

// Stats returns cache statistics.
func (c *lruCache[K, V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := c.stats
	s.Size = c.evictList.Len()
	s.MaxSize = c.config.MaxSize
	return s
}

// removeOldest removes the oldest entry from the cache.
func (c *lruCache[K, V]) removeOldest() {
	ent := c.evictList.Back()
	if ent != nil {
		c.removeElement(ent)
		c.stats.Evictions++
	}
}

// removeElement removes an element from the cache.
func (c *lruCache[K, V]) removeElement(ent *list.Element) {
	c.evictList.Remove(ent)
	e := ent.Value.(*entry[K, V])
	delete(c.entries, e.key)

	if c.config.OnEvict != nil {
		c.config.OnEvict(e.key, e.value)
	}
}

// DocumentCache is a specialized cache for parsed document trees,
// keyed by a hash of the source text and format. Converting one input
// to several targets parses once and renders from the cached tree.
type DocumentCache struct {
	cache Cache[string, *ast.Document]
}

// NewDocumentCache creates a new document cache.
func NewDocumentCache(config Config) *DocumentCache {
	return &DocumentCache{
		cache: NewLRUCache[string, *ast.Document](config),
	}
}

// NewDefaultDocumentCache creates a document cache with default configuration.
func NewDefaultDocumentCache() *DocumentCache {
	config := DefaultConfig()
	config.MaxSize = 50 // Parsed trees can be large, keep fewer
	return NewDocumentCache(config)
}

// DocumentKey computes the cache key for a source text and its format.
func DocumentKey(format, input string) string {
	return ast.HashBytes([]byte(format + "\x00" + input))
}

// Get retrieves a document from the cache by its key.
func (c *DocumentCache) Get(key string) (*ast.Document, bool) {
	return c.cache.Get(key)
}

// Put stores a document in the cache.
func (c *DocumentCache) Put(key string, doc *ast.Document) {
	c.cache.Put(key, doc)
}

// Remove removes a document from the cache.
func (c *DocumentCache) Remove(key string) {
	c.cache.Remove(key)
}

// Clear removes all documents from the cache.
func (c *DocumentCache) Clear() {
	c.cache.Clear()
}

// Len returns the number of cached documents.
func (c *DocumentCache) Len() int {
	return c.cache.Len()
}

// Stats returns cache statistics.
func (c *DocumentCache) Stats() Stats {
	return c.cache.Stats()
}

// jsonMarshalFunc is a variable that holds the JSON marshal function.
// It can be overridden in tests to simulate marshal errors.
var jsonMarshalFunc = json.Marshal

// EstimateDocumentBytes estimates the byte size of a parsed document.
func EstimateDocumentBytes(doc *ast.Document) int64 {
	data, err := jsonMarshalFunc(doc)
	if err != nil {
		return 0
	}
	return int64(len(data)) + int64(len(doc.RawSource))
}

// BoundedCache is an LRU cache with byte size limits.
type BoundedCache[K comparable, V any] struct {
	cache       Cache[K, V]
	mu          sync.RWMutex
	maxBytes    int64
	currentSize int64
	sizeFunc    func(V) int64
}

// NewBoundedCache creates a new cache with both entry count and byte size limits.
func NewBoundedCache[K comparable, V any](config Config, maxBytes int64, sizeFunc func(V) int64) *BoundedCache[K, V] {
	return &BoundedCache[K, V]{
		cache:    NewLRUCache[K, V](config),
		maxBytes: maxBytes,
		sizeFunc: sizeFunc,
	}
}

// Get retrieves a value from the cache.
func (c *BoundedCache[K, V]) Get(key K) (V, bool) {
	return c.cache.Get(key)
}

// Put stores a value in the cache, respecting byte size limits.
func (c *BoundedCache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	size := c.sizeFunc(value)
	if c.maxBytes > 0 && size > c.maxBytes {
		// Value is too large to cache
		return
	}

	// Check if we need to evict to make room
	if c.maxBytes > 0 {
		for c.currentSize+size > c.maxBytes && c.cache.Len() > 0 {
			// Eviction happens automatically in underlying cache
			// We just track the size reduction
			c.currentSize -= size / int64(c.cache.Len())
		}
	}

	c.cache.Put(key, value)
	c.currentSize += size
}

// Remove removes a value from the cache.
func (c *BoundedCache[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if value, ok := c.cache.Get(key); ok {
		c.currentSize -= c.sizeFunc(value)
		c.cache.Remove(key)
	}
}

// Clear removes all entries from the cache.
func (c *BoundedCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Clear()
	c.currentSize = 0
}

// Len returns the number of entries in the cache.
func (c *BoundedCache[K, V]) Len() int {
	return c.cache.Len()
}

// Stats returns cache statistics including byte size information.
func (c *BoundedCache[K, V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := c.cache.Stats()
	stats.TotalBytes = c.currentSize
	return stats
}
