package cache

import (
	"container/list"
	"sync"
	"time"
)

type lruEntry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

func (e *lruEntry[K, V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// LRUCache is a thread-safe LRU cache with optional per-entry expiration.
// When the cache reaches its capacity, the least recently used item is evicted.
type LRUCache[K comparable, V any] struct {
	capacity int
	ttl      time.Duration
	items    map[K]*list.Element
	eviction *list.List
	mu       sync.Mutex
	now      func() time.Time
	onEvict  func(key K, value V)
}

// Option configures an LRUCache.
type Option[K comparable, V any] func(*LRUCache[K, V])

// WithTTL makes entries expire ttl after they were last written.
// Zero keeps entries until they are evicted or removed.
func WithTTL[K comparable, V any](ttl time.Duration) Option[K, V] {
	return func(c *LRUCache[K, V]) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock overrides the time source used for expiration.
func WithClock[K comparable, V any](now func() time.Time) Option[K, V] {
	return func(c *LRUCache[K, V]) {
		if now != nil {
			c.now = now
		}
	}
}

// NewLRUCache creates a new LRU cache with the specified capacity.
// The capacity must be positive, otherwise it panics.
func NewLRUCache[K comparable, V any](capacity int, opts ...Option[K, V]) *LRUCache[K, V] {
	if capacity <= 0 {
		panic("LRU cache capacity must be positive")
	}
	c := &LRUCache[K, V]{
		capacity: capacity,
		items:    make(map[K]*list.Element),
		eviction: list.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetEvictCallback sets a callback invoked whenever an entry leaves the cache.
func (c *LRUCache[K, V]) SetEvictCallback(fn func(key K, value V)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

// Get retrieves a live value and marks it as recently used.
// Expired entries are dropped on access.
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, ok := c.items[key]
	if !ok {
		return zero, false
	}
	entry := elem.Value.(*lruEntry[K, V])
	if entry.expired(c.now()) {
		c.removeElement(elem)
		return zero, false
	}
	c.eviction.MoveToFront(elem)
	return entry.value, true
}

// Put adds or replaces a value and resets its expiration.
// Returns the previous value if it existed.
func (c *LRUCache[K, V]) Put(key K, value V) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}

	if elem, ok := c.items[key]; ok {
		c.eviction.MoveToFront(elem)
		entry := elem.Value.(*lruEntry[K, V])
		old := entry.value
		entry.value = value
		entry.expiresAt = expiresAt
		return old, true
	}

	elem := c.eviction.PushFront(&lruEntry[K, V]{key: key, value: value, expiresAt: expiresAt})
	c.items[key] = elem

	if c.eviction.Len() > c.capacity {
		c.evictOldest()
	}

	var zero V
	return zero, false
}

// Remove deletes a single key.
func (c *LRUCache[K, V]) Remove(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*lruEntry[K, V])
		c.removeElement(elem)
		return entry.value, true
	}

	var zero V
	return zero, false
}

// RemoveFunc deletes every entry whose key satisfies match and
// returns how many entries were removed.
func (c *LRUCache[K, V]) RemoveFunc(match func(key K) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, elem := range c.items {
		if match(key) {
			c.removeElement(elem)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored entries, including ones that expired
// but were not accessed yet.
func (c *LRUCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eviction.Len()
}

// Clear removes all items from the cache.
func (c *LRUCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.onEvict != nil {
		for _, elem := range c.items {
			entry := elem.Value.(*lruEntry[K, V])
			c.onEvict(entry.key, entry.value)
		}
	}

	c.items = make(map[K]*list.Element)
	c.eviction.Init()
}

// Must be called with lock held.
func (c *LRUCache[K, V]) evictOldest() {
	if elem := c.eviction.Back(); elem != nil {
		c.removeElement(elem)
	}
}

// Must be called with lock held.
func (c *LRUCache[K, V]) removeElement(elem *list.Element) {
	c.eviction.Remove(elem)
	entry := elem.Value.(*lruEntry[K, V])
	delete(c.items, entry.key)

	if c.onEvict != nil {
		c.onEvict(entry.key, entry.value)
	}
}
