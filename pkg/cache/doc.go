// Package cache provides a generic, thread-safe LRU cache with optional
// time-to-live expiration and predicate-based invalidation.
//
// It backs the preference resolver, which caches one global record per user
// and one effective permission set per (user, type) pair, and must be able to
// drop every entry of a user at once when that user's global preferences change.
//
// # Usage
//
//	c := cache.NewLRUCache[string, int](128, cache.WithTTL[string, int](time.Minute))
//	c.Put("42|task.assigned", 1)
//
//	if v, ok := c.Get("42|task.assigned"); ok {
//		_ = v
//	}
//
//	// Drop everything that belongs to user 42.
//	c.RemoveFunc(func(key string) bool { return strings.HasPrefix(key, "42|") })
//
// Expired entries are removed lazily on access or when they fall off the
// eviction list. All operations take a single mutex and run in O(1), except
// RemoveFunc and Clear which walk the whole cache.
package cache
