// Package cache implements the in-flight + TTL cache (spec component C1):
// a generic decorator that deduplicates concurrent identical calls and
// expires successful results by TTL.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache deduplicates concurrent calls for the same key and serves cached
// results until they expire. It is safe for concurrent use and, per
// spec.md §4.1, is typically instantiated one-per-provider-endpoint.
type Cache[T any] struct {
	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]entry[T]
}

type entry[T any] struct {
	value  T
	expiry time.Time
}

// New creates an empty cache.
func New[T any]() *Cache[T] {
	return &Cache[T]{entries: make(map[string]entry[T])}
}

// Loader fetches the value for a cache miss.
type Loader[T any] func(ctx context.Context) (T, error)

// Get returns the cached value for key if present and unexpired. Otherwise
// it calls load, with at most one call in flight per key across all
// concurrent callers (the in-flight leader executes load; the rest wait on
// its result, matching spec.md §4.1's event-based coordination). A failed
// load is not cached; a subsequent call elects a new leader.
func (c *Cache[T]) Get(ctx context.Context, key string, ttl time.Duration, load Loader[T]) (T, error) {
	if v, ok := c.lookup(key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Re-check under the singleflight critical section: another
		// goroutine may have populated the entry between our lookup above
		// and winning (or waiting on) the Do call.
		if v, ok := c.lookup(key); ok {
			return v, nil
		}
		value, err := load(ctx)
		if err != nil {
			return value, err
		}
		c.mu.Lock()
		c.entries[key] = entry[T]{value: value, expiry: time.Now().Add(ttl)}
		c.mu.Unlock()
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Invalidate removes a key, forcing the next Get to re-fetch.
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *Cache[T]) lookup(key string) (T, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(e.expiry) {
		var zero T
		return zero, false
	}
	return e.value, true
}
