package dataset

import (
	"context"
	"sync"
	"sync/atomic"
)

// Cache memoizes one loaded value per source key for the life of the
// process. Concurrent first calls for a key share a single load. Failed
// loads are not remembered, so a later call retries.
type Cache[T any] struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry[T]
	loads   atomic.Int64
	hits    atomic.Int64
}

type cacheEntry[T any] struct {
	mu     sync.Mutex
	loaded bool
	value  T
}

// CacheStats reports cache activity.
type CacheStats struct {
	Entries int   `json:"entries"`
	Loads   int64 `json:"loads"`
	Hits    int64 `json:"hits"`
}

// NewCache creates an empty Cache.
func NewCache[T any]() *Cache[T] {
	return &Cache[T]{entries: make(map[string]*cacheEntry[T])}
}

// Get returns the cached value for key, calling load on the first request.
func (c *Cache[T]) Get(ctx context.Context, key string, load func(context.Context) (T, error)) (T, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &cacheEntry[T]{}
		c.entries[key] = e
	}
	c.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loaded {
		c.hits.Add(1)
		return e.value, nil
	}

	c.loads.Add(1)
	v, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	e.value, e.loaded = v, true
	return v, nil
}

// Stats returns a snapshot of cache activity.
func (c *Cache[T]) Stats() CacheStats {
	c.mu.Lock()
	n := len(c.entries)
	c.mu.Unlock()
	return CacheStats{Entries: n, Loads: c.loads.Load(), Hits: c.hits.Load()}
}
