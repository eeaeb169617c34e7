// Package ristretto implements the cache port using dgraph-io/ristretto as
// the in-process L1 cache for rendered previews.
package ristretto

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Cache wraps a ristretto cache. Set waits for the write buffer to drain so
// a Get that follows a Set observes it.
type Cache struct {
	c *ristretto.Cache[string, []byte]
}

// New creates a ristretto-backed cache holding at most maxCostBytes of values.
func New(maxCostBytes int64) (*Cache, error) {
	if maxCostBytes < 1 {
		return nil, errors.New("ristretto: max cost must be positive")
	}
	counters := maxCostBytes / 1024 * 10 // ~10x expected documents of 1 KiB
	if counters < 1000 {
		counters = 1000
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: counters,
		MaxCost:     maxCostBytes,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{c: c}, nil
}

// Get retrieves a copy of the cached value.
func (c *Cache) Get(_ context.Context, key string) (data []byte, ok bool, err error) {
	val, found := c.c.Get(key)
	if !found {
		return nil, false, nil
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, true, nil
}

// Set stores a copy of value with the given TTL. A zero TTL never expires.
// Values larger than the cache are silently rejected.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	v := make([]byte, len(value))
	copy(v, value)
	c.c.SetWithTTL(key, v, int64(len(v)), ttl)
	c.c.Wait()
	return nil
}

// Delete removes a value from the cache.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.c.Del(key)
	return nil
}

// Stats reports hit and miss counters.
func (c *Cache) Stats() (hits, misses uint64) {
	m := c.c.Metrics
	return m.Hits(), m.Misses()
}

// Close shuts down the cache and releases resources.
func (c *Cache) Close() {
	c.c.Close()
}
