package cache

import (
	"context"
	"time"
)

// NullCache satisfies Cache without storing anything. The graph command
// swaps it in for --no-cache runs, and it is the fallback when no cache
// directory can be resolved, so callers never branch on whether caching is
// actually on.
type NullCache struct{}

// NewNullCache creates a cache that misses on every read.
func NewNullCache() Cache {
	return &NullCache{}
}

// Get reports a miss for every key.
func (c *NullCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set discards the entry.
func (c *NullCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return nil
}

// Delete is a no-op.
func (c *NullCache) Delete(ctx context.Context, key string) error {
	return nil
}

// Close is a no-op.
func (c *NullCache) Close() error {
	return nil
}

var _ Cache = (*NullCache)(nil)
