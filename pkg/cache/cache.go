// Package cache provides pluggable byte caches for collaborator responses.
//
// The kernel client caches directory listings and recent-file lookups so the
// file browser stays responsive when the collaborator is slow or briefly
// unreachable. Two implementations are provided: a file-backed cache for CLI
// usage and a null cache for tests and cache-disabled runs.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry TTLs.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was present
	// and unexpired; an absent key is not an error.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Set stores a value. A zero ttl means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}
