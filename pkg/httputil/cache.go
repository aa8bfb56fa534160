package httputil

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// ErrExpired is returned by [Cache.Get] when a cached entry exists but has
// exceeded its time-to-live. The data is still on disk but stale; fetch
// fresh data and refresh the entry with [Cache.Set].
//
// Check with errors.Is:
//
//	ok, err := cache.Get("key", &value)
//	if errors.Is(err, httputil.ErrExpired) {
//	    // refetch and Set
//	}
var ErrExpired = errors.New("cache entry expired")

// Cache provides file-based caching of arbitrary JSON-marshalable data.
//
// Each entry is one file in the cache directory, named by the SHA-256 of the
// key, so arbitrary key strings are safe. Expiration is based on file
// modification time; a TTL of 0 means entries never expire.
//
// A Cache instance is not goroutine-safe, but separate instances (even in
// different processes) can share a directory: writes are whole-file.
//
// Use [Cache.Namespace] to create scoped views that prefix keys, keeping
// different endpoints from colliding:
//
//	listings := cache.Namespace("listing:")
//	recent := cache.Namespace("recent:")
type Cache struct {
	dir    string
	ttl    time.Duration
	prefix string
}

// NewCache creates a Cache that stores entries in dir with the given TTL.
// An empty dir selects the default ~/.cache/canvasnote/. The directory is
// created if needed; creation failure is the only error.
func NewCache(dir string, ttl time.Duration) (*Cache, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".cache", "canvasnote")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir, ttl: ttl, prefix: ""}, nil
}

// Dir returns the absolute path to the cache directory.
func (c *Cache) Dir() string { return c.dir }

// TTL returns the time-to-live duration for cache entries.
// A TTL of 0 means cache entries never expire.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get retrieves a cached value by key and unmarshals it into v.
//
// Outcomes:
//   - (true, nil): hit; v holds the fresh value.
//   - (false, nil): miss; v is unchanged.
//   - (false, ErrExpired): entry exists but exceeded its TTL; v is unchanged.
//   - (false, other): I/O or unmarshal error; v may be partially modified.
//
// Reads never modify the cache or refresh modification times.
func (c *Cache) Get(key string, v any) (bool, error) {
	path := c.keyPath(c.prefix + key)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if c.ttl > 0 && time.Since(info.ModTime()) > c.ttl {
		return false, ErrExpired
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(data, v)
}

// Set stores a value under key, overwriting any existing entry and resetting
// its modification time - which effectively refreshes the TTL.
func (c *Cache) Set(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(c.keyPath(c.prefix+key), data, 0o644)
}

// Namespace returns a view of the cache that prefixes all keys with prefix.
// The view shares the parent's directory and TTL. Namespace calls can be
// chained to build hierarchical key spaces; an empty prefix is a no-op.
func (c *Cache) Namespace(prefix string) *Cache {
	return &Cache{
		dir:    c.dir,
		ttl:    c.ttl,
		prefix: c.prefix + prefix,
	}
}

func (c *Cache) keyPath(key string) string {
	h := sha256.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(h[:]))
}
