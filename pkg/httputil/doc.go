// Package httputil provides HTTP client infrastructure for the kernel
// collaborator client.
//
// # Caching
//
// [Cache] stores JSON-marshalable responses in the filesystem
// (~/.cache/canvasnote/ by default) with a configurable TTL. Directory
// listings and recent-file lookups are cached so the file browser stays
// responsive when the collaborator is slow.
//
// Cache keys should be namespaced per endpoint to avoid collisions:
//
//	listings := cache.Namespace("listing:")
//	recent := cache.Namespace("recent:")
//
// # Retry
//
// [Retry] wraps requests with automatic retry for transient failures -
// network errors, timeouts, and 5xx responses - using exponential backoff.
// Only errors wrapped in [RetryableError] are retried, so a 404 or a
// validation failure returns immediately.
package httputil
