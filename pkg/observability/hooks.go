// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks
// at startup to receive events about store mutations, cell executions,
// artifact conversion, and collaborator HTTP calls.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetStoreHooks(&myStoreHooks{})
//	    observability.SetExecHooks(&myExecHooks{})
//	    // ... run application
//	}
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from document store mutations.
type StoreHooks interface {
	// OnMutation records a mutation attempt. applied is false when the
	// operation was refused and the prior snapshot kept.
	OnMutation(op string, applied bool)
}

// =============================================================================
// Execution Hooks
// =============================================================================

// ExecHooks receives events from the cell execution pipeline.
type ExecHooks interface {
	OnExecuteStart(ctx context.Context, cellID string, executionCount int)
	OnExecuteComplete(ctx context.Context, cellID string, duration time.Duration, err error)

	// OnStaleResult records an execution response discarded because the cell
	// was deleted or re-executed while the run was in flight.
	OnStaleResult(ctx context.Context, cellID string)
}

// =============================================================================
// Conversion Hooks
// =============================================================================

// ConvertHooks receives events from notebook import/export.
type ConvertHooks interface {
	OnExport(cellCount int, duration time.Duration, err error)
	OnImport(cellCount, placedCount int, duration time.Duration, err error)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnMutation(string, bool) {}

// NoopExecHooks is a no-op implementation of ExecHooks.
type NoopExecHooks struct{}

func (NoopExecHooks) OnExecuteStart(context.Context, string, int)                    {}
func (NoopExecHooks) OnExecuteComplete(context.Context, string, time.Duration, error) {}
func (NoopExecHooks) OnStaleResult(context.Context, string)                          {}

// NoopConvertHooks is a no-op implementation of ConvertHooks.
type NoopConvertHooks struct{}

func (NoopConvertHooks) OnExport(int, time.Duration, error)      {}
func (NoopConvertHooks) OnImport(int, int, time.Duration, error) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	storeHooks   StoreHooks   = NoopStoreHooks{}
	execHooks    ExecHooks    = NoopExecHooks{}
	convertHooks ConvertHooks = NoopConvertHooks{}
	httpHooks    HTTPHooks    = NoopHTTPHooks{}
	hooksMu      sync.RWMutex
)

// SetStoreHooks registers custom store hooks.
// This should be called once at application startup before any mutations.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// SetExecHooks registers custom execution hooks.
// This should be called once at application startup before any executions.
func SetExecHooks(h ExecHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		execHooks = h
	}
}

// SetConvertHooks registers custom conversion hooks.
func SetConvertHooks(h ConvertHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		convertHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Exec returns the registered execution hooks.
func Exec() ExecHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return execHooks
}

// Convert returns the registered conversion hooks.
func Convert() ConvertHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return convertHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	storeHooks = NoopStoreHooks{}
	execHooks = NoopExecHooks{}
	convertHooks = NoopConvertHooks{}
	httpHooks = NoopHTTPHooks{}
}
