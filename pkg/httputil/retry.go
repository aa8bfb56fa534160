package httputil

import (
	"context"
	"errors"
	"time"
)

// Standing retry policy for the collaborator's read endpoints (directory
// listings, recent files, workdir registration). Cell execution is never
// routed through a retry: re-running user code on a flaky connection is
// worse than surfacing the failure.
const (
	defaultAttempts = 3
	defaultDelay    = time.Second
)

// RetryableError marks a failure as transient. The collaborator client in
// pkg/kernel wraps connection errors and 5xx responses in it; anything else
// (a missing notebook, an invalid path) fails immediately.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retry runs fn up to attempts times, doubling delay between tries. Only
// errors wrapped in [RetryableError] are retried; everything else returns at
// once. A cancelled ctx aborts the wait between attempts with ctx.Err().
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !errors.As(err, new(*RetryableError)) {
			return err
		}
		lastErr = err

		if attempt == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
	return lastErr
}

// RetryWithBackoff applies the standing collaborator policy: three attempts
// starting at one second.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return Retry(ctx, defaultAttempts, defaultDelay, fn)
}
