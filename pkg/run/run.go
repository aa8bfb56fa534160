// Package run executes code cells and materializes their results as output
// cells in the document.
//
// Execution itself is delegated to a Runner - pkg/kernel provides the HTTP
// collaborator implementation - while this package owns the bookkeeping the
// document model requires:
//
//   - executionCount is drawn from a session-global counter, so counts are
//     unique across the whole session and a failed run still consumes one.
//   - at most one run per cell is in flight; a second request is refused.
//   - every run carries a per-cell token; a completion whose token no longer
//     matches (the run was interrupted, or the cell deleted) is discarded
//     without touching the document.
//
// All document effects go through store.Mutate, so a completion lands as one
// atomic snapshot replace even while the user keeps editing.
package run

import (
	"context"

	"github.com/canvasnote/canvasnote/pkg/model"
)

// Request describes one code-cell run handed to a Runner. DocumentID scopes
// the run to its notebook, so a collaborator serving several documents can
// keep their kernel sessions apart.
type Request struct {
	DocumentID     string `json:"document_id"`
	CellID         string `json:"cell_id"`
	Code           string `json:"code"`
	Language       string `json:"language"`
	ExecutionCount int    `json:"execution_count"`
}

// Output is one piece of produced output.
type Output struct {
	Type    model.OutputType `json:"type"`
	Content string           `json:"content"`
	Format  string           `json:"format,omitempty"` // MIME type, defaulted per output type
}

// Result is a completed run as reported by the Runner. Success false with
// populated Outputs is the normal shape of a user-code failure; a Go error
// from Execute means the run itself could not be carried out.
type Result struct {
	Success bool     `json:"success"`
	Outputs []Output `json:"outputs"`
}

// Runner executes code. Implementations must honor ctx cancellation.
type Runner interface {
	Execute(ctx context.Context, req Request) (Result, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, req Request) (Result, error)

// Execute calls f.
func (f RunnerFunc) Execute(ctx context.Context, req Request) (Result, error) {
	return f(ctx, req)
}
