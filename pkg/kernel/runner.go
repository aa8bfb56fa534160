package kernel

import (
	"context"

	"github.com/canvasnote/canvasnote/pkg/run"
)

// Execute runs code through the collaborator's execution endpoint,
// implementing [run.Runner]. Execution is never cached and never retried:
// re-sending user code on a flaky connection could run it twice.
func (c *Client) Execute(ctx context.Context, req run.Request) (run.Result, error) {
	var result run.Result
	if err := c.postJSON(ctx, "/api/execute", req, &result); err != nil {
		return run.Result{}, err
	}
	return result, nil
}

var _ run.Runner = (*Client)(nil)
