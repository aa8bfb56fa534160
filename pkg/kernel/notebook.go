package kernel

import (
	"context"
	"time"

	"github.com/canvasnote/canvasnote/pkg/errors"
	"github.com/canvasnote/canvasnote/pkg/notebook"
	"github.com/canvasnote/canvasnote/pkg/session"
)

// SaveRequest asks the collaborator to write a document's artifacts to disk.
type SaveRequest struct {
	// Path is the target notebook path, workspace-relative. Empty with
	// Interactive set lets the collaborator prompt the user for a location.
	Path string `json:"path,omitempty"`

	// Interactive selects a save-as dialog instead of a silent write.
	Interactive bool `json:"interactive"`

	Notebook notebook.Notebook       `json:"notebook"`
	Layout   notebook.LayoutArtifact `json:"layout"`
}

// SaveResult reports where the artifacts were written.
type SaveResult struct {
	NotebookPath string `json:"notebook_path"`
	LayoutPath   string `json:"layout_path"`
}

// SaveNotebook writes the artifacts through the collaborator. A silent save
// requires a path; interactive saves may omit it.
func (c *Client) SaveNotebook(ctx context.Context, req SaveRequest) (SaveResult, error) {
	if !req.Interactive {
		if req.Path == "" {
			return SaveResult{}, errors.New(errors.ErrCodeInvalidPath, "silent save requires a path")
		}
		if err := errors.ValidateWorkspacePath(req.Path); err != nil {
			return SaveResult{}, err
		}
	}

	var result SaveResult
	if err := c.postJSON(ctx, "/api/save", req, &result); err != nil {
		return SaveResult{}, err
	}

	// Saving invalidates any cached listing of the target directory; dropping
	// the whole namespace is overkill, so just let the TTL age it out.
	c.logger.Debug("notebook saved", "notebook", result.NotebookPath, "layout", result.LayoutPath)
	return result, nil
}

// RecentFiles fetches the collaborator's recent-files list, cached briefly.
func (c *Client) RecentFiles(ctx context.Context, refresh bool) ([]session.RecentEntry, error) {
	var entries []session.RecentEntry
	key := c.keyer.HTTPKey("recent", "list")
	err := c.cached(ctx, "recent:", key, refresh, &entries, func() error {
		return c.getJSON(ctx, "/api/recent", nil, &entries)
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// TouchRecent records a notebook open in the collaborator's recent-files
// list. Callers that need the updated list immediately should pass
// refresh=true to [Client.RecentFiles]; the cached copy ages out on its own.
func (c *Client) TouchRecent(ctx context.Context, entry session.RecentEntry) error {
	if entry.OpenedAt.IsZero() {
		entry.OpenedAt = time.Now()
	}
	return c.postJSON(ctx, "/api/recent", entry, nil)
}
