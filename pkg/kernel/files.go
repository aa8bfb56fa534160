package kernel

import (
	"context"
	"net/url"
	"time"

	"github.com/canvasnote/canvasnote/pkg/errors"
)

// FileEntry is one row of a workspace directory listing.
type FileEntry struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"` // workspace-relative
	IsDir    bool      `json:"is_dir"`
	Size     int64     `json:"size,omitempty"`
	Modified time.Time `json:"modified,omitempty"`
}

// ListDirectory lists a workspace directory through the collaborator.
// workspacePath is relative to the registered workdir; "" lists the root.
// Listings are cached briefly; refresh bypasses the cache.
//
// Failure modes map to distinct error codes so the UI can phrase them:
// DIR_NOT_FOUND (with the resolved absolute path as a hint), NOT_A_DIRECTORY,
// and PERMISSION_DENIED.
func (c *Client) ListDirectory(ctx context.Context, workspacePath string, refresh bool) ([]FileEntry, error) {
	if workspacePath != "" {
		if err := errors.ValidateWorkspacePath(workspacePath); err != nil {
			return nil, err
		}
	}

	var entries []FileEntry
	key := c.keyer.ListingKey(workspacePath)
	err := c.cached(ctx, "listing:", key, refresh, &entries, func() error {
		q := url.Values{}
		if workspacePath != "" {
			q.Set("path", workspacePath)
		}
		return c.getJSON(ctx, "/api/files", q, &entries)
	})
	if err != nil {
		return nil, contextualizeNotFound(err, errors.ErrCodeDirNotFound)
	}
	return entries, nil
}

// RegisterWorkdir tells the collaborator which directory subsequent
// workspace-relative paths resolve against. Returns the resolved absolute
// path as reported by the collaborator.
func (c *Client) RegisterWorkdir(ctx context.Context, path string) (string, error) {
	if path == "" {
		return "", errors.New(errors.ErrCodeInvalidPath, "workdir path is empty")
	}

	var resp struct {
		Path string `json:"path"`
	}
	err := c.postJSON(ctx, "/api/workdir", map[string]string{"path": path}, &resp)
	if err != nil {
		return "", contextualizeNotFound(err, errors.ErrCodeDirNotFound)
	}
	return resp.Path, nil
}

// contextualizeNotFound narrows a generic NOT_FOUND to the operation's
// specific code while preserving the message and hint.
func contextualizeNotFound(err error, code errors.Code) error {
	if errors.Is(err, errors.ErrCodeNotFound) {
		return errors.New(code, "%s", errors.UserMessage(err))
	}
	return err
}
