// Package session persists lightweight editor session state across runs:
// the recent-files list and the quick-save target of each document.
//
// Two backends implement the Store interface:
//   - file: JSON files under ~/.config/canvasnote/session/ for the CLI
//   - redis: shared state for multi-instance server deployments
//
// Session state is a convenience layer, not a source of truth - losing it
// means the recent-files menu starts empty, nothing more. Backends therefore
// tolerate missing or corrupt entries by treating them as absent.
package session

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when a requested entry does not exist.
	ErrNotFound = errors.New("not found")
)

// Defaults.
const (
	// MaxRecent is the number of entries kept in the recent-files list.
	MaxRecent = 20

	// DefaultSavedTTL bounds how long a quick-save target is remembered.
	DefaultSavedTTL = 90 * 24 * time.Hour
)

// RecentEntry is one row of the recent-files list.
type RecentEntry struct {
	Path     string    `json:"path"` // notebook path in the workspace
	Name     string    `json:"name"`
	OpenedAt time.Time `json:"opened_at"`
}

// SavedFileInfo records where a document was last saved, so quick-save can
// write back without prompting and save-as can suggest the prior location.
type SavedFileInfo struct {
	DocumentID   string    `json:"document_id"`
	NotebookPath string    `json:"notebook_path"`
	LayoutPath   string    `json:"layout_path"`
	SavedAt      time.Time `json:"saved_at"`
}

// Store is the interface for session state backends.
type Store interface {
	// Recent returns up to limit entries, most recently opened first.
	Recent(ctx context.Context, limit int) ([]RecentEntry, error)

	// Touch inserts or refreshes an entry in the recent-files list. The list
	// is deduplicated by path and truncated to MaxRecent.
	Touch(ctx context.Context, entry RecentEntry) error

	// SavedFile retrieves the quick-save target for a document.
	// Returns nil, nil when no target is recorded.
	SavedFile(ctx context.Context, documentID string) (*SavedFileInfo, error)

	// SetSavedFile records the quick-save target for a document.
	SetSavedFile(ctx context.Context, info SavedFileInfo) error

	// Cleanup removes stale entries (may be a no-op for backends with
	// server-side expiry).
	Cleanup(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
