package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// FileStore keeps session state as JSON files in a config directory:
// recent.json for the recent-files list and saved/<document-id>.json for
// quick-save targets.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file-based session store.
// If baseDir is empty, defaults to ~/.config/canvasnote/session/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "canvasnote", "session")
	}
	if err := os.MkdirAll(filepath.Join(baseDir, "saved"), 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) recentPath() string {
	return filepath.Join(s.baseDir, "recent.json")
}

func (s *FileStore) savedPath(documentID string) string {
	return filepath.Join(s.baseDir, "saved", documentID+".json")
}

// Recent returns up to limit entries, most recently opened first.
func (s *FileStore) Recent(ctx context.Context, limit int) ([]RecentEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := s.readRecent()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Touch inserts or refreshes an entry, deduplicating by path.
func (s *FileStore) Touch(ctx context.Context, entry RecentEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readRecent()
	if err != nil {
		return err
	}

	kept := entries[:0]
	for _, e := range entries {
		if e.Path != entry.Path {
			kept = append(kept, e)
		}
	}
	entries = append([]RecentEntry{entry}, kept...)
	if len(entries) > MaxRecent {
		entries = entries[:MaxRecent]
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal recent list: %w", err)
	}
	if err := os.WriteFile(s.recentPath(), data, 0o600); err != nil {
		return fmt.Errorf("write recent list: %w", err)
	}
	return nil
}

// SavedFile retrieves the quick-save target for a document.
func (s *FileStore) SavedFile(ctx context.Context, documentID string) (*SavedFileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.savedPath(documentID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read saved-file info: %w", err)
	}

	var info SavedFileInfo
	if err := json.Unmarshal(data, &info); err != nil {
		// Corrupt entry: treat as absent.
		_ = os.Remove(s.savedPath(documentID))
		return nil, nil
	}
	return &info, nil
}

// SetSavedFile records the quick-save target for a document.
func (s *FileStore) SetSavedFile(ctx context.Context, info SavedFileInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal saved-file info: %w", err)
	}
	if err := os.WriteFile(s.savedPath(info.DocumentID), data, 0o600); err != nil {
		return fmt.Errorf("write saved-file info: %w", err)
	}
	return nil
}

// Cleanup drops quick-save targets older than DefaultSavedTTL.
func (s *FileStore) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.baseDir, "saved")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read session dir: %w", err)
	}

	cutoff := time.Now().Add(-DefaultSavedTTL)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var info SavedFileInfo
		if err := json.Unmarshal(data, &info); err != nil {
			_ = os.Remove(path)
			continue
		}
		if info.SavedAt.Before(cutoff) {
			_ = os.Remove(path)
		}
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the base directory for session files.
func (s *FileStore) Path() string {
	return s.baseDir
}

func (s *FileStore) readRecent() ([]RecentEntry, error) {
	data, err := os.ReadFile(s.recentPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read recent list: %w", err)
	}
	var entries []RecentEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		// Corrupt list: start over rather than wedge the editor.
		return nil, nil
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].OpenedAt.After(entries[j].OpenedAt)
	})
	return entries, nil
}

var _ Store = (*FileStore)(nil)
