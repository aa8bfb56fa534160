package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newFileStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestTouchDedupAndOrder(t *testing.T) {
	s := newFileStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := range 3 {
		err := s.Touch(ctx, RecentEntry{
			Path:     fmt.Sprintf("nb%d.ipynb", i),
			Name:     fmt.Sprintf("nb%d", i),
			OpenedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	// Re-opening an old file moves it to the front without duplicating it.
	if err := s.Touch(ctx, RecentEntry{Path: "nb0.ipynb", Name: "nb0", OpenedAt: base.Add(time.Hour)}); err != nil {
		t.Fatal(err)
	}

	entries, err := s.Recent(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3 (dedup by path)", len(entries))
	}
	if entries[0].Path != "nb0.ipynb" {
		t.Errorf("front = %q, want the re-opened file", entries[0].Path)
	}
	if entries[1].Path != "nb2.ipynb" || entries[2].Path != "nb1.ipynb" {
		t.Errorf("order = %q, %q; want newest first", entries[1].Path, entries[2].Path)
	}
}

func TestTouchTruncatesToMaxRecent(t *testing.T) {
	s := newFileStore(t)
	ctx := context.Background()
	base := time.Now()

	for i := range MaxRecent + 5 {
		err := s.Touch(ctx, RecentEntry{
			Path:     fmt.Sprintf("nb%d.ipynb", i),
			OpenedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	entries, err := s.Recent(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != MaxRecent {
		t.Fatalf("entries = %d, want truncated to %d", len(entries), MaxRecent)
	}
	// The oldest entries fell off.
	for _, e := range entries {
		if e.Path == "nb0.ipynb" {
			t.Error("oldest entry must have been dropped")
		}
	}
}

func TestRecentLimit(t *testing.T) {
	s := newFileStore(t)
	ctx := context.Background()
	for i := range 5 {
		if err := s.Touch(ctx, RecentEntry{Path: fmt.Sprintf("nb%d", i), OpenedAt: time.Now()}); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("entries = %d, want limited to 2", len(entries))
	}
}

func TestRecentCorruptFileTreatedAsEmpty(t *testing.T) {
	s := newFileStore(t)
	if err := os.WriteFile(filepath.Join(s.Path(), "recent.json"), []byte("{corrupt"), 0o600); err != nil {
		t.Fatal(err)
	}
	entries, err := s.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("corrupt list must not error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %v, want empty", entries)
	}
}

func TestSavedFileRoundTrip(t *testing.T) {
	s := newFileStore(t)
	ctx := context.Background()

	// Unknown document: nil, nil.
	info, err := s.SavedFile(ctx, "doc-1")
	if err != nil || info != nil {
		t.Fatalf("missing saved file = (%v, %v), want (nil, nil)", info, err)
	}

	want := SavedFileInfo{
		DocumentID:   "doc-1",
		NotebookPath: "work/analysis.ipynb",
		LayoutPath:   "work/analysis.layout.json",
		SavedAt:      time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
	}
	if err := s.SetSavedFile(ctx, want); err != nil {
		t.Fatal(err)
	}
	got, err := s.SavedFile(ctx, "doc-1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || *got != want {
		t.Errorf("saved file = %+v, want %+v", got, want)
	}
}

func TestSavedFileCorruptTreatedAsAbsent(t *testing.T) {
	s := newFileStore(t)
	path := filepath.Join(s.Path(), "saved", "doc-x.json")
	if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	info, err := s.SavedFile(context.Background(), "doc-x")
	if err != nil || info != nil {
		t.Fatalf("corrupt entry = (%v, %v), want (nil, nil)", info, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry must be removed")
	}
}

func TestCleanupDropsExpired(t *testing.T) {
	s := newFileStore(t)
	ctx := context.Background()

	stale := SavedFileInfo{DocumentID: "old", SavedAt: time.Now().Add(-DefaultSavedTTL - time.Hour)}
	fresh := SavedFileInfo{DocumentID: "new", SavedAt: time.Now()}
	if err := s.SetSavedFile(ctx, stale); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSavedFile(ctx, fresh); err != nil {
		t.Fatal(err)
	}

	if err := s.Cleanup(ctx); err != nil {
		t.Fatal(err)
	}
	if info, _ := s.SavedFile(ctx, "old"); info != nil {
		t.Error("expired target must be cleaned up")
	}
	if info, _ := s.SavedFile(ctx, "new"); info == nil {
		t.Error("fresh target must survive cleanup")
	}
}
