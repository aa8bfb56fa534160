// Package store owns the single Document snapshot and every validated
// mutation on it.
//
// The store is the only writer: controllers and services hold a *Store and go
// through its operations, never through a Document copy they mutate
// themselves. Each operation clones the current snapshot, edits the clone,
// and publishes it together with an incremented version stamp. Published
// snapshots are never edited in place, so a Document obtained from
// [Store.Snapshot] stays valid and consistent forever.
//
// Every operation either publishes a new snapshot or refuses the mutation
// with the prior state fully intact - there are no partial writes. Malformed
// input is absorbed here: it surfaces as a structured error and a diagnostic
// on the store's logger, never as a panic.
package store

import (
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/canvasnote/canvasnote/pkg/canvas"
	"github.com/canvasnote/canvasnote/pkg/errors"
	"github.com/canvasnote/canvasnote/pkg/model"
	"github.com/canvasnote/canvasnote/pkg/observability"
)

// Store holds the current document snapshot behind a mutex. All mutations are
// serialized, so interaction events apply strictly in arrival order.
type Store struct {
	mu      sync.Mutex
	doc     model.Document
	version uint64
	logger  *log.Logger
}

// New creates a store owning the given document. A nil logger discards
// diagnostics.
func New(doc model.Document, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Store{doc: doc, logger: logger}
}

// Snapshot returns the current document snapshot and its version stamp.
// The returned document is immutable by contract; callers must not modify it.
func (s *Store) Snapshot() (model.Document, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc, s.version
}

// Document returns the current document snapshot.
func (s *Store) Document() model.Document {
	d, _ := s.Snapshot()
	return d
}

// Version returns the current snapshot version stamp.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Mutate runs fn against a clone of the latest snapshot under the store lock
// and publishes the result as one atomic replace. If fn returns an error
// nothing is published. This is the primitive every operation - including
// async execution results - goes through, which rules out lost updates
// between overlapping mutations.
func (s *Store) Mutate(op string, fn func(d *model.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc.Clone()
	if err := fn(&next); err != nil {
		s.logger.Debug("mutation refused", "op", op, "err", err)
		observability.Store().OnMutation(op, false)
		return err
	}

	next.Modified = time.Now()
	next.Canvas.Pages = canvas.PageCount(next.Canvas, next.MaxCellBottom())
	s.doc = next
	s.version++
	observability.Store().OnMutation(op, true)
	return nil
}

// Replace atomically swaps in a whole new document (used by import). The
// document's page count is taken as given; the import path computes it from
// the incoming content. The version stamp advances.
func (s *Store) Replace(doc model.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	s.version++
	observability.Store().OnMutation("replace", true)
}

// =============================================================================
// Cell Operations
// =============================================================================

// AddCell creates a cell of the given type at the given canvas position.
// The current selection is cleared and the new cell becomes the only selected
// cell. Code cells receive the next design-sequence number; other types never
// carry one. An unknown cell type is a contract violation and aborts the
// operation loudly.
func (s *Store) AddCell(t model.CellType, pos model.Point, hint model.HintType) (model.Cell, error) {
	if !model.ValidCellTypes[t] {
		err := errors.New(errors.ErrCodeInvalidCellType, "unknown cell type: %q", t)
		s.logger.Error("add cell", "err", err)
		return model.Cell{}, err
	}
	if err := validatePoint(pos); err != nil {
		return model.Cell{}, err
	}

	var created model.Cell
	err := s.Mutate("add_cell", func(d *model.Document) error {
		cell := model.Cell{
			ID:            model.NewID(),
			Type:          t,
			Position:      clampPosition(pos),
			Size:          model.DefaultCellSize,
			CollapsedSize: model.DefaultCollapsedSize,
			ZIndex:        d.NextZIndex(),
			Content:       model.DefaultContent(t, hint),
			Selected:      true,
		}
		switch t {
		case model.CellTypeCode:
			order := NextExecutionOrder(d)
			cell.ExecutionOrder = &order
			cell.Language = model.DefaultLanguage
		case model.CellTypeMarkdown:
			cell.RenderingHints = model.DefaultHints(t, hint)
		case model.CellTypeRaw:
			cell.Format = "text/plain"
		}

		clearSelection(d)
		d.Cells = append(d.Cells, cell)
		created = cell
		return nil
	})
	return created, err
}

// UpdateCell applies a partial update to a cell. A missing cell is a no-op.
// Numeric sub-fields are re-validated one by one: an invalid sub-field falls
// back to the cell's prior value without dropping the rest of the patch.
// ID and Type are immutable and not part of the patch.
func (s *Store) UpdateCell(id string, patch CellPatch) error {
	return s.Mutate("update_cell", func(d *model.Document) error {
		cell := d.CellByID(id)
		if cell == nil {
			s.logger.Debug("update for unknown cell", "cell", id)
			return nil
		}
		patch.apply(cell, s.logger)
		return nil
	})
}

// DeleteCell removes a cell. A missing cell is a no-op.
func (s *Store) DeleteCell(id string) error {
	return s.Mutate("delete_cell", func(d *model.Document) error {
		for i := range d.Cells {
			if d.Cells[i].ID == id {
				d.Cells = append(d.Cells[:i], d.Cells[i+1:]...)
				return nil
			}
		}
		s.logger.Debug("delete for unknown cell", "cell", id)
		return nil
	})
}

// DuplicateCell copies a cell, offset by (+20,+20). Regardless of source
// type the copy gets a fresh id, no executionOrder, no executionCount, and
// is not selected.
func (s *Store) DuplicateCell(id string) (model.Cell, error) {
	var created model.Cell
	err := s.Mutate("duplicate_cell", func(d *model.Document) error {
		src := d.CellByID(id)
		if src == nil {
			return errors.New(errors.ErrCodeCellNotFound, "cell %s not found", id)
		}
		dup := src.Clone()
		dup.ID = model.NewID()
		dup.Position.X += model.DuplicateOffset
		dup.Position.Y += model.DuplicateOffset
		dup.ExecutionOrder = nil
		dup.ExecutionCount = nil
		dup.Selected = false
		dup.ZIndex = d.NextZIndex()
		d.Cells = append(d.Cells, dup)
		created = dup
		return nil
	})
	return created, err
}

// UpdateCellPosition moves a cell, clamping coordinates to be non-negative.
// Non-finite input is rejected as a no-op with the document left
// byte-for-byte unchanged.
func (s *Store) UpdateCellPosition(id string, pos model.Point) error {
	if err := validatePoint(pos); err != nil {
		s.logger.Debug("position rejected", "cell", id, "err", err)
		return err
	}
	return s.Mutate("move_cell", func(d *model.Document) error {
		cell := d.CellByID(id)
		if cell == nil {
			return nil
		}
		cell.Position = clampPosition(pos)
		return nil
	})
}

// UpdateCellSize resizes a cell, clamping to the minimum cell size.
// Non-finite input is rejected as a no-op.
func (s *Store) UpdateCellSize(id string, size model.Size) error {
	if err := errors.ValidateFinite("width", size.Width); err != nil {
		s.logger.Debug("size rejected", "cell", id, "err", err)
		return err
	}
	if err := errors.ValidateFinite("height", size.Height); err != nil {
		s.logger.Debug("size rejected", "cell", id, "err", err)
		return err
	}
	return s.Mutate("resize_cell", func(d *model.Document) error {
		cell := d.CellByID(id)
		if cell == nil {
			return nil
		}
		cell.Size = clampSize(size)
		return nil
	})
}

// SetSelection replaces the selection with the given cell ids.
func (s *Store) SetSelection(ids []string) error {
	selected := make(map[string]bool, len(ids))
	for _, id := range ids {
		selected[id] = true
	}
	return s.Mutate("set_selection", func(d *model.Document) error {
		for i := range d.Cells {
			d.Cells[i].Selected = selected[d.Cells[i].ID]
		}
		return nil
	})
}

// ClearSelection deselects every cell.
func (s *Store) ClearSelection() error {
	return s.SetSelection(nil)
}

// =============================================================================
// Canvas Operations
// =============================================================================

// SetZoom sets the canvas zoom, clamped to the allowed range.
func (s *Store) SetZoom(zoom float64) error {
	if err := errors.ValidateFinite("zoom", zoom); err != nil {
		return err
	}
	return s.Mutate("set_zoom", func(d *model.Document) error {
		d.Canvas.Zoom = canvas.ClampZoom(zoom)
		return nil
	})
}

// SetPan sets the pan offset, clamped to the viewport bounds derived from
// the current page geometry.
func (s *Store) SetPan(pan model.Point) error {
	if err := validatePoint(pan); err != nil {
		return err
	}
	return s.Mutate("set_pan", func(d *model.Document) error {
		pages := canvas.PageCount(d.Canvas, d.MaxCellBottom())
		d.Canvas.Pan = canvas.ClampPan(d.Canvas, pan, pages)
		return nil
	})
}

// SetSnapToGrid toggles grid snapping.
func (s *Store) SetSnapToGrid(snap bool) error {
	return s.Mutate("set_snap", func(d *model.Document) error {
		d.Canvas.SnapToGrid = snap
		return nil
	})
}

// SetGridSize sets the grid spacing. Non-positive or non-finite values are
// rejected.
func (s *Store) SetGridSize(size float64) error {
	if err := errors.ValidateFinite("gridSize", size); err != nil {
		return err
	}
	if size <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "grid size must be positive")
	}
	return s.Mutate("set_grid", func(d *model.Document) error {
		d.Canvas.GridSize = size
		return nil
	})
}

// SetPageSize sets the page format.
func (s *Store) SetPageSize(ps model.PageSize) error {
	if ps.Width <= 0 || ps.Height <= 0 || !model.IsFinite(ps.Width) || !model.IsFinite(ps.Height) {
		return errors.New(errors.ErrCodeInvalidInput, "page size must have positive finite dimensions")
	}
	return s.Mutate("set_page_size", func(d *model.Document) error {
		d.Canvas.PageSize = ps
		return nil
	})
}

// SetOrientation switches between portrait and landscape. The stored page
// size itself is never mutated; orientation only changes how its dimensions
// are applied.
func (s *Store) SetOrientation(o model.Orientation) error {
	if o != model.OrientationPortrait && o != model.OrientationLandscape {
		return errors.New(errors.ErrCodeInvalidInput, "unknown orientation: %q", o)
	}
	return s.Mutate("set_orientation", func(d *model.Document) error {
		d.Canvas.Orientation = o
		return nil
	})
}

// =============================================================================
// Helpers
// =============================================================================

func clearSelection(d *model.Document) {
	for i := range d.Cells {
		d.Cells[i].Selected = false
	}
}

func validatePoint(p model.Point) error {
	if err := errors.ValidateFinite("x", p.X); err != nil {
		return err
	}
	return errors.ValidateFinite("y", p.Y)
}

func clampPosition(p model.Point) model.Point {
	if p.X < 0 {
		p.X = 0
	}
	if p.Y < 0 {
		p.Y = 0
	}
	return p
}

func clampSize(sz model.Size) model.Size {
	if sz.Width < model.MinCellWidth {
		sz.Width = model.MinCellWidth
	}
	if sz.Height < model.MinCellHeight {
		sz.Height = model.MinCellHeight
	}
	return sz
}
