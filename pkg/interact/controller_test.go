package interact

import (
	"math"
	"testing"

	"github.com/canvasnote/canvasnote/pkg/model"
	"github.com/canvasnote/canvasnote/pkg/store"
)

// seedStore builds a store with one cell at a known position.
func seedStore(t *testing.T) (*store.Store, model.Cell) {
	t.Helper()
	s := store.New(model.NewDocument("test"), nil)
	cell, err := s.AddCell(model.CellTypeCode, model.Point{X: 100, Y: 100}, "")
	if err != nil {
		t.Fatal(err)
	}
	return s, cell
}

func TestPointerDownOnCellStartsDrag(t *testing.T) {
	s, cell := seedStore(t)
	c := New(s, model.Point{}, nil)

	// Default zoom 1, no pan: screen == canvas.
	c.PointerDown(model.Point{X: 150, Y: 150}, false)
	if c.State() != StateDraggingCell {
		t.Fatalf("state = %v, want dragging", c.State())
	}
	id, ok := c.DraggedCell()
	if !ok || id != cell.ID {
		t.Errorf("dragged cell = %q, want %q", id, cell.ID)
	}

	// The grab point stays under the pointer.
	c.PointerMove(model.Point{X: 250, Y: 180})
	got := s.Document().CellByID(cell.ID).Position
	if got.X != 200 || got.Y != 130 {
		t.Errorf("dragged position = %v, want {200 130}", got)
	}

	c.PointerUp()
	if c.State() != StateIdle {
		t.Errorf("state after release = %v, want idle", c.State())
	}
}

func TestDragSuppressesWheel(t *testing.T) {
	s, _ := seedStore(t)
	c := New(s, model.Point{}, nil)
	before := s.Document().Canvas

	c.PointerDown(model.Point{X: 150, Y: 150}, false)
	c.Wheel(0, 100, false)
	c.Wheel(0, -1, true)

	after := s.Document().Canvas
	if after.Pan != before.Pan || after.Zoom != before.Zoom {
		t.Errorf("wheel during drag must be suppressed: %+v -> %+v", before, after)
	}
}

func TestPanOnEmptyCanvasClearsSelection(t *testing.T) {
	s, cell := seedStore(t)
	c := New(s, model.Point{}, nil)

	if !s.Document().CellByID(cell.ID).Selected {
		t.Fatal("fresh cell should start selected")
	}

	c.PointerDown(model.Point{X: 700, Y: 700}, false)
	if c.State() != StatePanning {
		t.Fatalf("state = %v, want panning", c.State())
	}
	if s.Document().CellByID(cell.ID).Selected {
		t.Error("clicking empty canvas must deselect")
	}

	c.PointerMove(model.Point{X: 650, Y: 690})
	got := s.Document().Canvas.Pan
	if got.X != -50 || got.Y != -10 {
		t.Errorf("pan = %v, want {-50 -10}", got)
	}
}

func TestBoxSelectionMembership(t *testing.T) {
	s, a := seedStore(t)
	b, err := s.AddCell(model.CellTypeMarkdown, model.Point{X: 2000, Y: 2000}, "")
	if err != nil {
		t.Fatal(err)
	}
	c := New(s, model.Point{}, nil)

	// Shift-press on empty canvas starts a box over cell a only.
	c.PointerDown(model.Point{X: 50, Y: 50}, true)
	if c.State() != StateSelectingBox {
		t.Fatalf("state = %v, want selecting", c.State())
	}
	c.PointerMove(model.Point{X: 700, Y: 700})
	if _, ok := c.SelectionBox(); !ok {
		t.Fatal("selection box should be active")
	}
	c.PointerUp()

	doc := s.Document()
	if !doc.CellByID(a.ID).Selected {
		t.Error("cell inside the box must be selected")
	}
	if doc.CellByID(b.ID).Selected {
		t.Error("cell outside the box must not be selected")
	}
}

func TestEscapeCancelsAndClears(t *testing.T) {
	s, cell := seedStore(t)
	c := New(s, model.Point{}, nil)

	c.PointerDown(model.Point{X: 150, Y: 150}, false)
	pos := s.Document().CellByID(cell.ID).Position

	c.Escape()
	if c.State() != StateIdle {
		t.Errorf("state after escape = %v, want idle", c.State())
	}
	if s.Document().CellByID(cell.ID).Selected {
		t.Error("escape must clear the selection")
	}

	// The abandoned drag no longer moves the cell.
	c.PointerMove(model.Point{X: 400, Y: 400})
	if got := s.Document().CellByID(cell.ID).Position; got != pos {
		t.Errorf("cell moved after escape: %v", got)
	}
}

func TestNonFinitePointerEventsDiscarded(t *testing.T) {
	s, cell := seedStore(t)
	c := New(s, model.Point{}, nil)

	c.PointerDown(model.Point{X: math.NaN(), Y: 10}, false)
	if c.State() != StateIdle {
		t.Error("non-finite pointer down must be discarded")
	}

	c.PointerDown(model.Point{X: 150, Y: 150}, false)
	c.PointerMove(model.Point{X: math.Inf(1), Y: 10})
	if got := s.Document().CellByID(cell.ID).Position; got != cell.Position {
		t.Errorf("non-finite move must not disturb the cell: %v", got)
	}
	if c.State() != StateDraggingCell {
		t.Error("interaction must survive a discarded event")
	}
}

func TestHitTestPrefersTopmost(t *testing.T) {
	s, a := seedStore(t)
	// Overlapping cell added later gets a higher z-index.
	b, err := s.AddCell(model.CellTypeRaw, model.Point{X: 120, Y: 120}, "")
	if err != nil {
		t.Fatal(err)
	}
	c := New(s, model.Point{}, nil)

	c.PointerDown(model.Point{X: 150, Y: 150}, false)
	id, _ := c.DraggedCell()
	if id != b.ID {
		t.Errorf("dragged %q, want topmost %q", id, b.ID)
	}
	_ = a
}
