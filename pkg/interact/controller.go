// Package interact implements the pointer interaction state machine for the
// canvas: panning, rubber-band box selection, and cell dragging.
//
// The controller is driven by pointer-down/move/up events (plus the shift
// modifier and escape) from whatever front end hosts the canvas - the
// bubbletea TUI in internal/cli or the HTTP API. It owns only transient
// interaction state; every durable effect goes through the document store.
//
// Exactly one of the three active states (Panning, SelectingBox,
// DraggingCell) can hold at a time. While a cell drag is active, pan and
// selection handling are suppressed entirely.
package interact

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/canvasnote/canvasnote/pkg/canvas"
	"github.com/canvasnote/canvasnote/pkg/model"
	"github.com/canvasnote/canvasnote/pkg/store"
)

// State identifies the controller's current interaction mode.
type State int

// Interaction states.
const (
	StateIdle State = iota
	StatePanning
	StateSelectingBox
	StateDraggingCell
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StatePanning:
		return "panning"
	case StateSelectingBox:
		return "selecting"
	case StateDraggingCell:
		return "dragging"
	default:
		return "idle"
	}
}

// Controller is the interaction state machine. It is not safe for concurrent
// use; events must arrive from a single goroutine in order, which is what
// the bubbletea update loop guarantees.
type Controller struct {
	store  *store.Store
	origin model.Point // viewport origin in screen space
	logger *log.Logger

	state State

	// Panning
	lastScreen model.Point

	// DraggingCell
	draggedCellID string
	dragOffset    model.Point // grab point relative to the cell origin, canvas space

	// SelectingBox (canvas space)
	boxStart model.Point
	boxEnd   model.Point
}

// New creates a controller over the given store. origin is the viewport's
// top-left corner in screen space. A nil logger discards diagnostics.
func New(st *store.Store, origin model.Point, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Controller{store: st, origin: origin, logger: logger}
}

// State returns the current interaction state.
func (c *Controller) State() State { return c.state }

// SetOrigin updates the viewport origin (e.g. after a window resize).
func (c *Controller) SetOrigin(origin model.Point) { c.origin = origin }

// SelectionBox returns the in-progress selection rectangle in canvas space.
// ok is false unless a box selection is active.
func (c *Controller) SelectionBox() (box model.Rect, ok bool) {
	if c.state != StateSelectingBox {
		return model.Rect{}, false
	}
	return normalizeRect(c.boxStart, c.boxEnd), true
}

// DraggedCell returns the id of the cell being dragged, if any.
func (c *Controller) DraggedCell() (string, bool) {
	return c.draggedCellID, c.state == StateDraggingCell
}

// =============================================================================
// Pointer Events
// =============================================================================

// PointerDown starts an interaction. A press on a cell begins a drag; a press
// on empty canvas begins a box selection when shift is held, otherwise a pan
// (and clears the selection - clicking empty canvas always deselects).
func (c *Controller) PointerDown(screen model.Point, shift bool) {
	if !model.IsFinite(screen.X) || !model.IsFinite(screen.Y) {
		c.logger.Debug("pointer down discarded", "reason", "non-finite point")
		return
	}
	if c.state != StateIdle {
		return
	}

	doc := c.store.Document()
	canvasPt := canvas.ScreenToCanvas(doc.Canvas, c.origin, screen)

	if cell := hitTest(&doc, canvasPt); cell != "" {
		c.state = StateDraggingCell
		c.draggedCellID = cell
		pos := doc.CellByID(cell).Position
		c.dragOffset = model.Point{X: canvasPt.X - pos.X, Y: canvasPt.Y - pos.Y}
		return
	}

	if shift {
		c.state = StateSelectingBox
		c.boxStart = canvasPt
		c.boxEnd = canvasPt
		return
	}

	c.state = StatePanning
	c.lastScreen = screen
	if err := c.store.ClearSelection(); err != nil {
		c.logger.Debug("clear selection", "err", err)
	}
}

// PointerMove advances whichever interaction is active. Non-finite deltas
// are discarded without disturbing the interaction loop.
func (c *Controller) PointerMove(screen model.Point) {
	if !model.IsFinite(screen.X) || !model.IsFinite(screen.Y) {
		c.logger.Debug("pointer move discarded", "reason", "non-finite point")
		return
	}

	switch c.state {
	case StatePanning:
		doc := c.store.Document()
		delta := model.Point{X: screen.X - c.lastScreen.X, Y: screen.Y - c.lastScreen.Y}
		pan := model.Point{X: doc.Canvas.Pan.X + delta.X, Y: doc.Canvas.Pan.Y + delta.Y}
		if err := c.store.SetPan(pan); err != nil {
			c.logger.Debug("pan", "err", err)
		}
		c.lastScreen = screen

	case StateDraggingCell:
		doc := c.store.Document()
		canvasPt := canvas.ScreenToCanvas(doc.Canvas, c.origin, screen)
		target := model.Point{X: canvasPt.X - c.dragOffset.X, Y: canvasPt.Y - c.dragOffset.Y}
		target = canvas.SnapToGrid(doc.Canvas, target)
		if err := c.store.UpdateCellPosition(c.draggedCellID, target); err != nil {
			c.logger.Debug("drag", "cell", c.draggedCellID, "err", err)
		}

	case StateSelectingBox:
		doc := c.store.Document()
		c.boxEnd = canvas.ScreenToCanvas(doc.Canvas, c.origin, screen)
	}
}

// PointerUp ends the active interaction. Ending a box selection commits the
// membership (cells whose bounds intersect the box); ending a drag invokes
// the design-sequence post-drag hook, which is a guaranteed no-op.
func (c *Controller) PointerUp() {
	switch c.state {
	case StateDraggingCell:
		c.store.CellDragFinished(c.draggedCellID)
	case StateSelectingBox:
		box := normalizeRect(c.boxStart, c.boxEnd)
		doc := c.store.Document()
		var ids []string
		for i := range doc.Cells {
			if doc.Cells[i].Bounds().Intersects(box) {
				ids = append(ids, doc.Cells[i].ID)
			}
		}
		if err := c.store.SetSelection(ids); err != nil {
			c.logger.Debug("box selection", "err", err)
		}
	}
	c.reset()
}

// Wheel forwards a wheel event to the canvas: zoom with the modifier held,
// pan without. Suppressed entirely while a cell drag is active.
func (c *Controller) Wheel(deltaX, deltaY float64, zoomModifier bool) {
	if c.state == StateDraggingCell {
		return
	}
	doc := c.store.Document()
	pages := doc.Canvas.Pages
	next := canvas.ApplyWheel(doc.Canvas, deltaX, deltaY, zoomModifier, pages)
	if zoomModifier {
		if err := c.store.SetZoom(next.Zoom); err != nil {
			c.logger.Debug("zoom", "err", err)
		}
		return
	}
	if err := c.store.SetPan(next.Pan); err != nil {
		c.logger.Debug("wheel pan", "err", err)
	}
}

// Escape cancels any active interaction and clears the selection
// unconditionally.
func (c *Controller) Escape() {
	c.reset()
	if err := c.store.ClearSelection(); err != nil {
		c.logger.Debug("escape", "err", err)
	}
}

// =============================================================================
// Helpers
// =============================================================================

func (c *Controller) reset() {
	c.state = StateIdle
	c.draggedCellID = ""
	c.dragOffset = model.Point{}
	c.boxStart = model.Point{}
	c.boxEnd = model.Point{}
	c.lastScreen = model.Point{}
}

// hitTest returns the id of the topmost cell containing the point, preferring
// higher z-index and, among equals, later insertion order.
func hitTest(d *model.Document, pt model.Point) string {
	best := ""
	bestZ := 0
	for i := range d.Cells {
		cell := &d.Cells[i]
		b := cell.Bounds()
		if pt.X < b.Min.X || pt.X > b.Max.X || pt.Y < b.Min.Y || pt.Y > b.Max.Y {
			continue
		}
		if best == "" || cell.ZIndex >= bestZ {
			best = cell.ID
			bestZ = cell.ZIndex
		}
	}
	return best
}

func normalizeRect(a, b model.Point) model.Rect {
	r := model.Rect{Min: a, Max: b}
	if r.Min.X > r.Max.X {
		r.Min.X, r.Max.X = r.Max.X, r.Min.X
	}
	if r.Min.Y > r.Max.Y {
		r.Min.Y, r.Max.Y = r.Max.Y, r.Min.Y
	}
	return r
}
