// Package model defines the canvasnote document model: a Document holding
// typed cells positioned on a paginated 2D canvas.
//
// The model is value-oriented: a Document and everything it contains is plain
// data. Mutation happens in pkg/store, which clones a Document, edits the
// clone, and publishes it as the new snapshot. Published snapshots are never
// edited in place, so readers can hold them without synchronization.
//
// # Cells
//
// Cell is a discriminated union over three cell types - check Type to
// determine which fields are populated:
//
//	Code ("code"):
//	  - Language, ExecutionCount, ExecutionOrder
//	Markdown ("markdown"):
//	  - RenderingHints (text/equation/image/graph sub-type)
//	Raw ("raw"):
//	  - Format; output cells additionally carry SourceCodeCellID,
//	    OutputType, Success, ExecutionTime
//
// # Serialization
//
// Types carry both json and bson tags: json for the notebook and layout
// artifacts (pkg/notebook) and for the HTTP API, bson for the MongoDB
// document repository (pkg/repo).
package model

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Geometry
// =============================================================================

// Point is a position in canvas coordinates.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Size is a width/height pair in canvas units.
type Size struct {
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// Rect is an axis-aligned rectangle in canvas coordinates.
type Rect struct {
	Min Point
	Max Point
}

// Intersects reports whether r and other overlap.
// Rectangles that merely touch at an edge do not intersect.
func (r Rect) Intersects(other Rect) bool {
	return r.Min.X < other.Max.X && other.Min.X < r.Max.X &&
		r.Min.Y < other.Max.Y && other.Min.Y < r.Max.Y
}

// IsFinite reports whether f is a usable coordinate value
// (not NaN and not an infinity).
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// =============================================================================
// Canvas State
// =============================================================================

// Orientation selects how a page's configured dimensions are applied.
type Orientation string

// Page orientations.
const (
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
)

// Zoom limits for the canvas viewport.
const (
	ZoomMin = 0.1
	ZoomMax = 3.0
)

// PageSize is a named page format. Width and Height are the portrait
// dimensions; Orientation decides which is applied horizontally.
type PageSize struct {
	Name   string  `json:"name" bson:"name"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// Named page sizes in canvas units (CSS pixels at 96 DPI).
var (
	PageSizeA4     = PageSize{Name: "a4", Width: 794, Height: 1123}
	PageSizeLetter = PageSize{Name: "letter", Width: 816, Height: 1056}
)

// CanvasState holds the viewport and pagination settings of a document.
type CanvasState struct {
	Zoom        float64     `json:"zoom" bson:"zoom"`
	Pan         Point       `json:"pan" bson:"pan"`
	GridSize    float64     `json:"gridSize" bson:"grid_size"`
	SnapToGrid  bool        `json:"snapToGrid" bson:"snap_to_grid"`
	PageSize    PageSize    `json:"pageSize" bson:"page_size"`
	Orientation Orientation `json:"orientation" bson:"orientation"`
	Pages       int         `json:"pages" bson:"pages"` // derived from content, not authoritative
	PageMargin  float64     `json:"pageMargin" bson:"page_margin"`
}

// EffectivePageSize returns the page width and height with the orientation
// applied. Landscape swaps the longer dimension to the horizontal axis; the
// stored PageSize is never modified.
func (c CanvasState) EffectivePageSize() (width, height float64) {
	long := math.Max(c.PageSize.Width, c.PageSize.Height)
	short := math.Min(c.PageSize.Width, c.PageSize.Height)
	if c.Orientation == OrientationLandscape {
		return long, short
	}
	return short, long
}

// DefaultCanvas returns the canvas settings for a new document.
func DefaultCanvas() CanvasState {
	return CanvasState{
		Zoom:        1.0,
		GridSize:    20,
		SnapToGrid:  false,
		PageSize:    PageSizeA4,
		Orientation: OrientationPortrait,
		Pages:       1,
		PageMargin:  24,
	}
}

// =============================================================================
// Document
// =============================================================================

// FormatVersion is the document version tag written into new documents and
// the layout artifact.
const FormatVersion = "1.0"

// Document is a complete canvas notebook. Cells keep insertion order, which
// doubles as the z-stacking tiebreak for equal ZIndex values.
type Document struct {
	ID               string      `json:"id" bson:"_id"`
	Name             string      `json:"name" bson:"name"`
	Created          time.Time   `json:"created" bson:"created"`
	Modified         time.Time   `json:"modified" bson:"modified"`
	Version          string      `json:"version" bson:"version"`
	Canvas           CanvasState `json:"canvas" bson:"canvas"`
	Cells            []Cell      `json:"cells" bson:"cells"`
	ExecutionHistory []time.Time `json:"executionHistory,omitempty" bson:"execution_history,omitempty"`
}

// NewID returns a fresh opaque identifier for documents and cells.
func NewID() string {
	return uuid.NewString()
}

// NewDocument creates an empty document with default canvas settings.
func NewDocument(name string) Document {
	now := time.Now()
	return Document{
		ID:       NewID(),
		Name:     name,
		Created:  now,
		Modified: now,
		Version:  FormatVersion,
		Canvas:   DefaultCanvas(),
	}
}

// Clone returns a deep copy of the document. Slices and pointer fields are
// duplicated so mutating the clone never leaks into the original snapshot.
func (d Document) Clone() Document {
	out := d
	out.Cells = make([]Cell, len(d.Cells))
	for i, c := range d.Cells {
		out.Cells[i] = c.Clone()
	}
	if d.ExecutionHistory != nil {
		out.ExecutionHistory = make([]time.Time, len(d.ExecutionHistory))
		copy(out.ExecutionHistory, d.ExecutionHistory)
	}
	return out
}

// CellByID returns a pointer to the cell with the given id, or nil.
// The pointer aliases the document's cell slice; callers that received the
// document as a published snapshot must treat it as read-only.
func (d Document) CellByID(id string) *Cell {
	for i := range d.Cells {
		if d.Cells[i].ID == id {
			return &d.Cells[i]
		}
	}
	return nil
}

// MaxExecutionOrder returns the highest executionOrder among code cells,
// or 0 if no code cell has one.
func (d Document) MaxExecutionOrder() int {
	maxOrder := 0
	for i := range d.Cells {
		c := &d.Cells[i]
		if c.Type == CellTypeCode && c.ExecutionOrder != nil && *c.ExecutionOrder > maxOrder {
			maxOrder = *c.ExecutionOrder
		}
	}
	return maxOrder
}

// MaxCellBottom returns the largest position.y + size.height over all cells,
// or 0 for an empty document.
func (d Document) MaxCellBottom() float64 {
	bottom := 0.0
	for i := range d.Cells {
		if b := d.Cells[i].Position.Y + d.Cells[i].Size.Height; b > bottom {
			bottom = b
		}
	}
	return bottom
}

// NextZIndex returns the z-index for a newly stacked cell: one above the
// current topmost cell, and always above the page-layer baseline.
func (d Document) NextZIndex() int {
	top := CellZBaseline
	for i := range d.Cells {
		if d.Cells[i].ZIndex > top {
			top = d.Cells[i].ZIndex
		}
	}
	return top + 1
}

// SelectedIDs returns the ids of all selected cells in document order.
func (d Document) SelectedIDs() []string {
	var ids []string
	for i := range d.Cells {
		if d.Cells[i].Selected {
			ids = append(ids, d.Cells[i].ID)
		}
	}
	return ids
}

// OutputCellsFor returns the raw output cells linked to the given code cell.
func (d Document) OutputCellsFor(codeCellID string) []Cell {
	var out []Cell
	for i := range d.Cells {
		if d.Cells[i].SourceCodeCellID == codeCellID {
			out = append(out, d.Cells[i])
		}
	}
	return out
}
