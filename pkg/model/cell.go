package model

import "time"

// =============================================================================
// Cell Types
// =============================================================================

// CellType discriminates the cell union.
type CellType string

// Cell types.
const (
	CellTypeCode     CellType = "code"
	CellTypeMarkdown CellType = "markdown"
	CellTypeRaw      CellType = "raw"
)

// ValidCellTypes is the set of accepted cell types.
var ValidCellTypes = map[CellType]bool{
	CellTypeCode:     true,
	CellTypeMarkdown: true,
	CellTypeRaw:      true,
}

// OutputType classifies a synthesized output cell.
type OutputType string

// Output cell types.
const (
	OutputText    OutputType = "text"
	OutputError   OutputType = "error"
	OutputImage   OutputType = "image"
	OutputSuccess OutputType = "success"
)

// HintType selects the markdown rendering sub-type.
type HintType string

// Markdown rendering sub-types.
const (
	HintText     HintType = "text"
	HintEquation HintType = "equation"
	HintImage    HintType = "image"
	HintGraph    HintType = "graph"
)

// Cell geometry floors. Updates below these are clamped, not rejected.
const (
	MinCellWidth  = 100.0
	MinCellHeight = 50.0
)

// CellZBaseline is the z-index reserved for page backgrounds. Cells are
// always assigned z-indices strictly above it so they render above pages.
const CellZBaseline = 10

// DuplicateOffset is the position delta applied when duplicating a cell.
const DuplicateOffset = 20.0

// =============================================================================
// Rendering Hints
// =============================================================================

// RenderingHints carries markdown presentation metadata. Only the fields for
// the active Type are meaningful.
type RenderingHints struct {
	Type      HintType `json:"type" bson:"type"`
	Latex     string   `json:"latex,omitempty" bson:"latex,omitempty"`          // equation source
	ImageSrc  string   `json:"imageSrc,omitempty" bson:"image_src,omitempty"`   // image location
	ChartSpec string   `json:"chartSpec,omitempty" bson:"chart_spec,omitempty"` // graph/chart definition
}

// =============================================================================
// Cell
// =============================================================================

// Cell is one element on the canvas. See the package documentation for which
// fields belong to which cell type.
type Cell struct {
	ID            string   `json:"id" bson:"id"`
	Type          CellType `json:"type" bson:"type"`
	Position      Point    `json:"position" bson:"position"`
	Size          Size     `json:"size" bson:"size"`
	Collapsed     bool     `json:"collapsed,omitempty" bson:"collapsed,omitempty"`
	CollapsedSize Size     `json:"collapsedSize" bson:"collapsed_size"`
	Selected      bool     `json:"selected,omitempty" bson:"selected,omitempty"`
	ZIndex        int      `json:"zIndex" bson:"z_index"`
	Content       string   `json:"content" bson:"content"`

	// ExecutionOrder is the design-sequence number. Assigned once when a code
	// cell is created, inherited by its output cells, nil for everything else.
	// Never renumbered by edits, movement, or re-execution.
	ExecutionOrder *int `json:"executionOrder,omitempty" bson:"execution_order,omitempty"`

	// Code cells.
	Language       string `json:"language,omitempty" bson:"language,omitempty"`
	ExecutionCount *int   `json:"executionCount,omitempty" bson:"execution_count,omitempty"`

	// Markdown cells.
	RenderingHints *RenderingHints `json:"renderingHints,omitempty" bson:"rendering_hints,omitempty"`

	// Raw cells.
	Format string `json:"format,omitempty" bson:"format,omitempty"`

	// Raw cells synthesized as run outputs.
	SourceCodeCellID string     `json:"sourceCodeCellId,omitempty" bson:"source_code_cell_id,omitempty"`
	OutputType       OutputType `json:"outputType,omitempty" bson:"output_type,omitempty"`
	Success          bool       `json:"success,omitempty" bson:"success,omitempty"`
	ExecutionTime    *time.Time `json:"executionTime,omitempty" bson:"execution_time,omitempty"`
}

// IsCode reports whether the cell is a code cell.
func (c *Cell) IsCode() bool { return c.Type == CellTypeCode }

// IsOutput reports whether the cell is a raw cell synthesized as a run output.
func (c *Cell) IsOutput() bool { return c.Type == CellTypeRaw && c.SourceCodeCellID != "" }

// Bounds returns the cell's rectangle in canvas coordinates, honoring the
// collapsed size when the cell is collapsed.
func (c *Cell) Bounds() Rect {
	size := c.Size
	if c.Collapsed && c.CollapsedSize.Width > 0 && c.CollapsedSize.Height > 0 {
		size = c.CollapsedSize
	}
	return Rect{
		Min: c.Position,
		Max: Point{X: c.Position.X + size.Width, Y: c.Position.Y + size.Height},
	}
}

// Clone returns a deep copy of the cell.
func (c Cell) Clone() Cell {
	out := c
	if c.ExecutionOrder != nil {
		v := *c.ExecutionOrder
		out.ExecutionOrder = &v
	}
	if c.ExecutionCount != nil {
		v := *c.ExecutionCount
		out.ExecutionCount = &v
	}
	if c.RenderingHints != nil {
		v := *c.RenderingHints
		out.RenderingHints = &v
	}
	if c.ExecutionTime != nil {
		v := *c.ExecutionTime
		out.ExecutionTime = &v
	}
	return out
}

// =============================================================================
// Defaults
// =============================================================================

// Default geometry for newly created cells.
var (
	DefaultCellSize      = Size{Width: 480, Height: 160}
	DefaultCollapsedSize = Size{Width: 480, Height: 40}
)

// DefaultLanguage is the language tag applied to new code cells.
const DefaultLanguage = "python"

// DefaultContent returns the placeholder content for a new cell of the given
// type. Markdown placeholders depend on the rendering hint sub-type.
func DefaultContent(t CellType, hint HintType) string {
	switch t {
	case CellTypeCode:
		return "# New code cell\n"
	case CellTypeMarkdown:
		switch hint {
		case HintEquation:
			return "E = mc^2"
		case HintImage:
			return ""
		case HintGraph:
			return "{}"
		default:
			return "New markdown cell"
		}
	default:
		return ""
	}
}

// DefaultHints returns the rendering hints for a new markdown cell.
// Non-markdown cells get none.
func DefaultHints(t CellType, hint HintType) *RenderingHints {
	if t != CellTypeMarkdown {
		return nil
	}
	if hint == "" {
		hint = HintText
	}
	h := &RenderingHints{Type: hint}
	switch hint {
	case HintEquation:
		h.Latex = DefaultContent(t, hint)
	case HintGraph:
		h.ChartSpec = DefaultContent(t, hint)
	}
	return h
}
