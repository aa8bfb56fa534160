// Package notebook converts between the in-memory Document and the two
// serialized artifacts: a Jupyter-compatible notebook file and a companion
// spatial layout file.
//
// The notebook artifact is order-preserving and content-complete on its own:
// any nbformat-4 viewer can open it without the layout artifact. The layout
// artifact carries everything spatial - per-cell geometry keyed by cell id,
// the full canvas state, and the execution history.
//
// The format is designed for round-trip fidelity: export → import → export
// produces identical artifacts for any document with fully specified layout.
// Cells arriving without a layout entry (a foreign notebook) are placed by
// pkg/flow in a single batch.
package notebook

import (
	"time"

	"github.com/canvasnote/canvasnote/pkg/model"
)

// NBFormat identifies the notebook interchange format version written by
// Export. Minor version 5 is the first with stable cell ids.
const (
	NBFormat      = 4
	NBFormatMinor = 5
)

// ArtifactVersion is the layout artifact schema version.
const ArtifactVersion = "1.0"

// =============================================================================
// Notebook Artifact
// =============================================================================

// Notebook is the content artifact: typed cells in document order.
type Notebook struct {
	Cells         []Cell   `json:"cells"`
	Metadata      Metadata `json:"metadata"`
	NBFormat      int      `json:"nbformat"`
	NBFormatMinor int      `json:"nbformat_minor"`
}

// Metadata is the notebook-level metadata block.
type Metadata struct {
	Name string `json:"name,omitempty"`
}

// Cell is one notebook cell. Geometry lives in the layout artifact; content
// and execution bookkeeping live here so the notebook is meaningful alone.
type Cell struct {
	ID             string         `json:"id"`
	CellType       model.CellType `json:"cell_type"`
	Source         string         `json:"source"`
	Metadata       CellMetadata   `json:"metadata"`
	ExecutionCount *int           `json:"execution_count,omitempty"`
}

// CellMetadata holds the cell fields that have no nbformat top-level slot.
// Output-cell fields are first-class here, never an open map.
type CellMetadata struct {
	Language         string           `json:"language,omitempty"`
	Format           string           `json:"format,omitempty"`
	ExecutionOrder   *int             `json:"execution_order,omitempty"`
	SourceCodeCellID string           `json:"source_code_cell_id,omitempty"`
	OutputType       model.OutputType `json:"output_type,omitempty"`
	Success          bool             `json:"success,omitempty"`
	ExecutionTime    *time.Time       `json:"execution_time,omitempty"`
}

// =============================================================================
// Layout Artifact
// =============================================================================

// LayoutArtifact is the spatial companion file, keyed by cell id.
type LayoutArtifact struct {
	Version          string                `json:"version"`
	NotebookID       string                `json:"notebook_id"`
	Canvas           model.CanvasState     `json:"canvas"`
	Cells            map[string]CellLayout `json:"cells"`
	ExecutionHistory []time.Time           `json:"execution_history,omitempty"`
}

// CellLayout is the per-cell spatial entry.
type CellLayout struct {
	Position       model.Point           `json:"position"`
	Size           model.Size            `json:"size"`
	Collapsed      bool                  `json:"collapsed,omitempty"`
	CollapsedSize  model.Size            `json:"collapsed_size"`
	ZIndex         int                   `json:"z_index"`
	CellType       model.CellType        `json:"cell_type"`
	RenderingHints *model.RenderingHints `json:"rendering_hints,omitempty"`
}
