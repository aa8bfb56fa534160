package notebook

import (
	"encoding/json"
	"math"
	"os"
	"time"

	"github.com/canvasnote/canvasnote/pkg/canvas"
	"github.com/canvasnote/canvasnote/pkg/errors"
	"github.com/canvasnote/canvasnote/pkg/flow"
	"github.com/canvasnote/canvasnote/pkg/model"
	"github.com/canvasnote/canvasnote/pkg/observability"
	"github.com/canvasnote/canvasnote/pkg/store"
)

// Import reconstructs a document from a notebook artifact and an optional
// layout artifact. Validation is all-or-nothing: a malformed artifact rejects
// the whole import and no document is produced.
//
// Cells with a layout entry get their geometry restored verbatim. Cells
// without one - the whole notebook, when no layout artifact is supplied - are
// flow-placed as a single batch, so a foreign Jupyter notebook opens as a
// readable column of pages rather than a stack at the origin.
//
// The selection is never imported; every cell starts deselected.
func Import(nb Notebook, layout *LayoutArtifact) (model.Document, error) {
	start := time.Now()

	d, pending, err := buildDocument(nb, layout)
	if err != nil {
		observability.Convert().OnImport(len(nb.Cells), 0, time.Since(start), err)
		return model.Document{}, err
	}

	if len(pending) > 0 {
		placeFlowed(&d, pending)
	}
	if len(pending) > 0 || layout == nil {
		_, pageH := d.Canvas.EffectivePageSize()
		d.Canvas.Pages = importPageCount(d.MaxCellBottom(), pageH)
	} else if d.Canvas.Pages < 1 {
		d.Canvas.Pages = 1
	}

	observability.Convert().OnImport(len(nb.Cells), len(pending), time.Since(start), nil)
	return d, nil
}

// ImportInto imports the artifacts and atomically replaces the store's
// document with the result. On error the store is untouched.
func ImportInto(s *store.Store, nb Notebook, layout *LayoutArtifact) (model.Document, error) {
	d, err := Import(nb, layout)
	if err != nil {
		return model.Document{}, err
	}
	s.Replace(d)
	return d, nil
}

func buildDocument(nb Notebook, layout *LayoutArtifact) (model.Document, []flow.Pending, error) {
	if nb.Cells == nil {
		return model.Document{}, nil, errors.New(errors.ErrCodeInvalidNotebook, "notebook has no cells array")
	}
	if nb.NBFormat != NBFormat {
		return model.Document{}, nil, errors.New(errors.ErrCodeInvalidNotebook, "unsupported nbformat %d (want %d)", nb.NBFormat, NBFormat)
	}
	if layout != nil {
		if err := validateLayout(layout); err != nil {
			return model.Document{}, nil, err
		}
	}

	d := model.NewDocument(nb.Metadata.Name)
	if layout != nil {
		if layout.NotebookID != "" {
			d.ID = layout.NotebookID
		}
		d.Canvas = normalizeCanvas(layout.Canvas)
		if len(layout.ExecutionHistory) > 0 {
			d.ExecutionHistory = append([]time.Time(nil), layout.ExecutionHistory...)
		}
	}

	seen := make(map[string]bool, len(nb.Cells))
	var pending []flow.Pending

	for i := range nb.Cells {
		nc := &nb.Cells[i]
		if !model.ValidCellTypes[nc.CellType] {
			return model.Document{}, nil, errors.New(errors.ErrCodeInvalidCellType, "cell %d: unknown cell type %q", i, nc.CellType)
		}
		id := nc.ID
		if id == "" {
			// Pre-4.5 notebooks have no cell ids.
			id = model.NewID()
		}
		if seen[id] {
			return model.Document{}, nil, errors.New(errors.ErrCodeInvalidNotebook, "duplicate cell id %q", id)
		}
		seen[id] = true

		cell := model.Cell{
			ID:               id,
			Type:             nc.CellType,
			Content:          nc.Source,
			CollapsedSize:    model.DefaultCollapsedSize,
			Language:         nc.Metadata.Language,
			Format:           nc.Metadata.Format,
			ExecutionOrder:   copyInt(nc.Metadata.ExecutionOrder),
			ExecutionCount:   copyInt(nc.ExecutionCount),
			SourceCodeCellID: nc.Metadata.SourceCodeCellID,
			OutputType:       nc.Metadata.OutputType,
			Success:          nc.Metadata.Success,
			ExecutionTime:    copyTime(nc.Metadata.ExecutionTime),
		}
		if cell.Type == model.CellTypeCode && cell.Language == "" {
			cell.Language = model.DefaultLanguage
		}

		cl, hasLayout := lookupLayout(layout, id)
		if hasLayout {
			cell.Position = cl.Position
			cell.Size = cl.Size
			cell.Collapsed = cl.Collapsed
			if cl.CollapsedSize != (model.Size{}) {
				cell.CollapsedSize = cl.CollapsedSize
			}
			cell.ZIndex = cl.ZIndex
			if cl.RenderingHints != nil {
				hints := *cl.RenderingHints
				cell.RenderingHints = &hints
			}
		} else {
			if cell.Type == model.CellTypeMarkdown {
				cell.RenderingHints = model.DefaultHints(cell.Type, model.HintText)
			}
			pending = append(pending, flow.Pending{
				ID:            id,
				Type:          cell.Type,
				Hint:          hintOf(cell.RenderingHints),
				ContentLength: len(cell.Content),
			})
		}

		d.Cells = append(d.Cells, cell)
	}

	return d, pending, nil
}

// placeFlowed runs the flow placement for the whole pending batch and writes
// the synthesized geometry back. Flowed cells stack above whatever the layout
// artifact already placed.
func placeFlowed(d *model.Document, pending []flow.Pending) {
	zOffset := d.NextZIndex() - (model.CellZBaseline + 1)
	if zOffset < 0 {
		zOffset = 0
	}
	for _, p := range flow.Place(pending, flow.DefaultConstraints(d.Canvas)) {
		cell := d.CellByID(p.ID)
		if cell == nil {
			continue
		}
		cell.Position = p.Position
		cell.Size = p.Size
		cell.ZIndex = p.ZIndex + zOffset
	}
}

func lookupLayout(layout *LayoutArtifact, id string) (CellLayout, bool) {
	if layout == nil {
		return CellLayout{}, false
	}
	cl, ok := layout.Cells[id]
	return cl, ok
}

func hintOf(h *model.RenderingHints) model.HintType {
	if h == nil {
		return model.HintText
	}
	return h.Type
}

// validateLayout rejects artifacts whose geometry cannot be trusted.
// Non-finite coordinates are never coerced; the whole import fails instead.
func validateLayout(layout *LayoutArtifact) error {
	if layout.Cells == nil {
		return errors.New(errors.ErrCodeInvalidLayout, "layout artifact has no cells map")
	}
	for id, cl := range layout.Cells {
		for _, v := range []float64{cl.Position.X, cl.Position.Y, cl.Size.Width, cl.Size.Height, cl.CollapsedSize.Width, cl.CollapsedSize.Height} {
			if !model.IsFinite(v) {
				return errors.New(errors.ErrCodeInvalidLayout, "layout entry %q has non-finite geometry", id)
			}
		}
	}
	return nil
}

// normalizeCanvas repairs out-of-range viewport settings from an artifact
// without touching page geometry.
func normalizeCanvas(c model.CanvasState) model.CanvasState {
	c.Zoom = canvas.ClampZoom(c.Zoom)
	if !model.IsFinite(c.Pan.X) || !model.IsFinite(c.Pan.Y) {
		c.Pan = model.Point{}
	}
	if !model.IsFinite(c.GridSize) || c.GridSize <= 0 {
		c.GridSize = model.DefaultCanvas().GridSize
	}
	if c.PageSize.Width <= 0 || c.PageSize.Height <= 0 ||
		!model.IsFinite(c.PageSize.Width) || !model.IsFinite(c.PageSize.Height) {
		c.PageSize = model.PageSizeA4
	}
	if c.Orientation != model.OrientationPortrait && c.Orientation != model.OrientationLandscape {
		c.Orientation = model.OrientationPortrait
	}
	return c
}

// importPageCount sizes the page stack to the imported content.
func importPageCount(maxBottom, pageHeight float64) int {
	if pageHeight <= 0 {
		return 1
	}
	pages := int(math.Ceil(maxBottom / pageHeight))
	if pages < 1 {
		pages = 1
	}
	return pages
}

// =============================================================================
// Deserialization
// =============================================================================

// UnmarshalNotebook parses a notebook artifact.
func UnmarshalNotebook(data []byte) (Notebook, error) {
	var nb Notebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return Notebook{}, errors.Wrap(errors.ErrCodeInvalidNotebook, err, "parse notebook")
	}
	return nb, nil
}

// UnmarshalLayout parses a layout artifact.
func UnmarshalLayout(data []byte) (LayoutArtifact, error) {
	var la LayoutArtifact
	if err := json.Unmarshal(data, &la); err != nil {
		return LayoutArtifact{}, errors.Wrap(errors.ErrCodeInvalidLayout, err, "parse layout")
	}
	return la, nil
}

// ReadNotebookFile reads and parses a notebook artifact from path.
func ReadNotebookFile(path string) (Notebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Notebook{}, errors.Wrap(errors.ErrCodeInvalidPath, err, "read notebook file %s", path)
	}
	return UnmarshalNotebook(data)
}

// ReadLayoutFile reads and parses a layout artifact from path.
func ReadLayoutFile(path string) (LayoutArtifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LayoutArtifact{}, errors.Wrap(errors.ErrCodeInvalidPath, err, "read layout file %s", path)
	}
	return UnmarshalLayout(data)
}
