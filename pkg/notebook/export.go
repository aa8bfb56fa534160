package notebook

import (
	"encoding/json"
	"os"
	"time"

	"github.com/canvasnote/canvasnote/pkg/errors"
	"github.com/canvasnote/canvasnote/pkg/model"
	"github.com/canvasnote/canvasnote/pkg/observability"
)

// Export splits a document into its notebook and layout artifacts. Cells keep
// document order in the notebook; the layout artifact is keyed by cell id.
// Transient UI state (the selection) is deliberately not serialized.
func Export(d model.Document) (Notebook, LayoutArtifact) {
	start := time.Now()

	nb := Notebook{
		Cells:         make([]Cell, 0, len(d.Cells)),
		Metadata:      Metadata{Name: d.Name},
		NBFormat:      NBFormat,
		NBFormatMinor: NBFormatMinor,
	}
	la := LayoutArtifact{
		Version:    ArtifactVersion,
		NotebookID: d.ID,
		Canvas:     d.Canvas,
		Cells:      make(map[string]CellLayout, len(d.Cells)),
	}
	if len(d.ExecutionHistory) > 0 {
		la.ExecutionHistory = append([]time.Time(nil), d.ExecutionHistory...)
	}

	for i := range d.Cells {
		c := &d.Cells[i]
		nb.Cells = append(nb.Cells, exportCell(c))
		la.Cells[c.ID] = exportLayout(c)
	}

	observability.Convert().OnExport(len(d.Cells), time.Since(start), nil)
	return nb, la
}

func exportCell(c *model.Cell) Cell {
	return Cell{
		ID:             c.ID,
		CellType:       c.Type,
		Source:         c.Content,
		ExecutionCount: copyInt(c.ExecutionCount),
		Metadata: CellMetadata{
			Language:         c.Language,
			Format:           c.Format,
			ExecutionOrder:   copyInt(c.ExecutionOrder),
			SourceCodeCellID: c.SourceCodeCellID,
			OutputType:       c.OutputType,
			Success:          c.Success,
			ExecutionTime:    copyTime(c.ExecutionTime),
		},
	}
}

func exportLayout(c *model.Cell) CellLayout {
	cl := CellLayout{
		Position:      c.Position,
		Size:          c.Size,
		Collapsed:     c.Collapsed,
		CollapsedSize: c.CollapsedSize,
		ZIndex:        c.ZIndex,
		CellType:      c.Type,
	}
	if c.RenderingHints != nil {
		hints := *c.RenderingHints
		cl.RenderingHints = &hints
	}
	return cl
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// =============================================================================
// Serialization
// =============================================================================

// MarshalNotebook serializes a notebook artifact as indented JSON.
func MarshalNotebook(nb Notebook) ([]byte, error) {
	data, err := json.MarshalIndent(nb, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "marshal notebook")
	}
	return append(data, '\n'), nil
}

// MarshalLayout serializes a layout artifact as indented JSON.
func MarshalLayout(la LayoutArtifact) ([]byte, error) {
	data, err := json.MarshalIndent(la, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "marshal layout")
	}
	return append(data, '\n'), nil
}

// WriteNotebookFile writes the notebook artifact to path.
func WriteNotebookFile(nb Notebook, path string) error {
	data, err := MarshalNotebook(nb)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write notebook file %s", path)
	}
	return nil
}

// WriteLayoutFile writes the layout artifact to path.
func WriteLayoutFile(la LayoutArtifact, path string) error {
	data, err := MarshalLayout(la)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write layout file %s", path)
	}
	return nil
}
