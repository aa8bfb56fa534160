package notebook

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/canvasnote/canvasnote/pkg/errors"
	"github.com/canvasnote/canvasnote/pkg/model"
	"github.com/canvasnote/canvasnote/pkg/store"
)

// buildDoc assembles a document with a few interacting cells through the
// store, so it carries realistic bookkeeping.
func buildDoc(t *testing.T) model.Document {
	t.Helper()
	s := store.New(model.NewDocument("roundtrip"), nil)

	code, err := s.AddCell(model.CellTypeCode, model.Point{X: 100, Y: 120}, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddCell(model.CellTypeMarkdown, model.Point{X: 100, Y: 400}, model.HintEquation); err != nil {
		t.Fatal(err)
	}
	content := "print(1)"
	if err := s.UpdateCell(code.ID, store.CellPatch{Content: &content}); err != nil {
		t.Fatal(err)
	}

	// Simulate an executed cell with an output attached to it.
	count := 3
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	if err := s.Mutate("seed_exec", func(d *model.Document) error {
		c := d.CellByID(code.ID)
		c.ExecutionCount = &count
		c.ExecutionTime = &now
		d.ExecutionHistory = append(d.ExecutionHistory, now)
		d.Cells = append(d.Cells, model.Cell{
			ID:               model.NewID(),
			Type:             model.CellTypeRaw,
			Content:          "1",
			Position:         model.Point{X: 600, Y: 120},
			Size:             model.Size{Width: 480, Height: 120},
			CollapsedSize:    model.DefaultCollapsedSize,
			ZIndex:           d.NextZIndex(),
			Format:           "text/plain",
			SourceCodeCellID: code.ID,
			OutputType:       model.OutputText,
			Success:          true,
			ExecutionOrder:   code.ExecutionOrder,
		})
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	return s.Document()
}

func TestRoundTrip(t *testing.T) {
	doc := buildDoc(t)

	nb, la := Export(doc)
	imported, err := Import(nb, &la)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	nb2, la2 := Export(imported)

	if !reflect.DeepEqual(nb, nb2) {
		t.Error("notebook artifact must survive a round trip unchanged")
	}
	if !reflect.DeepEqual(la, la2) {
		t.Error("layout artifact must survive a round trip unchanged")
	}
	if imported.ID != doc.ID {
		t.Errorf("document id = %q, want %q", imported.ID, doc.ID)
	}
}

func TestExportExcludesSelection(t *testing.T) {
	doc := buildDoc(t)
	for i := range doc.Cells {
		doc.Cells[i].Selected = true
	}

	nb, la := Export(doc)
	imported, err := Import(nb, &la)
	if err != nil {
		t.Fatal(err)
	}
	for i := range imported.Cells {
		if imported.Cells[i].Selected {
			t.Fatal("selection must never survive serialization")
		}
	}
}

func TestImportWithoutLayoutFlows(t *testing.T) {
	nb := Notebook{NBFormat: NBFormat, NBFormatMinor: NBFormatMinor}
	sources := []string{"import os", "# Title", "x = 1", "print(x)", "notes"}
	types := []model.CellType{
		model.CellTypeCode, model.CellTypeMarkdown, model.CellTypeCode,
		model.CellTypeCode, model.CellTypeRaw,
	}
	for i, src := range sources {
		nb.Cells = append(nb.Cells, Cell{ID: model.NewID(), CellType: types[i], Source: src})
	}

	doc, err := Import(nb, nil)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(doc.Cells) != len(sources) {
		t.Fatalf("cell count = %d, want %d", len(doc.Cells), len(sources))
	}

	// Earlier cells sit above or left of later ones; none overlap.
	for i := 1; i < len(doc.Cells); i++ {
		prev, cur := doc.Cells[i-1], doc.Cells[i]
		if cur.Position.Y <= prev.Position.Y && cur.Position.X == prev.Position.X {
			t.Errorf("cell %d at %v does not follow cell %d at %v", i, cur.Position, i-1, prev.Position)
		}
		if cur.Bounds().Intersects(prev.Bounds()) {
			t.Errorf("flowed cells %d and %d overlap", i-1, i)
		}
	}
	for i := range doc.Cells {
		if doc.Cells[i].Size.Width < model.MinCellWidth || doc.Cells[i].Size.Height < model.MinCellHeight {
			t.Errorf("cell %d has degenerate size %v", i, doc.Cells[i].Size)
		}
	}
	if doc.Canvas.Pages < 1 {
		t.Errorf("pages = %d, want >= 1", doc.Canvas.Pages)
	}
}

func TestImportEmptyCellIDGetsFresh(t *testing.T) {
	nb := Notebook{
		NBFormat: NBFormat,
		Cells: []Cell{
			{CellType: model.CellTypeCode, Source: "a"},
			{CellType: model.CellTypeCode, Source: "b"},
		},
	}
	doc, err := Import(nb, nil)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Cells[0].ID == "" || doc.Cells[1].ID == "" {
		t.Fatal("imported cells must get ids")
	}
	if doc.Cells[0].ID == doc.Cells[1].ID {
		t.Error("generated ids must be distinct")
	}
}

func TestImportRejectsMalformed(t *testing.T) {
	valid := func() Notebook {
		return Notebook{
			NBFormat: NBFormat,
			Cells:    []Cell{{ID: "c1", CellType: model.CellTypeCode, Source: "x"}},
		}
	}

	tests := []struct {
		name     string
		nb       Notebook
		layout   *LayoutArtifact
		wantCode errors.Code
	}{
		{
			name:     "nil cells array",
			nb:       Notebook{NBFormat: NBFormat},
			wantCode: errors.ErrCodeInvalidNotebook,
		},
		{
			name: "wrong nbformat",
			nb: Notebook{
				NBFormat: 3,
				Cells:    []Cell{{ID: "c1", CellType: model.CellTypeCode}},
			},
			wantCode: errors.ErrCodeInvalidNotebook,
		},
		{
			name: "duplicate ids",
			nb: Notebook{
				NBFormat: NBFormat,
				Cells: []Cell{
					{ID: "c1", CellType: model.CellTypeCode},
					{ID: "c1", CellType: model.CellTypeMarkdown},
				},
			},
			wantCode: errors.ErrCodeInvalidNotebook,
		},
		{
			name: "unknown cell type",
			nb: Notebook{
				NBFormat: NBFormat,
				Cells:    []Cell{{ID: "c1", CellType: "spreadsheet"}},
			},
			wantCode: errors.ErrCodeInvalidCellType,
		},
		{
			name:     "layout without cells map",
			nb:       valid(),
			layout:   &LayoutArtifact{Version: ArtifactVersion},
			wantCode: errors.ErrCodeInvalidLayout,
		},
		{
			name: "non-finite layout geometry",
			nb:   valid(),
			layout: &LayoutArtifact{
				Version: ArtifactVersion,
				Cells: map[string]CellLayout{
					"c1": {Position: model.Point{X: math.NaN()}, Size: model.Size{Width: 100, Height: 100}},
				},
			},
			wantCode: errors.ErrCodeInvalidLayout,
		},
	}
	for _, tt := range tests {
		_, err := Import(tt.nb, tt.layout)
		if !errors.Is(err, tt.wantCode) {
			t.Errorf("%s: err = %v, want code %s", tt.name, err, tt.wantCode)
		}
	}
}

func TestImportNormalizesCanvas(t *testing.T) {
	nb := Notebook{
		NBFormat: NBFormat,
		Cells:    []Cell{{ID: "c1", CellType: model.CellTypeRaw}},
	}
	layout := &LayoutArtifact{
		Version: ArtifactVersion,
		Canvas: model.CanvasState{
			Zoom:     math.Inf(1),
			Pan:      model.Point{X: math.NaN(), Y: 0},
			GridSize: -4,
		},
		Cells: map[string]CellLayout{
			"c1": {Position: model.Point{X: 10, Y: 10}, Size: model.Size{Width: 200, Height: 100}},
		},
	}

	doc, err := Import(nb, layout)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Canvas.Zoom != 1.0 {
		t.Errorf("zoom = %v, want repaired to 1.0", doc.Canvas.Zoom)
	}
	if doc.Canvas.Pan != (model.Point{}) {
		t.Errorf("pan = %v, want repaired to origin", doc.Canvas.Pan)
	}
	if doc.Canvas.GridSize != model.DefaultCanvas().GridSize {
		t.Errorf("grid = %v, want default", doc.Canvas.GridSize)
	}
	if doc.Canvas.PageSize != model.PageSizeA4 {
		t.Errorf("page size = %v, want A4", doc.Canvas.PageSize)
	}
	if doc.Canvas.Pages < 1 {
		t.Errorf("pages = %d, want >= 1", doc.Canvas.Pages)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	doc := buildDoc(t)
	nb, la := Export(doc)

	nbData, err := MarshalNotebook(nb)
	if err != nil {
		t.Fatal(err)
	}
	laData, err := MarshalLayout(la)
	if err != nil {
		t.Fatal(err)
	}

	nb2, err := UnmarshalNotebook(nbData)
	if err != nil {
		t.Fatal(err)
	}
	la2, err := UnmarshalLayout(laData)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(nb, nb2) {
		t.Error("notebook JSON round trip drifted")
	}
	if !reflect.DeepEqual(la, la2) {
		t.Error("layout JSON round trip drifted")
	}

	if _, err := UnmarshalNotebook([]byte("{not json")); !errors.Is(err, errors.ErrCodeInvalidNotebook) {
		t.Errorf("bad notebook JSON err = %v", err)
	}
	if _, err := UnmarshalLayout([]byte("[]")); !errors.Is(err, errors.ErrCodeInvalidLayout) {
		t.Errorf("bad layout JSON err = %v", err)
	}
}

func TestImportIntoReplacesAtomically(t *testing.T) {
	s := store.New(model.NewDocument("old"), nil)
	if _, err := s.AddCell(model.CellTypeCode, model.Point{}, ""); err != nil {
		t.Fatal(err)
	}
	before := s.Version()

	// A rejected import leaves the store untouched.
	if _, err := ImportInto(s, Notebook{NBFormat: 2, Cells: []Cell{}}, nil); err == nil {
		t.Fatal("expected import error")
	}
	if s.Version() != before || len(s.Document().Cells) != 1 {
		t.Fatal("failed import must not touch the store")
	}

	nb := Notebook{
		NBFormat: NBFormat,
		Metadata: Metadata{Name: "new"},
		Cells:    []Cell{{ID: "c1", CellType: model.CellTypeMarkdown, Source: "hi"}},
	}
	doc, err := ImportInto(s, nb, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := s.Document()
	if got.Name != "new" || len(got.Cells) != 1 {
		t.Errorf("store after import: name=%q cells=%d", got.Name, len(got.Cells))
	}
	if got.ID != doc.ID {
		t.Error("store must hold the imported document")
	}
}
