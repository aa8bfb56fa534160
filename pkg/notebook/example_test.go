package notebook_test

import (
	"fmt"

	"github.com/canvasnote/canvasnote/pkg/model"
	"github.com/canvasnote/canvasnote/pkg/notebook"
	"github.com/canvasnote/canvasnote/pkg/store"
)

func Example() {
	s := store.New(model.NewDocument("analysis"), nil)
	_, _ = s.AddCell(model.CellTypeCode, model.Point{X: 100, Y: 100}, "")
	_, _ = s.AddCell(model.CellTypeMarkdown, model.Point{X: 100, Y: 300}, model.HintText)

	nb, layout := notebook.Export(s.Document())
	fmt.Println("nbformat:", nb.NBFormat)
	fmt.Println("cells:", len(nb.Cells))
	fmt.Println("layout entries:", len(layout.Cells))

	doc, err := notebook.Import(nb, &layout)
	if err != nil {
		fmt.Println("import failed:", err)
		return
	}
	fmt.Println("imported:", doc.Name, len(doc.Cells))

	// Output:
	// nbformat: 4
	// cells: 2
	// layout entries: 2
	// imported: analysis 2
}

// A notebook arriving without a layout artifact is flow-placed into a
// readable column instead of stacking at the origin.
func ExampleImport_withoutLayout() {
	nb := notebook.Notebook{
		NBFormat: notebook.NBFormat,
		Metadata: notebook.Metadata{Name: "foreign"},
		Cells: []notebook.Cell{
			{ID: "c1", CellType: model.CellTypeMarkdown, Source: "# Report"},
			{ID: "c2", CellType: model.CellTypeCode, Source: "data = load()"},
		},
	}

	doc, _ := notebook.Import(nb, nil)
	fmt.Println("first above second:", doc.Cells[0].Position.Y < doc.Cells[1].Position.Y)
	fmt.Println("pages:", doc.Canvas.Pages)

	// Output:
	// first above second: true
	// pages: 1
}
