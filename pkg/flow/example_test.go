package flow_test

import (
	"fmt"

	"github.com/canvasnote/canvasnote/pkg/flow"
	"github.com/canvasnote/canvasnote/pkg/model"
)

func ExamplePlace() {
	cells := []flow.Pending{
		{ID: "title", Type: model.CellTypeMarkdown},
		{ID: "setup", Type: model.CellTypeCode, ContentLength: 40},
		{ID: "plot", Type: model.CellTypeMarkdown, Hint: model.HintImage},
	}

	placed := flow.Place(cells, flow.DefaultConstraints(model.DefaultCanvas()))
	for _, p := range placed {
		fmt.Printf("%s at (%.0f, %.0f) %vx%v\n", p.ID, p.Position.X, p.Position.Y, p.Size.Width, p.Size.Height)
	}

	// Output:
	// title at (40, 40) 714x60
	// setup at (40, 120) 714x80
	// plot at (40, 220) 714x200
}

func ExampleEstimateHeight() {
	fmt.Println(flow.EstimateHeight(model.CellTypeCode, "", 10))
	fmt.Println(flow.EstimateHeight(model.CellTypeMarkdown, model.HintGraph, 0))
	fmt.Println(flow.EstimateHeight(model.CellTypeCode, "", 5000))

	// Output:
	// 80
	// 220
	// 600
}
