package flow

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/canvasnote/canvasnote/pkg/model"
)

func testConstraints() Constraints {
	return DefaultConstraints(model.DefaultCanvas())
}

func TestEstimateHeight(t *testing.T) {
	tests := []struct {
		name   string
		typ    model.CellType
		hint   model.HintType
		length int
		want   float64
	}{
		{"short code hits floor", model.CellTypeCode, "", 10, 80},
		{"short markdown hits floor", model.CellTypeMarkdown, model.HintText, 0, 60},
		{"equation floor", model.CellTypeMarkdown, model.HintEquation, 0, 100},
		{"image floor", model.CellTypeMarkdown, model.HintImage, 0, 200},
		{"graph floor", model.CellTypeMarkdown, model.HintGraph, 0, 220},
		{"raw floor", model.CellTypeRaw, "", 0, 60},
		{"grows with content", model.CellTypeCode, "", 200, 160},
		{"capped", model.CellTypeCode, "", 100000, 600},
	}
	for _, tt := range tests {
		if got := EstimateHeight(tt.typ, tt.hint, tt.length); got != tt.want {
			t.Errorf("%s: EstimateHeight = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestPlaceDeterministic(t *testing.T) {
	cells := []Pending{
		{ID: "a", Type: model.CellTypeCode, ContentLength: 120},
		{ID: "b", Type: model.CellTypeMarkdown, Hint: model.HintEquation},
		{ID: "c", Type: model.CellTypeRaw, ContentLength: 40},
	}
	cons := testConstraints()

	first := Place(cells, cons)
	second := Place(cells, cons)
	if !reflect.DeepEqual(first, second) {
		t.Error("identical input must yield identical placements")
	}
}

func TestPlaceOrderingAndSpacing(t *testing.T) {
	cells := make([]Pending, 5)
	for i := range cells {
		cells[i] = Pending{ID: fmt.Sprintf("c%d", i), Type: model.CellTypeCode, ContentLength: 50}
	}
	cons := testConstraints()
	placed := Place(cells, cons)

	if len(placed) != len(cells) {
		t.Fatalf("placed %d cells, want %d", len(placed), len(cells))
	}
	for i := 1; i < len(placed); i++ {
		prev, cur := placed[i-1], placed[i]
		if cur.Position.Y < prev.Position.Y+prev.Size.Height+cons.CellSpacing {
			t.Errorf("cell %d at y=%v overlaps predecessor ending at %v",
				i, cur.Position.Y, prev.Position.Y+prev.Size.Height)
		}
		if cur.ZIndex <= prev.ZIndex {
			t.Errorf("zIndex must follow placement order: %d then %d", prev.ZIndex, cur.ZIndex)
		}
	}
	if placed[0].ZIndex != model.CellZBaseline+1 {
		t.Errorf("first zIndex = %d, want %d", placed[0].ZIndex, model.CellZBaseline+1)
	}
}

func TestPlacePageWrap(t *testing.T) {
	// Each cell is tall enough that only a few fit per page.
	cells := make([]Pending, 8)
	for i := range cells {
		cells[i] = Pending{ID: fmt.Sprintf("c%d", i), Type: model.CellTypeCode, ContentLength: 1000}
	}
	cons := testConstraints()
	placed := Place(cells, cons)

	lastPage := 0
	for i, p := range placed {
		page := int(p.Position.Y / cons.PageHeight)
		if page < lastPage {
			t.Errorf("cell %d placed on page %d after page %d", i, page, lastPage)
		}
		lastPage = page

		within := p.Position.Y - float64(page)*cons.PageHeight
		if within < cons.Margin {
			t.Errorf("cell %d starts inside the top margin: %v", i, within)
		}
		if within+p.Size.Height > cons.PageHeight-cons.Margin+1e-9 {
			t.Errorf("cell %d spills past the bottom margin", i)
		}
	}
	if lastPage == 0 {
		t.Error("tall batch should have wrapped onto a second page")
	}
}

func TestPlaceOverflowFallback(t *testing.T) {
	cons := testConstraints()
	cons.MaxPages = 1

	// Far more content than one page can hold.
	cells := make([]Pending, 30)
	for i := range cells {
		cells[i] = Pending{ID: fmt.Sprintf("c%d", i), Type: model.CellTypeCode, ContentLength: 2000}
	}
	placed := Place(cells, cons)

	overflowStart := float64(cons.MaxPages) * cons.PageHeight
	var overflowed []Placement
	for _, p := range placed {
		if p.Position.Y >= overflowStart {
			overflowed = append(overflowed, p)
		}
	}
	if len(overflowed) == 0 {
		t.Fatal("overflow batch must fall back below the last page")
	}
	for i := 1; i < len(overflowed); i++ {
		want := overflowed[i-1].Position.Y + model.MinCellHeight + cons.CellSpacing
		if overflowed[i].Position.Y != want {
			t.Errorf("fallback stack gap: got %v, want %v", overflowed[i].Position.Y, want)
		}
	}
}

func TestPlaceWidthFitsPage(t *testing.T) {
	cons := testConstraints()
	placed := Place([]Pending{{ID: "a", Type: model.CellTypeMarkdown}}, cons)
	want := cons.PageWidth - 2*cons.Margin
	if placed[0].Size.Width != want {
		t.Errorf("width = %v, want %v", placed[0].Size.Width, want)
	}
	if placed[0].Position.X != cons.Margin {
		t.Errorf("x = %v, want margin %v", placed[0].Position.X, cons.Margin)
	}
}
