// Package flow synthesizes geometry for cells that have none: a
// deterministic single-column, top-to-bottom, page-wrapping placement.
//
// It is used by the notebook import path when a foreign notebook arrives
// without a layout artifact. The whole batch of unplaced cells is flowed in
// one pass so the result is a coherent document, not a pile of cells placed
// one at a time.
//
// Heights come from a pure function of (cell type, content length) with
// fixed coefficients, so placements are reproducible across runs and
// implementations. The flow never leaves a cell unplaced: cells that do not
// fit within MaxPages get a deterministic stacked fallback position below
// the last page.
package flow

import "github.com/canvasnote/canvasnote/pkg/model"

// Height estimation coefficients. Fixed constants keep placements
// reproducible across runs and re-imports.
const (
	heightBase    = 60.0 // baseline height for any cell
	heightPerChar = 0.5  // increment per content character
	heightCap     = 600.0

	floorCode     = 80.0
	floorMarkdown = 60.0
	floorEquation = 100.0
	floorImage    = 200.0
	floorGraph    = 220.0
	floorRaw      = 50.0
)

// Constraints bound a flow placement run.
type Constraints struct {
	PageWidth   float64
	PageHeight  float64
	Margin      float64 // inner page margin, also horizontal inset
	CellSpacing float64 // vertical gap between flowed cells
	MaxPages    int     // pages the flow may fill before falling back
}

// DefaultConstraints derives flow constraints from a canvas state.
func DefaultConstraints(c model.CanvasState) Constraints {
	w, h := c.EffectivePageSize()
	return Constraints{
		PageWidth:   w,
		PageHeight:  h,
		Margin:      40,
		CellSpacing: 20,
		MaxPages:    50,
	}
}

// Pending describes a cell awaiting placement.
type Pending struct {
	ID            string
	Type          model.CellType
	Hint          model.HintType
	ContentLength int
}

// Placement is the synthesized geometry for one cell.
type Placement struct {
	ID       string
	Position model.Point
	Size     model.Size
	ZIndex   int
}

// EstimateHeight returns the deterministic height for a cell of the given
// type and content length. Markdown sub-types carry placeholder floors for
// equation, image, and graph content.
func EstimateHeight(t model.CellType, hint model.HintType, contentLength int) float64 {
	h := heightBase + heightPerChar*float64(contentLength)

	floor := floorRaw
	switch t {
	case model.CellTypeCode:
		floor = floorCode
	case model.CellTypeMarkdown:
		switch hint {
		case model.HintEquation:
			floor = floorEquation
		case model.HintImage:
			floor = floorImage
		case model.HintGraph:
			floor = floorGraph
		default:
			floor = floorMarkdown
		}
	}

	if h < floor {
		h = floor
	}
	if h > heightCap {
		h = heightCap
	}
	return h
}

// Place flows the batch into a single column. Cells are placed sequentially;
// when the next cell would overflow the current page's remaining height the
// flow advances to the next page, up to MaxPages. ZIndex follows placement
// order. Every input cell receives geometry.
func Place(cells []Pending, cons Constraints) []Placement {
	width := cons.PageWidth - 2*cons.Margin
	if width < model.MinCellWidth {
		width = model.MinCellWidth
	}
	usable := cons.PageHeight - 2*cons.Margin
	maxPages := cons.MaxPages
	if maxPages < 1 {
		maxPages = 1
	}

	out := make([]Placement, 0, len(cells))
	page := 0
	y := cons.Margin // offset within the current page
	overflowed := 0

	for i, cell := range cells {
		h := EstimateHeight(cell.Type, cell.Hint, cell.ContentLength)
		if h < model.MinCellHeight {
			h = model.MinCellHeight
		}

		if y+h > cons.Margin+usable && y > cons.Margin {
			page++
			y = cons.Margin
		}

		z := model.CellZBaseline + 1 + i

		if page >= maxPages {
			// Fallback: stack below the last page by overflow index so the
			// cell still has deterministic geometry.
			out = append(out, Placement{
				ID:       cell.ID,
				Position: model.Point{X: cons.Margin, Y: float64(maxPages)*cons.PageHeight + float64(overflowed)*(model.MinCellHeight+cons.CellSpacing)},
				Size:     model.Size{Width: width, Height: h},
				ZIndex:   z,
			})
			overflowed++
			continue
		}

		out = append(out, Placement{
			ID:       cell.ID,
			Position: model.Point{X: cons.Margin, Y: float64(page)*cons.PageHeight + y},
			Size:     model.Size{Width: width, Height: h},
			ZIndex:   z,
		})
		y += h + cons.CellSpacing
	}

	return out
}
