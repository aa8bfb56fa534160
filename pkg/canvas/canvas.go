// Package canvas implements the viewport math for the paginated 2D canvas:
// screen/canvas coordinate transforms, pagination geometry, and pan/zoom
// bounds.
//
// Everything here is pure arithmetic over [model.CanvasState] values. The
// functions never mutate their inputs; callers (pkg/store, pkg/interact)
// apply the returned values through store operations.
//
// # Coordinate spaces
//
// Screen space is pixels relative to the window. Canvas space is the document
// coordinate system cells live in. The transform is
//
//	canvasPoint = (screenPoint - viewportOrigin - pan) / zoom
//
// and its inverse. Pages stack vertically in canvas space starting at
// [PageTopOffset], each subsequent page offset by pageHeight + pageMargin.
package canvas

import (
	"math"

	"github.com/canvasnote/canvasnote/pkg/model"
)

// Pagination and scrolling constants.
const (
	// MinPages is the minimum number of pages a document always shows,
	// even when empty.
	MinPages = 1

	// PageTopOffset is the canvas-space y where the first page starts.
	PageTopOffset = 40.0

	// ContentPad is the breathing room added below the lowest cell before
	// deciding whether another page is required.
	ContentPad = 100.0

	// ScrollMargin is the external margin the viewport may scroll past the
	// page edges in either direction.
	ScrollMargin = 200.0

	// WheelZoomStep is the multiplicative zoom factor per wheel tick when
	// the zoom modifier is held.
	WheelZoomStep = 1.1
)

// =============================================================================
// Coordinate Transforms
// =============================================================================

// ScreenToCanvas converts a screen-space point to canvas space given the
// viewport origin and the current pan/zoom.
func ScreenToCanvas(c model.CanvasState, origin, screen model.Point) model.Point {
	zoom := ClampZoom(c.Zoom)
	return model.Point{
		X: (screen.X - origin.X - c.Pan.X) / zoom,
		Y: (screen.Y - origin.Y - c.Pan.Y) / zoom,
	}
}

// CanvasToScreen converts a canvas-space point back to screen space.
func CanvasToScreen(c model.CanvasState, origin, canvasPt model.Point) model.Point {
	zoom := ClampZoom(c.Zoom)
	return model.Point{
		X: canvasPt.X*zoom + c.Pan.X + origin.X,
		Y: canvasPt.Y*zoom + c.Pan.Y + origin.Y,
	}
}

// SnapToGrid snaps a canvas point to the grid when snapping is enabled.
// With snapping disabled (or a non-positive grid) the point passes through.
func SnapToGrid(c model.CanvasState, p model.Point) model.Point {
	if !c.SnapToGrid || c.GridSize <= 0 {
		return p
	}
	return model.Point{
		X: math.Round(p.X/c.GridSize) * c.GridSize,
		Y: math.Round(p.Y/c.GridSize) * c.GridSize,
	}
}

// =============================================================================
// Pagination
// =============================================================================

// PageStep returns the vertical distance between the tops of two stacked
// pages: the effective page height plus the page margin.
func PageStep(c model.CanvasState) float64 {
	_, h := c.EffectivePageSize()
	return h + c.PageMargin
}

// PageCount returns the number of pages required to contain content reaching
// down to maxCellBottom, never less than MinPages.
func PageCount(c model.CanvasState, maxCellBottom float64) int {
	step := PageStep(c)
	if step <= 0 {
		return MinPages
	}
	pages := int(math.Ceil((maxCellBottom + ContentPad) / step))
	if pages < MinPages {
		return MinPages
	}
	return pages
}

// PageOffsetY returns the canvas-space y of the top edge of page index
// (zero-based).
func PageOffsetY(c model.CanvasState, index int) float64 {
	return PageTopOffset + float64(index)*PageStep(c)
}

// ContentHeight returns the total canvas-space height occupied by the given
// number of stacked pages.
func ContentHeight(c model.CanvasState, pages int) float64 {
	if pages < MinPages {
		pages = MinPages
	}
	return PageTopOffset + float64(pages)*PageStep(c)
}

// =============================================================================
// Pan and Zoom
// =============================================================================

// ClampZoom clamps a zoom factor to the allowed range. Non-finite values
// clamp to 1.0 so a bad input can never wedge the viewport.
func ClampZoom(zoom float64) float64 {
	if !model.IsFinite(zoom) {
		return 1.0
	}
	return math.Min(model.ZoomMax, math.Max(model.ZoomMin, zoom))
}

// PanBounds returns the allowed pan range for the given page count:
// horizontally [-pageWidth-ScrollMargin, +ScrollMargin], vertically
// [-contentHeight-ScrollMargin, +ScrollMargin].
func PanBounds(c model.CanvasState, pages int) (min, max model.Point) {
	w, _ := c.EffectivePageSize()
	min = model.Point{X: -w - ScrollMargin, Y: -ContentHeight(c, pages) - ScrollMargin}
	max = model.Point{X: ScrollMargin, Y: ScrollMargin}
	return min, max
}

// ClampPan clamps a pan offset to the bounds for the given page count.
// Non-finite components fall back to the current pan.
func ClampPan(c model.CanvasState, pan model.Point, pages int) model.Point {
	if !model.IsFinite(pan.X) {
		pan.X = c.Pan.X
	}
	if !model.IsFinite(pan.Y) {
		pan.Y = c.Pan.Y
	}
	min, max := PanBounds(c, pages)
	return model.Point{
		X: math.Min(max.X, math.Max(min.X, pan.X)),
		Y: math.Min(max.Y, math.Max(min.Y, pan.Y)),
	}
}

// ApplyWheel interprets a wheel event against the canvas. With the zoom
// modifier held, vertical wheel input zooms multiplicatively (one
// WheelZoomStep per tick, clamped); without it, wheel input pans, clamped to
// the pan bounds for the given page count. Non-finite deltas leave the state
// unchanged.
func ApplyWheel(c model.CanvasState, deltaX, deltaY float64, zoomModifier bool, pages int) model.CanvasState {
	if !model.IsFinite(deltaX) || !model.IsFinite(deltaY) {
		return c
	}
	out := c
	if zoomModifier {
		zoom := ClampZoom(c.Zoom)
		if deltaY < 0 {
			zoom *= WheelZoomStep
		} else if deltaY > 0 {
			zoom /= WheelZoomStep
		}
		out.Zoom = ClampZoom(zoom)
		return out
	}
	out.Pan = ClampPan(c, model.Point{X: c.Pan.X - deltaX, Y: c.Pan.Y - deltaY}, pages)
	return out
}
