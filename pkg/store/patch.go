package store

import (
	"github.com/charmbracelet/log"

	"github.com/canvasnote/canvasnote/pkg/errors"
	"github.com/canvasnote/canvasnote/pkg/model"
)

// CellPatch is a partial cell update. Nil fields are left untouched.
// Cell id and type are immutable and deliberately absent.
type CellPatch struct {
	Content        *string               `json:"content,omitempty"`
	Language       *string               `json:"language,omitempty"`
	Position       *model.Point          `json:"position,omitempty"`
	Size           *model.Size           `json:"size,omitempty"`
	Collapsed      *bool                 `json:"collapsed,omitempty"`
	CollapsedSize  *model.Size           `json:"collapsedSize,omitempty"`
	Selected       *bool                 `json:"selected,omitempty"`
	ZIndex         *int                  `json:"zIndex,omitempty"`
	RenderingHints *model.RenderingHints `json:"renderingHints,omitempty"`
	Format         *string               `json:"format,omitempty"`
}

// apply writes the patch onto the cell. Numeric sub-fields are validated one
// by one; an invalid sub-field keeps the cell's prior value and is logged,
// while the rest of the patch still applies.
func (p CellPatch) apply(c *model.Cell, logger *log.Logger) {
	if p.Content != nil {
		c.Content = *p.Content
	}
	if p.Language != nil {
		c.Language = *p.Language
	}
	if p.Position != nil {
		pos := c.Position
		if err := errors.ValidateFinite("x", p.Position.X); err == nil && p.Position.X >= 0 {
			pos.X = p.Position.X
		} else {
			logger.Debug("patch kept prior x", "cell", c.ID)
		}
		if err := errors.ValidateFinite("y", p.Position.Y); err == nil && p.Position.Y >= 0 {
			pos.Y = p.Position.Y
		} else {
			logger.Debug("patch kept prior y", "cell", c.ID)
		}
		c.Position = pos
	}
	if p.Size != nil {
		size := c.Size
		if err := errors.ValidateFinite("width", p.Size.Width); err == nil {
			size.Width = max(p.Size.Width, model.MinCellWidth)
		} else {
			logger.Debug("patch kept prior width", "cell", c.ID)
		}
		if err := errors.ValidateFinite("height", p.Size.Height); err == nil {
			size.Height = max(p.Size.Height, model.MinCellHeight)
		} else {
			logger.Debug("patch kept prior height", "cell", c.ID)
		}
		c.Size = size
	}
	if p.Collapsed != nil {
		c.Collapsed = *p.Collapsed
	}
	if p.CollapsedSize != nil {
		size := c.CollapsedSize
		if model.IsFinite(p.CollapsedSize.Width) && p.CollapsedSize.Width > 0 {
			size.Width = p.CollapsedSize.Width
		}
		if model.IsFinite(p.CollapsedSize.Height) && p.CollapsedSize.Height > 0 {
			size.Height = p.CollapsedSize.Height
		}
		c.CollapsedSize = size
	}
	if p.Selected != nil {
		c.Selected = *p.Selected
	}
	if p.ZIndex != nil && *p.ZIndex > model.CellZBaseline {
		c.ZIndex = *p.ZIndex
	}
	if p.RenderingHints != nil {
		hints := *p.RenderingHints
		c.RenderingHints = &hints
	}
	if p.Format != nil {
		c.Format = *p.Format
	}
}
