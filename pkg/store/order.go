package store

import "github.com/canvasnote/canvasnote/pkg/model"

// Design-sequence bookkeeping.
//
// executionOrder is the logical authoring sequence of a code cell: assigned
// exactly once at creation and never renumbered by edits, movement, or
// re-execution. It is distinct from executionCount, which is the ordinal of
// an actual run drawn from the session-global counter in pkg/run.

// NextExecutionOrder returns the design-sequence number for a code cell
// created now: one past the highest existing number, starting at 1.
func NextExecutionOrder(d *model.Document) int {
	return d.MaxExecutionOrder() + 1
}

// CellDragFinished is invoked by the interaction controller when a cell drag
// ends. Spatial movement never alters the design sequence, so this is a
// deliberate no-op kept as the single seam where a reordering policy would
// live if one ever existed.
func (s *Store) CellDragFinished(id string) {
	_ = id
}
