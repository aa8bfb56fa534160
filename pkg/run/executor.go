package run

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/canvasnote/canvasnote/pkg/errors"
	"github.com/canvasnote/canvasnote/pkg/model"
	"github.com/canvasnote/canvasnote/pkg/observability"
	"github.com/canvasnote/canvasnote/pkg/store"
)

// Output cell placement.
const (
	outputGapX = 20.0 // horizontal gap between a code cell and its outputs
	outputGapY = 20.0 // vertical gap between stacked outputs
)

// Default output cell sizes per output type. Prior output geometry of the
// same type is reused instead when the cell is re-run, so a resized output
// stays where the user put it.
var outputSizes = map[model.OutputType]model.Size{
	model.OutputText:    {Width: 480, Height: 120},
	model.OutputError:   {Width: 480, Height: 120},
	model.OutputImage:   {Width: 480, Height: 320},
	model.OutputSuccess: {Width: 480, Height: 60},
}

type cellRun struct {
	token    uint64
	inFlight bool
}

// Executor coordinates cell runs against a document store.
type Executor struct {
	store  *store.Store
	runner Runner
	logger *log.Logger

	mu      sync.Mutex
	counter int
	cells   map[string]*cellRun
}

// New creates an executor. The session-global execution counter resumes past
// the highest executionCount already present in the document, so counts stay
// unique after loading a previously executed notebook. A nil logger discards
// diagnostics.
func New(st *store.Store, runner Runner, logger *log.Logger) *Executor {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	e := &Executor{
		store:  st,
		runner: runner,
		logger: logger,
		cells:  make(map[string]*cellRun),
	}
	doc := st.Document()
	for i := range doc.Cells {
		if c := doc.Cells[i].ExecutionCount; c != nil && *c > e.counter {
			e.counter = *c
		}
	}
	return e
}

// ExecuteCell runs one code cell and materializes the results as output
// cells. It blocks until the run completes; callers wanting async execution
// run it in a goroutine. A second request for a cell already in flight is
// refused with ErrCodeExecInFlight.
//
// A failed run is still a completed run: the cell's executionCount advances
// and an error output is materialized. The returned error then reports the
// failure to the caller.
func (e *Executor) ExecuteCell(ctx context.Context, cellID string) ([]model.Cell, error) {
	doc := e.store.Document()
	cell := doc.CellByID(cellID)
	if cell == nil {
		return nil, errors.New(errors.ErrCodeCellNotFound, "cell %s not found", cellID)
	}
	if cell.Type != model.CellTypeCode {
		return nil, errors.New(errors.ErrCodeInvalidCellType, "cell %s is %s, not code", cellID, cell.Type)
	}

	e.mu.Lock()
	state := e.cells[cellID]
	if state == nil {
		state = &cellRun{}
		e.cells[cellID] = state
	}
	if state.inFlight {
		e.mu.Unlock()
		return nil, errors.New(errors.ErrCodeExecInFlight, "cell %s already has a run in flight", cellID)
	}
	state.inFlight = true
	state.token++
	token := state.token
	e.counter++
	count := e.counter
	e.mu.Unlock()

	observability.Exec().OnExecuteStart(ctx, cellID, count)
	start := time.Now()

	result, runErr := e.runner.Execute(ctx, Request{
		DocumentID:     doc.ID,
		CellID:         cellID,
		Code:           cell.Content,
		Language:       cell.Language,
		ExecutionCount: count,
	})

	e.mu.Lock()
	if state.token != token {
		// Interrupted and possibly re-run while we were executing; the cell's
		// bookkeeping belongs to the newer run now.
		e.mu.Unlock()
		e.logger.Debug("stale execution result discarded", "cell", cellID, "count", count)
		observability.Exec().OnStaleResult(ctx, cellID)
		return nil, nil
	}
	state.inFlight = false
	e.mu.Unlock()

	outputs := normalizeOutputs(result, runErr)
	created, err := e.materialize(cellID, count, result.Success && runErr == nil, outputs)
	if err != nil {
		// Cell deleted mid-run: nothing to attach the result to.
		e.logger.Debug("stale execution result discarded", "cell", cellID, "err", err)
		observability.Exec().OnStaleResult(ctx, cellID)
		return nil, nil
	}

	observability.Exec().OnExecuteComplete(ctx, cellID, time.Since(start), runErr)
	if runErr != nil {
		return created, errors.Wrap(errors.ErrCodeExecFailed, runErr, "execute cell %s", cellID)
	}
	return created, nil
}

// Interrupt abandons the in-flight run for a cell, if any. The abandoned
// run's eventual completion is discarded as stale; the cell may be re-run
// immediately.
func (e *Executor) Interrupt(cellID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if state := e.cells[cellID]; state != nil && state.inFlight {
		state.token++
		state.inFlight = false
		e.logger.Debug("run interrupted", "cell", cellID)
	}
}

// InFlight reports whether a run is currently active for the cell.
func (e *Executor) InFlight(cellID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	state := e.cells[cellID]
	return state != nil && state.inFlight
}

// normalizeOutputs shapes the runner's result for materialization. A run
// error or an unsuccessful result always yields exactly one error output; a
// successful run with nothing printed yields one success marker.
func normalizeOutputs(result Result, runErr error) []Output {
	if runErr != nil {
		return []Output{{Type: model.OutputError, Content: errors.UserMessage(runErr)}}
	}
	if !result.Success {
		for _, o := range result.Outputs {
			if o.Type == model.OutputError {
				return []Output{o}
			}
		}
		return []Output{{Type: model.OutputError, Content: "execution failed"}}
	}
	if len(result.Outputs) == 0 {
		return []Output{{Type: model.OutputSuccess}}
	}
	return result.Outputs
}

// materialize applies one completed run to the document in a single atomic
// mutation: bump the cell's executionCount, replace its prior output cells,
// and record the run in the execution history.
func (e *Executor) materialize(cellID string, count int, success bool, outputs []Output) ([]model.Cell, error) {
	var created []model.Cell
	err := e.store.Mutate("execute_complete", func(d *model.Document) error {
		src := d.CellByID(cellID)
		if src == nil {
			return errors.New(errors.ErrCodeCellNotFound, "cell %s deleted during run", cellID)
		}

		src.ExecutionCount = &count

		// Prior outputs are replaced, but their geometry is kept per output
		// type so re-running a cell does not move outputs the user arranged.
		reusable := make(map[model.OutputType][]model.Cell)
		kept := d.Cells[:0]
		for i := range d.Cells {
			c := d.Cells[i]
			if c.SourceCodeCellID == cellID {
				reusable[c.OutputType] = append(reusable[c.OutputType], c)
				continue
			}
			kept = append(kept, c)
		}
		d.Cells = kept
		src = d.CellByID(cellID)

		now := time.Now()
		stackY := src.Position.Y
		created = created[:0]
		for _, out := range outputs {
			cell := model.Cell{
				ID:               model.NewID(),
				Type:             model.CellTypeRaw,
				CollapsedSize:    model.DefaultCollapsedSize,
				Content:          out.Content,
				Format:           outputFormat(out),
				SourceCodeCellID: cellID,
				OutputType:       out.Type,
				Success:          success,
				ExecutionTime:    &now,
				ExecutionOrder:   copyOrder(src.ExecutionOrder),
				ZIndex:           d.NextZIndex(),
			}
			if prior := reusable[out.Type]; len(prior) > 0 {
				cell.Position = prior[0].Position
				cell.Size = prior[0].Size
				reusable[out.Type] = prior[1:]
			} else {
				cell.Size = outputSize(out.Type)
				cell.Position = model.Point{X: src.Position.X + src.Size.Width + outputGapX, Y: stackY}
				stackY += cell.Size.Height + outputGapY
			}
			d.Cells = append(d.Cells, cell)
			created = append(created, cell)
		}

		d.ExecutionHistory = append(d.ExecutionHistory, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func outputSize(t model.OutputType) model.Size {
	if sz, ok := outputSizes[t]; ok {
		return sz
	}
	return outputSizes[model.OutputText]
}

func outputFormat(o Output) string {
	if o.Format != "" {
		return o.Format
	}
	if o.Type == model.OutputImage {
		return "image/png"
	}
	return "text/plain"
}

func copyOrder(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
