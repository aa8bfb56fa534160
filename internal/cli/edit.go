package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/canvasnote/canvasnote/pkg/canvas"
	"github.com/canvasnote/canvasnote/pkg/errors"
	"github.com/canvasnote/canvasnote/pkg/interact"
	"github.com/canvasnote/canvasnote/pkg/model"
	"github.com/canvasnote/canvasnote/pkg/notebook"
	"github.com/canvasnote/canvasnote/pkg/run"
	"github.com/canvasnote/canvasnote/pkg/session"
	"github.com/canvasnote/canvasnote/pkg/store"
)

// Terminal cells are coarser than canvas pixels; pointer events are scaled by
// the approximate pixel footprint of a cell so dragging feels proportional.
const (
	termCellWidth  = 8.0
	termCellHeight = 16.0

	// wheelStep is the pan/zoom delta applied per wheel tick.
	wheelStep = 40.0
)

// editOpts holds the command-line flags for the edit command.
type editOpts struct {
	layout       string // layout artifact path (default: next to the notebook)
	collaborator string // collaborator URL override
	noCache      bool   // disable the collaborator response cache
}

// newEditCmd creates the edit command: the interactive terminal editor.
func newEditCmd(configPath *string) *cobra.Command {
	var opts editOpts

	cmd := &cobra.Command{
		Use:   "edit [notebook.ipynb]",
		Short: "Open a notebook in the interactive terminal editor",
		Long: `Edit opens a canvas notebook in a terminal UI. Without an argument a fresh
document is created. Cells are listed in document order; the canvas geometry
(position, size, z-order) is edited through move keys and the mouse, and code
cells execute through the configured collaborator.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			notebookPath := ""
			if len(args) > 0 {
				notebookPath = args[0]
			}
			return runEdit(cmd.Context(), notebookPath, &opts, *configPath)
		},
	}

	cmd.Flags().StringVar(&opts.layout, "layout", "", "layout artifact path")
	cmd.Flags().StringVar(&opts.collaborator, "collaborator", "", "collaborator URL (overrides config)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the collaborator response cache")

	return cmd
}

func runEdit(ctx context.Context, notebookPath string, opts *editOpts, configPath string) error {
	logger := loggerFromContext(ctx)

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	doc, err := openDocument(notebookPath, opts.layout, cfg.Canvas)
	if err != nil {
		return err
	}
	logger.Debug("document opened", "cells", len(doc.Cells), "pages", doc.Canvas.Pages)

	runner, err := newRunner(cfg.Collaborator, opts.collaborator, opts.noCache, nil)
	if err != nil {
		return err
	}

	// The TUI owns the terminal; store and executor diagnostics are dropped
	// rather than written over the alt screen.
	st := store.New(doc, nil)
	exec := run.New(st, runner, nil)
	ctrl := interact.New(st, model.Point{}, nil)

	sessions, err := session.NewFileStore("")
	if err != nil {
		logger.Debug("session store unavailable", "err", err)
		sessions = nil
	}

	m := newEditorModel(st, exec, ctrl, sessions, notebookPath, opts.layout)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()
	if err != nil {
		return err
	}

	if fm, ok := final.(editorModel); ok && fm.savedTo != "" {
		printSuccess("Saved %s", fm.savedTo)
		printFile(fm.savedLayout)
	}
	return nil
}

// =============================================================================
// editorModel - Interactive canvas editor
// =============================================================================

// execDoneMsg reports a finished (or failed) cell execution back to the
// update loop.
type execDoneMsg struct {
	cellID  string
	outputs int
	err     error
}

// editorModel is the bubbletea model for the canvas editor.
type editorModel struct {
	store    *store.Store
	exec     *run.Executor
	ctrl     *interact.Controller
	sessions session.Store

	notebookPath string
	layoutPath   string

	cursor int
	offset int
	width  int
	height int
	rows   int

	status      string
	savedTo     string
	savedLayout string
}

func newEditorModel(st *store.Store, exec *run.Executor, ctrl *interact.Controller, sessions session.Store, notebookPath, layoutPath string) editorModel {
	return editorModel{
		store:        st,
		exec:         exec,
		ctrl:         ctrl,
		sessions:     sessions,
		notebookPath: notebookPath,
		layoutPath:   layoutPath,
		rows:         15,
		status:       "ready",
	}
}

func (m editorModel) Init() tea.Cmd {
	return nil
}

func (m editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.rows = msg.Height - 8
		if m.rows < 5 {
			m.rows = 5
		}
		return m, nil

	case tea.MouseMsg:
		return m.updateMouse(msg), nil

	case execDoneMsg:
		if msg.err != nil {
			m.status = StyleError.Render(fmt.Sprintf("run failed: %s", errors.UserMessage(msg.err)))
		} else {
			m.status = StyleSuccess.Render(fmt.Sprintf("ran cell, %d output(s)", msg.outputs))
		}
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m editorModel) updateMouse(msg tea.MouseMsg) editorModel {
	pt := model.Point{X: float64(msg.X) * termCellWidth, Y: float64(msg.Y) * termCellHeight}
	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			m.ctrl.PointerDown(pt, msg.Shift)
		case tea.MouseButtonWheelUp:
			// Wheel-up is a negative vertical delta: zoom in with the
			// modifier held, otherwise pan toward the top of the canvas.
			m.ctrl.Wheel(0, -wheelStep, msg.Ctrl)
		case tea.MouseButtonWheelDown:
			m.ctrl.Wheel(0, wheelStep, msg.Ctrl)
		}
	case tea.MouseActionMotion:
		m.ctrl.PointerMove(pt)
	case tea.MouseActionRelease:
		m.ctrl.PointerUp()
	}
	m.status = "pointer: " + m.ctrl.State().String()
	return m
}

func (m editorModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	doc := m.store.Document()

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "esc":
		m.ctrl.Escape()
		m.status = "selection cleared"

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			if m.cursor < m.offset {
				m.offset = m.cursor
			}
		}
		m.selectCursor()

	case "down", "j":
		if m.cursor < len(doc.Cells)-1 {
			m.cursor++
			if m.cursor >= m.offset+m.rows {
				m.offset = m.cursor - m.rows + 1
			}
		}
		m.selectCursor()

	case "c":
		return m.addCell(model.CellTypeCode, model.HintText)
	case "m":
		return m.addCell(model.CellTypeMarkdown, model.HintText)
	case "r":
		return m.addCell(model.CellTypeRaw, model.HintText)

	case "d":
		if cell := m.cellAtCursor(&doc); cell != nil {
			if err := m.store.DeleteCell(cell.ID); err != nil {
				m.status = StyleError.Render(errors.UserMessage(err))
				return m, nil
			}
			if m.cursor > 0 {
				m.cursor--
			}
			m.status = "cell deleted"
		}

	case "y":
		if cell := m.cellAtCursor(&doc); cell != nil {
			dup, err := m.store.DuplicateCell(cell.ID)
			if err != nil {
				m.status = StyleError.Render(errors.UserMessage(err))
				return m, nil
			}
			m.status = fmt.Sprintf("duplicated as %s", shortID(dup.ID))
		}

	case "enter", "e":
		if cell := m.cellAtCursor(&doc); cell != nil {
			if cell.Type != model.CellTypeCode {
				m.status = "only code cells execute"
				return m, nil
			}
			id := cell.ID
			m.status = "running " + shortID(id) + "…"
			return m, m.executeCmd(id)
		}

	case "x":
		if cell := m.cellAtCursor(&doc); cell != nil {
			m.exec.Interrupt(cell.ID)
			m.status = "interrupted " + shortID(cell.ID)
		}

	case "shift+up":
		m.moveCursorCell(&doc, 0, -doc.Canvas.GridSize)
	case "shift+down":
		m.moveCursorCell(&doc, 0, doc.Canvas.GridSize)
	case "shift+left":
		m.moveCursorCell(&doc, -doc.Canvas.GridSize, 0)
	case "shift+right":
		m.moveCursorCell(&doc, doc.Canvas.GridSize, 0)

	case "+", "=":
		m.setZoom(doc.Canvas.Zoom * canvas.WheelZoomStep)
	case "-":
		m.setZoom(doc.Canvas.Zoom / canvas.WheelZoomStep)

	case "g":
		if err := m.store.SetSnapToGrid(!doc.Canvas.SnapToGrid); err == nil {
			m.status = fmt.Sprintf("snap to grid: %v", !doc.Canvas.SnapToGrid)
		}

	case "s":
		return m.save()
	}

	return m, nil
}

// selectCursor makes the cursor cell the only selected cell.
func (m *editorModel) selectCursor() {
	doc := m.store.Document()
	if cell := m.cellAtCursor(&doc); cell != nil {
		if err := m.store.SetSelection([]string{cell.ID}); err == nil {
			m.status = "selected " + shortID(cell.ID)
		}
	}
}

func (m *editorModel) cellAtCursor(d *model.Document) *model.Cell {
	if m.cursor < 0 || m.cursor >= len(d.Cells) {
		return nil
	}
	return &d.Cells[m.cursor]
}

// addCell creates a cell at the center of the current viewport.
func (m editorModel) addCell(t model.CellType, hint model.HintType) (tea.Model, tea.Cmd) {
	doc := m.store.Document()
	center := model.Point{
		X: float64(m.width) * termCellWidth / 2,
		Y: float64(m.height) * termCellHeight / 2,
	}
	pos := canvas.ScreenToCanvas(doc.Canvas, model.Point{}, center)

	cell, err := m.store.AddCell(t, pos, hint)
	if err != nil {
		m.status = StyleError.Render(errors.UserMessage(err))
		return m, nil
	}
	m.cursor = len(doc.Cells) // new cell appends at the end
	m.status = fmt.Sprintf("added %s cell %s", t, shortID(cell.ID))
	return m, nil
}

func (m *editorModel) moveCursorCell(d *model.Document, dx, dy float64) {
	cell := m.cellAtCursor(d)
	if cell == nil {
		return
	}
	target := model.Point{X: cell.Position.X + dx, Y: cell.Position.Y + dy}
	if err := m.store.UpdateCellPosition(cell.ID, target); err != nil {
		m.status = StyleError.Render(errors.UserMessage(err))
		return
	}
	m.status = fmt.Sprintf("moved %s", shortID(cell.ID))
}

func (m *editorModel) setZoom(zoom float64) {
	if err := m.store.SetZoom(zoom); err != nil {
		m.status = StyleError.Render(errors.UserMessage(err))
		return
	}
	m.status = fmt.Sprintf("zoom %.0f%%", m.store.Document().Canvas.Zoom*100)
}

func (m editorModel) executeCmd(id string) tea.Cmd {
	exec := m.exec
	return func() tea.Msg {
		outputs, err := exec.ExecuteCell(context.Background(), id)
		if err != nil && errors.Is(err, errors.ErrCodeExecFailed) {
			// The error is already on the canvas as an error output cell.
			return execDoneMsg{cellID: id, outputs: len(outputs)}
		}
		return execDoneMsg{cellID: id, outputs: len(outputs), err: err}
	}
}

// save writes the notebook and layout artifacts next to each other and
// records the target in the session store.
func (m editorModel) save() (tea.Model, tea.Cmd) {
	doc := m.store.Document()

	notebookPath := m.notebookPath
	if notebookPath == "" {
		notebookPath = "untitled.ipynb"
	}
	layoutPath := m.layoutPath
	if layoutPath == "" {
		layoutPath = deriveLayoutPath(notebookPath)
	}

	nb, la := notebook.Export(doc)
	if err := notebook.WriteNotebookFile(nb, notebookPath); err != nil {
		m.status = StyleError.Render(errors.UserMessage(err))
		return m, nil
	}
	if err := notebook.WriteLayoutFile(la, layoutPath); err != nil {
		m.status = StyleError.Render(errors.UserMessage(err))
		return m, nil
	}

	if m.sessions != nil {
		ctx := context.Background()
		_ = m.sessions.Touch(ctx, session.RecentEntry{Path: notebookPath, Name: doc.Name, OpenedAt: time.Now()})
		_ = m.sessions.SetSavedFile(ctx, session.SavedFileInfo{
			DocumentID:   doc.ID,
			NotebookPath: notebookPath,
			LayoutPath:   layoutPath,
			SavedAt:      time.Now(),
		})
	}

	m.savedTo = notebookPath
	m.savedLayout = layoutPath
	m.status = StyleSuccess.Render("saved " + notebookPath)
	return m, nil
}

// =============================================================================
// View
// =============================================================================

func (m editorModel) View() string {
	doc := m.store.Document()

	var b strings.Builder
	b.WriteString(StyleTitle.Render(docTitle(&doc)))
	b.WriteString("  ")
	b.WriteString(StyleDim.Render(fmt.Sprintf("%.0f%% · %d page(s) · %s", doc.Canvas.Zoom*100, doc.Canvas.Pages, m.ctrl.State())))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("↑/↓ cursor  c/m/r add  d delete  y duplicate  ⏎ run  x interrupt  shift+arrows move  +/- zoom  s save  q quit"))
	b.WriteString("\n\n")

	b.WriteString(m.cellTable(&doc))
	b.WriteString("\n\n")
	b.WriteString("  " + m.status)
	return b.String()
}

func (m editorModel) cellTable(doc *model.Document) string {
	end := m.offset + m.rows
	if end > len(doc.Cells) {
		end = len(doc.Cells)
	}

	rows := [][]string{}
	for i := m.offset; i < end; i++ {
		c := &doc.Cells[i]

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		selected := ""
		if c.Selected {
			selected = "✓"
		}

		seq := "—"
		if c.ExecutionOrder != nil {
			seq = fmt.Sprintf("[%d]", *c.ExecutionOrder)
		}
		state := ""
		switch {
		case m.exec.InFlight(c.ID):
			state = "running"
		case c.IsOutput():
			state = string(c.OutputType)
		}

		rows = append(rows, []string{
			cursor,
			shortID(c.ID),
			string(c.Type),
			seq,
			fmt.Sprintf("%.0f,%.0f", c.Position.X, c.Position.Y),
			selected,
			state,
			cellPreview(c.Content),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Cell", "Type", "Seq", "Position", "Sel", "State", "Content").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.offset + row
			if idx >= len(doc.Cells) {
				return lipgloss.NewStyle()
			}
			if idx == m.cursor {
				return lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
			}
			if doc.Cells[idx].Selected {
				return lipgloss.NewStyle().Foreground(colorGreen)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	return t.Render()
}

func docTitle(d *model.Document) string {
	if d.Name == "" {
		return "Untitled"
	}
	return d.Name
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func cellPreview(content string) string {
	line := content
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	// Truncate on rune boundaries so multibyte content stays valid UTF-8.
	if r := []rune(line); len(r) > 32 {
		line = string(r[:32]) + "…"
	}
	return line
}
