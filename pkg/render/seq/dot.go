// Package seq renders a document's design sequence - its code cells in
// executionOrder, each linked to the outputs it produced - as a Graphviz
// diagram.
//
// The diagram is a debugging and documentation aid: the canvas shows cells
// spatially, while this view shows the logical authoring order that spatial
// arrangement deliberately does not encode.
package seq

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/canvasnote/canvasnote/pkg/model"
)

// Options configures design-sequence rendering.
type Options struct {
	// Detailed includes execution counts and content previews in labels.
	// When false, only the sequence number and cell type are shown.
	Detailed bool
}

const previewLen = 40

// ToDOT converts a document's design sequence to Graphviz DOT. Code cells
// become a vertical chain ordered by executionOrder; each output cell hangs
// off the code cell that produced it. Cells without a sequence number
// (markdown, free raw cells) are omitted.
func ToDOT(d *model.Document, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph design_sequence {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("\n")

	ordered := orderedCodeCells(d)
	for _, c := range ordered {
		fmt.Fprintf(&buf, "  %q [label=%q];\n", c.ID, codeLabel(c, opts.Detailed))
	}

	buf.WriteString("\n")
	for i := 1; i < len(ordered); i++ {
		fmt.Fprintf(&buf, "  %q -> %q;\n", ordered[i-1].ID, ordered[i].ID)
	}

	buf.WriteString("\n")
	for _, src := range ordered {
		for _, out := range d.OutputCellsFor(src.ID) {
			fmt.Fprintf(&buf, "  %q [label=%q, style=\"rounded,filled,dashed\", fillcolor=lightgrey];\n",
				out.ID, outputLabel(&out, opts.Detailed))
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed];\n", src.ID, out.ID)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// orderedCodeCells returns the code cells carrying a sequence number, sorted
// by it. Insertion order breaks ties, though ties cannot occur for cells
// numbered by the store.
func orderedCodeCells(d *model.Document) []*model.Cell {
	var cells []*model.Cell
	for i := range d.Cells {
		c := &d.Cells[i]
		if c.Type == model.CellTypeCode && c.ExecutionOrder != nil {
			cells = append(cells, c)
		}
	}
	sort.SliceStable(cells, func(i, j int) bool {
		return *cells[i].ExecutionOrder < *cells[j].ExecutionOrder
	})
	return cells
}

func codeLabel(c *model.Cell, detailed bool) string {
	label := fmt.Sprintf("[%d] code", *c.ExecutionOrder)
	if !detailed {
		return label
	}
	if c.ExecutionCount != nil {
		label += fmt.Sprintf("\nrun #%d", *c.ExecutionCount)
	}
	if preview := contentPreview(c.Content); preview != "" {
		label += "\n" + preview
	}
	return label
}

func outputLabel(c *model.Cell, detailed bool) string {
	label := string(c.OutputType)
	if label == "" {
		label = "output"
	}
	if detailed {
		if preview := contentPreview(c.Content); preview != "" {
			label += "\n" + preview
		}
	}
	return label
}

func contentPreview(content string) string {
	line := content
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	// Truncate on rune boundaries so multibyte content stays valid UTF-8.
	if r := []rune(line); len(r) > previewLen {
		line = string(r[:previewLen]) + "…"
	}
	return line
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
