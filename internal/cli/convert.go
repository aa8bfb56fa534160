package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/canvasnote/canvasnote/pkg/notebook"
)

// convertOpts holds the command-line flags for the convert command.
type convertOpts struct {
	layout string // layout artifact path for the input notebook
	output string // output base path (defaults to the input base name)
}

// newConvertCmd creates the convert command: notebook to canvas artifacts.
func newConvertCmd() *cobra.Command {
	var opts convertOpts

	cmd := &cobra.Command{
		Use:   "convert <notebook.ipynb>",
		Short: "Convert a Jupyter notebook into canvasnote artifacts",
		Long: `Convert imports a Jupyter notebook - with or without a layout artifact - and
writes the normalized notebook plus a layout artifact back out. A plain
notebook gets its cells placed automatically in reading order across pages,
so it opens as a readable column in the editor.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVar(&opts.layout, "layout", "", "layout artifact for the input notebook")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output base path (default: input base name)")

	return cmd
}

func runConvert(ctx context.Context, input string, opts *convertOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	nb, err := notebook.ReadNotebookFile(input)
	if err != nil {
		return err
	}

	var layout *notebook.LayoutArtifact
	hadLayout := false
	if opts.layout != "" {
		la, err := notebook.ReadLayoutFile(opts.layout)
		if err != nil {
			return err
		}
		layout = &la
		hadLayout = true
	}

	doc, err := notebook.Import(nb, layout)
	if err != nil {
		return err
	}
	logger.Debug("imported", "cells", len(doc.Cells), "pages", doc.Canvas.Pages)

	base := opts.output
	if base == "" {
		base = strings.TrimSuffix(input, filepath.Ext(input))
	}
	notebookPath := base + ".ipynb"
	layoutPath := base + ".layout.json"

	outNB, outLayout := notebook.Export(doc)
	if err := notebook.WriteNotebookFile(outNB, notebookPath); err != nil {
		return err
	}
	if err := notebook.WriteLayoutFile(outLayout, layoutPath); err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Converted %d cells", len(doc.Cells)))

	outputs := 0
	for i := range doc.Cells {
		if doc.Cells[i].IsOutput() {
			outputs++
		}
	}
	flowed := 0
	if !hadLayout {
		flowed = len(doc.Cells)
	}

	printSuccess("Converted %s", input)
	printDocStats(len(doc.Cells), outputs, flowed)
	printFile(notebookPath)
	printFile(layoutPath)
	printNextStep("Open it", "canvasnote edit "+notebookPath)
	return nil
}
