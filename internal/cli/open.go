package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/canvasnote/canvasnote/pkg/errors"
	"github.com/canvasnote/canvasnote/pkg/kernel"
	"github.com/canvasnote/canvasnote/pkg/model"
	"github.com/canvasnote/canvasnote/pkg/notebook"
	"github.com/canvasnote/canvasnote/pkg/run"
)

// deriveLayoutPath returns the conventional layout artifact path for a
// notebook: sample.ipynb -> sample.layout.json.
func deriveLayoutPath(notebookPath string) string {
	return strings.TrimSuffix(notebookPath, filepath.Ext(notebookPath)) + ".layout.json"
}

// openDocument builds the starting document for edit and serve. With a
// notebook path it imports the artifact pair; the layout artifact is looked
// up next to the notebook when layoutPath is empty, and a plain Jupyter
// notebook without one gets its cells flow-placed. Without a path it creates
// a fresh document seeded from the canvas config.
func openDocument(notebookPath, layoutPath string, canvasCfg CanvasConfig) (model.Document, error) {
	if notebookPath == "" {
		d := model.NewDocument("Untitled")
		applyCanvasConfig(&d, canvasCfg)
		return d, nil
	}

	nb, err := notebook.ReadNotebookFile(notebookPath)
	if err != nil {
		return model.Document{}, err
	}

	var layout *notebook.LayoutArtifact
	if layoutPath == "" {
		layoutPath = deriveLayoutPath(notebookPath)
		if _, err := os.Stat(layoutPath); err != nil {
			layoutPath = ""
		}
	}
	if layoutPath != "" {
		la, err := notebook.ReadLayoutFile(layoutPath)
		if err != nil {
			return model.Document{}, err
		}
		layout = &la
	}

	d, err := notebook.Import(nb, layout)
	if err != nil {
		return model.Document{}, err
	}
	if d.Name == "" {
		d.Name = strings.TrimSuffix(filepath.Base(notebookPath), filepath.Ext(notebookPath))
	}
	// Notebook metadata can carry any string as a name; an unusable one
	// (control characters, separators, overlong) falls back to the default.
	if err := errors.ValidateDocumentName(d.Name); err != nil {
		d.Name = "Untitled"
	}
	return d, nil
}

// newRunner builds the cell runner. With a collaborator URL it returns the
// HTTP client; without one every execution fails cleanly, which the executor
// materializes as an error output on the canvas.
func newRunner(cfg CollaboratorConfig, urlOverride string, noCache bool, logger *log.Logger) (run.Runner, error) {
	url := urlOverride
	if url == "" {
		url = cfg.URL
	}
	if url == "" {
		return run.RunnerFunc(func(ctx context.Context, req run.Request) (run.Result, error) {
			return run.Result{}, errors.New(errors.ErrCodeExecFailed,
				"no collaborator configured; set collaborator.url in config.toml or pass --collaborator")
		}), nil
	}
	return kernel.NewClient(kernel.Config{
		BaseURL: url,
		Timeout: cfg.Timeout(),
		Cache:   newHTTPCache(noCache),
		Logger:  logger,
	})
}
