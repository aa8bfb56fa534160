package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/canvasnote/canvasnote/internal/server"
	"github.com/canvasnote/canvasnote/pkg/repo"
	"github.com/canvasnote/canvasnote/pkg/run"
	"github.com/canvasnote/canvasnote/pkg/store"
)

const shutdownTimeout = 10 * time.Second

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr         string // HTTP listen address
	layout       string // layout artifact path for the initial document
	collaborator string // collaborator URL override
	mongoURI     string // MongoDB URI override for document persistence
	noCache      bool   // disable the collaborator response cache
}

// newServeCmd creates the serve command: the HTTP API around one document.
func newServeCmd(configPath *string) *cobra.Command {
	opts := serveOpts{addr: ":8080"}

	cmd := &cobra.Command{
		Use:   "serve [notebook.ipynb]",
		Short: "Serve a document over the HTTP API",
		Long: `Serve exposes one live document over HTTP: document state, cell mutations,
execution, and artifact import/export. With a notebook argument the document
is imported at startup; otherwise the server starts with a fresh document.

Document persistence endpoints are enabled when a MongoDB URI is configured
(mongo.uri in config.toml or --mongo).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			notebookPath := ""
			if len(args) > 0 {
				notebookPath = args[0]
			}
			return runServe(cmd.Context(), notebookPath, &opts, *configPath)
		},
	}

	cmd.Flags().StringVarP(&opts.addr, "addr", "a", opts.addr, "listen address")
	cmd.Flags().StringVar(&opts.layout, "layout", "", "layout artifact path")
	cmd.Flags().StringVar(&opts.collaborator, "collaborator", "", "collaborator URL (overrides config)")
	cmd.Flags().StringVar(&opts.mongoURI, "mongo", "", "MongoDB URI for document persistence (overrides config)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the collaborator response cache")

	return cmd
}

func runServe(ctx context.Context, notebookPath string, opts *serveOpts, configPath string) error {
	logger := loggerFromContext(ctx)

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	doc, err := openDocument(notebookPath, opts.layout, cfg.Canvas)
	if err != nil {
		return err
	}
	logger.Info("document ready", "name", doc.Name, "cells", len(doc.Cells))

	runner, err := newRunner(cfg.Collaborator, opts.collaborator, opts.noCache, logger)
	if err != nil {
		return err
	}

	st := store.New(doc, logger)
	exec := run.New(st, runner, logger)

	var repository *repo.Repository
	mongoURI := opts.mongoURI
	if mongoURI == "" {
		mongoURI = cfg.Mongo.URI
	}
	if mongoURI != "" {
		repository, err = repo.Connect(ctx, repo.Config{
			URI:        mongoURI,
			Database:   cfg.Mongo.Database,
			Collection: cfg.Mongo.Collection,
		})
		if err != nil {
			return err
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := repository.Close(closeCtx); err != nil {
				logger.Warn("close repository", "err", err)
			}
		}()
		logger.Info("document repository connected")
	}

	srv := server.New(server.Config{
		Addr:     opts.addr,
		Store:    st,
		Executor: exec,
		Repo:     repository,
		Logger:   logger,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
