package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/starford/pagetree/internal/index"
	"github.com/starford/pagetree/internal/metrics"
	"github.com/starford/pagetree/internal/page"
	"github.com/starford/pagetree/internal/pageservice"
	"github.com/starford/pagetree/internal/render"
	"github.com/starford/pagetree/internal/storage"
)

// site holds the components shared by every command.
type site struct {
	logger   *slog.Logger
	store    *storage.FS
	recorder *metrics.PrometheusRecorder
	loader   *page.Loader
	renderer *render.Dispatcher
	db       *index.DB
	syncer   *index.Syncer
	svc      *pageservice.Service
}

// build wires storage, loader, renderer and, when withIndex is set and the
// index is enabled, the SQLite page index.
func (a *application) build(withIndex bool) (*site, error) {
	if a.config == nil {
		return nil, errors.New("config is required")
	}
	cfg := a.config

	logger := slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	if _, err := os.Stat(cfg.Site.Root); err != nil {
		return nil, fmt.Errorf("site root: %w", err)
	}
	store, err := storage.NewFS(cfg.Site.Root)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	recorder := metrics.NewPrometheusRecorder(prom.NewRegistry())
	loader := page.NewLoader(store,
		page.WithSettings(cfg.Site.Settings()),
		page.WithRecorder(recorder),
	)

	renderOpts := []render.Option{
		render.WithRecorder(recorder),
		render.WithFrontMatterStripping(cfg.Render.StripFrontMatter),
	}
	if len(cfg.Render.MarkdownExtensions) > 0 {
		renderOpts = append(renderOpts, render.WithMarkdownExtensions(cfg.Render.MarkdownExtensions...))
	}
	if len(cfg.Render.PartialExtensions) > 0 {
		renderOpts = append(renderOpts, render.WithPartialExtensions(cfg.Render.PartialExtensions...))
	}
	renderer := render.NewDispatcher(store, renderOpts...)

	s := &site{
		logger:   logger,
		store:    store,
		recorder: recorder,
		loader:   loader,
		renderer: renderer,
	}

	if !withIndex || !cfg.Index.Enabled {
		s.svc = pageservice.New(loader, renderer, nil)
		return s, nil
	}

	db, err := index.Open(cfg.Index.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}
	s.db = db
	s.syncer = &index.Syncer{
		DB:       db,
		Loader:   loader,
		Logger:   logger,
		Recorder: recorder,
	}
	s.svc = pageservice.New(loader, renderer, db)
	return s, nil
}

// initialSync indexes the tree once before serving. A failure leaves the
// previous index in place and is only logged.
func (s *site) initialSync(ctx context.Context) {
	if s.syncer == nil {
		return
	}
	stats, err := s.syncer.Sync(ctx)
	if err != nil {
		s.logger.Warn("initial sync failed", slog.String("error", err.Error()))
		return
	}
	s.logger.Info("initial sync done",
		slog.Int("pages", stats.Pages),
		slog.Int("created", stats.Created),
		slog.Int("updated", stats.Updated),
		slog.Int("deleted", stats.Deleted))
}

func (s *site) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
