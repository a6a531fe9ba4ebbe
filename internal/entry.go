// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/pagetree/internal/api"
	"github.com/starford/pagetree/internal/index"
	"github.com/starford/pagetree/internal/sse"
)

// treeThrottle bounds how often tree.updated is broadcast during bulk edits.
const treeThrottle = 2 * time.Second

// Run serves the site over HTTP until ctx is cancelled or a shutdown signal
// arrives.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	s, err := app.build(true)
	if err != nil {
		return err
	}
	defer s.Close()

	cfg := app.config
	logger := s.logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("site_root", cfg.Site.Root),
		slog.Bool("index_enabled", cfg.Index.Enabled),
		slog.Bool("watch_enabled", cfg.Watch.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if dir := shadowedPage(s); dir != "" {
		logger.Warn("site: page is shadowed by the API routes",
			slog.String("dir", dir),
			slog.String("prefix", api.Prefix))
	}

	broker := sse.NewBroker(treeThrottle)
	defer broker.Close()

	if s.syncer != nil {
		s.syncer.OnChange = broker.PublishPageEvent
	}
	s.initialSync(ctx)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: newHandler(s, broker),
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Watch.Enabled && s.syncer != nil {
		g.Go(func() error {
			if err := index.Watch(gCtx, s.syncer, s.store.Root(), cfg.Watch.Debounce); err != nil {
				return fmt.Errorf("watcher: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Open SSE streams would otherwise hold Shutdown until the timeout.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// newHandler assembles the root router: health probes, metrics, the JSON
// API and the rendered site.
func newHandler(s *site, events http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		if !s.loader.IsPage(".") {
			writeStatus(w, http.StatusServiceUnavailable, "site root is not a page")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Handle("/metrics", s.recorder.Handler())

	r.Mount("/", api.NewSiteRouter(s.svc, events))
	return r
}

// shadowedPage returns the root page directory hidden behind api.Prefix, or
// "" when there is none.
func shadowedPage(s *site) string {
	dir := strings.TrimPrefix(api.Prefix, "/")
	if s.loader.IsPage(dir) {
		return dir
	}
	return ""
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = fmt.Fprintf(w, `{"status":%q}`, status)
}
