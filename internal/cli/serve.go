package cli

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/watchsource/internal/api"
	"github.com/gyaneshwarpardhi/watchsource/internal/catalog"
	"github.com/gyaneshwarpardhi/watchsource/internal/component"
	"github.com/gyaneshwarpardhi/watchsource/internal/config"
	"github.com/gyaneshwarpardhi/watchsource/internal/metrics"
	"github.com/gyaneshwarpardhi/watchsource/internal/render"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve rendered watches over HTTP with hot reload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to listen", err)
			}
			return serve(cmd.Context(), rootOpts, ln)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address")
	return cmd
}

// serve runs the HTTP API on ln until ctx is done.
func serve(ctx context.Context, opts *RootOptions, ln net.Listener) error {
	log := opts.log
	loader, cat, err := loadCatalog(opts)
	if err != nil {
		ln.Close()
		return err
	}
	cfg := loader.Config()
	renderer := render.New(cat, cfg.Render.ExportWorkers, log)
	if err := renderer.EnableCache(cfg.Render.CacheSize); err != nil {
		ln.Close()
		return WrapExitError(ExitCommandError, "invalid render settings", err)
	}
	log.Info("catalog built", "watches", cat.Len(), "cache_size", cfg.Render.CacheSize)

	// ── Hot-reload watcher ────────────────────────────────────────────────────
	live := &liveCatalog{loader: loader, registry: component.DefaultRegistry(), renderer: renderer, log: log}
	loader.OnChange(live.apply)
	stopWatch, err := loader.Watch()
	if err != nil {
		log.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	srv := &http.Server{
		Handler:      api.New(renderer, live, log),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errC := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", ln.Addr().String())
		errC <- srv.Serve(ln)
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	select {
	case err := <-errC:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return WrapExitError(ExitFailure, "server error", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		return WrapExitError(ExitFailure, "shutdown", err)
	}
	log.Info("goodbye")
	return nil
}

// liveCatalog rebuilds the renderer's catalog whenever the loader reloads.
type liveCatalog struct {
	loader   *config.Loader
	registry *component.Registry
	renderer *render.Renderer
	log      *slog.Logger

	mu      sync.Mutex
	applied *config.WatchConfig // config of the most recent apply
	lastErr error               // its build result
}

func (l *liveCatalog) apply(cfg *config.WatchConfig) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cat, err := catalog.Build(cfg, l.registry)
	l.applied, l.lastErr = cfg, err
	if err != nil {
		metrics.CatalogReloads.WithLabelValues("error").Inc()
		l.log.Warn("hot-reload skipped: catalog build failed", "err", err)
		return
	}
	metrics.CatalogReloads.WithLabelValues("success").Inc()
	l.renderer.SetWorkers(cfg.Render.ExportWorkers)
	l.renderer.Swap(cat)
}

// Reload re-reads the watch file and reports how many watches are served.
// The error is the result for the file this call read, even when a watcher
// reload ran in between.
func (l *liveCatalog) Reload() (int, error) {
	cfg, err := l.loader.Reload()
	if err != nil {
		metrics.CatalogReloads.WithLabelValues("error").Inc()
		return 0, err
	}
	if err := l.resultFor(cfg); err != nil {
		return 0, err
	}
	return l.renderer.Catalog().Len(), nil
}

func (l *liveCatalog) resultFor(cfg *config.WatchConfig) error {
	l.mu.Lock()
	applied, err := l.applied, l.lastErr
	l.mu.Unlock()
	if applied == cfg {
		return err
	}
	// A newer apply replaced ours; building is deterministic, so redo the check.
	_, err = catalog.Build(cfg, l.registry)
	return err
}
