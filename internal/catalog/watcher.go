package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/example/event-planner/internal/recurrence"
)

// ReloadFunc receives each successfully reloaded catalog.
type ReloadFunc func(ctx context.Context, c *Catalog) error

// Watcher reloads a catalog file on a cron schedule. A reload that fails to
// parse or validate keeps the previous catalog.
type Watcher struct {
	path     string
	engine   *recurrence.Engine
	onReload ReloadFunc
	logger   *slog.Logger

	cron *cron.Cron

	mu      sync.Mutex
	current *Catalog
}

// WatcherOptions configures NewWatcher.
type WatcherOptions struct {
	Path     string
	Schedule string
	Engine   *recurrence.Engine
	Initial  *Catalog
	OnReload ReloadFunc
	Logger   *slog.Logger
}

// NewWatcher validates the cron schedule and registers the reload job. Call
// Start to begin running it.
func NewWatcher(opts WatcherOptions) (*Watcher, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	engine := opts.Engine
	if engine == nil || engine.Location == nil {
		engine = recurrence.NewEngine(nil)
	}

	w := &Watcher{
		path:     opts.Path,
		engine:   engine,
		onReload: opts.OnReload,
		logger:   logger.With("component", "catalog_watcher", "path", opts.Path),
		current:  opts.Initial,
	}

	c := cron.New(cron.WithLocation(engine.Location), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(opts.Schedule, func() { _ = w.Reload(context.Background()) }); err != nil {
		return nil, fmt.Errorf("catalog: invalid refresh schedule %q: %w", opts.Schedule, err)
	}
	w.cron = c
	return w, nil
}

// Start runs the schedule in the background.
func (w *Watcher) Start() {
	w.logger.Info("catalog watcher started")
	w.cron.Start()
}

// Stop halts the schedule and waits for a running reload to finish or ctx to
// expire.
func (w *Watcher) Stop(ctx context.Context) {
	done := w.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	w.logger.Info("catalog watcher stopped")
}

// Current returns the last catalog that loaded successfully.
func (w *Watcher) Current() *Catalog {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Reload loads the file once and hands it to the callback.
func (w *Watcher) Reload(ctx context.Context) error {
	next, err := LoadFile(w.path, w.engine)
	if err != nil {
		w.logger.WarnContext(ctx, "catalog reload failed, keeping previous catalog", "error", err)
		return err
	}
	if w.onReload != nil {
		if err := w.onReload(ctx, next); err != nil {
			w.logger.ErrorContext(ctx, "catalog reload rejected", "error", err)
			return err
		}
	}

	w.mu.Lock()
	w.current = next
	w.mu.Unlock()
	w.logger.InfoContext(ctx, "catalog reloaded", "events", next.Len())
	return nil
}
