package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/event-planner/internal/application"
	"github.com/example/event-planner/internal/catalog"
	"github.com/example/event-planner/internal/config"
	httptransport "github.com/example/event-planner/internal/http"
	"github.com/example/event-planner/internal/logging"
	"github.com/example/event-planner/internal/persistence"
	"github.com/example/event-planner/internal/persistence/memory"
	"github.com/example/event-planner/internal/persistence/postgres"
	"github.com/example/event-planner/internal/persistence/sqlite"
	"github.com/example/event-planner/internal/recurrence"
	"github.com/example/event-planner/internal/scheduler"
	"github.com/example/event-planner/internal/selection"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, slog.LevelInfo).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)
	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("planner stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	kv, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeStore(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	app, err := buildApp(ctx, cfg, kv, logger)
	if err != nil {
		return err
	}

	if app.watcher != nil {
		app.watcher.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			app.watcher.Stop(stopCtx)
		}()
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("planner API listening",
		"addr", server.Addr,
		"store", cfg.StoreDriver,
		"events", app.service.Catalog().Len(),
		"basic_auth", cfg.BasicAuthEnabled(),
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server encountered error: %w", err)
	}
	return nil
}

// app holds the wired service graph.
type app struct {
	service *application.PlannerService
	watcher *catalog.Watcher
	handler http.Handler
}

func buildApp(ctx context.Context, cfg config.Config, kv persistence.KeyValueStore, logger *slog.Logger) (*app, error) {
	engine := recurrence.NewEngine(cfg.Location)
	resolver := scheduler.NewResolver(cfg.Location)

	cat, err := loadCatalog(cfg, engine)
	if err != nil {
		return nil, err
	}

	store := selection.New(ctx, selection.Options{
		Persistence: kv,
		Key:         cfg.SelectionKey,
		Catalog:     cat.Events(),
		Resolver:    resolver,
		Logger:      logger,
	})

	service, err := application.NewPlannerService(cat, store, resolver, logger)
	if err != nil {
		return nil, err
	}

	middleware := []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)}
	if cfg.BasicAuthEnabled() {
		auth, err := application.NewAuthService(cfg.BasicAuthUser, cfg.BasicAuthHash, application.VerifyPassword, logger)
		if err != nil {
			return nil, err
		}
		middleware = append(middleware, httptransport.RequireBasicAuth(auth, logger))
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Planner:    httptransport.NewPlannerHandler(service, logger),
		Middleware: middleware,
	})

	built := &app{service: service, handler: router}
	if cfg.CatalogRefresh != "" {
		built.watcher, err = catalog.NewWatcher(catalog.WatcherOptions{
			Path:     cfg.CatalogPath,
			Schedule: cfg.CatalogRefresh,
			Engine:   engine,
			Initial:  cat,
			OnReload: service.ReloadCatalog,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
	}
	return built, nil
}

func loadCatalog(cfg config.Config, engine *recurrence.Engine) (*catalog.Catalog, error) {
	if cfg.CatalogPath == "" {
		return catalog.Default(engine)
	}
	cat, err := catalog.LoadFile(cfg.CatalogPath, engine)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", cfg.CatalogPath, err)
	}
	return cat, nil
}

// openStore connects the configured driver, applies its schema and returns
// the matching close function.
func openStore(ctx context.Context, cfg config.Config) (persistence.KeyValueStore, func() error, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		store := memory.New()
		return store, store.Close, nil
	case config.DriverPostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open storage: %w", err)
		}
		if err := store.Migrate(ctx); err != nil {
			return nil, nil, errors.Join(fmt.Errorf("failed to apply migrations: %w", err), store.Close())
		}
		return store, store.Close, nil
	case config.DriverSQLite, "":
		store, err := sqlite.Open(cfg.SQLiteDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open storage: %w", err)
		}
		if err := store.Migrate(ctx); err != nil {
			return nil, nil, errors.Join(fmt.Errorf("failed to apply migrations: %w", err), store.Close())
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}
