package app

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/codecompanion-backend/internal/data/db"
	apphttp "github.com/yungbote/codecompanion-backend/internal/http"
	"github.com/yungbote/codecompanion-backend/internal/observability"
	"github.com/yungbote/codecompanion-backend/internal/platform/logger"
	"github.com/yungbote/codecompanion-backend/internal/realtime"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	DB       *db.Service
	Repos    Repos
	Services Services
	Registry *realtime.Registry
	Server   *apphttp.Server
	Metrics  *observability.Metrics

	otelShutdown func(context.Context) error
}

func New(ctx context.Context, log *logger.Logger) (*App, error) {
	log.Info("Loading configuration...")
	cfg, err := LoadConfig(log)
	if err != nil {
		return nil, err
	}

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: observability.DefaultServiceName,
		Environment: cfg.Env,
	})
	metrics := observability.Init(log)

	dbService, err := db.Open(cfg.DB, log)
	if err != nil {
		_ = otelShutdown(ctx)
		return nil, fmt.Errorf("init database: %w", err)
	}
	return build(log, cfg, dbService, metrics, otelShutdown), nil
}

func build(log *logger.Logger, cfg Config, dbService *db.Service, metrics *observability.Metrics, otelShutdown func(context.Context) error) *App {
	registry := realtime.NewRegistry(
		log,
		realtime.WithHeartbeat(cfg.SSEHeartbeat),
		realtime.WithBuffer(cfg.SSEBuffer),
		realtime.WithObserver(metrics),
	)

	reposet := wireRepos(dbService.DB(), log)
	serviceset := wireServices(log, cfg, reposet, registry)
	handlerset := wireHandlers(log, serviceset, registry)
	mw := wireMiddleware(log, serviceset)
	server := wireServer(log, cfg, metrics, handlerset, mw)

	return &App{
		Log:          log,
		Cfg:          cfg,
		DB:           dbService,
		Repos:        reposet,
		Services:     serviceset,
		Registry:     registry,
		Server:       server,
		Metrics:      metrics,
		otelShutdown: otelShutdown,
	}
}

// Run serves until ctx is cancelled or a listener fails, then drains. Live
// streams are closed before the HTTP server shuts down so Shutdown does not
// wait on them.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Log.Info("API server listening", "addr", a.Server.Addr())
		return a.Server.ListenAndServe()
	})
	if a.Metrics != nil && a.Cfg.MetricsAddr != "" {
		g.Go(func() error {
			return a.Metrics.Serve(gctx, a.Log, a.Cfg.MetricsAddr)
		})
		a.Metrics.StartDBCollector(gctx, a.Log, a.DB.DB(), 0)
	}
	g.Go(func() error {
		<-gctx.Done()
		a.Log.Info("Shutting down", "live_streams", a.Registry.Len())
		a.Registry.CloseAll()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Cfg.ShutdownTimeout)
		defer cancel()
		if err := a.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Registry != nil {
		a.Registry.CloseAll()
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.Cfg.ShutdownTimeout)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Log.Warn("db close failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
