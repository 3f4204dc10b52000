package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ortoqbank/ortoqbank-backend/internal/aggregate"
	"github.com/ortoqbank/ortoqbank-backend/internal/db"
	"github.com/ortoqbank/ortoqbank-backend/internal/observability"
	"github.com/ortoqbank/ortoqbank-backend/internal/platform/envutil"
	"github.com/ortoqbank/ortoqbank-backend/internal/platform/logger"
	"github.com/ortoqbank/ortoqbank-backend/internal/services"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Registry *aggregate.Registry
	Repos    Repos
	Services Services

	otelShutdown func(context.Context) error
}

func New() (*App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	reg := aggregate.NewRegistry(cfg.AggregateCfg)
	wp := aggregate.NewWritePath(theDB, log, reg)
	services.RegisterAggregateListeners(wp, reg)

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, reg, wp, reposet)
	handlerset := wireHandlers(log, serviceset, reposet)
	mw := wireMiddleware(log, serviceset)
	router := wireRouter(handlerset, mw)

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: envutil.String("OTEL_SERVICE_NAME", "ortoqbank-backend"),
		Environment: envutil.String("ENVIRONMENT", "development"),
		Version:     envutil.String("SERVICE_VERSION", "dev"),
	})

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       router,
		Cfg:          cfg,
		Registry:     reg,
		Repos:        reposet,
		Services:     serviceset,
		otelShutdown: otelShutdown,
	}, nil
}

// Start loads the aggregate trees from the source tables. Must complete
// before the router serves count traffic.
func (a *App) Start(ctx context.Context) error {
	if !a.Cfg.RebuildOnBoot {
		a.Log.Warn("aggregate rebuild on boot disabled; counts start empty")
		return nil
	}
	a.Log.Info("Rebuilding aggregate trees...")
	return a.Services.Backfill.RebuildAggregates(ctx, a.Cfg.AggregateCfg)
}

func (a *App) Run() error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("HTTP server listening", "addr", a.Cfg.Addr)
	return a.Router.Run(a.Cfg.Addr)
}

func (a *App) Shutdown(ctx context.Context) {
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	a.Log.Sync()
}
