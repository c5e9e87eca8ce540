package app

import (
	"context"
	"fmt"
	"time"

	"rental-manager/internal/cache"
	"rental-manager/internal/config"
	"rental-manager/internal/database"
	"rental-manager/internal/history"
	"rental-manager/internal/increase"
	"rental-manager/internal/metrics"
	"rental-manager/internal/search"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// App holds the services shared by the API server and the CLI
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Location  *time.Location
	Store     *database.GormDB
	Reporting *database.DB
	Redis     *redis.Client
	Search    *search.SearchClient
	Metrics   *metrics.Collector
	Increases *increase.Service
	History   *history.Service
}

// Open connects the configured backends and builds the services. Redis and
// Meilisearch are optional; when they are unreachable the app runs without them.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	store, err := database.NewGormDB(cfg.Database, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Database.Type, err)
	}
	logger.Info("Connected to database", zap.String("type", cfg.Database.Type))

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Location: loc,
		Store:    store,
		Metrics:  metrics.NewCollector("rental"),
		History:  history.NewService(store),
	}

	a.Increases = increase.NewService(store, logger, increase.Options{
		Location:      loc,
		Rounding:      increase.RoundingMode(cfg.Increase.RoundingMode),
		LookaheadDays: cfg.Increase.LookaheadDays,
		UrgentDays:    cfg.Increase.UrgentDays,
	}).WithMetrics(a.Metrics)

	if cfg.Database.Type == "postgres" && cfg.Database.Postgres.ReportingQuery {
		a.Reporting, err = database.NewDB(cfg.Database.Postgres)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to open reporting connection: %w", err)
		}
		a.Increases.WithCandidateSource(a.Reporting)
		logger.Info("Pending increases read through the reporting query")
	}

	if cfg.Redis.Addr != "" {
		a.Redis = cache.NewRedisClient(cfg.Redis)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := a.Redis.Ping(pingCtx).Err(); err != nil {
			logger.Warn("Redis is not reachable, pending cache will miss until it is", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		cancel()
		a.Increases.WithCache(cache.NewPendingCache(cache.NewRedisKV(a.Redis), cfg.Redis.GetTTL(), logger))
		logger.Info("Pending increase cache enabled", zap.String("addr", cfg.Redis.Addr), zap.Duration("ttl", cfg.Redis.GetTTL()))
	}

	if ms := cfg.Search.Meilisearch; ms.Host != "" {
		a.Search = search.NewSearchClient(ms.Host, ms.APIKey, ms.Index)
		if err := a.Search.InitIndex(); err != nil {
			logger.Warn("Failed to initialize search index", zap.Error(err))
		}
		logger.Info("Search enabled", zap.String("host", ms.Host), zap.String("index", ms.Index))
	}

	return a, nil
}

// Migrate creates or updates the schema
func (a *App) Migrate() error {
	if err := a.Store.InitSchema(); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Close releases every open connection
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn("Failed to close redis", zap.Error(err))
		}
	}
	if a.Reporting != nil {
		if err := a.Reporting.Close(); err != nil {
			a.Logger.Warn("Failed to close reporting connection", zap.Error(err))
		}
	}
	if err := a.Store.Close(); err != nil {
		a.Logger.Warn("Failed to close database", zap.Error(err))
	}
}
