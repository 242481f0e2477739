package fx

import (
	"context"
	"database/sql"
	"pokemon-sysbot/internal/api"
	"pokemon-sysbot/internal/availability"
	"pokemon-sysbot/internal/cache"
	"pokemon-sysbot/internal/config"
	"pokemon-sysbot/internal/constants"
	"pokemon-sysbot/internal/database"
	"pokemon-sysbot/internal/legality"
	"pokemon-sysbot/internal/logger"
	"pokemon-sysbot/internal/repository"
	"pokemon-sysbot/internal/server"
	"pokemon-sysbot/internal/service"
	"pokemon-sysbot/internal/trade"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideDatabase(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger) (*sql.DB, error) {
	sqlDB, err := database.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := sqlDB.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
			}
			return nil
		},
	})
	return sqlDB, nil
}

// ProvideCache rehydrates the durable mirror on start and drains pending writes on stop.
func ProvideCache(lc fx.Lifecycle, store cache.Store, cfg *config.Config, logger zerolog.Logger) *cache.DataCache {
	c := cache.New(store, logger,
		cache.WithTTL(cfg.CacheTTL),
		cache.WithPrefix(constants.CacheKeyPrefix),
		cache.WithFetchTimeout(constants.RequestTimeout),
	)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := c.Load(ctx); err != nil {
				logger.Warn().Err(err).Msg("failed to load persisted cache, starting cold")
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			c.Close()
			return nil
		},
	})
	return c
}

func ProvideTradeManager(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger) *trade.Manager {
	m := trade.NewManager(logger, trade.WithLifetime(cfg.TradeCodeLifetime))
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			m.CloseAll()
			return nil
		},
	})
	return m
}

func ProvideAvailabilityIndex(species *service.SpeciesService, logger zerolog.Logger) *availability.Index {
	return availability.New(species, logger)
}

func ProvideEngine() *legality.Engine {
	return legality.NewEngine()
}

// ApplyLogLevel lowers or raises the global level once config is known.
func ApplyLogLevel(cfg *config.Config, log zerolog.Logger) {
	lvl, ok := logger.ParseLevel(cfg.LogLevel)
	if !ok {
		log.Warn().Str("level", cfg.LogLevel).Msg("invalid log level, using info")
	}
	zerolog.SetGlobalLevel(lvl)
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(ProvideDatabase),
	// repos
	fx.Provide(
		fx.Annotate(repository.NewCacheStore, fx.As(new(cache.Store))),
		fx.Annotate(repository.NewQueueRepository, fx.As(new(service.Queue))),
	),
	// api client
	fx.Provide(fx.Annotate(api.NewPokeAPIClient, fx.As(new(service.DataProvider)))),
	// domain
	fx.Provide(ProvideCache),
	fx.Provide(ProvideEngine),
	fx.Provide(ProvideAvailabilityIndex),
	fx.Provide(ProvideTradeManager),
	// svc
	fx.Provide(service.NewSpeciesService),
	fx.Provide(service.NewBuildService),
	fx.Provide(service.NewTradeService),
	// server
	fx.Provide(server.NewSysBotServer),
	fx.Invoke(ApplyLogLevel),
)
