// Package app assembles the ledger from configuration. The server and the
// CLI share it so both run the same use cases against the same stores.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iho/exledger/internal/adapter/rates"
	postgresRepo "github.com/iho/exledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/exledger/internal/adapter/repository/redis"
	"github.com/iho/exledger/internal/infrastructure/config"
	"github.com/iho/exledger/internal/infrastructure/eventpublisher"
	"github.com/iho/exledger/internal/infrastructure/metrics"
	"github.com/iho/exledger/internal/infrastructure/postgres"
	redisinfra "github.com/iho/exledger/internal/infrastructure/redis"
	"github.com/iho/exledger/internal/usecase"
)

// Options selects the optional parts of the assembly.
type Options struct {
	// Redis connects to REDIS_URL; the rate cache, the idempotency store
	// and the redis outbox sink need it.
	Redis bool
}

// App holds the wired ledger.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Metrics *metrics.Metrics

	Pool  *pgxpool.Pool
	Redis *redis.Client

	Repos  usecase.Repositories
	Oracle usecase.RateOracle

	Shifts    *usecase.ShiftUseCase
	Orders    *usecase.OrderUseCase
	Admin     *usecase.AdminUseCase
	Transfers *usecase.TransferUseCase
	Balances  *usecase.BalanceUseCase
	Reports   *usecase.ReportUseCase
	Recon     *usecase.ReconciliationUseCase

	Outbox *eventpublisher.EventPublisher
}

// New connects to the stores and builds every use case.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, m *metrics.Metrics, opts Options) (*App, error) {
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
		Tracer:         postgres.NewQueryTracer(m, logger, cfg.DatabaseSlowQuery),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info().Msg("connected to postgres")

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: m,
		Pool:    pool,
	}

	if opts.Redis {
		client, err := redisinfra.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.Redis = client
		logger.Info().Msg("connected to redis")
	}

	if err := a.wire(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire() error {
	cfg, logger, m := a.Config, a.Logger, a.Metrics

	a.Repos = postgresRepo.NewRepositories(a.Pool)
	txManager := postgresRepo.NewTxManager(a.Pool)
	idGen := postgresRepo.NewULIDGenerator()
	clock := usecase.SystemClock{}

	oracleCfg := rates.Config{
		CBRURL:     cfg.RateCBRURL,
		BinanceURL: cfg.RateBinanceURL,
		MEXCURL:    cfg.RateMEXCURL,
		Timeout:    cfg.RateTimeout,
		Attempts:   cfg.RateAttempts,
		CacheTTL:   cfg.RateCacheTTL,
		Metrics:    m,
		Logger:     logger,
	}
	if a.Redis != nil {
		oracleCfg.Cache = redisRepo.NewCache(a.Redis, "exledger:").WithMetrics(m)
	}
	a.Oracle = rates.New(oracleCfg)

	balances := usecase.NewBalanceStore(a.Repos.Balances, a.Repos.History, idGen, clock, m)

	a.Shifts = usecase.NewShiftUseCase(txManager, a.Repos, idGen, clock, m).WithLogger(logger)
	a.Orders = usecase.NewOrderUseCase(txManager, a.Repos, balances, a.Oracle, cfg.RateMinPlausible, idGen, clock, m).WithLogger(logger)
	a.Admin = usecase.NewAdminUseCase(txManager, a.Repos, balances, a.Oracle, cfg.RateMinPlausible, idGen, clock, m).WithLogger(logger)
	a.Transfers = usecase.NewTransferUseCase(txManager, a.Repos, balances, idGen, clock, m).WithLogger(logger)
	a.Balances = usecase.NewBalanceUseCase(a.Repos.Balances, a.Repos.History)
	a.Reports = usecase.NewReportUseCase(a.Repos).WithRetrier(postgresRepo.NewRetrier(logger).WithMetrics(m))
	a.Recon = usecase.NewReconciliationUseCase(a.Repos.History, clock, m)

	var client redis.Cmdable
	if a.Redis != nil {
		client = a.Redis
	}
	sink, err := eventpublisher.NewSink(cfg.OutboxSink, client, cfg.OutboxStream, logger)
	if err != nil {
		return err
	}
	a.Outbox = eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: a.Repos.Outbox,
		Publisher:  sink,
		Logger:     logger,
		Metrics:    m,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
		Retention:  cfg.OutboxRetention,
	})

	return nil
}

// IdempotencyStore returns the redis-backed store, or nil without redis.
func (a *App) IdempotencyStore() usecase.IdempotencyStore {
	if a.Redis == nil {
		return nil
	}
	return redisRepo.NewIdempotencyStore(a.Redis).WithMetrics(a.Metrics)
}

// ReportPoolStats copies the acquired connection count of the pool into
// the DBConnections gauge every interval until ctx is done.
func (a *App) ReportPoolStats(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Metrics.DBConnections.Set(float64(a.Pool.Stat().AcquiredConns()))
		}
	}
}

// Close releases the connections.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("failed to close redis client")
		}
	}
	a.Pool.Close()
}
