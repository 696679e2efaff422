package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	httpAdapter "github.com/iho/exledger/internal/adapter/http"
	"github.com/iho/exledger/internal/adapter/http/handler"
	"github.com/iho/exledger/internal/adapter/http/middleware"
	"github.com/iho/exledger/internal/app"
	"github.com/iho/exledger/internal/infrastructure/auth"
	"github.com/iho/exledger/internal/infrastructure/config"
	"github.com/iho/exledger/internal/infrastructure/logger"
	"github.com/iho/exledger/internal/infrastructure/metrics"
	"github.com/iho/exledger/internal/infrastructure/postgres"
)

const (
	poolStatsInterval   = 15 * time.Second
	limiterCleanupEvery = time.Minute
	limiterMaxIdle      = 10 * time.Minute
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:           "exledger",
		Short:         "Exchange ledger HTTP server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			return run(cmd.Context(), cfg, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func run(ctx context.Context, cfg *config.Config, migrate bool) error {
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stderr})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if migrate {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	m := metrics.New()
	a, err := app.New(ctx, cfg, log, m, app.Options{Redis: true})
	if err != nil {
		return err
	}
	defer a.Close()

	go a.ReportPoolStats(ctx, poolStatsInterval)
	go func() {
		if err := a.Outbox.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("outbox publisher stopped")
		}
	}()

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).WithMetrics(m)
	go limiter.RunCleanup(limiterCleanupEvery, limiterMaxIdle, ctx.Done())

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      httpAdapter.NewRouter(routerConfig(a, limiter)),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

// routerConfig builds the handlers over the use cases of a.
func routerConfig(a *app.App, limiter *middleware.RateLimiter) httpAdapter.RouterConfig {
	var redisClient redis.Cmdable
	if a.Redis != nil {
		redisClient = a.Redis
	}

	cfg := httpAdapter.RouterConfig{
		ShiftHandler:     handler.NewShiftHandler(a.Shifts, a.Orders),
		OrderHandler:     handler.NewOrderHandler(a.Orders, a.Balances),
		AdminHandler:     handler.NewAdminHandler(a.Admin),
		TransferHandler:  handler.NewTransferHandler(a.Transfers),
		BalanceHandler:   handler.NewBalanceHandler(a.Balances),
		ReportHandler:    handler.NewReportHandler(a.Reports),
		LedgerHandler:    handler.NewLedgerHandler(a.Recon),
		HealthHandler:    handler.NewHealthHandler(a.Pool, redisClient),
		AuthHandler:      handler.NewAuthHandler(),
		IdempotencyStore: a.IdempotencyStore(),
		IdempotencyTTL:   a.Config.IdempotencyTTL,
		RateLimiter:      limiter,
		Metrics:          a.Metrics,
		Logger:           a.Logger,
	}
	if a.Config.AuthEnabled {
		cfg.TokenVerifier = auth.NewJWTManager(a.Config.JWTSecret, a.Config.JWTExpiration)
	}
	return cfg
}

