package main

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/exledger/internal/adapter/http/middleware"
	"github.com/iho/exledger/internal/app"
	"github.com/iho/exledger/internal/infrastructure/config"
	"github.com/iho/exledger/internal/infrastructure/metrics"
)

func testApp(cfg *config.Config) *app.App {
	return &app.App{
		Config:  cfg,
		Logger:  zerolog.Nop(),
		Metrics: metrics.NewWithRegisterer(prometheus.NewRegistry()),
	}
}

func TestRootCmdMigrateFlag(t *testing.T) {
	cmd := newRootCmd()

	flag := cmd.Flags().Lookup("migrate")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
	assert.True(t, cmd.SilenceUsage)
}

func TestRouterConfigAuth(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, 1)

	enabled := routerConfig(testApp(&config.Config{AuthEnabled: true, JWTSecret: "secret", JWTExpiration: time.Hour}), limiter)
	assert.NotNil(t, enabled.TokenVerifier)

	disabled := routerConfig(testApp(&config.Config{}), limiter)
	assert.Nil(t, disabled.TokenVerifier, "a disabled verifier must be a nil interface")
	assert.Same(t, limiter, disabled.RateLimiter)
}

func TestRouterConfigIdempotencyNeedsRedis(t *testing.T) {
	a := testApp(&config.Config{IdempotencyTTL: time.Hour})

	cfg := routerConfig(a, nil)
	assert.Nil(t, cfg.IdempotencyStore)

	mr := miniredis.RunT(t)
	a.Redis = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = a.Redis.Close() })

	cfg = routerConfig(a, nil)
	assert.NotNil(t, cfg.IdempotencyStore)
	assert.Equal(t, time.Hour, cfg.IdempotencyTTL)
}
