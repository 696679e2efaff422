package rates_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/exledger/internal/adapter/rates"
	redisrepo "github.com/iho/exledger/internal/adapter/repository/redis"
	"github.com/iho/exledger/internal/domain"
	"github.com/iho/exledger/internal/infrastructure/metrics"
	"github.com/iho/exledger/internal/usecase/mocks"
)

const cbrBody = `{"Date":"2026-03-01T11:30:00+03:00","Valute":{
	"USD":{"CharCode":"USD","Nominal":1,"Value":90.5},
	"CNY":{"CharCode":"CNY","Nominal":10,"Value":125.0}}}`

// fakeMarket serves the CBR document and two ticker endpoints.
type fakeMarket struct {
	cbr, binance, mexc *httptest.Server
	binanceCalls       atomic.Int32
	mexcCalls          atomic.Int32
	cbrCalls           atomic.Int32
}

func newFakeMarket(t *testing.T, binance, mexc map[string]string) *fakeMarket {
	t.Helper()
	m := &fakeMarket{}

	m.cbr = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.cbrCalls.Add(1)
		_, _ = w.Write([]byte(cbrBody))
	}))
	ticker := func(prices map[string]string, calls *atomic.Int32) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			sym := r.URL.Query().Get("symbol")
			px, ok := prices[sym]
			if !ok {
				http.Error(w, `{"code":-1121,"msg":"Invalid symbol."}`, http.StatusBadRequest)
				return
			}
			_, _ = w.Write([]byte(`{"symbol":"` + sym + `","price":"` + px + `"}`))
		}
	}
	m.binance = httptest.NewServer(ticker(binance, &m.binanceCalls))
	m.mexc = httptest.NewServer(ticker(mexc, &m.mexcCalls))

	t.Cleanup(func() {
		m.cbr.Close()
		m.binance.Close()
		m.mexc.Close()
	})
	return m
}

func (m *fakeMarket) config() rates.Config {
	return rates.Config{
		CBRURL:        m.cbr.URL,
		BinanceURL:    m.binance.URL + "/api/v3/ticker/price",
		MEXCURL:       m.mexc.URL + "/api/v3/ticker/price",
		Timeout:       time.Second,
		Attempts:      2,
		RetryInterval: time.Millisecond,
		Logger:        zerolog.Nop(),
	}
}

func requireRate(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func TestOracle_RateInRUB(t *testing.T) {
	market := newFakeMarket(t,
		map[string]string{"BTCUSDT": "60000.00", "EURUSDT": "1.08"},
		map[string]string{"TRXUSDT": "0.25"},
	)
	oracle := rates.New(market.config())
	ctx := context.Background()

	tests := []struct {
		symbol string
		want   string
	}{
		{"RUB", "1"},
		{"sber_rub", "1"},
		{"USD", "90.5"},
		{"PAYEER_USD", "90.5"},
		{"USDT", "90.5"},
		{"TETHER_TRC20", "90.5"},
		{"DAI", "90.5"},
		{"BTC", "5430000"},
		{"EUR", "97.74"},
		{"VOLET_EUR", "97.74"},
		{"TRX", "22.625"},
		{"BTCUSDT", "5430000"},
		{"trxusdt", "22.625"},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			rate, err := oracle.RateInRUB(ctx, tt.symbol)
			require.NoError(t, err)
			requireRate(t, tt.want, rate)
		})
	}
}

func TestOracle_PricesAssetByPairSymbol(t *testing.T) {
	market := newFakeMarket(t, map[string]string{"BTCUSDT": "50000"}, nil)
	oracle := rates.New(market.config())

	pair := "btcusdt"
	asset := &domain.Asset{ID: "asset-btc", Symbol: "BTC_LN", PairSymbol: &pair}

	rate, err := oracle.RateInRUB(context.Background(), asset.QuoteSymbol())
	require.NoError(t, err)
	requireRate(t, "4525000", rate)
	assert.Equal(t, int32(1), market.binanceCalls.Load())
	assert.Zero(t, market.mexcCalls.Load())
}

func TestOracle_FallsBackToMEXC(t *testing.T) {
	market := newFakeMarket(t, nil, map[string]string{"TONUSDT": "5"})
	oracle := rates.New(market.config())

	rate, err := oracle.RateInRUB(context.Background(), "TON")
	require.NoError(t, err)
	requireRate(t, "452.5", rate)
	assert.Equal(t, int32(1), market.binanceCalls.Load())
	assert.Equal(t, int32(1), market.mexcCalls.Load())
}

func TestOracle_Unavailable(t *testing.T) {
	t.Run("unknown pair after all attempts", func(t *testing.T) {
		market := newFakeMarket(t, nil, nil)
		oracle := rates.New(market.config())

		_, err := oracle.RateInRUB(context.Background(), "NOPE")
		require.ErrorIs(t, err, domain.ErrRateUnavailable)
		assert.Equal(t, int32(2), market.binanceCalls.Load(), "one call per attempt")
		assert.Equal(t, int32(2), market.mexcCalls.Load())
	})

	t.Run("zero price is not a price", func(t *testing.T) {
		market := newFakeMarket(t, map[string]string{"DOGEUSDT": "0"}, map[string]string{"DOGEUSDT": "0.0"})
		oracle := rates.New(market.config())

		_, err := oracle.RateInRUB(context.Background(), "DOGE")
		require.ErrorIs(t, err, domain.ErrRateUnavailable)
	})

	t.Run("central bank down has no fallback", func(t *testing.T) {
		market := newFakeMarket(t, nil, nil)
		market.cbr.Close()
		oracle := rates.New(market.config())

		_, err := oracle.RateInRUB(context.Background(), "USDT")
		require.ErrorIs(t, err, domain.ErrRateUnavailable)
	})

	t.Run("empty symbol", func(t *testing.T) {
		market := newFakeMarket(t, nil, nil)
		_, err := rates.New(market.config()).RateInRUB(context.Background(), "  ")
		require.ErrorIs(t, err, domain.ErrRateUnavailable)
	})
}

func TestOracle_CachesQuotes(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	market := newFakeMarket(t, map[string]string{"BTCUSDT": "60000"}, nil)
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())

	cfg := market.config()
	cfg.Cache = redisrepo.NewCache(client, "exledger:")
	cfg.CacheTTL = time.Minute
	cfg.Metrics = m
	oracle := rates.New(cfg)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rate, err := oracle.RateInRUB(ctx, "BTC")
		require.NoError(t, err)
		requireRate(t, "5430000", rate)
	}

	assert.Equal(t, int32(1), market.binanceCalls.Load())
	assert.Equal(t, int32(1), market.cbrCalls.Load())
	assert.Equal(t, float64(2), testutil.ToFloat64(m.RateLookups.WithLabelValues("cache", "hit")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RateLookups.WithLabelValues("binance", "ok")))

	// USD was cached on the way.
	_, err := oracle.RateInRUB(ctx, "USDT")
	require.NoError(t, err)
	assert.Equal(t, int32(1), market.cbrCalls.Load())

	mr.FastForward(2 * time.Minute)
	_, err = oracle.RateInRUB(ctx, "BTC")
	require.NoError(t, err)
	assert.Equal(t, int32(2), market.binanceCalls.Load())
}

func TestOracle_CacheHitSkipsMarket(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockCache(ctrl)
	cache.EXPECT().Get(gomock.Any(), "rate:ETH").Return([]byte("250000"), nil)

	market := newFakeMarket(t, nil, nil)
	cfg := market.config()
	cfg.Cache = cache
	cfg.CacheTTL = time.Minute

	rate, err := rates.New(cfg).RateInRUB(context.Background(), "eth")
	require.NoError(t, err)
	requireRate(t, "250000", rate)
	assert.Zero(t, market.cbrCalls.Load())
	assert.Zero(t, market.binanceCalls.Load())
}

func TestOracle_IgnoresBrokenCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	market := newFakeMarket(t, nil, nil)
	cfg := market.config()
	cfg.Cache = redisrepo.NewCache(client, "exledger:")
	cfg.CacheTTL = time.Minute

	require.NoError(t, mr.Set("exledger:rate:USD", "garbage"))
	oracle := rates.New(cfg)

	rate, err := oracle.RateInRUB(context.Background(), "USD")
	require.NoError(t, err)
	requireRate(t, "90.5", rate)

	mr.Close()
	rate, err = oracle.RateInRUB(context.Background(), "USDC")
	require.NoError(t, err, "an unreachable cache must not fail a lookup")
	requireRate(t, "90.5", rate)
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, "RUB", rates.Canonical(" cash_rub "))
	assert.Equal(t, "CNY", rates.Canonical("ALIPAY_CNY"))
	assert.Equal(t, "BTC", rates.Canonical("btc"))
}
