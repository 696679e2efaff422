package rates

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/exledger/internal/domain"
	"github.com/iho/exledger/internal/infrastructure/metrics"
	"github.com/iho/exledger/internal/usecase"
)

const (
	cacheKeyPrefix = "rate:"
	quoteCurrency  = "USDT"
)

// Config configures an Oracle.
type Config struct {
	CBRURL     string
	BinanceURL string
	MEXCURL    string

	// Timeout bounds a single HTTP request.
	Timeout time.Duration
	// Attempts is how many rounds over all exchanges are made before a
	// symbol is reported unavailable.
	Attempts int
	// RetryInterval is the initial backoff between rounds.
	RetryInterval time.Duration

	Cache    usecase.Cache // optional
	CacheTTL time.Duration

	HTTPClient *http.Client
	Metrics    *metrics.Metrics
	Logger     zerolog.Logger
}

// Oracle prices assets in RUB from the central bank USD rate and
// USDT-quoted exchange tickers.
type Oracle struct {
	cbr       *cbrSource
	exchanges []priceSource
	attempts  int
	interval  time.Duration
	cache     usecase.Cache
	cacheTTL  time.Duration
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

var _ usecase.RateOracle = (*Oracle)(nil)

// New creates an Oracle.
func New(cfg Config) *Oracle {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Attempts < 1 {
		cfg.Attempts = 3
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 200 * time.Millisecond
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &Oracle{
		cbr: &cbrSource{client: client, url: cfg.CBRURL},
		exchanges: []priceSource{
			&tickerSource{name: "binance", client: client, url: cfg.BinanceURL},
			&tickerSource{name: "mexc", client: client, url: cfg.MEXCURL},
		},
		attempts: cfg.Attempts,
		interval: cfg.RetryInterval,
		cache:    cfg.Cache,
		cacheTTL: cfg.CacheTTL,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger.With().Str("component", "rate_oracle").Logger(),
	}
}

// RateInRUB returns the RUB price of one unit of symbol. Every failure
// wraps domain.ErrRateUnavailable.
func (o *Oracle) RateInRUB(ctx context.Context, symbol string) (decimal.Decimal, error) {
	sym := Canonical(symbol)
	if sym == "" {
		return decimal.Zero, fmt.Errorf("%w: empty symbol", domain.ErrRateUnavailable)
	}
	if sym == "RUB" {
		return decimal.NewFromInt(1), nil
	}

	if rate, ok := o.cached(ctx, sym); ok {
		return rate, nil
	}

	rate, err := o.lookup(ctx, sym)
	if err != nil {
		return decimal.Zero, err
	}

	o.store(ctx, sym, rate)
	return rate, nil
}

func (o *Oracle) lookup(ctx context.Context, sym string) (decimal.Decimal, error) {
	usd, err := o.usdRUB(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	switch sym {
	case "USD", "USDT", "USDC":
		return usd, nil
	}

	px, err := o.exchangePrice(ctx, marketPair(sym))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %v", domain.ErrRateUnavailable, sym, err)
	}

	return px.Mul(usd), nil
}

// marketPair returns the USDT ticker for sym. A symbol that already is a
// USDT ticker, such as an asset's pair symbol BTCUSDT, is used as is.
func marketPair(sym string) string {
	if len(sym) > len(quoteCurrency) && strings.HasSuffix(sym, quoteCurrency) {
		return sym
	}
	return sym + quoteCurrency
}

func (o *Oracle) usdRUB(ctx context.Context) (decimal.Decimal, error) {
	if rate, ok := o.cached(ctx, "USD"); ok {
		return rate, nil
	}

	var rate decimal.Decimal
	err := o.retry(ctx, func() error {
		px, err := o.observe(ctx, o.cbr, "USD")
		if err != nil {
			return err
		}
		rate = px
		return nil
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: USD: %v", domain.ErrRateUnavailable, err)
	}

	o.store(ctx, "USD", rate)
	return rate, nil
}

// exchangePrice asks every exchange in order, repeating the round until
// one returns a positive price or the attempts run out.
func (o *Oracle) exchangePrice(ctx context.Context, pair string) (decimal.Decimal, error) {
	var price decimal.Decimal
	err := o.retry(ctx, func() error {
		var errs []error
		for _, src := range o.exchanges {
			px, err := o.observe(ctx, src, pair)
			if err == nil {
				price = px
				return nil
			}
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	})
	return price, err
}

func (o *Oracle) retry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.interval
	b.MaxInterval = 4 * o.interval
	b.MaxElapsedTime = 0

	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, uint64(o.attempts-1)), ctx))
}

// observe queries one source and records the outcome. Non-positive prices
// count as failures.
func (o *Oracle) observe(ctx context.Context, src priceSource, symbol string) (decimal.Decimal, error) {
	start := time.Now()
	px, err := src.Price(ctx, symbol)
	if err == nil && !px.IsPositive() {
		err = fmt.Errorf("%s returned non-positive price %s for %s", src.Name(), px, symbol)
	}

	status := "ok"
	if err != nil {
		status = "error"
		o.logger.Debug().Err(err).Str("source", src.Name()).Str("symbol", symbol).Msg("price lookup failed")
	}
	if o.metrics != nil {
		o.metrics.RateLookups.WithLabelValues(src.Name(), status).Inc()
		o.metrics.RateDuration.WithLabelValues(src.Name()).Observe(time.Since(start).Seconds())
	}

	return px, err
}

func (o *Oracle) cached(ctx context.Context, sym string) (decimal.Decimal, bool) {
	if o.cache == nil || o.cacheTTL <= 0 {
		return decimal.Zero, false
	}

	raw, err := o.cache.Get(ctx, cacheKeyPrefix+sym)
	if err != nil {
		return decimal.Zero, false
	}

	rate, err := decimal.NewFromString(string(raw))
	if err != nil || !rate.IsPositive() {
		o.logger.Warn().Str("symbol", sym).Msg("discarding unreadable cached rate")
		return decimal.Zero, false
	}

	if o.metrics != nil {
		o.metrics.RateLookups.WithLabelValues("cache", "hit").Inc()
	}
	return rate, true
}

func (o *Oracle) store(ctx context.Context, sym string, rate decimal.Decimal) {
	if o.cache == nil || o.cacheTTL <= 0 {
		return
	}
	if err := o.cache.Set(ctx, cacheKeyPrefix+sym, []byte(rate.String()), o.cacheTTL); err != nil {
		o.logger.Warn().Err(err).Str("symbol", sym).Msg("failed to cache rate")
	}
}
