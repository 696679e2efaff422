package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/iho/exledger/internal/infrastructure/metrics"
)

// SQLSTATE codes worth another attempt.
const (
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
	pgErrLockNotAvailable     = "55P03"
	pgErrAdminShutdown        = "57P01"
	pgErrCannotConnectNow     = "57P03"
)

// RetryPolicy bounds how often and how fast one read is repeated.
type RetryPolicy struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
}

// DefaultRetryPolicy is used by NewRetrier.
var DefaultRetryPolicy = RetryPolicy{
	Attempts: 4,
	Initial:  50 * time.Millisecond,
	Max:      time.Second,
}

// Retrier implements usecase.Retrier for report reads. Ledger writes
// never go through it: a failed write is returned to the caller as is.
type Retrier struct {
	policy  RetryPolicy
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewRetrier creates a Retrier with DefaultRetryPolicy.
func NewRetrier(logger zerolog.Logger) *Retrier {
	return &Retrier{
		policy: DefaultRetryPolicy,
		logger: logger.With().Str("component", "pg_retrier").Logger(),
	}
}

// WithPolicy replaces the retry policy. Attempts below 1 mean one attempt.
func (r *Retrier) WithPolicy(p RetryPolicy) *Retrier {
	if p.Attempts < 1 {
		p.Attempts = 1
	}
	r.policy = p
	return r
}

// WithMetrics counts retries in m.DBReadRetries.
func (r *Retrier) WithMetrics(m *metrics.Metrics) *Retrier {
	r.metrics = m
	return r
}

// Retry runs read until it succeeds, fails permanently or the policy runs
// out of attempts. The last error is returned unwrapped.
func (r *Retrier) Retry(ctx context.Context, read func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.policy.Initial
	b.MaxInterval = r.policy.Max
	b.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.policy.Attempts-1)), ctx)

	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		err := read()
		if err != nil && !isTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, wait time.Duration) {
		if r.metrics != nil {
			r.metrics.DBReadRetries.Inc()
		}
		r.logger.Warn().Err(err).Int("attempt", attempt).Dur("wait", wait).Msg("transient read failure, retrying")
	})
}

// isTransient reports lock and serialization conflicts, a server going
// away, and connection failures that happened before anything was sent.
func isTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrDeadlock, pgErrSerializationFailure, pgErrLockNotAvailable,
			pgErrAdminShutdown, pgErrCannotConnectNow:
			return true
		}
		return false
	}
	return pgconn.SafeToRetry(err)
}
