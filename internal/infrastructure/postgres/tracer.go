package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/iho/exledger/internal/infrastructure/metrics"
)

type traceStartKey struct{}

type traceStart struct {
	query string
	at    time.Time
}

// QueryTracer records per-query metrics for every statement sent through the
// pool. Queries are labelled by their sqlc name.
type QueryTracer struct {
	metrics *metrics.Metrics
	logger  zerolog.Logger
	slow    time.Duration
}

// NewQueryTracer creates a tracer. Queries slower than slow are logged at warn.
func NewQueryTracer(m *metrics.Metrics, logger zerolog.Logger, slow time.Duration) *QueryTracer {
	return &QueryTracer{
		metrics: m,
		logger:  logger.With().Str("component", "pg_tracer").Logger(),
		slow:    slow,
	}
}

// TraceQueryStart implements pgx.QueryTracer.
func (t *QueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, traceStartKey{}, traceStart{query: queryName(data.SQL), at: time.Now()})
}

// TraceQueryEnd implements pgx.QueryTracer.
func (t *QueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(traceStartKey{}).(traceStart)
	if !ok {
		return
	}
	elapsed := time.Since(start.at)

	if t.metrics != nil {
		t.metrics.DBQueries.WithLabelValues(start.query).Inc()
		t.metrics.DBDuration.WithLabelValues(start.query).Observe(elapsed.Seconds())
		if data.Err != nil && !errors.Is(data.Err, pgx.ErrNoRows) {
			t.metrics.DBErrors.WithLabelValues(start.query).Inc()
		}
	}

	if t.slow > 0 && elapsed > t.slow {
		t.logger.Warn().Str("query", start.query).Dur("elapsed", elapsed).Msg("slow query")
	}
}

// queryName extracts the name from a "-- name: X :kind" header, falling back
// to the statement verb.
func queryName(sql string) string {
	sql = strings.TrimSpace(sql)
	if rest, ok := strings.CutPrefix(sql, "-- name: "); ok {
		if name, _, found := strings.Cut(rest, " "); found {
			return name
		}
	}
	verb, _, _ := strings.Cut(sql, " ")
	return strings.ToLower(verb)
}
