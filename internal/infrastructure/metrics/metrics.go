package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	OrdersCreated     *prometheus.CounterVec
	OrdersEdited      prometheus.Counter
	OrdersReversed    *prometheus.CounterVec
	TransfersCreated  prometheus.Counter
	BalanceMutations  prometheus.Counter
	LedgerErrors      *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	ProfitRUB         prometheus.Histogram

	// Shift metrics
	ShiftsStarted     prometheus.Counter
	ShiftsEnded       prometheus.Counter
	ShiftsForceClosed prometheus.Counter

	// Rate oracle metrics
	RateLookups  *prometheus.CounterVec
	RateDuration *prometheus.HistogramVec

	// Reconciliation metrics
	BalanceDiscrepancies prometheus.Gauge

	// Outbox metrics
	OutboxPublished prometheus.Counter
	OutboxFailures  prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBQueries     *prometheus.CounterVec
	DBDuration    *prometheus.HistogramVec
	DBConnections prometheus.Gauge
	DBErrors      *prometheus.CounterVec
	DBReadRetries prometheus.Counter

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisErrors     *prometheus.CounterVec

	// Authentication metrics
	AuthAttempts *prometheus.CounterVec
	AuthFailures *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates the metrics on reg. Tests pass a fresh
// prometheus.NewRegistry so repeated construction does not collide.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		// Ledger metrics
		OrdersCreated: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exledger_orders_created_total",
				Help: "Total number of orders created by type",
			},
			[]string{"type"},
		),
		OrdersEdited: f.NewCounter(prometheus.CounterOpts{
			Name: "exledger_orders_edited_total",
			Help: "Total number of exchange orders edited",
		}),
		OrdersReversed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exledger_orders_reversed_total",
				Help: "Total number of orders reversed by type",
			},
			[]string{"type"},
		),
		TransfersCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "exledger_transfers_created_total",
			Help: "Total number of inter-service transfers",
		}),
		BalanceMutations: f.NewCounter(prometheus.CounterOpts{
			Name: "exledger_balance_mutations_total",
			Help: "Total number of balance deltas applied",
		}),
		LedgerErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exledger_ledger_errors_total",
				Help: "Total number of rejected ledger operations by kind",
			},
			[]string{"operation", "kind"},
		),
		OperationDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "exledger_operation_duration_seconds",
				Help:    "Duration of ledger operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		ProfitRUB: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "exledger_order_profit_rub",
			Help:    "Profit of exchange orders in RUB",
			Buckets: []float64{-10000, -1000, 0, 1000, 10000, 100000, 1000000},
		}),

		// Shift metrics
		ShiftsStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "exledger_shifts_started_total",
			Help: "Total number of shifts started",
		}),
		ShiftsEnded: f.NewCounter(prometheus.CounterOpts{
			Name: "exledger_shifts_ended_total",
			Help: "Total number of shifts ended explicitly",
		}),
		ShiftsForceClosed: f.NewCounter(prometheus.CounterOpts{
			Name: "exledger_shifts_force_closed_total",
			Help: "Total number of open shifts closed by a newer start",
		}),

		// Rate oracle metrics
		RateLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exledger_rate_lookups_total",
				Help: "Total rate lookups by source and status",
			},
			[]string{"source", "status"},
		),
		RateDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "exledger_rate_lookup_duration_seconds",
				Help:    "Duration of rate provider calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),

		// Reconciliation metrics
		BalanceDiscrepancies: f.NewGauge(prometheus.GaugeOpts{
			Name: "exledger_balance_discrepancies",
			Help: "Balances that do not reduce to their history on the last check",
		}),

		// Outbox metrics
		OutboxPublished: f.NewCounter(prometheus.CounterOpts{
			Name: "exledger_outbox_published_total",
			Help: "Total outbox events published",
		}),
		OutboxFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "exledger_outbox_failures_total",
			Help: "Total outbox events that failed to publish",
		}),

		// API metrics
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "exledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Database metrics
		DBQueries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exledger_db_queries_total",
				Help: "Total database queries by query name",
			},
			[]string{"query"},
		),
		DBDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "exledger_db_query_duration_seconds",
				Help:    "Database query duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"query"},
		),
		DBConnections: f.NewGauge(prometheus.GaugeOpts{
			Name: "exledger_db_connections",
			Help: "Connections currently acquired from the pool",
		}),
		DBReadRetries: f.NewCounter(prometheus.CounterOpts{
			Name: "exledger_db_read_retries_total",
			Help: "Report reads retried after a transient database error",
		}),
		DBErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exledger_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"query"},
		),

		// Redis metrics
		RedisOperations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exledger_redis_operations_total",
				Help: "Total Redis operations",
			},
			[]string{"operation"},
		),
		RedisErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exledger_redis_errors_total",
				Help: "Total Redis errors",
			},
			[]string{"operation"},
		),

		// Authentication metrics
		AuthAttempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exledger_auth_attempts_total",
				Help: "Total authentication attempts",
			},
			[]string{"status"},
		),
		AuthFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exledger_auth_failures_total",
				Help: "Total authentication failures",
			},
			[]string{"reason"},
		),

		// Rate limiting metrics
		RateLimitHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exledger_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),
	}
}
