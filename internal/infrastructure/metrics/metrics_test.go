package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewWithRegistererRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := NewWithRegisterer(registry)

	if m.OrdersCreated == nil || m.HTTPRequests == nil || m.DBQueries == nil || m.RateLookups == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	// Vec metrics only show up once a label set is observed.
	m.OrdersCreated.WithLabelValues("exchange").Inc()
	m.LedgerErrors.WithLabelValues("create_order", "no_active_shift").Inc()

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestNewWithRegistererIsolated(t *testing.T) {
	a := NewWithRegisterer(prometheus.NewRegistry())
	b := NewWithRegisterer(prometheus.NewRegistry())

	a.OrdersEdited.Inc()
	a.OrdersEdited.Inc()

	if got := testutil.ToFloat64(a.OrdersEdited); got != 2 {
		t.Fatalf("expected 2 edits on a, got %v", got)
	}
	if got := testutil.ToFloat64(b.OrdersEdited); got != 0 {
		t.Fatalf("expected 0 edits on b, got %v", got)
	}
}

func TestCounterVecLabels(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.RateLookups.WithLabelValues("binance", "ok").Inc()
	m.RateLookups.WithLabelValues("binance", "error").Inc()
	m.RateLookups.WithLabelValues("binance", "ok").Inc()

	if got := testutil.ToFloat64(m.RateLookups.WithLabelValues("binance", "ok")); got != 2 {
		t.Fatalf("expected 2 ok lookups, got %v", got)
	}
}
