package eventpublisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/iho/exledger/internal/domain"
	"github.com/iho/exledger/internal/infrastructure/metrics"
	"github.com/iho/exledger/internal/usecase/mocks"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type stubPublisher struct {
	published  []*domain.OutboxEvent
	errorsByID map[string]error
}

func (p *stubPublisher) Publish(_ context.Context, event *domain.OutboxEvent) error {
	if err := p.errorsByID[event.ID]; err != nil {
		return err
	}
	p.published = append(p.published, event)
	return nil
}

func seedOutbox(t *testing.T, store *mocks.Store, ids ...string) {
	t.Helper()
	for i, id := range ids {
		err := store.Outbox.Create(context.Background(), nil, &domain.OutboxEvent{
			ID:            id,
			AggregateID:   "order-1",
			AggregateType: domain.AggregateTypeOrder,
			EventType:     domain.EventTypeOrderCreated,
			Payload:       map[string]any{"order_id": "order-1"},
			CreatedAt:     fixedNow.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("seed outbox: %v", err)
		}
	}
}

func newTestPublisher(store *mocks.Store, pub Publisher, m *metrics.Metrics) *EventPublisher {
	return NewEventPublisher(Config{
		OutboxRepo: store.Outbox,
		Publisher:  pub,
		Logger:     zerolog.Nop(),
		Metrics:    m,
		BatchSize:  10,
		Interval:   10 * time.Millisecond,
		Now:        func() time.Time { return fixedNow },
	})
}

func TestProcessOncePublishesAndMarks(t *testing.T) {
	store := mocks.NewStore()
	seedOutbox(t, store, "evt-1")
	pub := &stubPublisher{}
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())

	n, err := newTestPublisher(store, pub, m).ProcessOnce(context.Background())
	if err != nil {
		t.Fatalf("ProcessOnce failed: %v", err)
	}
	if n != 1 || len(pub.published) != 1 {
		t.Fatalf("expected one published event, got n=%d published=%d", n, len(pub.published))
	}

	events := store.Events()
	if !events[0].Published || events[0].PublishedAt == nil || !events[0].PublishedAt.Equal(fixedNow) {
		t.Fatalf("expected event to be marked published at %v, got %#v", fixedNow, events[0])
	}
	if got := testutil.ToFloat64(m.OutboxPublished); got != 1 {
		t.Fatalf("expected published counter 1, got %v", got)
	}
}

func TestProcessOnceContinuesOnPublishError(t *testing.T) {
	store := mocks.NewStore()
	seedOutbox(t, store, "evt-1", "evt-2")
	pub := &stubPublisher{errorsByID: map[string]error{"evt-1": errors.New("broker down")}}
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())

	n, err := newTestPublisher(store, pub, m).ProcessOnce(context.Background())
	if err != nil {
		t.Fatalf("ProcessOnce returned error: %v", err)
	}
	if n != 1 || pub.published[0].ID != "evt-2" {
		t.Fatalf("expected only evt-2 to be published, got %#v", pub.published)
	}

	unpublished, _ := store.Outbox.GetUnpublished(context.Background(), 10)
	if len(unpublished) != 1 || unpublished[0].ID != "evt-1" {
		t.Fatalf("expected evt-1 to stay unpublished, got %#v", unpublished)
	}
	if got := testutil.ToFloat64(m.OutboxFailures); got != 1 {
		t.Fatalf("expected failure counter 1, got %v", got)
	}
}

func TestProcessOnceRespectsBatchSize(t *testing.T) {
	store := mocks.NewStore()
	seedOutbox(t, store, "a", "b", "c")
	pub := &stubPublisher{}

	ep := NewEventPublisher(Config{
		OutboxRepo: store.Outbox,
		Publisher:  pub,
		Logger:     zerolog.Nop(),
		BatchSize:  2,
	})

	n, err := ep.ProcessOnce(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("first batch: n=%d err=%v", n, err)
	}
	n, err = ep.ProcessOnce(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("second batch: n=%d err=%v", n, err)
	}
	n, _ = ep.ProcessOnce(context.Background())
	if n != 0 {
		t.Fatalf("expected empty outbox, published %d", n)
	}
}

func TestTickPrunesPublishedEvents(t *testing.T) {
	store := mocks.NewStore()
	seedOutbox(t, store, "old")
	if err := store.Outbox.MarkPublished(context.Background(), "old", fixedNow.Add(-48*time.Hour)); err != nil {
		t.Fatalf("mark: %v", err)
	}

	ep := NewEventPublisher(Config{
		OutboxRepo: store.Outbox,
		Publisher:  &stubPublisher{},
		Logger:     zerolog.Nop(),
		Retention:  24 * time.Hour,
		Now:        func() time.Time { return fixedNow },
	})
	ep.tick(context.Background())

	if got := len(store.Events()); got != 0 {
		t.Fatalf("expected pruned outbox, got %d events", got)
	}
}

func TestStartStopsOnContextCancellation(t *testing.T) {
	store := mocks.NewStore()
	ep := newTestPublisher(store, &stubPublisher{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ep.Start(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("publisher did not stop")
	}
}

func TestLogPublisher(t *testing.T) {
	pub := NewLogPublisher(zerolog.Nop())
	err := pub.Publish(context.Background(), &domain.OutboxEvent{
		ID:      "evt",
		Payload: map[string]any{"order_id": "o-1"},
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
}
