package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iho/exledger/internal/domain"
	"github.com/iho/exledger/internal/infrastructure/postgres/generated"
	"github.com/iho/exledger/internal/usecase"
)

// OutboxRepository stores ledger events. An event is inserted in the
// transaction of the shift or order change it describes; the publisher
// drains it afterwards through the pool.
type OutboxRepository struct {
	queries *generated.Queries
}

func NewOutboxRepository(db generated.DBTX) *OutboxRepository {
	return &OutboxRepository{queries: generated.New(db)}
}

// Create appends event inside tx. The payload is stored as JSONB.
func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("encode %s event for %s %s: %w", event.EventType, event.AggregateType, event.AggregateID, err)
	}

	params := generated.CreateOutboxEventParams{
		ID:            event.ID,
		AggregateID:   event.AggregateID,
		AggregateType: event.AggregateType,
		EventType:     event.EventType,
		Payload:       payload,
		CreatedAt:     timeToPgTimestamptz(event.CreatedAt),
		Published:     event.Published,
	}
	if _, err := queriesFor(tx).CreateOutboxEvent(ctx, params); err != nil {
		return fmt.Errorf("insert outbox event %s: %w", event.ID, err)
	}
	return nil
}

// GetUnpublished returns up to limit pending events, oldest first.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	rows, err := r.queries.GetUnpublishedEvents(ctx, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("load pending outbox events: %w", err)
	}
	return outboxEventsFromRows(rows), nil
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	affected, err := r.queries.MarkEventPublished(ctx, generated.MarkEventPublishedParams{
		ID:          id,
		PublishedAt: timeToPgTimestamptz(publishedAt),
	})
	switch {
	case err != nil:
		return fmt.Errorf("mark outbox event %s published: %w", id, err)
	case affected == 0:
		return fmt.Errorf("outbox event %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// GetByAggregate pages through the events of one shift or order, newest
// first.
func (r *OutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	rows, err := r.queries.GetEventsByAggregate(ctx, generated.GetEventsByAggregateParams{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Limit:         int32(limit),
		Offset:        int32(offset),
	})
	if err != nil {
		return nil, fmt.Errorf("load %s %s events: %w", aggregateType, aggregateID, err)
	}
	return outboxEventsFromRows(rows), nil
}

// DeletePublished prunes events published before the cutoff. Pending
// events are never removed.
func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	if err := r.queries.DeletePublishedEvents(ctx, timeToPgTimestamptz(before)); err != nil {
		return fmt.Errorf("prune outbox before %s: %w", before.Format(time.RFC3339), err)
	}
	return nil
}

func outboxEventsFromRows(rows []generated.OutboxEvent) []*domain.OutboxEvent {
	events := make([]*domain.OutboxEvent, len(rows))
	for i := range rows {
		events[i] = outboxEventFromRow(rows[i])
	}
	return events
}

// outboxEventFromRow leaves Payload nil when the stored JSON does not
// decode into an object.
func outboxEventFromRow(row generated.OutboxEvent) *domain.OutboxEvent {
	event := &domain.OutboxEvent{
		ID:            row.ID,
		AggregateID:   row.AggregateID,
		AggregateType: row.AggregateType,
		EventType:     row.EventType,
		CreatedAt:     row.CreatedAt.Time,
		PublishedAt:   pgTimestamptzToPtr(row.PublishedAt),
		Published:     row.Published,
	}
	if len(row.Payload) > 0 {
		var payload map[string]any
		if json.Unmarshal(row.Payload, &payload) == nil {
			event.Payload = payload
		}
	}
	return event
}
