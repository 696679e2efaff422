package domain

import "time"

// Event types
const (
	EventTypeOrderCreated     = "order.created"
	EventTypeOrderEdited      = "order.edited"
	EventTypeOrderReversed    = "order.reversed"
	EventTypeTransferCreated  = "transfer.created"
	EventTypeTransferReversed = "transfer.reversed"
	EventTypeBalanceAdjusted  = "balance.adjusted"
	EventTypeShiftStarted     = "shift.started"
	EventTypeShiftEnded       = "shift.ended"
)

// Aggregate types
const (
	AggregateTypeOrder    = "order"
	AggregateTypeTransfer = "transfer"
	AggregateTypeShift    = "shift"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// OrderEventPayload builds the payload shared by order events.
func OrderEventPayload(o *Order) map[string]any {
	payload := map[string]any{
		"order_id":        o.ID,
		"service_id":      o.ServiceID,
		"type":            string(o.Type),
		"received_amount": o.ReceivedAmount.String(),
		"given_amount":    o.GivenAmount.String(),
		"profit_rub":      o.ProfitRUB.String(),
	}
	if o.ReceivedAssetID != "" {
		payload["received_asset_id"] = o.ReceivedAssetID
	}
	if o.GivenAssetID != "" {
		payload["given_asset_id"] = o.GivenAssetID
	}
	if o.Direction != "" {
		payload["direction"] = string(o.Direction)
	}
	if o.ShiftID != nil {
		payload["shift_id"] = *o.ShiftID
	}
	if o.TransferGroup != nil {
		payload["transfer_group"] = *o.TransferGroup
	}
	return payload
}
