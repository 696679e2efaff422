package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/exledger/internal/domain"
	"github.com/iho/exledger/internal/infrastructure/metrics"
)

// rateResolver prices assets in RUB for one operation. The manual rate of an
// asset wins over the oracle.
type rateResolver struct {
	oracle  RateOracle
	floor   decimal.Decimal
	metrics *metrics.Metrics
}

func newRateResolver(oracle RateOracle, floor decimal.Decimal, m *metrics.Metrics) *rateResolver {
	if floor.IsZero() {
		floor = decimal.RequireFromString(domain.MinPlausibleRate)
	}
	return &rateResolver{oracle: oracle, floor: floor, metrics: m}
}

// resolve returns the RUB rate of every asset keyed by asset ID.
func (r *rateResolver) resolve(ctx context.Context, assets ...*domain.Asset) (map[string]decimal.Decimal, error) {
	rates := make(map[string]decimal.Decimal, len(assets))

	for _, asset := range assets {
		if _, ok := rates[asset.ID]; ok {
			continue
		}

		rate, err := r.rateOf(ctx, asset)
		if err != nil {
			return nil, err
		}
		rates[asset.ID] = rate
	}

	return rates, nil
}

func (r *rateResolver) rateOf(ctx context.Context, asset *domain.Asset) (decimal.Decimal, error) {
	if asset.ManualRate.Valid {
		rate := asset.ManualRate.Decimal
		if err := domain.ValidateRate(asset.Symbol, rate, r.floor); err != nil {
			return decimal.Zero, err
		}
		return rate, nil
	}

	rate, err := r.oracle.RateInRUB(ctx, asset.QuoteSymbol())
	if err != nil {
		if errors.Is(err, domain.ErrRateUnavailable) || errors.Is(err, domain.ErrUnreliableRate) {
			return decimal.Zero, err
		}
		return decimal.Zero, fmt.Errorf("%w: %s: %v", domain.ErrRateUnavailable, asset.Symbol, err)
	}

	if err := domain.ValidateRate(asset.Symbol, rate, r.floor); err != nil {
		return decimal.Zero, err
	}

	return rate, nil
}

// canModify applies the edit/reverse permission rule. Admins may touch any
// order. Operators may touch exchange orders and transfer legs of their own
// service that belong to the service's currently open shift; balance
// adjustments stay with the admins who made them.
func canModify(actor *domain.User, order *domain.Order, openShift *domain.Shift) error {
	if actor == nil {
		return domain.ErrUnauthorized
	}

	if actor.Role.IsPrivileged() {
		return nil
	}

	switch order.Type {
	case domain.OrderTypeExchange, domain.OrderTypeTransfer:
	default:
		return fmt.Errorf("%w: operators may not change %s orders", domain.ErrForbidden, order.Type)
	}

	if !actor.BelongsTo(order.ServiceID) {
		return fmt.Errorf("%w: order belongs to another service", domain.ErrForbidden)
	}

	if openShift == nil || order.ShiftID == nil || *order.ShiftID != openShift.ID {
		return fmt.Errorf("%w: order is not part of the open shift", domain.ErrForbidden)
	}

	return nil
}

func requireAdmin(actor *domain.User) error {
	if actor == nil {
		return domain.ErrUnauthorized
	}
	if !actor.Role.CanManageBalances() {
		return fmt.Errorf("%w: admin role required", domain.ErrForbidden)
	}
	return nil
}

func newEvent(idGen IDGenerator, aggregateType, aggregateID, eventType string, payload map[string]any, at time.Time) *domain.OutboxEvent {
	return &domain.OutboxEvent{
		ID:            idGen.Generate(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     at,
	}
}

// errorKind labels an error for metrics and logs.
func errorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoActiveShift):
		return "no_active_shift"
	case errors.Is(err, domain.ErrRateUnavailable):
		return "rate_unavailable"
	case errors.Is(err, domain.ErrUnreliableRate):
		return "unreliable_rate"
	case errors.Is(err, domain.ErrNonPositiveAmount), errors.Is(err, domain.ErrAmountTooLarge):
		return "invalid_amount"
	case errors.Is(err, domain.ErrSameService):
		return "same_service"
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrUnauthorized):
		return "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrAlreadyDeleted):
		return "already_deleted"
	case errors.Is(err, domain.ErrInconsistentTransfer):
		return "inconsistent_transfer"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	return "internal"
}

// isBusinessError reports whether err is an expected rejection rather than a
// store or programming failure.
func isBusinessError(err error) bool {
	return errorKind(err) != "internal" && errorKind(err) != "timeout"
}

func observe(m *metrics.Metrics, operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		m.LedgerErrors.WithLabelValues(operation, errorKind(err)).Inc()
	}
}
