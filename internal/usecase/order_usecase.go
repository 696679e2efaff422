package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/exledger/internal/domain"
	"github.com/iho/exledger/internal/infrastructure/metrics"
)

// OrderUseCase creates, edits and reverses ledger orders.
type OrderUseCase struct {
	txManager TransactionManager
	repos     Repositories
	balances  *BalanceStore
	rates     *rateResolver
	idGen     IDGenerator
	clock     Clock
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewOrderUseCase creates a new OrderUseCase. A zero rateFloor selects
// domain.MinPlausibleRate.
func NewOrderUseCase(
	txManager TransactionManager,
	repos Repositories,
	balances *BalanceStore,
	oracle RateOracle,
	rateFloor decimal.Decimal,
	idGen IDGenerator,
	clock Clock,
	metrics *metrics.Metrics,
) *OrderUseCase {
	return &OrderUseCase{
		txManager: txManager,
		repos:     repos,
		balances:  balances,
		rates:     newRateResolver(oracle, rateFloor, metrics),
		idGen:     idGen,
		clock:     clock,
		metrics:   metrics,
		logger:    nopLogger,
	}
}

// WithLogger sets the logger.
func (uc *OrderUseCase) WithLogger(logger zerolog.Logger) *OrderUseCase {
	uc.logger = logger.With().Str("component", "orders").Logger()
	return uc
}

// CreateOrderInput represents input for creating an exchange order.
type CreateOrderInput struct {
	ServiceID       string
	UserID          *string
	ReceivedAssetID string
	ReceivedAmount  decimal.Decimal
	GivenAssetID    string
	GivenAmount     decimal.Decimal
	Comment         string
	CategoryID      *string
}

// EditOrderInput carries the new legs of an exchange order.
type EditOrderInput struct {
	OrderID         string
	Actor           *domain.User
	ReceivedAssetID string
	ReceivedAmount  decimal.Decimal
	GivenAssetID    string
	GivenAmount     decimal.Decimal
	Comment         string
	CategoryID      *string
}

// exchangeLegs is the validated shape shared by create and edit.
type exchangeLegs struct {
	received       *domain.Asset
	receivedAmount decimal.Decimal
	given          *domain.Asset
	givenAmount    decimal.Decimal
}

// CreateOrder records an exchange on the open shift of the service and moves
// both balances.
func (uc *OrderUseCase) CreateOrder(ctx context.Context, input CreateOrderInput) (order *domain.Order, err error) {
	start := time.Now()
	defer func() { observe(uc.metrics, "create_order", start, err) }()

	// Validate before any lookup or lock
	if err := domain.ValidateComment(input.Comment); err != nil {
		return nil, err
	}

	legs, err := uc.loadLegs(ctx, input.ReceivedAssetID, input.ReceivedAmount, input.GivenAssetID, input.GivenAmount)
	if err != nil {
		return nil, err
	}

	if _, err := uc.repos.Services.GetByID(ctx, input.ServiceID); err != nil {
		return nil, err
	}

	open, err := uc.repos.Shifts.FindOpen(ctx, input.ServiceID)
	if err != nil {
		return nil, err
	}
	if open == nil {
		uc.logger.Debug().Str("service_id", input.ServiceID).Msg("order rejected: no open shift")
		return nil, domain.ErrNoActiveShift
	}

	// Rates are resolved before the transaction so no lock is held across
	// network I/O.
	rates, err := uc.rates.resolve(ctx, legs.received, legs.given)
	if err != nil {
		uc.logger.Debug().Err(err).Str("service_id", input.ServiceID).Msg("order rejected: rate")
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// The shift may have been closed since the first read.
	open, err = uc.repos.Shifts.FindOpenTx(ctx, tx, input.ServiceID)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, domain.ErrNoActiveShift
	}

	now := uc.clock.Now()
	order = &domain.Order{
		ID:         uc.idGen.Generate(),
		ServiceID:  input.ServiceID,
		UserID:     input.UserID,
		ShiftID:    &open.ID,
		Type:       domain.OrderTypeExchange,
		Comment:    input.Comment,
		CategoryID: input.CategoryID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	applyLegs(order, legs, rates)

	if err := uc.repos.Orders.Create(ctx, tx, order); err != nil {
		return nil, err
	}

	if err := uc.balances.ApplyDeltas(ctx, tx, order.Deltas(), &order.ID); err != nil {
		return nil, err
	}

	event := newEvent(uc.idGen, domain.AggregateTypeOrder, order.ID, domain.EventTypeOrderCreated, domain.OrderEventPayload(order), now)
	if err := uc.repos.Outbox.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.OrdersCreated.WithLabelValues(string(order.Type)).Inc()
		uc.metrics.ProfitRUB.Observe(order.ProfitRUB.InexactFloat64())
	}

	uc.logger.Info().
		Str("order_id", order.ID).
		Str("service_id", order.ServiceID).
		Str("shift_id", open.ID).
		Str("profit_rub", order.ProfitRUB.String()).
		Msg("order created")

	return order, nil
}

// EditOrder replaces the legs of an exchange order. The old legs are undone
// and the new ones applied in one transaction, keeping the order id.
func (uc *OrderUseCase) EditOrder(ctx context.Context, input EditOrderInput) (order *domain.Order, err error) {
	start := time.Now()
	defer func() { observe(uc.metrics, "edit_order", start, err) }()

	if input.Actor == nil {
		return nil, domain.ErrUnauthorized
	}

	if err := domain.ValidateComment(input.Comment); err != nil {
		return nil, err
	}

	legs, err := uc.loadLegs(ctx, input.ReceivedAssetID, input.ReceivedAmount, input.GivenAssetID, input.GivenAmount)
	if err != nil {
		return nil, err
	}

	rates, err := uc.rates.resolve(ctx, legs.received, legs.given)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	order, err = uc.lockForChange(ctx, tx, input.Actor, input.OrderID)
	if err != nil {
		return nil, err
	}

	if order.Type != domain.OrderTypeExchange {
		return nil, fmt.Errorf("%w: only exchange orders can be edited", domain.ErrForbidden)
	}

	undo := order.CompensatingDeltas()

	applyLegs(order, legs, rates)
	order.Comment = input.Comment
	order.CategoryID = input.CategoryID
	order.UpdatedAt = uc.clock.Now()

	deltas := append(undo, order.Deltas()...)
	if err := uc.balances.ApplyDeltas(ctx, tx, deltas, &order.ID); err != nil {
		return nil, err
	}

	if err := uc.repos.Orders.Update(ctx, tx, order); err != nil {
		return nil, err
	}

	event := newEvent(uc.idGen, domain.AggregateTypeOrder, order.ID, domain.EventTypeOrderEdited, domain.OrderEventPayload(order), order.UpdatedAt)
	if err := uc.repos.Outbox.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.OrdersEdited.Inc()
	}

	uc.logger.Info().Str("order_id", order.ID).Str("actor_id", input.Actor.ID).Msg("order edited")

	return order, nil
}

// ReverseOrder soft-deletes an order and applies compensating deltas. For a
// transfer leg both legs of the group are reversed together and returned.
func (uc *OrderUseCase) ReverseOrder(ctx context.Context, actor *domain.User, orderID string) (reversed []*domain.Order, err error) {
	start := time.Now()
	defer func() { observe(uc.metrics, "reverse_order", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	order, err := uc.lockForChange(ctx, tx, actor, orderID)
	if err != nil {
		return nil, err
	}

	reversed = []*domain.Order{order}
	if order.Type == domain.OrderTypeTransfer {
		reversed, err = uc.transferLegs(ctx, tx, order)
		if err != nil {
			return nil, err
		}
	}

	// Both legs of a transfer touch two services; take every lock up front
	// in key order before any leg is undone.
	var keys []domain.BalanceKey
	for _, o := range reversed {
		for _, d := range o.CompensatingDeltas() {
			keys = append(keys, d.Key())
		}
	}
	if _, err := uc.balances.Lock(ctx, tx, keys); err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	for _, o := range reversed {
		if err := uc.balances.ApplyDeltas(ctx, tx, o.CompensatingDeltas(), &o.ID); err != nil {
			return nil, err
		}

		o.MarkDeleted(now)
		if err := uc.repos.Orders.Update(ctx, tx, o); err != nil {
			return nil, err
		}
	}

	if err := uc.repos.Outbox.Create(ctx, tx, reversalEvent(uc.idGen, reversed, now)); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.OrdersReversed.WithLabelValues(string(order.Type)).Add(float64(len(reversed)))
	}

	uc.logger.Info().
		Str("order_id", order.ID).
		Str("type", string(order.Type)).
		Int("orders", len(reversed)).
		Msg("order reversed")

	return reversed, nil
}

// GetOrder returns one order.
func (uc *OrderUseCase) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return uc.repos.Orders.GetByID(ctx, id)
}

// ListShiftOrders returns the non-deleted orders of a shift.
func (uc *OrderUseCase) ListShiftOrders(ctx context.Context, shiftID string) ([]*domain.Order, error) {
	if _, err := uc.repos.Shifts.GetByID(ctx, shiftID); err != nil {
		return nil, err
	}
	return uc.repos.Orders.ListByShifts(ctx, []string{shiftID})
}

// lockForChange loads and locks an order and checks the caller may change it.
func (uc *OrderUseCase) lockForChange(ctx context.Context, tx Transaction, actor *domain.User, orderID string) (*domain.Order, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}

	order, err := uc.repos.Orders.GetByIDForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	if order.IsDeleted {
		return nil, domain.ErrAlreadyDeleted
	}

	var open *domain.Shift
	if !actor.Role.IsPrivileged() {
		open, err = uc.repos.Shifts.FindOpenTx(ctx, tx, order.ServiceID)
		if err != nil {
			return nil, err
		}
	}

	if err := canModify(actor, order, open); err != nil {
		uc.logger.Debug().Err(err).Str("order_id", orderID).Str("actor_id", actor.ID).Msg("order change rejected")
		return nil, err
	}

	return order, nil
}

// transferLegs locks both legs of the transfer order belongs to and checks
// they pair up: one outgoing and one incoming leg of the same asset and
// amount on two different services.
func (uc *OrderUseCase) transferLegs(ctx context.Context, tx Transaction, order *domain.Order) ([]*domain.Order, error) {
	if order.TransferGroup == nil {
		return nil, fmt.Errorf("%w: order %s has no transfer group", domain.ErrInconsistentTransfer, order.ID)
	}

	legs, err := uc.repos.Orders.GetByTransferGroupForUpdate(ctx, tx, *order.TransferGroup)
	if err != nil {
		return nil, err
	}

	if len(legs) != 2 {
		return nil, fmt.Errorf("%w: group %s has %d legs", domain.ErrInconsistentTransfer, *order.TransferGroup, len(legs))
	}

	var out, in *domain.Order
	for _, leg := range legs {
		if leg.IsDeleted || leg.Type != domain.OrderTypeTransfer {
			return nil, fmt.Errorf("%w: leg %s cannot be reversed", domain.ErrInconsistentTransfer, leg.ID)
		}
		switch {
		case leg.GivenAssetID != "" && leg.ReceivedAssetID == "":
			out = leg
		case leg.ReceivedAssetID != "" && leg.GivenAssetID == "":
			in = leg
		}
	}

	if out == nil || in == nil ||
		out.GivenAssetID != in.ReceivedAssetID ||
		!out.GivenAmount.Equal(in.ReceivedAmount) ||
		out.ServiceID == in.ServiceID {
		return nil, fmt.Errorf("%w: group %s", domain.ErrInconsistentTransfer, *order.TransferGroup)
	}

	return []*domain.Order{out, in}, nil
}

func (uc *OrderUseCase) loadLegs(
	ctx context.Context,
	receivedAssetID string,
	receivedAmount decimal.Decimal,
	givenAssetID string,
	givenAmount decimal.Decimal,
) (*exchangeLegs, error) {
	if err := domain.ValidateAmount(receivedAmount); err != nil {
		return nil, fmt.Errorf("received: %w", err)
	}
	if err := domain.ValidateAmount(givenAmount); err != nil {
		return nil, fmt.Errorf("given: %w", err)
	}

	received, err := uc.repos.Assets.GetByID(ctx, receivedAssetID)
	if err != nil {
		return nil, err
	}

	given, err := uc.repos.Assets.GetByID(ctx, givenAssetID)
	if err != nil {
		return nil, err
	}

	return &exchangeLegs{
		received:       received,
		receivedAmount: receivedAmount,
		given:          given,
		givenAmount:    givenAmount,
	}, nil
}

func applyLegs(order *domain.Order, legs *exchangeLegs, rates map[string]decimal.Decimal) {
	recvRate := rates[legs.received.ID]
	givenRate := rates[legs.given.ID]
	profit := domain.CalculateProfit(legs.receivedAmount, recvRate, legs.givenAmount, givenRate)

	order.ReceivedAssetID = legs.received.ID
	order.ReceivedAmount = legs.receivedAmount
	order.GivenAssetID = legs.given.ID
	order.GivenAmount = legs.givenAmount
	order.ReceivedRateRUB = decimal.NewNullDecimal(recvRate)
	order.GivenRateRUB = decimal.NewNullDecimal(givenRate)
	order.AmountRUB = profit.ValueOut
	order.ProfitRUB = profit.RUB
	order.ProfitPercent = profit.Percent
}

func reversalEvent(idGen IDGenerator, orders []*domain.Order, at time.Time) *domain.OutboxEvent {
	first := orders[0]

	if first.IsTransferLeg() {
		ids := make([]string, 0, len(orders))
		for _, o := range orders {
			ids = append(ids, o.ID)
		}
		payload := map[string]any{
			"transfer_group": *first.TransferGroup,
			"order_ids":      ids,
		}
		return newEvent(idGen, domain.AggregateTypeTransfer, *first.TransferGroup, domain.EventTypeTransferReversed, payload, at)
	}

	return newEvent(idGen, domain.AggregateTypeOrder, first.ID, domain.EventTypeOrderReversed, domain.OrderEventPayload(first), at)
}
