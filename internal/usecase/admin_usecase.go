package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/exledger/internal/domain"
	"github.com/iho/exledger/internal/infrastructure/metrics"
)

// AdminUseCase handles administrator balance operations: deposits and
// withdrawals, manual in/out and absolute corrections.
type AdminUseCase struct {
	txManager TransactionManager
	repos     Repositories
	balances  *BalanceStore
	rates     *rateResolver
	idGen     IDGenerator
	clock     Clock
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewAdminUseCase creates a new AdminUseCase.
func NewAdminUseCase(
	txManager TransactionManager,
	repos Repositories,
	balances *BalanceStore,
	oracle RateOracle,
	rateFloor decimal.Decimal,
	idGen IDGenerator,
	clock Clock,
	metrics *metrics.Metrics,
) *AdminUseCase {
	return &AdminUseCase{
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
func (uc *AdminUseCase) WithLogger(logger zerolog.Logger) *AdminUseCase {
	uc.logger = logger.With().Str("component", "admin").Logger()
	return uc
}

// AdminActionInput represents a single-asset signed balance operation.
type AdminActionInput struct {
	ServiceID string
	Actor     *domain.User
	AssetID   string
	Amount    decimal.Decimal
	Direction domain.Direction
	Comment   string
}

// SetBalanceInput replaces a balance with an absolute amount.
type SetBalanceInput struct {
	ServiceID string
	Actor     *domain.User
	AssetID   string
	NewAmount decimal.Decimal
	Comment   string
}

// CreateAdminAction records a deposit or withdrawal.
func (uc *AdminUseCase) CreateAdminAction(ctx context.Context, input AdminActionInput) (*domain.Order, error) {
	return uc.createSigned(ctx, domain.OrderTypeAdminAction, "admin_action", input)
}

// CreateManualIO records a manual in or out movement.
func (uc *AdminUseCase) CreateManualIO(ctx context.Context, input AdminActionInput) (*domain.Order, error) {
	return uc.createSigned(ctx, domain.OrderTypeAdminIO, "manual_io", input)
}

func (uc *AdminUseCase) createSigned(
	ctx context.Context,
	orderType domain.OrderType,
	operation string,
	input AdminActionInput,
) (order *domain.Order, err error) {
	start := time.Now()
	defer func() { observe(uc.metrics, operation, start, err) }()

	if err := requireAdmin(input.Actor); err != nil {
		return nil, err
	}

	if !input.Direction.ValidFor(orderType) {
		return nil, fmt.Errorf("%w: %q for %s", domain.ErrInvalidDirection, input.Direction, orderType)
	}
	sign, err := input.Direction.Sign()
	if err != nil {
		return nil, err
	}

	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if err := domain.ValidateComment(input.Comment); err != nil {
		return nil, err
	}

	if _, err := uc.repos.Services.GetByID(ctx, input.ServiceID); err != nil {
		return nil, err
	}

	asset, err := uc.repos.Assets.GetByID(ctx, input.AssetID)
	if err != nil {
		return nil, err
	}

	rates, err := uc.rates.resolve(ctx, asset)
	if err != nil {
		return nil, err
	}
	rate := rates[asset.ID]

	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Attached to the open shift when there is one; legal without.
	open, err := uc.repos.Shifts.FindOpenTx(ctx, tx, input.ServiceID)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	order = &domain.Order{
		ID:        uc.idGen.Generate(),
		ServiceID: input.ServiceID,
		UserID:    &input.Actor.ID,
		Type:      orderType,
		Direction: input.Direction,
		AmountRUB: input.Amount.Mul(rate),
		Comment:   input.Comment,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if open != nil {
		order.ShiftID = &open.ID
	}

	signed := input.Amount
	if sign < 0 {
		signed = signed.Neg()
	}
	order.SetSignedAmount(asset.ID, signed)
	if sign > 0 {
		order.ReceivedRateRUB = decimal.NewNullDecimal(rate)
	} else {
		order.GivenRateRUB = decimal.NewNullDecimal(rate)
	}

	if err := uc.repos.Orders.Create(ctx, tx, order); err != nil {
		return nil, err
	}

	if err := uc.balances.ApplyDeltas(ctx, tx, order.Deltas(), &order.ID); err != nil {
		return nil, err
	}

	event := newEvent(uc.idGen, domain.AggregateTypeOrder, order.ID, domain.EventTypeBalanceAdjusted, domain.OrderEventPayload(order), now)
	if err := uc.repos.Outbox.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.OrdersCreated.WithLabelValues(string(orderType)).Inc()
	}

	uc.logger.Info().
		Str("order_id", order.ID).
		Str("service_id", order.ServiceID).
		Str("direction", string(order.Direction)).
		Str("amount", signed.String()).
		Str("asset", asset.Symbol).
		Msg("balance adjusted")

	return order, nil
}

// SetBalance replaces the current balance with NewAmount by applying the
// difference. The comment records the old and new amounts.
func (uc *AdminUseCase) SetBalance(ctx context.Context, input SetBalanceInput) (order *domain.Order, err error) {
	start := time.Now()
	defer func() { observe(uc.metrics, "set_balance", start, err) }()

	if err := requireAdmin(input.Actor); err != nil {
		return nil, err
	}
	if err := domain.ValidateComment(input.Comment); err != nil {
		return nil, err
	}

	if _, err := uc.repos.Services.GetByID(ctx, input.ServiceID); err != nil {
		return nil, err
	}

	asset, err := uc.repos.Assets.GetByID(ctx, input.AssetID)
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

	key := domain.BalanceKey{ServiceID: input.ServiceID, AssetID: asset.ID}
	locked, err := uc.balances.Lock(ctx, tx, []domain.BalanceKey{key})
	if err != nil {
		return nil, err
	}

	oldAmount := locked[key].Amount
	change := input.NewAmount.Sub(oldAmount)

	now := uc.clock.Now()
	order = &domain.Order{
		ID:        uc.idGen.Generate(),
		ServiceID: input.ServiceID,
		UserID:    &input.Actor.ID,
		Type:      domain.OrderTypeAdminSet,
		Comment:   setBalanceComment(asset.Symbol, oldAmount, input.NewAmount, input.Comment),
		CreatedAt: now,
		UpdatedAt: now,
	}
	order.SetSignedAmount(asset.ID, change)

	if err := uc.repos.Orders.Create(ctx, tx, order); err != nil {
		return nil, err
	}

	delta := domain.Delta{ServiceID: input.ServiceID, AssetID: asset.ID, Amount: change}
	if _, err := uc.balances.ApplyDelta(ctx, tx, delta, &order.ID); err != nil {
		return nil, err
	}

	payload := domain.OrderEventPayload(order)
	payload["old_amount"] = oldAmount.String()
	payload["new_amount"] = input.NewAmount.String()
	event := newEvent(uc.idGen, domain.AggregateTypeOrder, order.ID, domain.EventTypeBalanceAdjusted, payload, now)
	if err := uc.repos.Outbox.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.OrdersCreated.WithLabelValues(string(domain.OrderTypeAdminSet)).Inc()
	}

	uc.logger.Info().
		Str("order_id", order.ID).
		Str("service_id", input.ServiceID).
		Str("asset", asset.Symbol).
		Str("old_amount", oldAmount.String()).
		Str("new_amount", input.NewAmount.String()).
		Msg("balance set")

	return order, nil
}

func setBalanceComment(symbol string, oldAmount, newAmount decimal.Decimal, note string) string {
	comment := fmt.Sprintf("balance set %s: %s -> %s", symbol, oldAmount.String(), newAmount.String())
	if note = strings.TrimSpace(note); note != "" {
		comment += "; " + note
	}
	return comment
}
