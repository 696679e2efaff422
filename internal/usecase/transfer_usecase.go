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

// TransferUseCase moves an asset between two services.
type TransferUseCase struct {
	txManager TransactionManager
	repos     Repositories
	balances  *BalanceStore
	idGen     IDGenerator
	clock     Clock
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(
	txManager TransactionManager,
	repos Repositories,
	balances *BalanceStore,
	idGen IDGenerator,
	clock Clock,
	metrics *metrics.Metrics,
) *TransferUseCase {
	return &TransferUseCase{
		txManager: txManager,
		repos:     repos,
		balances:  balances,
		idGen:     idGen,
		clock:     clock,
		metrics:   metrics,
		logger:    nopLogger,
	}
}

// WithLogger sets the logger.
func (uc *TransferUseCase) WithLogger(logger zerolog.Logger) *TransferUseCase {
	uc.logger = logger.With().Str("component", "transfers").Logger()
	return uc
}

// CreateTransferInput represents input for creating a transfer.
type CreateTransferInput struct {
	FromServiceID string
	ToServiceID   string
	AssetID       string
	Amount        decimal.Decimal
	Actor         *domain.User
	Comment       string
}

// TransferResult holds both legs of a transfer.
type TransferResult struct {
	Group    string
	Outgoing *domain.Order
	Incoming *domain.Order
}

// CreateTransfer writes an outgoing leg on the source service and an incoming
// leg on the destination, linked by a fresh transfer group.
func (uc *TransferUseCase) CreateTransfer(ctx context.Context, input CreateTransferInput) (result *TransferResult, err error) {
	start := time.Now()
	defer func() { observe(uc.metrics, "create_transfer", start, err) }()

	// 0. Validate inputs before starting transaction
	if input.Actor == nil {
		return nil, domain.ErrUnauthorized
	}

	if input.FromServiceID == input.ToServiceID {
		return nil, domain.ErrSameService
	}

	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if err := domain.ValidateComment(input.Comment); err != nil {
		return nil, err
	}

	if !input.Actor.Role.IsPrivileged() && !input.Actor.BelongsTo(input.FromServiceID) {
		return nil, fmt.Errorf("%w: can only transfer from your own service", domain.ErrForbidden)
	}

	from, err := uc.repos.Services.GetByID(ctx, input.FromServiceID)
	if err != nil {
		return nil, err
	}

	to, err := uc.repos.Services.GetByID(ctx, input.ToServiceID)
	if err != nil {
		return nil, err
	}

	asset, err := uc.repos.Assets.GetByID(ctx, input.AssetID)
	if err != nil {
		return nil, err
	}

	comment := input.Comment
	if comment == "" {
		comment = fmt.Sprintf("Transfer %s %s from %s to %s", input.Amount.String(), asset.Symbol, from.Name, to.Name)
	}

	// 1. Begin transaction
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	fromShift, err := uc.repos.Shifts.FindOpenTx(ctx, tx, from.ID)
	if err != nil {
		return nil, err
	}
	toShift, err := uc.repos.Shifts.FindOpenTx(ctx, tx, to.ID)
	if err != nil {
		return nil, err
	}

	// 2. Write both legs
	now := uc.clock.Now()
	group := uc.idGen.Generate()

	outgoing := uc.newLeg(from.ID, fromShift, input.Actor.ID, group, comment, now)
	outgoing.GivenAssetID = asset.ID
	outgoing.GivenAmount = input.Amount

	incoming := uc.newLeg(to.ID, toShift, input.Actor.ID, group, comment, now)
	incoming.ReceivedAssetID = asset.ID
	incoming.ReceivedAmount = input.Amount

	for _, leg := range []*domain.Order{outgoing, incoming} {
		if err := uc.repos.Orders.Create(ctx, tx, leg); err != nil {
			return nil, err
		}
	}

	// 3. Move the balances, locks taken in key order
	keys := []domain.BalanceKey{
		{ServiceID: from.ID, AssetID: asset.ID},
		{ServiceID: to.ID, AssetID: asset.ID},
	}
	if _, err := uc.balances.Lock(ctx, tx, keys); err != nil {
		return nil, err
	}

	for _, leg := range []*domain.Order{outgoing, incoming} {
		if err := uc.balances.ApplyDeltas(ctx, tx, leg.Deltas(), &leg.ID); err != nil {
			return nil, err
		}
	}

	payload := map[string]any{
		"transfer_group":  group,
		"from_service_id": from.ID,
		"to_service_id":   to.ID,
		"asset_id":        asset.ID,
		"amount":          input.Amount.String(),
		"order_ids":       []string{outgoing.ID, incoming.ID},
	}
	event := newEvent(uc.idGen, domain.AggregateTypeTransfer, group, domain.EventTypeTransferCreated, payload, now)
	if err := uc.repos.Outbox.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	// 4. Commit transaction
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransfersCreated.Inc()
		uc.metrics.OrdersCreated.WithLabelValues(string(domain.OrderTypeTransfer)).Add(2)
	}

	uc.logger.Info().
		Str("transfer_group", group).
		Str("from_service_id", from.ID).
		Str("to_service_id", to.ID).
		Str("asset", asset.Symbol).
		Str("amount", input.Amount.String()).
		Msg("transfer created")

	return &TransferResult{Group: group, Outgoing: outgoing, Incoming: incoming}, nil
}

func (uc *TransferUseCase) newLeg(serviceID string, shift *domain.Shift, userID, group, comment string, now time.Time) *domain.Order {
	leg := &domain.Order{
		ID:            uc.idGen.Generate(),
		ServiceID:     serviceID,
		UserID:        &userID,
		Type:          domain.OrderTypeTransfer,
		Comment:       comment,
		TransferGroup: &group,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if shift != nil {
		leg.ShiftID = &shift.ID
	}
	return leg
}
