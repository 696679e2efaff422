package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/exledger/internal/domain"
	"github.com/iho/exledger/internal/infrastructure/postgres/generated"
	"github.com/iho/exledger/internal/usecase"
)

// BalanceRepository implements usecase.BalanceRepository.
type BalanceRepository struct {
	queries *generated.Queries
}

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository(db generated.DBTX) *BalanceRepository {
	return &BalanceRepository{queries: generated.New(db)}
}

// GetForUpdate creates the row at zero when missing, then locks it.
func (r *BalanceRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, key domain.BalanceKey) (*domain.Balance, error) {
	queries := queriesFor(tx)

	err := queries.EnsureBalance(ctx, generated.EnsureBalanceParams{
		ServiceID: key.ServiceID,
		AssetID:   key.AssetID,
		UpdatedAt: timeToPgTimestamptz(time.Now().UTC()),
	})
	if err != nil {
		return nil, err
	}

	row, err := queries.GetBalanceForUpdate(ctx, generated.GetBalanceForUpdateParams{
		ServiceID: key.ServiceID,
		AssetID:   key.AssetID,
	})
	if err != nil {
		return nil, err
	}

	return rowToBalance(row), nil
}

// Update writes the new amount of a locked balance.
func (r *BalanceRepository) Update(ctx context.Context, tx usecase.Transaction, balance *domain.Balance) error {
	return queriesFor(tx).UpdateBalanceAmount(ctx, generated.UpdateBalanceAmountParams{
		ServiceID: balance.ServiceID,
		AssetID:   balance.AssetID,
		Amount:    decimalToNumeric(balance.Amount),
		UpdatedAt: timeToPgTimestamptz(balance.UpdatedAt),
	})
}

// Get returns the balance of a pair, zero when it was never touched.
func (r *BalanceRepository) Get(ctx context.Context, key domain.BalanceKey) (*domain.Balance, error) {
	row, err := r.queries.GetBalance(ctx, generated.GetBalanceParams{
		ServiceID: key.ServiceID,
		AssetID:   key.AssetID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.Balance{ServiceID: key.ServiceID, AssetID: key.AssetID, Amount: decimal.Zero}, nil
		}
		return nil, err
	}
	return rowToBalance(row), nil
}

// ListByService returns every balance row of a service.
func (r *BalanceRepository) ListByService(ctx context.Context, serviceID string) ([]*domain.Balance, error) {
	rows, err := r.queries.ListBalancesByService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	balances := make([]*domain.Balance, 0, len(rows))
	for _, row := range rows {
		balances = append(balances, rowToBalance(row))
	}
	return balances, nil
}

func rowToBalance(row generated.Balance) *domain.Balance {
	return &domain.Balance{
		ServiceID: row.ServiceID,
		AssetID:   row.AssetID,
		Amount:    numericToDecimal(row.Amount),
		UpdatedAt: row.UpdatedAt.Time,
	}
}

// BalanceHistoryRepository implements usecase.BalanceHistoryRepository.
type BalanceHistoryRepository struct {
	queries *generated.Queries
}

// NewBalanceHistoryRepository creates a new BalanceHistoryRepository.
func NewBalanceHistoryRepository(db generated.DBTX) *BalanceHistoryRepository {
	return &BalanceHistoryRepository{queries: generated.New(db)}
}

// Create appends a history row within a transaction.
func (r *BalanceHistoryRepository) Create(ctx context.Context, tx usecase.Transaction, h *domain.BalanceHistory) error {
	return queriesFor(tx).CreateBalanceHistory(ctx, generated.CreateBalanceHistoryParams{
		ID:        h.ID,
		ServiceID: h.ServiceID,
		AssetID:   h.AssetID,
		OrderID:   ptrToText(h.OrderID),
		OldAmount: decimalToNumeric(h.OldAmount),
		NewAmount: decimalToNumeric(h.NewAmount),
		Change:    decimalToNumeric(h.Change),
		CreatedAt: timeToPgTimestamptz(h.CreatedAt),
	})
}

// ListByBalance returns the history of a pair, newest first.
func (r *BalanceHistoryRepository) ListByBalance(ctx context.Context, key domain.BalanceKey, limit, offset int) ([]*domain.BalanceHistory, error) {
	rows, err := r.queries.ListBalanceHistory(ctx, generated.ListBalanceHistoryParams{
		ServiceID: key.ServiceID,
		AssetID:   key.AssetID,
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	if err != nil {
		return nil, err
	}
	return rowsToHistory(rows), nil
}

// ListByOrder returns the history rows written on behalf of an order.
func (r *BalanceHistoryRepository) ListByOrder(ctx context.Context, orderID string) ([]*domain.BalanceHistory, error) {
	rows, err := r.queries.ListBalanceHistoryByOrder(ctx, stringToText(orderID))
	if err != nil {
		return nil, err
	}
	return rowsToHistory(rows), nil
}

// GetBalanceAtTime sums the changes of a pair up to and including at.
func (r *BalanceHistoryRepository) GetBalanceAtTime(ctx context.Context, key domain.BalanceKey, at time.Time) (decimal.Decimal, error) {
	n, err := r.queries.GetBalanceAtTime(ctx, generated.GetBalanceAtTimeParams{
		ServiceID: key.ServiceID,
		AssetID:   key.AssetID,
		CreatedAt: timeToPgTimestamptz(at),
	})
	if err != nil {
		return decimal.Zero, err
	}
	return numericToDecimal(n), nil
}

// Totals returns each balance beside the sum of its history.
func (r *BalanceHistoryRepository) Totals(ctx context.Context) ([]usecase.BalanceTotal, error) {
	rows, err := r.queries.ListBalanceTotals(ctx)
	if err != nil {
		return nil, err
	}
	totals := make([]usecase.BalanceTotal, 0, len(rows))
	for _, row := range rows {
		totals = append(totals, usecase.BalanceTotal{
			Key:        domain.BalanceKey{ServiceID: row.ServiceID, AssetID: row.AssetID},
			Amount:     numericToDecimal(row.Amount),
			HistorySum: numericToDecimal(row.HistorySum),
		})
	}
	return totals, nil
}

func rowsToHistory(rows []generated.BalanceHistory) []*domain.BalanceHistory {
	history := make([]*domain.BalanceHistory, 0, len(rows))
	for _, row := range rows {
		history = append(history, &domain.BalanceHistory{
			ID:        row.ID,
			ServiceID: row.ServiceID,
			AssetID:   row.AssetID,
			OrderID:   textToPtr(row.OrderID),
			OldAmount: numericToDecimal(row.OldAmount),
			NewAmount: numericToDecimal(row.NewAmount),
			Change:    numericToDecimal(row.Change),
			CreatedAt: row.CreatedAt.Time,
		})
	}
	return history
}
