package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/iho/exledger/internal/domain"
	"github.com/iho/exledger/internal/infrastructure/postgres/generated"
	"github.com/iho/exledger/internal/usecase"
)

// OrderRepository implements usecase.OrderRepository.
type OrderRepository struct {
	queries *generated.Queries
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(db generated.DBTX) *OrderRepository {
	return &OrderRepository{queries: generated.New(db)}
}

// Create inserts an order within a transaction.
func (r *OrderRepository) Create(ctx context.Context, tx usecase.Transaction, o *domain.Order) error {
	return queriesFor(tx).CreateOrder(ctx, generated.CreateOrderParams{
		ID:              o.ID,
		ServiceID:       o.ServiceID,
		UserID:          ptrToText(o.UserID),
		ShiftID:         ptrToText(o.ShiftID),
		Type:            string(o.Type),
		Direction:       stringToText(string(o.Direction)),
		ReceivedAssetID: stringToText(o.ReceivedAssetID),
		ReceivedAmount:  decimalToNumeric(o.ReceivedAmount),
		GivenAssetID:    stringToText(o.GivenAssetID),
		GivenAmount:     decimalToNumeric(o.GivenAmount),
		AmountRub:       decimalToNumeric(o.AmountRUB),
		Comment:         o.Comment,
		CategoryID:      ptrToText(o.CategoryID),
		TransferGroup:   ptrToText(o.TransferGroup),
		ReceivedRateRub: nullDecimalToNumeric(o.ReceivedRateRUB),
		GivenRateRub:    nullDecimalToNumeric(o.GivenRateRUB),
		ProfitRub:       decimalToNumeric(o.ProfitRUB),
		ProfitPercent:   decimalToNumeric(o.ProfitPercent),
		IsDeleted:       o.IsDeleted,
		DeletedAt:       timePtrToPgTimestamptz(o.DeletedAt),
		CreatedAt:       timeToPgTimestamptz(o.CreatedAt),
		UpdatedAt:       timeToPgTimestamptz(o.UpdatedAt),
	})
}

// Update overwrites the legs, valuation, labels and deletion flag of an order.
func (r *OrderRepository) Update(ctx context.Context, tx usecase.Transaction, o *domain.Order) error {
	n, err := queriesFor(tx).UpdateOrder(ctx, generated.UpdateOrderParams{
		ID:              o.ID,
		ReceivedAssetID: stringToText(o.ReceivedAssetID),
		ReceivedAmount:  decimalToNumeric(o.ReceivedAmount),
		GivenAssetID:    stringToText(o.GivenAssetID),
		GivenAmount:     decimalToNumeric(o.GivenAmount),
		AmountRub:       decimalToNumeric(o.AmountRUB),
		Comment:         o.Comment,
		CategoryID:      ptrToText(o.CategoryID),
		ReceivedRateRub: nullDecimalToNumeric(o.ReceivedRateRUB),
		GivenRateRub:    nullDecimalToNumeric(o.GivenRateRUB),
		ProfitRub:       decimalToNumeric(o.ProfitRUB),
		ProfitPercent:   decimalToNumeric(o.ProfitPercent),
		IsDeleted:       o.IsDeleted,
		DeletedAt:       timePtrToPgTimestamptz(o.DeletedAt),
		UpdatedAt:       timeToPgTimestamptz(o.UpdatedAt),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// GetByID retrieves an order by ID, including reversed ones.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	row, err := r.queries.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return rowToOrder(row), nil
}

// GetByIDForUpdate retrieves an order by ID with a FOR UPDATE lock.
func (r *OrderRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Order, error) {
	row, err := queriesFor(tx).GetOrderByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return rowToOrder(row), nil
}

// GetByTransferGroupForUpdate locks every leg of a transfer, in ID order.
func (r *OrderRepository) GetByTransferGroupForUpdate(ctx context.Context, tx usecase.Transaction, group string) ([]*domain.Order, error) {
	rows, err := queriesFor(tx).GetOrdersByTransferGroupForUpdate(ctx, stringToText(group))
	if err != nil {
		return nil, err
	}
	return rowsToOrders(rows), nil
}

// ListByShifts returns the live orders of the given shifts, oldest first.
func (r *OrderRepository) ListByShifts(ctx context.Context, shiftIDs []string) ([]*domain.Order, error) {
	if len(shiftIDs) == 0 {
		return nil, nil
	}
	rows, err := r.queries.ListOrdersByShifts(ctx, shiftIDs)
	if err != nil {
		return nil, err
	}
	return rowsToOrders(rows), nil
}

func rowsToOrders(rows []generated.Order) []*domain.Order {
	orders := make([]*domain.Order, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, rowToOrder(row))
	}
	return orders
}

func rowToOrder(row generated.Order) *domain.Order {
	return &domain.Order{
		ID:              row.ID,
		ServiceID:       row.ServiceID,
		UserID:          textToPtr(row.UserID),
		ShiftID:         textToPtr(row.ShiftID),
		Type:            domain.OrderType(row.Type),
		Direction:       domain.Direction(row.Direction.String),
		ReceivedAssetID: row.ReceivedAssetID.String,
		ReceivedAmount:  numericToDecimal(row.ReceivedAmount),
		GivenAssetID:    row.GivenAssetID.String,
		GivenAmount:     numericToDecimal(row.GivenAmount),
		AmountRUB:       numericToDecimal(row.AmountRub),
		Comment:         row.Comment,
		CategoryID:      textToPtr(row.CategoryID),
		TransferGroup:   textToPtr(row.TransferGroup),
		ReceivedRateRUB: numericToNullDecimal(row.ReceivedRateRub),
		GivenRateRUB:    numericToNullDecimal(row.GivenRateRub),
		ProfitRUB:       numericToDecimal(row.ProfitRub),
		ProfitPercent:   numericToDecimal(row.ProfitPercent),
		IsDeleted:       row.IsDeleted,
		DeletedAt:       pgTimestamptzToPtr(row.DeletedAt),
		CreatedAt:       row.CreatedAt.Time,
		UpdatedAt:       row.UpdatedAt.Time,
	}
}
