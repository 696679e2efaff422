package handler

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/exledger/internal/domain"
	"github.com/iho/exledger/internal/usecase"
)

// The interfaces below are the slices of the use cases each handler needs.

type shiftService interface {
	Start(ctx context.Context, serviceID string, userID *string) (*usecase.StartShiftResult, error)
	End(ctx context.Context, serviceID string) (*domain.Shift, error)
	CurrentOpen(ctx context.Context, serviceID string) (*domain.Shift, error)
	SoftDelete(ctx context.Context, actor *domain.User, shiftID string) (*domain.Shift, error)
	GetShift(ctx context.Context, shiftID string) (*domain.Shift, error)
	ListShifts(ctx context.Context, serviceID string, limit, offset int) ([]*domain.Shift, error)
}

type orderService interface {
	CreateOrder(ctx context.Context, input usecase.CreateOrderInput) (*domain.Order, error)
	EditOrder(ctx context.Context, input usecase.EditOrderInput) (*domain.Order, error)
	ReverseOrder(ctx context.Context, actor *domain.User, orderID string) ([]*domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListShiftOrders(ctx context.Context, shiftID string) ([]*domain.Order, error)
}

type adminService interface {
	CreateAdminAction(ctx context.Context, input usecase.AdminActionInput) (*domain.Order, error)
	CreateManualIO(ctx context.Context, input usecase.AdminActionInput) (*domain.Order, error)
	SetBalance(ctx context.Context, input usecase.SetBalanceInput) (*domain.Order, error)
}

type transferService interface {
	CreateTransfer(ctx context.Context, input usecase.CreateTransferInput) (*usecase.TransferResult, error)
}

type balanceService interface {
	ListBalances(ctx context.Context, serviceID string) ([]*domain.Balance, error)
	GetBalance(ctx context.Context, key domain.BalanceKey) (*domain.Balance, error)
	GetHistory(ctx context.Context, input usecase.GetHistoryInput) ([]*domain.BalanceHistory, error)
	GetOrderHistory(ctx context.Context, orderID string) ([]*domain.BalanceHistory, error)
	GetHistoricalBalance(ctx context.Context, key domain.BalanceKey, at time.Time) (decimal.Decimal, error)
}

type reportService interface {
	GetShiftReport(ctx context.Context, shiftID string) (*usecase.ShiftReport, error)
	GetServiceTimeSeries(ctx context.Context, serviceID string, from, to time.Time) ([]usecase.ShiftSummary, error)
}

type reconciler interface {
	GenerateReconciliationReport(ctx context.Context) (*usecase.ReconciliationReport, error)
}
