package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/exledger/internal/domain"
)

// BalanceUseCase serves balance and history reads.
type BalanceUseCase struct {
	balanceRepo BalanceRepository
	historyRepo BalanceHistoryRepository
}

// NewBalanceUseCase creates a new BalanceUseCase.
func NewBalanceUseCase(balanceRepo BalanceRepository, historyRepo BalanceHistoryRepository) *BalanceUseCase {
	return &BalanceUseCase{
		balanceRepo: balanceRepo,
		historyRepo: historyRepo,
	}
}

// ListBalances lists the balances of a service.
func (uc *BalanceUseCase) ListBalances(ctx context.Context, serviceID string) ([]*domain.Balance, error) {
	return uc.balanceRepo.ListByService(ctx, serviceID)
}

// GetBalance returns one balance; pairs never referenced read as zero.
func (uc *BalanceUseCase) GetBalance(ctx context.Context, key domain.BalanceKey) (*domain.Balance, error) {
	return uc.balanceRepo.Get(ctx, key)
}

// GetHistoryInput represents input for listing history.
type GetHistoryInput struct {
	Key    domain.BalanceKey
	Limit  int
	Offset int
}

// GetHistory lists history rows of a balance, newest first.
func (uc *BalanceUseCase) GetHistory(ctx context.Context, input GetHistoryInput) ([]*domain.BalanceHistory, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}

	if input.Limit > DefaultHistoryLimit {
		input.Limit = DefaultHistoryLimit
	}

	return uc.historyRepo.ListByBalance(ctx, input.Key, input.Limit, input.Offset)
}

// GetOrderHistory lists the history rows an order produced, including
// compensating rows of edits and reversals.
func (uc *BalanceUseCase) GetOrderHistory(ctx context.Context, orderID string) ([]*domain.BalanceHistory, error) {
	return uc.historyRepo.ListByOrder(ctx, orderID)
}

// GetHistoricalBalance returns the balance at a specific point in time.
func (uc *BalanceUseCase) GetHistoricalBalance(ctx context.Context, key domain.BalanceKey, at time.Time) (decimal.Decimal, error) {
	return uc.historyRepo.GetBalanceAtTime(ctx, key, at)
}
