package usecase

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/iho/exledger/internal/domain"
	"github.com/iho/exledger/internal/infrastructure/metrics"
)

// BalanceStore is the only writer of balances. Every mutation goes through
// ApplyDeltas inside the caller's transaction and appends one history row
// per delta.
type BalanceStore struct {
	balanceRepo BalanceRepository
	historyRepo BalanceHistoryRepository
	idGen       IDGenerator
	clock       Clock
	metrics     *metrics.Metrics
}

// NewBalanceStore creates a new BalanceStore.
func NewBalanceStore(
	balanceRepo BalanceRepository,
	historyRepo BalanceHistoryRepository,
	idGen IDGenerator,
	clock Clock,
	metrics *metrics.Metrics,
) *BalanceStore {
	return &BalanceStore{
		balanceRepo: balanceRepo,
		historyRepo: historyRepo,
		idGen:       idGen,
		clock:       clock,
		metrics:     metrics,
	}
}

// ApplyDelta adds delta to one balance and returns the new amount.
func (s *BalanceStore) ApplyDelta(ctx context.Context, tx Transaction, delta domain.Delta, orderID *string) (decimal.Decimal, error) {
	balances, err := s.applyDeltas(ctx, tx, []domain.Delta{delta}, orderID)
	if err != nil {
		return decimal.Zero, err
	}

	return balances[delta.Key()].Amount, nil
}

// ApplyDeltas applies deltas in the given order after locking every touched
// balance in key order.
func (s *BalanceStore) ApplyDeltas(ctx context.Context, tx Transaction, deltas []domain.Delta, orderID *string) error {
	_, err := s.applyDeltas(ctx, tx, deltas, orderID)
	return err
}

// Lock takes the row locks for keys in sorted order and returns the locked
// balances. Balances that did not exist are created at zero.
func (s *BalanceStore) Lock(ctx context.Context, tx Transaction, keys []domain.BalanceKey) (map[domain.BalanceKey]*domain.Balance, error) {
	sorted := uniqueSortedKeys(keys)

	locked := make(map[domain.BalanceKey]*domain.Balance, len(sorted))
	for _, key := range sorted {
		balance, err := s.balanceRepo.GetForUpdate(ctx, tx, key)
		if err != nil {
			return nil, err
		}
		locked[key] = balance
	}

	return locked, nil
}

func (s *BalanceStore) applyDeltas(
	ctx context.Context,
	tx Transaction,
	deltas []domain.Delta,
	orderID *string,
) (map[domain.BalanceKey]*domain.Balance, error) {
	keys := make([]domain.BalanceKey, 0, len(deltas))
	for _, d := range deltas {
		keys = append(keys, d.Key())
	}

	balances, err := s.Lock(ctx, tx, keys)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	for _, d := range deltas {
		balance := balances[d.Key()]

		history := balance.Apply(s.idGen.Generate(), d.Amount, orderID, now)

		if err := s.balanceRepo.Update(ctx, tx, balance); err != nil {
			return nil, err
		}

		if err := s.historyRepo.Create(ctx, tx, history); err != nil {
			return nil, err
		}

		if s.metrics != nil {
			s.metrics.BalanceMutations.Inc()
		}
	}

	return balances, nil
}

func uniqueSortedKeys(keys []domain.BalanceKey) []domain.BalanceKey {
	seen := make(map[domain.BalanceKey]bool, len(keys))
	result := make([]domain.BalanceKey, 0, len(keys))

	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			result = append(result, k)
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Less(result[j]) })

	return result
}
