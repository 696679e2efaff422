package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/exledger/internal/domain"
	"github.com/iho/exledger/internal/usecase"
)

func TestBalanceStore_ApplyDeltaReducesToHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	changes := []string{"10", "-3", "2.5", "-9.5", "0.00000001"}

	for _, c := range changes {
		tx, err := f.store.TxMgr.Begin(ctx)
		require.NoError(t, err)

		_, err = f.balances.ApplyDelta(ctx, tx, domain.Delta{ServiceID: svcA, AssetID: assetUSDT, Amount: dec(c)}, nil)
		require.NoError(t, err)
		require.NoError(t, tx.Commit(ctx))
	}

	requireAmount(t, "0.00000001", f.store.Amount(svcA, assetUSDT))
	requireAmount(t, "0.00000001", f.store.HistorySum(svcA, assetUSDT))

	rows := f.store.HistoryRows()
	require.Len(t, rows, len(changes))

	// Each row starts where the previous one ended.
	for i := 1; i < len(rows); i++ {
		assert.True(t, rows[i].OldAmount.Equal(rows[i-1].NewAmount), "row %d", i)
		assert.True(t, rows[i].NewAmount.Sub(rows[i].OldAmount).Equal(rows[i].Change), "row %d", i)
	}
	assert.True(t, rows[0].OldAmount.IsZero())
}

func TestBalanceStore_ApplyDeltaReturnsNewAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tx, err := f.store.TxMgr.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	orderID := "order-1"
	got, err := f.balances.ApplyDelta(ctx, tx, domain.Delta{ServiceID: svcA, AssetID: assetBTC, Amount: dec("0.5")}, &orderID)
	require.NoError(t, err)
	requireAmount(t, "0.5", got)

	got, err = f.balances.ApplyDelta(ctx, tx, domain.Delta{ServiceID: svcA, AssetID: assetBTC, Amount: dec("-2")}, &orderID)
	require.NoError(t, err)
	requireAmount(t, "-1.5", got)

	rows := f.store.HistoryRows()
	require.Len(t, rows, 2)
	require.NotNil(t, rows[0].OrderID)
	assert.Equal(t, orderID, *rows[0].OrderID)
}

func TestBalanceStore_LocksInKeyOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tx, err := f.store.TxMgr.Begin(ctx)
	require.NoError(t, err)

	deltas := []domain.Delta{
		{ServiceID: svcB, AssetID: assetUSDT, Amount: dec("1")},
		{ServiceID: svcA, AssetID: assetUSDT, Amount: dec("-1")},
		{ServiceID: svcA, AssetID: assetBTC, Amount: dec("1")},
		{ServiceID: svcB, AssetID: assetUSDT, Amount: dec("1")},
	}
	require.NoError(t, f.balances.ApplyDeltas(ctx, tx, deltas, nil))
	require.NoError(t, tx.Commit(ctx))

	assert.Equal(t, []domain.BalanceKey{
		{ServiceID: svcA, AssetID: assetBTC},
		{ServiceID: svcA, AssetID: assetUSDT},
		{ServiceID: svcB, AssetID: assetUSDT},
	}, f.store.Balances.Locked)

	requireAmount(t, "2", f.store.Amount(svcB, assetUSDT))
	assert.Len(t, f.store.HistoryRows(), 4)
}

func TestBalanceStore_RollbackDiscardsDeltas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	boom := errors.New("disk full")
	calls := 0
	f.store.History.CreateFunc = func(context.Context, usecase.Transaction, *domain.BalanceHistory) error {
		calls++
		if calls == 2 {
			return boom
		}
		return nil
	}

	tx, err := f.store.TxMgr.Begin(ctx)
	require.NoError(t, err)

	err = f.balances.ApplyDeltas(ctx, tx, []domain.Delta{
		{ServiceID: svcA, AssetID: assetBTC, Amount: dec("1")},
		{ServiceID: svcA, AssetID: assetRUB, Amount: dec("-100")},
	}, nil)
	require.ErrorIs(t, err, boom)
	require.NoError(t, tx.Rollback(ctx))

	assert.True(t, f.store.Amount(svcA, assetBTC).IsZero())
	assert.True(t, f.store.Amount(svcA, assetRUB).IsZero())
	assert.Empty(t, f.store.HistoryRows())
}
