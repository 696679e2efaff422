package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceKey identifies one (service, asset) pair.
type BalanceKey struct {
	ServiceID string
	AssetID   string
}

// Less orders keys so that row locks are always taken in the same order.
func (k BalanceKey) Less(other BalanceKey) bool {
	if k.ServiceID != other.ServiceID {
		return k.ServiceID < other.ServiceID
	}
	return k.AssetID < other.AssetID
}

// Balance is the current amount of one asset held by one service.
type Balance struct {
	ServiceID string
	AssetID   string
	Amount    decimal.Decimal
	UpdatedAt time.Time
}

// Key returns the balance key.
func (b *Balance) Key() BalanceKey {
	return BalanceKey{ServiceID: b.ServiceID, AssetID: b.AssetID}
}

// Apply returns a history entry describing the balance after adding change
// and updates the in-memory amount.
func (b *Balance) Apply(id string, change decimal.Decimal, orderID *string, at time.Time) *BalanceHistory {
	old := b.Amount
	b.Amount = old.Add(change)
	b.UpdatedAt = at

	return &BalanceHistory{
		ID:        id,
		ServiceID: b.ServiceID,
		AssetID:   b.AssetID,
		OrderID:   orderID,
		OldAmount: old,
		NewAmount: b.Amount,
		Change:    change,
		CreatedAt: at,
	}
}

// BalanceHistory is an immutable audit entry for one balance mutation.
type BalanceHistory struct {
	ID        string
	ServiceID string
	AssetID   string
	OrderID   *string
	OldAmount decimal.Decimal
	NewAmount decimal.Decimal
	Change    decimal.Decimal
	CreatedAt time.Time
}

// Delta is a signed change of one balance.
type Delta struct {
	ServiceID string
	AssetID   string
	Amount    decimal.Decimal
}

// Key returns the balance key the delta applies to.
func (d Delta) Key() BalanceKey {
	return BalanceKey{ServiceID: d.ServiceID, AssetID: d.AssetID}
}

// Invert returns the compensating delta.
func (d Delta) Invert() Delta {
	return Delta{ServiceID: d.ServiceID, AssetID: d.AssetID, Amount: d.Amount.Neg()}
}
