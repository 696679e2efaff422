package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderType classifies a ledger entry.
type OrderType string

const (
	OrderTypeExchange    OrderType = "exchange"
	OrderTypeAdminAction OrderType = "admin_action"
	OrderTypeAdminIO     OrderType = "admin_io"
	OrderTypeTransfer    OrderType = "transfer"
	OrderTypeAdminSet    OrderType = "admin_set"
)

// IsValid checks if the order type is known.
func (t OrderType) IsValid() bool {
	switch t {
	case OrderTypeExchange, OrderTypeAdminAction, OrderTypeAdminIO, OrderTypeTransfer, OrderTypeAdminSet:
		return true
	}
	return false
}

// Direction is the explicit sign of a single-asset admin operation.
type Direction string

const (
	DirectionDeposit  Direction = "deposit"
	DirectionWithdraw Direction = "withdraw"
	DirectionIn       Direction = "in"
	DirectionOut      Direction = "out"
)

// Sign returns +1 for deposit/in and -1 for withdraw/out.
func (d Direction) Sign() (int, error) {
	switch d {
	case DirectionDeposit, DirectionIn:
		return 1, nil
	case DirectionWithdraw, DirectionOut:
		return -1, nil
	}
	return 0, ErrInvalidDirection
}

// ValidFor checks the direction belongs to the given order type.
func (d Direction) ValidFor(t OrderType) bool {
	switch t {
	case OrderTypeAdminAction:
		return d == DirectionDeposit || d == DirectionWithdraw
	case OrderTypeAdminIO:
		return d == DirectionIn || d == DirectionOut
	}
	return false
}

// Order is one ledger entry.
//
// The balance effect of an order is fully described by its received and given
// legs: received_amount was added to received_asset and given_amount was
// subtracted from given_asset, both on ServiceID. Reversal and edit rely on
// that to invert an order without knowing how it was created.
type Order struct {
	ID              string
	ServiceID       string
	UserID          *string
	ShiftID         *string
	Type            OrderType
	Direction       Direction
	ReceivedAssetID string
	ReceivedAmount  decimal.Decimal
	GivenAssetID    string
	GivenAmount     decimal.Decimal
	AmountRUB       decimal.Decimal
	Comment         string
	CategoryID      *string
	TransferGroup   *string
	ReceivedRateRUB decimal.NullDecimal
	GivenRateRUB    decimal.NullDecimal
	ProfitRUB       decimal.Decimal
	ProfitPercent   decimal.Decimal
	IsDeleted       bool
	DeletedAt       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Deltas returns the balance changes this order applied.
func (o *Order) Deltas() []Delta {
	deltas := make([]Delta, 0, 2)
	if o.ReceivedAssetID != "" && !o.ReceivedAmount.IsZero() {
		deltas = append(deltas, Delta{ServiceID: o.ServiceID, AssetID: o.ReceivedAssetID, Amount: o.ReceivedAmount})
	}
	if o.GivenAssetID != "" && !o.GivenAmount.IsZero() {
		deltas = append(deltas, Delta{ServiceID: o.ServiceID, AssetID: o.GivenAssetID, Amount: o.GivenAmount.Neg()})
	}
	return deltas
}

// CompensatingDeltas returns the deltas that undo this order.
func (o *Order) CompensatingDeltas() []Delta {
	deltas := o.Deltas()
	for i := range deltas {
		deltas[i] = deltas[i].Invert()
	}
	return deltas
}

// SetSignedAmount stores a single signed asset change in the received leg
// when positive and in the given leg when negative.
func (o *Order) SetSignedAmount(assetID string, change decimal.Decimal) {
	o.ReceivedAssetID, o.ReceivedAmount = "", decimal.Zero
	o.GivenAssetID, o.GivenAmount = "", decimal.Zero

	if change.IsNegative() {
		o.GivenAssetID = assetID
		o.GivenAmount = change.Neg()
		return
	}
	o.ReceivedAssetID = assetID
	o.ReceivedAmount = change
}

// IsTransferLeg reports whether the order is one side of a transfer.
func (o *Order) IsTransferLeg() bool {
	return o.Type == OrderTypeTransfer && o.TransferGroup != nil
}

// MarkDeleted flags the order as reversed.
func (o *Order) MarkDeleted(at time.Time) {
	o.IsDeleted = true
	o.DeletedAt = &at
	o.UpdatedAt = at
}

// Profit is the RUB valuation of an exchange.
type Profit struct {
	ValueIn  decimal.Decimal
	ValueOut decimal.Decimal
	RUB      decimal.Decimal
	Percent  decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// CalculateProfit values both legs of an exchange in RUB.
// Percent is relative to the given value and rounded to two places; it is
// zero when nothing was given.
func CalculateProfit(receivedAmount, receivedRate, givenAmount, givenRate decimal.Decimal) Profit {
	valueIn := receivedAmount.Mul(receivedRate)
	valueOut := givenAmount.Mul(givenRate)
	profit := valueIn.Sub(valueOut)

	percent := decimal.Zero
	if !valueOut.IsZero() {
		percent = profit.Div(valueOut).Mul(hundred).Round(2)
	}

	return Profit{
		ValueIn:  valueIn,
		ValueOut: valueOut,
		RUB:      profit,
		Percent:  percent,
	}
}
