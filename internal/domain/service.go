package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Service is an independent till with its own balances and shifts.
type Service struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Asset is a tradable unit: crypto, fiat or a payment-system pseudo-currency.
type Asset struct {
	ID         string
	Symbol     string
	Name       string
	PairSymbol *string
	ManualRate decimal.NullDecimal
	CreatedAt  time.Time
}

// QuoteSymbol returns the symbol used to query a price source for the asset.
func (a *Asset) QuoteSymbol() string {
	if a.PairSymbol != nil && strings.TrimSpace(*a.PairSymbol) != "" {
		return strings.ToUpper(strings.TrimSpace(*a.PairSymbol))
	}
	return strings.ToUpper(a.Symbol)
}

// Category is a free label attached to orders.
type Category struct {
	ID   string
	Name string
}
