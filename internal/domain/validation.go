package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrAmountTooLarge   = errors.New("amount exceeds maximum allowed")
	ErrCommentTooLong   = errors.New("comment exceeds maximum length")
	ErrInvalidSymbol    = errors.New("invalid asset symbol")
	ErrInvalidTimeRange = errors.New("invalid time range")
)

// Validation constants
const (
	MaxOrderAmount   = "1000000000000" // 1 trillion
	MaxCommentLength = 1024
	MaxSymbolLength  = 32

	// MinPlausibleRate is the lowest RUB price accepted from a price source.
	MinPlausibleRate = "0.00000001"
)

var maxOrderAmount = decimal.RequireFromString(MaxOrderAmount)

// ValidateAmount validates an order, transfer or admin amount.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrNonPositiveAmount
	}

	if amount.GreaterThan(maxOrderAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxOrderAmount)
	}

	return nil
}

// ValidateRate rejects rates that are not strictly positive or fall below floor.
func ValidateRate(symbol string, rate, floor decimal.Decimal) error {
	if rate.LessThanOrEqual(decimal.Zero) || rate.LessThan(floor) {
		return fmt.Errorf("%w: %s quoted at %s RUB", ErrUnreliableRate, symbol, rate.String())
	}
	return nil
}

// ValidateComment validates free-text order comments.
func ValidateComment(comment string) error {
	if len(comment) > MaxCommentLength {
		return fmt.Errorf("%w: %d characters allowed", ErrCommentTooLong, MaxCommentLength)
	}
	return nil
}

// NormalizeSymbol upper-cases and trims an asset symbol.
func NormalizeSymbol(symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" || len(symbol) > MaxSymbolLength {
		return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	return symbol, nil
}

// ValidateTimeRange validates a reporting window.
func ValidateTimeRange(from, to time.Time) error {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return ErrInvalidTimeRange
	}
	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}
