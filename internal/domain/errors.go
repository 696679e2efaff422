package domain

import (
	"errors"
	"fmt"
)

var (
	// Shift errors
	ErrNoActiveShift = errors.New("no active shift for service")

	// Rate errors
	ErrRateUnavailable = errors.New("exchange rate unavailable")
	ErrUnreliableRate  = errors.New("exchange rate is not plausible")

	// Validation errors
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrSameService       = errors.New("cannot transfer to the same service")
	ErrInvalidDirection  = errors.New("invalid direction")
	ErrInvalidAsset      = errors.New("order must reference at least one asset")

	// Permission errors
	ErrForbidden = errors.New("operation not permitted")

	// Lookup errors
	ErrNotFound        = errors.New("not found")
	ErrOrderNotFound   = fmt.Errorf("order %w", ErrNotFound)
	ErrShiftNotFound   = fmt.Errorf("shift %w", ErrNotFound)
	ErrAssetNotFound   = fmt.Errorf("asset %w", ErrNotFound)
	ErrServiceNotFound = fmt.Errorf("service %w", ErrNotFound)

	// Reversal errors
	ErrAlreadyDeleted       = errors.New("order already deleted")
	ErrInconsistentTransfer = errors.New("transfer legs do not pair up")
)
