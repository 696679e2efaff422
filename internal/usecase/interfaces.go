package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/exledger/internal/domain"
)

// ServiceRepository defines data access for services.
type ServiceRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Service, error)
	// GetByIDForUpdate locks the service row; shift transitions of one
	// service serialize on it.
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Service, error)
	List(ctx context.Context) ([]*domain.Service, error)
}

// AssetRepository defines data access for assets.
type AssetRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Asset, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Asset, error)
	List(ctx context.Context) ([]*domain.Asset, error)
}

// UserRepository defines read access to users. User management lives elsewhere.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)
}

// BalanceRepository defines data access for balances.
type BalanceRepository interface {
	// GetForUpdate locks the balance row, creating it with amount 0 first
	// when the pair has never been referenced.
	GetForUpdate(ctx context.Context, tx Transaction, key domain.BalanceKey) (*domain.Balance, error)
	Update(ctx context.Context, tx Transaction, balance *domain.Balance) error
	// Get returns a zero balance for a pair that has no row yet.
	Get(ctx context.Context, key domain.BalanceKey) (*domain.Balance, error)
	ListByService(ctx context.Context, serviceID string) ([]*domain.Balance, error)
}

// BalanceHistoryRepository defines data access for the balance change log.
type BalanceHistoryRepository interface {
	Create(ctx context.Context, tx Transaction, history *domain.BalanceHistory) error
	ListByBalance(ctx context.Context, key domain.BalanceKey, limit, offset int) ([]*domain.BalanceHistory, error)
	ListByOrder(ctx context.Context, orderID string) ([]*domain.BalanceHistory, error)
	GetBalanceAtTime(ctx context.Context, key domain.BalanceKey, at time.Time) (decimal.Decimal, error)
	// Totals returns every balance next to the sum of its history changes.
	Totals(ctx context.Context) ([]BalanceTotal, error)
}

// BalanceTotal pairs a recorded balance with what its history reduces to.
type BalanceTotal struct {
	Key        domain.BalanceKey
	Amount     decimal.Decimal
	HistorySum decimal.Decimal
}

// ShiftRepository defines data access for shifts.
type ShiftRepository interface {
	Create(ctx context.Context, tx Transaction, shift *domain.Shift) error
	GetByID(ctx context.Context, id string) (*domain.Shift, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Shift, error)
	// FindOpen returns nil without error when the service has no open shift.
	FindOpen(ctx context.Context, serviceID string) (*domain.Shift, error)
	FindOpenTx(ctx context.Context, tx Transaction, serviceID string) (*domain.Shift, error)
	NextSequence(ctx context.Context, tx Transaction, serviceID string) (int64, error)
	Close(ctx context.Context, tx Transaction, id string, endTime time.Time) error
	SoftDelete(ctx context.Context, tx Transaction, id string) error
	ListByService(ctx context.Context, serviceID string, limit, offset int) ([]*domain.Shift, error)
	// ListOverlapping skips deleted shifts.
	ListOverlapping(ctx context.Context, serviceID string, from, to time.Time) ([]*domain.Shift, error)
}

// OrderRepository defines data access for orders.
type OrderRepository interface {
	Create(ctx context.Context, tx Transaction, order *domain.Order) error
	// Update overwrites the mutable fields of an existing order.
	Update(ctx context.Context, tx Transaction, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Order, error)
	GetByTransferGroupForUpdate(ctx context.Context, tx Transaction, group string) ([]*domain.Order, error)
	// ListByShifts returns the non-deleted orders of the given shifts, oldest first.
	ListByShifts(ctx context.Context, shiftIDs []string) ([]*domain.Order, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// RateOracle prices one unit of an asset in RUB.
// Implementations report any failure wrapping domain.ErrRateUnavailable.
type RateOracle interface {
	RateInRUB(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// Retrier retries an operation on transient store errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

// Repositories bundles the stores the ledger use cases share.
type Repositories struct {
	Services ServiceRepository
	Assets   AssetRepository
	Users    UserRepository
	Balances BalanceRepository
	History  BalanceHistoryRepository
	Shifts   ShiftRepository
	Orders   OrderRepository
	Outbox   OutboxRepository
}
