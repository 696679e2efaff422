package postgres

import (
	"github.com/iho/exledger/internal/infrastructure/postgres/generated"
	"github.com/iho/exledger/internal/usecase"
)

// NewRepositories builds every ledger repository on one connection pool.
func NewRepositories(db generated.DBTX) usecase.Repositories {
	return usecase.Repositories{
		Services: NewServiceRepository(db),
		Assets:   NewAssetRepository(db),
		Users:    NewUserRepository(db),
		Balances: NewBalanceRepository(db),
		History:  NewBalanceHistoryRepository(db),
		Shifts:   NewShiftRepository(db),
		Orders:   NewOrderRepository(db),
		Outbox:   NewOutboxRepository(db),
	}
}
