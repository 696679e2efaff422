package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/exledger/internal/adapter/repository/postgres"
	"github.com/iho/exledger/internal/domain"
	"github.com/iho/exledger/internal/infrastructure/metrics"
	"github.com/iho/exledger/internal/usecase"
	"github.com/iho/exledger/tests/testutil"
)

// noOracle fails every lookup; fixtures carry manual rates.
type noOracle struct{}

func (noOracle) RateInRUB(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return decimal.Zero, errors.New("no network in integration tests")
}

type ledger struct {
	repos     usecase.Repositories
	shifts    *usecase.ShiftUseCase
	orders    *usecase.OrderUseCase
	admin     *usecase.AdminUseCase
	transfers *usecase.TransferUseCase
	balances  *usecase.BalanceUseCase
	reports   *usecase.ReportUseCase
	recon     *usecase.ReconciliationUseCase
}

func newLedger(t *testing.T, db *testutil.TestDB) *ledger {
	t.Helper()

	repos := postgres.NewRepositories(db.Pool)
	txManager := postgres.NewTxManager(db.Pool)
	idGen := postgres.NewULIDGenerator()
	clock := usecase.SystemClock{}
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	floor := decimal.RequireFromString("0.00000001")

	store := usecase.NewBalanceStore(repos.Balances, repos.History, idGen, clock, m)

	return &ledger{
		repos:     repos,
		shifts:    usecase.NewShiftUseCase(txManager, repos, idGen, clock, m),
		orders:    usecase.NewOrderUseCase(txManager, repos, store, noOracle{}, floor, idGen, clock, m),
		admin:     usecase.NewAdminUseCase(txManager, repos, store, noOracle{}, floor, idGen, clock, m),
		transfers: usecase.NewTransferUseCase(txManager, repos, store, idGen, clock, m),
		balances:  usecase.NewBalanceUseCase(repos.Balances, repos.History),
		reports:   usecase.NewReportUseCase(repos).WithRetrier(postgres.NewRetrier(zerolog.Nop())),
		recon:     usecase.NewReconciliationUseCase(repos.History, clock, m),
	}
}

// fixture is one service with an operator, an admin and two assets.
type fixture struct {
	service  *domain.Service
	operator *domain.User
	admin    *domain.User
	usdt     *domain.Asset
	rub      *domain.Asset
}

func newFixture(ctx context.Context, db *testutil.TestDB, name string) fixture {
	db.TruncateAll(ctx)

	svc := db.CreateService(ctx, name)
	return fixture{
		service:  svc,
		operator: db.CreateUser(ctx, name+"-operator", domain.RoleOperator, &svc.ID),
		admin:    db.CreateUser(ctx, name+"-admin", domain.RoleAdmin, nil),
		usdt:     db.CreateAsset(ctx, "USDT", decimal.NewFromInt(90)),
		rub:      db.CreateAsset(ctx, "RUB", decimal.NewFromInt(1)),
	}
}

func (l *ledger) amount(t *testing.T, serviceID, assetID string) decimal.Decimal {
	t.Helper()

	b, err := l.balances.GetBalance(context.Background(), domain.BalanceKey{ServiceID: serviceID, AssetID: assetID})
	if err != nil {
		t.Fatalf("failed to get balance: %v", err)
	}
	return b.Amount
}

func (l *ledger) assertConsistent(t *testing.T) {
	t.Helper()

	report, err := l.recon.GenerateReconciliationReport(context.Background())
	if err != nil {
		t.Fatalf("reconciliation failed: %v", err)
	}
	if !report.Consistent() {
		for _, d := range report.Discrepancies {
			t.Errorf("discrepancy %s/%s: recorded %s, history %s", d.ServiceID, d.AssetID, d.RecordedBalance, d.CalculatedBalance)
		}
	}
}
