package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/exledger/internal/domain"
	"github.com/iho/exledger/internal/infrastructure/metrics"
	"github.com/iho/exledger/internal/usecase"
	"github.com/iho/exledger/internal/usecase/mocks"
)

const (
	svcA = "svc-a"
	svcB = "svc-b"

	assetRUB  = "asset-rub"
	assetBTC  = "asset-btc"
	assetUSDT = "asset-usdt"
	assetEUR  = "asset-eur"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// stubOracle prices symbols from a fixed table.
type stubOracle struct {
	rates map[string]decimal.Decimal
	calls []string
}

func (o *stubOracle) RateInRUB(_ context.Context, symbol string) (decimal.Decimal, error) {
	o.calls = append(o.calls, symbol)
	rate, ok := o.rates[symbol]
	if !ok {
		return decimal.Zero, errors.New("no quote for " + symbol)
	}
	return rate, nil
}

func newStubOracle() *stubOracle {
	return &stubOracle{rates: map[string]decimal.Decimal{
		"RUB":  decimal.NewFromInt(1),
		"BTC":  decimal.NewFromInt(5_000_000),
		"USDT": decimal.NewFromInt(90),
	}}
}

type fixture struct {
	store   *mocks.Store
	clock   *mocks.FixedClock
	metrics *metrics.Metrics

	balances  *usecase.BalanceStore
	shifts    *usecase.ShiftUseCase
	orders    *usecase.OrderUseCase
	admin     *usecase.AdminUseCase
	transfers *usecase.TransferUseCase
	reports   *usecase.ReportUseCase
	recon     *usecase.ReconciliationUseCase
	queries   *usecase.BalanceUseCase

	adminUser *domain.User
	operatorA *domain.User
	operatorB *domain.User
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithOracle(t, newStubOracle())
}

func newFixtureWithOracle(t *testing.T, oracle usecase.RateOracle) *fixture {
	t.Helper()

	store := mocks.NewStore()
	clock := mocks.NewFixedClock(t0)
	ids := mocks.NewSequentialIDGenerator("id")
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())

	store.AddService(domain.Service{ID: svcA, Name: "Alpha"})
	store.AddService(domain.Service{ID: svcB, Name: "Beta"})

	store.AddAsset(domain.Asset{ID: assetRUB, Symbol: "RUB", Name: "Ruble"})
	store.AddAsset(domain.Asset{ID: assetBTC, Symbol: "BTC", Name: "Bitcoin"})
	store.AddAsset(domain.Asset{ID: assetUSDT, Symbol: "USDT", Name: "Tether"})
	store.AddAsset(domain.Asset{
		ID:         assetEUR,
		Symbol:     "EUR",
		Name:       "Euro",
		ManualRate: decimal.NewNullDecimal(decimal.NewFromInt(100)),
	})

	serviceA, serviceB := svcA, svcB
	f := &fixture{
		store:     store,
		clock:     clock,
		metrics:   m,
		adminUser: &domain.User{ID: "u-admin", Login: "root", Name: "Admin", Role: domain.RoleAdmin, Active: true},
		operatorA: &domain.User{ID: "u-op-a", Login: "anna", Name: "Anna", Role: domain.RoleOperator, ServiceID: &serviceA, Active: true},
		operatorB: &domain.User{ID: "u-op-b", Login: "boris", Name: "Boris", Role: domain.RoleOperator, ServiceID: &serviceB, Active: true},
	}
	store.AddUser(*f.adminUser)
	store.AddUser(*f.operatorA)
	store.AddUser(*f.operatorB)

	repos := store.Repositories()
	f.balances = usecase.NewBalanceStore(store.Balances, store.History, ids, clock, m)
	f.shifts = usecase.NewShiftUseCase(store.TxMgr, repos, ids, clock, m)
	f.orders = usecase.NewOrderUseCase(store.TxMgr, repos, f.balances, oracle, decimal.Zero, ids, clock, m)
	f.admin = usecase.NewAdminUseCase(store.TxMgr, repos, f.balances, oracle, decimal.Zero, ids, clock, m)
	f.transfers = usecase.NewTransferUseCase(store.TxMgr, repos, f.balances, ids, clock, m)
	f.reports = usecase.NewReportUseCase(repos)
	f.recon = usecase.NewReconciliationUseCase(store.History, clock, m)
	f.queries = usecase.NewBalanceUseCase(store.Balances, store.History)

	return f
}

func (f *fixture) startShift(t *testing.T, serviceID string) *domain.Shift {
	t.Helper()
	res, err := f.shifts.Start(context.Background(), serviceID, nil)
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	return res.Shift
}

// btcForRub is the reference exchange: 1 BTC received for 4,800,000 RUB given.
func (f *fixture) btcForRub(t *testing.T, serviceID string, userID string) *domain.Order {
	t.Helper()
	order, err := f.orders.CreateOrder(context.Background(), usecase.CreateOrderInput{
		ServiceID:       serviceID,
		UserID:          &userID,
		ReceivedAssetID: assetBTC,
		ReceivedAmount:  dec("1"),
		GivenAssetID:    assetRUB,
		GivenAmount:     dec("4800000"),
	})
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	return order
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireAmount(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got.String(), msgAndArgs)
}

// requireReconciled checks the central invariant on every touched balance.
func (f *fixture) requireReconciled(t *testing.T) {
	t.Helper()
	report, err := f.recon.GenerateReconciliationReport(context.Background())
	require.NoError(t, err)
	require.Empty(t, report.Discrepancies)
}
