package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/exledger/internal/adapter/http/handler"
	apimiddleware "github.com/iho/exledger/internal/adapter/http/middleware"
	"github.com/iho/exledger/internal/domain"
	"github.com/iho/exledger/internal/infrastructure/auth"
	"github.com/iho/exledger/internal/infrastructure/metrics"
	"github.com/iho/exledger/internal/usecase"
	"github.com/iho/exledger/internal/usecase/mocks"
)

const (
	svcA      = "svc-a"
	svcB      = "svc-b"
	assetRUB  = "asset-rub"
	assetUSDT = "asset-usdt"
)

type testServer struct {
	router   http.Handler
	store    *mocks.Store
	jwt      *auth.JWTManager
	admin    string
	operator string
}

func newRouterConfig(t *testing.T, opts ...func(*RouterConfig)) (RouterConfig, *mocks.Store) {
	t.Helper()

	ctrl := gomock.NewController(t)
	oracle := mocks.NewMockRateOracle(ctrl)
	quotes := map[string]decimal.Decimal{"RUB": decimal.NewFromInt(1), "USDT": decimal.NewFromInt(90)}
	oracle.EXPECT().RateInRUB(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, symbol string) (decimal.Decimal, error) {
			if rate, ok := quotes[symbol]; ok {
				return rate, nil
			}
			return decimal.Zero, domain.ErrRateUnavailable
		}).AnyTimes()

	store := mocks.NewStore()
	store.AddService(domain.Service{ID: svcA, Name: "Alpha"})
	store.AddService(domain.Service{ID: svcB, Name: "Beta"})
	store.AddAsset(domain.Asset{ID: assetRUB, Symbol: "RUB", Name: "Ruble"})
	store.AddAsset(domain.Asset{ID: assetUSDT, Symbol: "USDT", Name: "Tether"})

	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	clock := mocks.NewFixedClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	ids := mocks.NewSequentialIDGenerator("id")
	repos := store.Repositories()

	balances := usecase.NewBalanceStore(store.Balances, store.History, ids, clock, m)
	shifts := usecase.NewShiftUseCase(store.TxMgr, repos, ids, clock, m)
	orders := usecase.NewOrderUseCase(store.TxMgr, repos, balances, oracle, decimal.Zero, ids, clock, m)
	admin := usecase.NewAdminUseCase(store.TxMgr, repos, balances, oracle, decimal.Zero, ids, clock, m)
	transfers := usecase.NewTransferUseCase(store.TxMgr, repos, balances, ids, clock, m)
	queries := usecase.NewBalanceUseCase(store.Balances, store.History)

	cfg := RouterConfig{
		ShiftHandler:    handler.NewShiftHandler(shifts, orders),
		OrderHandler:    handler.NewOrderHandler(orders, queries),
		AdminHandler:    handler.NewAdminHandler(admin),
		TransferHandler: handler.NewTransferHandler(transfers),
		BalanceHandler:  handler.NewBalanceHandler(queries),
		ReportHandler:   handler.NewReportHandler(usecase.NewReportUseCase(repos)),
		LedgerHandler:   handler.NewLedgerHandler(usecase.NewReconciliationUseCase(store.History, clock, m)),
		HealthHandler:   handler.NewHealthHandler(nil, nil),
		AuthHandler:     handler.NewAuthHandler(),
		TokenVerifier:   auth.NewJWTManager("test-secret", time.Hour),
		Metrics:         m,
		Logger:          zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg, store
}

func newTestServer(t *testing.T, opts ...func(*RouterConfig)) *testServer {
	t.Helper()

	cfg, store := newRouterConfig(t, opts...)
	manager := auth.NewJWTManager("test-secret", time.Hour)

	serviceA := svcA
	adminToken, err := manager.Generate(&domain.User{ID: "u-admin", Login: "root", Role: domain.RoleAdmin})
	require.NoError(t, err)
	operatorToken, err := manager.Generate(&domain.User{ID: "u-op-a", Login: "anna", Role: domain.RoleOperator, ServiceID: &serviceA})
	require.NoError(t, err)

	return &testServer{
		router:   NewRouter(cfg),
		store:    store,
		jwt:      manager,
		admin:    adminToken,
		operator: operatorToken,
	}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewRouter_RequiresToken(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/api/v1/services/svc-a/balances", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNewRouter_ExchangeFlow(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/v1/services/svc-a/orders", srv.operator,
		`{"received_asset_id":"asset-usdt","received_amount":"100","given_asset_id":"asset-rub","given_amount":"8800"}`)
	require.Equal(t, http.StatusConflict, rec.Code, "orders need an open shift")

	rec = srv.do(t, http.MethodPost, "/api/v1/services/svc-a/shifts/start", srv.operator, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = srv.do(t, http.MethodPost, "/api/v1/services/svc-a/orders", srv.operator,
		`{"received_asset_id":"asset-usdt","received_amount":"100","given_asset_id":"asset-rub","given_amount":"8800"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var order struct {
		ID        string          `json:"id"`
		ProfitRUB decimal.Decimal `json:"profit_rub"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.True(t, order.ProfitRUB.Equal(decimal.NewFromInt(200)), "profit %s", order.ProfitRUB)

	rec = srv.do(t, http.MethodGet, "/api/v1/services/svc-a/balances/asset-rub", srv.operator, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var balance struct {
		Amount decimal.Decimal `json:"amount"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &balance))
	assert.True(t, balance.Amount.Equal(decimal.NewFromInt(-8800)))

	// Operators stay inside their service.
	rec = srv.do(t, http.MethodGet, "/api/v1/services/svc-b/balances", srv.operator, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/v1/ledger/reconcile", srv.operator, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, http.MethodDelete, "/api/v1/orders/"+order.ID, srv.operator, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = srv.do(t, http.MethodDelete, "/api/v1/orders/"+order.ID, srv.admin, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/v1/ledger/reconcile", srv.admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"consistent":true`)
	assert.True(t, srv.store.Amount(svcA, assetRUB).IsZero())
}

func TestNewRouter_StaticUserWhenAuthDisabled(t *testing.T) {
	srv := newTestServer(t, func(cfg *RouterConfig) {
		cfg.TokenVerifier = nil
	})

	rec := srv.do(t, http.MethodGet, "/api/v1/me", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"admin"`)
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(1, 1)
	srv := newTestServer(t, func(cfg *RouterConfig) {
		cfg.RateLimiter = rl
	})

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	srv.router.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	srv.router.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	srv := newTestServer(t, func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/services/svc-a/shifts/start", nil)
	req.Header.Set("Authorization", "Bearer "+srv.admin)
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	srv.router.ServeHTTP(rec, req)

	if store.checkedKey != "u-admin:key-123" {
		t.Fatalf("expected idempotency store to see a user-scoped key, got %q", store.checkedKey)
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	cfg, _ := newRouterConfig(t)
	router := NewRouter(cfg)

	chiRoutes, ok := router.(chi.Routes)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"POST /api/v1/services/{serviceID}/shifts/start",
		"POST /api/v1/services/{serviceID}/shifts/end",
		"GET /api/v1/services/{serviceID}/shifts/",
		"GET /api/v1/services/{serviceID}/shifts/current",
		"DELETE /api/v1/shifts/{id}/",
		"GET /api/v1/shifts/{id}/report",
		"GET /api/v1/services/{serviceID}/series",
		"POST /api/v1/services/{serviceID}/orders",
		"GET /api/v1/orders/{id}/",
		"PUT /api/v1/orders/{id}/",
		"DELETE /api/v1/orders/{id}/",
		"POST /api/v1/services/{serviceID}/admin-actions",
		"POST /api/v1/services/{serviceID}/manual-io",
		"PUT /api/v1/services/{serviceID}/balances/{assetID}",
		"GET /api/v1/services/{serviceID}/balances/",
		"GET /api/v1/services/{serviceID}/balances/{assetID}/history",
		"POST /api/v1/transfers",
		"GET /api/v1/ledger/reconcile",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

type stubIdempotencyStore struct {
	checkedKey string
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkedKey = key
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return nil
}
