package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/exledger/internal/domain"
	"github.com/iho/exledger/internal/usecase"
)

var (
	svcA = "svc-a"
	svcB = "svc-b"

	admin     = &domain.User{ID: "admin-1", Login: "root", Role: domain.RoleAdmin}
	operatorA = &domain.User{ID: "op-a", Login: "anna", Role: domain.RoleOperator, ServiceID: &svcA}
)

// newRequest builds a request carrying chi URL params and, when user is
// not nil, an authenticated user.
func newRequest(method, target, body string, user *domain.User, params map[string]string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if user != nil {
		ctx = domain.ContextWithUser(ctx, user)
	}
	return req.WithContext(ctx)
}

type shiftServiceStub struct {
	startFn   func(ctx context.Context, serviceID string, userID *string) (*usecase.StartShiftResult, error)
	endFn     func(ctx context.Context, serviceID string) (*domain.Shift, error)
	currentFn func(ctx context.Context, serviceID string) (*domain.Shift, error)
	deleteFn  func(ctx context.Context, actor *domain.User, shiftID string) (*domain.Shift, error)
	getFn     func(ctx context.Context, shiftID string) (*domain.Shift, error)
	listFn    func(ctx context.Context, serviceID string, limit, offset int) ([]*domain.Shift, error)
}

func (s *shiftServiceStub) Start(ctx context.Context, serviceID string, userID *string) (*usecase.StartShiftResult, error) {
	return s.startFn(ctx, serviceID, userID)
}

func (s *shiftServiceStub) End(ctx context.Context, serviceID string) (*domain.Shift, error) {
	return s.endFn(ctx, serviceID)
}

func (s *shiftServiceStub) CurrentOpen(ctx context.Context, serviceID string) (*domain.Shift, error) {
	return s.currentFn(ctx, serviceID)
}

func (s *shiftServiceStub) SoftDelete(ctx context.Context, actor *domain.User, shiftID string) (*domain.Shift, error) {
	return s.deleteFn(ctx, actor, shiftID)
}

func (s *shiftServiceStub) GetShift(ctx context.Context, shiftID string) (*domain.Shift, error) {
	return s.getFn(ctx, shiftID)
}

func (s *shiftServiceStub) ListShifts(ctx context.Context, serviceID string, limit, offset int) ([]*domain.Shift, error) {
	return s.listFn(ctx, serviceID, limit, offset)
}

type orderServiceStub struct {
	createFn  func(ctx context.Context, input usecase.CreateOrderInput) (*domain.Order, error)
	editFn    func(ctx context.Context, input usecase.EditOrderInput) (*domain.Order, error)
	reverseFn func(ctx context.Context, actor *domain.User, orderID string) ([]*domain.Order, error)
	getFn     func(ctx context.Context, id string) (*domain.Order, error)
	listFn    func(ctx context.Context, shiftID string) ([]*domain.Order, error)
}

func (s *orderServiceStub) CreateOrder(ctx context.Context, input usecase.CreateOrderInput) (*domain.Order, error) {
	return s.createFn(ctx, input)
}

func (s *orderServiceStub) EditOrder(ctx context.Context, input usecase.EditOrderInput) (*domain.Order, error) {
	return s.editFn(ctx, input)
}

func (s *orderServiceStub) ReverseOrder(ctx context.Context, actor *domain.User, orderID string) ([]*domain.Order, error) {
	return s.reverseFn(ctx, actor, orderID)
}

func (s *orderServiceStub) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.getFn(ctx, id)
}

func (s *orderServiceStub) ListShiftOrders(ctx context.Context, shiftID string) ([]*domain.Order, error) {
	return s.listFn(ctx, shiftID)
}

type adminServiceStub struct {
	actionFn func(ctx context.Context, input usecase.AdminActionInput) (*domain.Order, error)
	ioFn     func(ctx context.Context, input usecase.AdminActionInput) (*domain.Order, error)
	setFn    func(ctx context.Context, input usecase.SetBalanceInput) (*domain.Order, error)
}

func (s *adminServiceStub) CreateAdminAction(ctx context.Context, input usecase.AdminActionInput) (*domain.Order, error) {
	return s.actionFn(ctx, input)
}

func (s *adminServiceStub) CreateManualIO(ctx context.Context, input usecase.AdminActionInput) (*domain.Order, error) {
	return s.ioFn(ctx, input)
}

func (s *adminServiceStub) SetBalance(ctx context.Context, input usecase.SetBalanceInput) (*domain.Order, error) {
	return s.setFn(ctx, input)
}

type transferServiceStub struct {
	createFn func(ctx context.Context, input usecase.CreateTransferInput) (*usecase.TransferResult, error)
}

func (s *transferServiceStub) CreateTransfer(ctx context.Context, input usecase.CreateTransferInput) (*usecase.TransferResult, error) {
	return s.createFn(ctx, input)
}

type balanceServiceStub struct {
	listFn       func(ctx context.Context, serviceID string) ([]*domain.Balance, error)
	getFn        func(ctx context.Context, key domain.BalanceKey) (*domain.Balance, error)
	historyFn    func(ctx context.Context, input usecase.GetHistoryInput) ([]*domain.BalanceHistory, error)
	orderFn      func(ctx context.Context, orderID string) ([]*domain.BalanceHistory, error)
	historicalFn func(ctx context.Context, key domain.BalanceKey, at time.Time) (decimal.Decimal, error)
}

func (s *balanceServiceStub) ListBalances(ctx context.Context, serviceID string) ([]*domain.Balance, error) {
	return s.listFn(ctx, serviceID)
}

func (s *balanceServiceStub) GetBalance(ctx context.Context, key domain.BalanceKey) (*domain.Balance, error) {
	return s.getFn(ctx, key)
}

func (s *balanceServiceStub) GetHistory(ctx context.Context, input usecase.GetHistoryInput) ([]*domain.BalanceHistory, error) {
	return s.historyFn(ctx, input)
}

func (s *balanceServiceStub) GetOrderHistory(ctx context.Context, orderID string) ([]*domain.BalanceHistory, error) {
	return s.orderFn(ctx, orderID)
}

func (s *balanceServiceStub) GetHistoricalBalance(ctx context.Context, key domain.BalanceKey, at time.Time) (decimal.Decimal, error) {
	return s.historicalFn(ctx, key, at)
}

type reportServiceStub struct {
	shiftFn  func(ctx context.Context, shiftID string) (*usecase.ShiftReport, error)
	seriesFn func(ctx context.Context, serviceID string, from, to time.Time) ([]usecase.ShiftSummary, error)
}

func (s *reportServiceStub) GetShiftReport(ctx context.Context, shiftID string) (*usecase.ShiftReport, error) {
	return s.shiftFn(ctx, shiftID)
}

func (s *reportServiceStub) GetServiceTimeSeries(ctx context.Context, serviceID string, from, to time.Time) ([]usecase.ShiftSummary, error) {
	return s.seriesFn(ctx, serviceID, from, to)
}

type reconcilerStub struct {
	report *usecase.ReconciliationReport
	err    error
}

func (s *reconcilerStub) GenerateReconciliationReport(ctx context.Context) (*usecase.ReconciliationReport, error) {
	return s.report, s.err
}
