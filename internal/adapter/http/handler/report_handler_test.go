package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/exledger/internal/adapter/http/dto"
	"github.com/iho/exledger/internal/domain"
	"github.com/iho/exledger/internal/usecase"
)

func TestReportHandler_ShiftReport(t *testing.T) {
	h := NewReportHandler(&reportServiceStub{
		shiftFn: func(ctx context.Context, shiftID string) (*usecase.ShiftReport, error) {
			return &usecase.ShiftReport{
				Shift: &domain.Shift{ID: shiftID, ServiceID: svcA},
				Orders: []usecase.ReportOrder{{
					Order:          &domain.Order{ID: "o-1", Type: domain.OrderTypeExchange},
					ReceivedSymbol: "USDT",
					GivenSymbol:    "RUB",
				}},
				Totals: usecase.ShiftTotals{
					OrderCount: 1,
					ProfitRUB:  decimal.NewFromInt(120),
					NetFlow:    map[string]decimal.Decimal{"USDT": decimal.NewFromInt(100)},
				},
			}, nil
		},
	})

	rec := httptest.NewRecorder()
	h.ShiftReport(rec, newRequest(http.MethodGet, "/", "", operatorA, map[string]string{"id": "s-1"}))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.ShiftReportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Orders, 1)
	assert.Equal(t, "USDT", resp.Orders[0].ReceivedSymbol)
	assert.Equal(t, "o-1", resp.Orders[0].ID)
	assert.True(t, resp.Totals.ProfitRUB.Equal(decimal.NewFromInt(120)))

	rec = httptest.NewRecorder()
	operatorB := &domain.User{ID: "op-b", Role: domain.RoleOperator, ServiceID: &svcB}
	h.ShiftReport(rec, newRequest(http.MethodGet, "/", "", operatorB, map[string]string{"id": "s-1"}))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestReportHandler_Series(t *testing.T) {
	var gotFrom, gotTo time.Time
	h := NewReportHandler(&reportServiceStub{
		seriesFn: func(ctx context.Context, serviceID string, from, to time.Time) ([]usecase.ShiftSummary, error) {
			gotFrom, gotTo = from, to
			return []usecase.ShiftSummary{{Shift: &domain.Shift{ID: "s-1"}}}, nil
		},
	})

	target := "/?from=2026-01-01T00:00:00Z&to=2026-02-01T00:00:00Z"
	rec := httptest.NewRecorder()
	h.Series(rec, newRequest(http.MethodGet, target, "", admin, map[string]string{"serviceID": svcA}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.January, gotFrom.Month())
	assert.Equal(t, time.February, gotTo.Month())

	var resp []dto.SeriesPointResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp, 1)
}

func TestReportHandler_SeriesRequiresRange(t *testing.T) {
	h := NewReportHandler(&reportServiceStub{})

	for _, target := range []string{"/", "/?from=2026-01-01T00:00:00Z", "/?from=yesterday&to=2026-01-01T00:00:00Z"} {
		rec := httptest.NewRecorder()
		h.Series(rec, newRequest(http.MethodGet, target, "", admin, map[string]string{"serviceID": svcA}))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestReportHandler_SeriesInvertedRange(t *testing.T) {
	h := NewReportHandler(&reportServiceStub{
		seriesFn: func(ctx context.Context, serviceID string, from, to time.Time) ([]usecase.ShiftSummary, error) {
			return nil, domain.ErrInvalidTimeRange
		},
	})

	target := "/?from=2026-02-01T00:00:00Z&to=2026-01-01T00:00:00Z"
	rec := httptest.NewRecorder()
	h.Series(rec, newRequest(http.MethodGet, target, "", admin, map[string]string{"serviceID": svcA}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
