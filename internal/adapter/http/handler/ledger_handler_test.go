package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/iho/exledger/internal/adapter/http/dto"
	"github.com/iho/exledger/internal/usecase"
)

func TestLedgerHandler_Reconcile(t *testing.T) {
	t.Run("consistent", func(t *testing.T) {
		h := NewLedgerHandler(&reconcilerStub{report: &usecase.ReconciliationReport{TotalBalances: 3, ReconciledBalances: 3}})

		rec := httptest.NewRecorder()
		h.Reconcile(rec, newRequest(http.MethodGet, "/", "", admin, nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("discrepancy", func(t *testing.T) {
		h := NewLedgerHandler(&reconcilerStub{report: &usecase.ReconciliationReport{
			TotalBalances:      2,
			ReconciledBalances: 1,
			Discrepancies: []*usecase.ReconciliationResult{{
				ServiceID:         svcA,
				AssetID:           "rub",
				RecordedBalance:   decimal.NewFromInt(10),
				CalculatedBalance: decimal.NewFromInt(8),
				Difference:        decimal.NewFromInt(2),
			}},
		}})

		rec := httptest.NewRecorder()
		h.Reconcile(rec, newRequest(http.MethodGet, "/", "", admin, nil))

		var resp dto.ReconciliationResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if rec.Code != http.StatusConflict || resp.Consistent || len(resp.Discrepancies) != 1 {
			t.Fatalf("unexpected %d %+v", rec.Code, resp)
		}
	})

	t.Run("failure", func(t *testing.T) {
		h := NewLedgerHandler(&reconcilerStub{err: errors.New("db down")})

		rec := httptest.NewRecorder()
		h.Reconcile(rec, newRequest(http.MethodGet, "/", "", admin, nil))

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	h := NewHealthHandler(pingerFunc(func(ctx context.Context) error { return nil }), client)

	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("liveness: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("readiness: %d %s", rec.Code, rec.Body)
	}

	mr.Close()
	rec = httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 with redis down, got %d", rec.Code)
	}

	down := NewHealthHandler(pingerFunc(func(ctx context.Context) error { return errors.New("refused") }), nil)
	rec = httptest.NewRecorder()
	down.Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 with postgres down, got %d", rec.Code)
	}

	bare := NewHealthHandler(nil, nil)
	rec = httptest.NewRecorder()
	bare.Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 without dependencies, got %d", rec.Code)
	}
}

func TestAuthHandler_GetCurrentUser(t *testing.T) {
	h := NewAuthHandler()

	rec := httptest.NewRecorder()
	h.GetCurrentUser(rec, newRequest(http.MethodGet, "/", "", operatorA, nil))

	var resp dto.UserResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Code != http.StatusOK || resp.ID != operatorA.ID {
		t.Fatalf("unexpected %d %+v", rec.Code, resp)
	}

	rec = httptest.NewRecorder()
	h.GetCurrentUser(rec, newRequest(http.MethodGet, "/", "", nil, nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
