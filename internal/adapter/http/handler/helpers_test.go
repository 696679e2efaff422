package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/iho/exledger/internal/adapter/http/dto"
	"github.com/iho/exledger/internal/domain"
)

func TestParseIntQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/shifts?limit=50", nil)
	if got := parseIntQuery(req, "limit", 10); got != 50 {
		t.Fatalf("expected limit=50, got %d", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/shifts?limit=invalid", nil)
	if got := parseIntQuery(req, "limit", 10); got != 10 {
		t.Fatalf("expected fallback to default, got %d", got)
	}

	req.URL = &url.URL{RawQuery: ""}
	if got := parseIntQuery(req, "limit", 25); got != 25 {
		t.Fatalf("expected default when missing, got %d", got)
	}
}

func TestParseTimeQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x?at=2026-03-01T10:00:00Z&bad=yesterday", nil)

	at, err := parseTimeQuery(req, "at")
	if err != nil || at.Hour() != 10 {
		t.Fatalf("parse at: %v %v", at, err)
	}

	if _, err := parseTimeQuery(req, "bad"); !errors.Is(err, domain.ErrInvalidTimeRange) {
		t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
	}

	missing, err := parseTimeQuery(req, "missing")
	if err != nil || !missing.IsZero() {
		t.Fatalf("expected zero time for missing param, got %v %v", missing, err)
	}
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"order not found", domain.ErrOrderNotFound, http.StatusNotFound},
		{"wrapped shift not found", fmt.Errorf("load: %w", domain.ErrShiftNotFound), http.StatusNotFound},
		{"service not found", domain.ErrServiceNotFound, http.StatusNotFound},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized},
		{"already deleted", domain.ErrAlreadyDeleted, http.StatusConflict},
		{"inconsistent transfer", domain.ErrInconsistentTransfer, http.StatusConflict},
		{"no active shift", domain.ErrNoActiveShift, http.StatusConflict},
		{"rate unavailable", domain.ErrRateUnavailable, http.StatusUnprocessableEntity},
		{"unreliable rate", domain.ErrUnreliableRate, http.StatusUnprocessableEntity},
		{"non-positive amount", domain.ErrNonPositiveAmount, http.StatusBadRequest},
		{"same service", domain.ErrSameService, http.StatusBadRequest},
		{"invalid direction", domain.ErrInvalidDirection, http.StatusBadRequest},
		{"missing field", dto.ErrMissingField, http.StatusBadRequest},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapDomainError(tt.err); got != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestWriteDomainErrorHidesInternalDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	writeDomainError(rr, "failed", errors.New("pq: password authentication failed"))

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rr.Code != http.StatusInternalServerError || resp.Message != "" {
		t.Fatalf("internal details leaked: %d %+v", rr.Code, resp)
	}
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	payload := map[string]string{"status": "ok"}

	writeJSON(rr, http.StatusCreated, payload)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}

	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected content-type application/json, got %s", ct)
	}

	var decoded map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if decoded["status"] != "ok" {
		t.Fatalf("expected payload to round-trip, got %+v", decoded)
	}
}

func TestAuthorizeService(t *testing.T) {
	if err := authorizeService(admin, svcB); err != nil {
		t.Fatalf("admin must reach any service: %v", err)
	}
	if err := authorizeService(operatorA, svcA); err != nil {
		t.Fatalf("operator must reach own service: %v", err)
	}
	if err := authorizeService(operatorA, svcB); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
