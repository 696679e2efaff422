package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/exledger/internal/adapter/http/dto"
	"github.com/iho/exledger/internal/domain"
	"github.com/iho/exledger/internal/usecase"
)

// BalanceHandler serves balances and their history.
type BalanceHandler struct {
	balances balanceService
}

// NewBalanceHandler creates a new BalanceHandler.
func NewBalanceHandler(balances balanceService) *BalanceHandler {
	return &BalanceHandler{balances: balances}
}

// List lists the balances of a service.
func (h *BalanceHandler) List(w http.ResponseWriter, r *http.Request) {
	serviceID := chi.URLParam(r, "serviceID")
	if _, ok := serviceUser(w, r, serviceID); !ok {
		return
	}

	balances, err := h.balances.ListBalances(r.Context(), serviceID)
	if err != nil {
		writeDomainError(w, "failed to list balances", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalancesFromDomain(balances))
}

// Get returns one balance. With ?at= it returns the amount as of that
// instant, rebuilt from the history.
func (h *BalanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := domain.BalanceKey{ServiceID: chi.URLParam(r, "serviceID"), AssetID: chi.URLParam(r, "assetID")}
	if _, ok := serviceUser(w, r, key.ServiceID); !ok {
		return
	}

	at, err := parseTimeQuery(r, "at")
	if err != nil {
		writeDomainError(w, "invalid query", err)
		return
	}

	if !at.IsZero() {
		amount, err := h.balances.GetHistoricalBalance(r.Context(), key, at)
		if err != nil {
			writeDomainError(w, "failed to get balance", err)
			return
		}
		writeJSON(w, http.StatusOK, &dto.BalanceResponse{
			ServiceID: key.ServiceID,
			AssetID:   key.AssetID,
			Amount:    amount,
			At:        &at,
		})
		return
	}

	balance, err := h.balances.GetBalance(r.Context(), key)
	if err != nil {
		writeDomainError(w, "failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromDomain(balance))
}

// History lists the changes of one balance, newest first.
func (h *BalanceHandler) History(w http.ResponseWriter, r *http.Request) {
	key := domain.BalanceKey{ServiceID: chi.URLParam(r, "serviceID"), AssetID: chi.URLParam(r, "assetID")}
	if _, ok := serviceUser(w, r, key.ServiceID); !ok {
		return
	}

	rows, err := h.balances.GetHistory(r.Context(), usecase.GetHistoryInput{
		Key:    key,
		Limit:  parseIntQuery(r, "limit", 20),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, "failed to list balance history", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.HistoryFromDomain(rows))
}
