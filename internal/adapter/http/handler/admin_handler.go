package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/exledger/internal/adapter/http/dto"
	"github.com/iho/exledger/internal/domain"
	"github.com/iho/exledger/internal/usecase"
)

// AdminHandler handles balance operations reserved for admins. Role checks
// happen in the use case.
type AdminHandler struct {
	admin adminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(admin adminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// AdminAction records a deposit or withdrawal.
func (h *AdminHandler) AdminAction(w http.ResponseWriter, r *http.Request) {
	h.signed(w, r, "failed to record admin action", h.admin.CreateAdminAction)
}

// ManualIO records a manual inflow or outflow.
func (h *AdminHandler) ManualIO(w http.ResponseWriter, r *http.Request) {
	h.signed(w, r, "failed to record manual io", h.admin.CreateManualIO)
}

func (h *AdminHandler) signed(
	w http.ResponseWriter,
	r *http.Request,
	failure string,
	create func(context.Context, usecase.AdminActionInput) (*domain.Order, error),
) {
	user, err := currentUser(r)
	if err != nil {
		writeDomainError(w, "access denied", err)
		return
	}

	var req dto.AdminActionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeDomainError(w, "invalid request", err)
		return
	}

	order, err := create(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "serviceID"), user))
	if err != nil {
		writeDomainError(w, failure, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.OrderFromDomain(order))
}

// SetBalance overwrites a balance, recording the change as an order.
func (h *AdminHandler) SetBalance(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeDomainError(w, "access denied", err)
		return
	}

	var req dto.SetBalanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeDomainError(w, "invalid request", err)
		return
	}

	input := req.ToUseCaseInput(chi.URLParam(r, "serviceID"), chi.URLParam(r, "assetID"), user)
	order, err := h.admin.SetBalance(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to set balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.OrderFromDomain(order))
}
