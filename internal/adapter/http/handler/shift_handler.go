package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/exledger/internal/adapter/http/dto"
)

// ShiftHandler handles shift-related HTTP requests.
type ShiftHandler struct {
	shifts shiftService
	orders orderService
}

// NewShiftHandler creates a new ShiftHandler.
func NewShiftHandler(shifts shiftService, orders orderService) *ShiftHandler {
	return &ShiftHandler{shifts: shifts, orders: orders}
}

// Start opens a new shift, closing the one still open.
func (h *ShiftHandler) Start(w http.ResponseWriter, r *http.Request) {
	serviceID := chi.URLParam(r, "serviceID")
	user, ok := serviceUser(w, r, serviceID)
	if !ok {
		return
	}

	userID := user.ID
	result, err := h.shifts.Start(r.Context(), serviceID, &userID)
	if err != nil {
		writeDomainError(w, "failed to start shift", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.StartShiftResponse{
		Shift:  dto.ShiftFromDomain(result.Shift),
		Closed: dto.ShiftFromDomain(result.Closed),
	})
}

// End closes the open shift of the service.
func (h *ShiftHandler) End(w http.ResponseWriter, r *http.Request) {
	serviceID := chi.URLParam(r, "serviceID")
	if _, ok := serviceUser(w, r, serviceID); !ok {
		return
	}

	shift, err := h.shifts.End(r.Context(), serviceID)
	if err != nil {
		writeDomainError(w, "failed to end shift", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ShiftFromDomain(shift))
}

// Current returns the open shift of the service; "shift" is null when
// none is open.
func (h *ShiftHandler) Current(w http.ResponseWriter, r *http.Request) {
	serviceID := chi.URLParam(r, "serviceID")
	if _, ok := serviceUser(w, r, serviceID); !ok {
		return
	}

	shift, err := h.shifts.CurrentOpen(r.Context(), serviceID)
	if err != nil {
		writeDomainError(w, "failed to get current shift", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]*dto.ShiftResponse{"shift": dto.ShiftFromDomain(shift)})
}

// List lists the shifts of a service, newest first.
func (h *ShiftHandler) List(w http.ResponseWriter, r *http.Request) {
	serviceID := chi.URLParam(r, "serviceID")
	if _, ok := serviceUser(w, r, serviceID); !ok {
		return
	}

	shifts, err := h.shifts.ListShifts(r.Context(), serviceID, parseIntQuery(r, "limit", 50), parseIntQuery(r, "offset", 0))
	if err != nil {
		writeDomainError(w, "failed to list shifts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ShiftsFromDomain(shifts))
}

// Delete soft-deletes a closed shift.
func (h *ShiftHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeDomainError(w, "access denied", err)
		return
	}

	shift, err := h.shifts.SoftDelete(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to delete shift", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ShiftFromDomain(shift))
}

// Orders lists the live orders of a shift.
func (h *ShiftHandler) Orders(w http.ResponseWriter, r *http.Request) {
	shift, err := h.shifts.GetShift(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get shift", err)
		return
	}
	if _, ok := serviceUser(w, r, shift.ServiceID); !ok {
		return
	}

	orders, err := h.orders.ListShiftOrders(r.Context(), shift.ID)
	if err != nil {
		writeDomainError(w, "failed to list orders", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.OrdersFromDomain(orders))
}
