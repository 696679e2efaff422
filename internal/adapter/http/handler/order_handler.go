package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/exledger/internal/adapter/http/dto"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	orders   orderService
	balances balanceService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orders orderService, balances balanceService) *OrderHandler {
	return &OrderHandler{orders: orders, balances: balances}
}

// Create records an exchange on the open shift of the service.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	serviceID := chi.URLParam(r, "serviceID")
	user, ok := serviceUser(w, r, serviceID)
	if !ok {
		return
	}

	var req dto.CreateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	order, err := h.orders.CreateOrder(r.Context(), req.ToUseCaseInput(serviceID, user))
	if err != nil {
		writeDomainError(w, "failed to create order", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.OrderFromDomain(order))
}

// Get retrieves an order by ID.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get order", err)
		return
	}
	if _, ok := serviceUser(w, r, order.ServiceID); !ok {
		return
	}

	writeJSON(w, http.StatusOK, dto.OrderFromDomain(order))
}

// Edit replaces the legs of an exchange order.
func (h *OrderHandler) Edit(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeDomainError(w, "access denied", err)
		return
	}

	var req dto.EditOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	order, err := h.orders.EditOrder(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "id"), user))
	if err != nil {
		writeDomainError(w, "failed to edit order", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.OrderFromDomain(order))
}

// Reverse deletes an order and undoes its balance effect. Reversing a
// transfer leg reverses both legs.
func (h *OrderHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeDomainError(w, "access denied", err)
		return
	}

	reversed, err := h.orders.ReverseOrder(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to reverse order", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.OrdersFromDomain(reversed))
}

// History lists the balance changes an order produced.
func (h *OrderHandler) History(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get order", err)
		return
	}
	if _, ok := serviceUser(w, r, order.ServiceID); !ok {
		return
	}

	rows, err := h.balances.GetOrderHistory(r.Context(), order.ID)
	if err != nil {
		writeDomainError(w, "failed to get order history", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.HistoryFromDomain(rows))
}
