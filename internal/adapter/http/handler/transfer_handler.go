package handler

import (
	"net/http"

	"github.com/iho/exledger/internal/adapter/http/dto"
)

// TransferHandler handles transfer-related HTTP requests.
type TransferHandler struct {
	transfers transferService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transfers transferService) *TransferHandler {
	return &TransferHandler{transfers: transfers}
}

// Create moves an asset from one service to another.
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeDomainError(w, "access denied", err)
		return
	}

	var req dto.CreateTransferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeDomainError(w, "invalid request", err)
		return
	}

	result, err := h.transfers.CreateTransfer(r.Context(), req.ToUseCaseInput(user))
	if err != nil {
		writeDomainError(w, "failed to create transfer", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransferFromResult(result))
}
