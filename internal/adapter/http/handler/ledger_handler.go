package handler

import (
	"net/http"

	"github.com/iho/exledger/internal/adapter/http/dto"
)

// LedgerHandler handles ledger-wide operations.
type LedgerHandler struct {
	recon reconciler
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(recon reconciler) *LedgerHandler {
	return &LedgerHandler{recon: recon}
}

// Reconcile compares every balance with the sum of its history. An
// inconsistent ledger answers 409 with the discrepancies.
func (h *LedgerHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.recon.GenerateReconciliationReport(r.Context())
	if err != nil {
		writeDomainError(w, "failed to reconcile ledger", err)
		return
	}

	status := http.StatusOK
	if !report.Consistent() {
		status = http.StatusConflict
	}

	writeJSON(w, status, dto.ReconciliationFromUseCase(report))
}
