package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/exledger/internal/adapter/http/dto"
	"github.com/iho/exledger/internal/domain"
)

// ReportHandler serves shift reports and per-service time series.
type ReportHandler struct {
	reports reportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// ShiftReport reports on one shift.
func (h *ReportHandler) ShiftReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.GetShiftReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to build shift report", err)
		return
	}
	if _, ok := serviceUser(w, r, report.Shift.ServiceID); !ok {
		return
	}

	writeJSON(w, http.StatusOK, dto.ShiftReportFromUseCase(report))
}

// Series reports per-shift totals of a service for ?from=&to=.
func (h *ReportHandler) Series(w http.ResponseWriter, r *http.Request) {
	serviceID := chi.URLParam(r, "serviceID")
	if _, ok := serviceUser(w, r, serviceID); !ok {
		return
	}

	from, err := parseTimeQuery(r, "from")
	if err != nil {
		writeDomainError(w, "invalid query", err)
		return
	}
	to, err := parseTimeQuery(r, "to")
	if err != nil {
		writeDomainError(w, "invalid query", err)
		return
	}
	if from.IsZero() || to.IsZero() {
		writeDomainError(w, "invalid query", domain.ErrInvalidTimeRange)
		return
	}

	series, err := h.reports.GetServiceTimeSeries(r.Context(), serviceID, from, to)
	if err != nil {
		writeDomainError(w, "failed to build time series", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SeriesFromUseCase(series))
}
