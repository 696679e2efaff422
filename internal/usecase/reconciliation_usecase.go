package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/exledger/internal/domain"
	"github.com/iho/exledger/internal/infrastructure/metrics"
)

var (
	// ErrInconsistentLedger is returned when a balance does not reduce to its history.
	ErrInconsistentLedger = errors.New("ledger is inconsistent: balance differs from its history")
)

// ReconciliationUseCase checks that every balance equals the sum of its
// history changes.
type ReconciliationUseCase struct {
	historyRepo BalanceHistoryRepository
	clock       Clock
	metrics     *metrics.Metrics
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(historyRepo BalanceHistoryRepository, clock Clock, metrics *metrics.Metrics) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		historyRepo: historyRepo,
		clock:       clock,
		metrics:     metrics,
	}
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	ServiceID         string
	AssetID           string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	IsReconciled      bool
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	TotalBalances      int
	ReconciledBalances int
	Discrepancies      []*ReconciliationResult
	CheckedAt          time.Time
}

// Consistent reports whether no discrepancy was found.
func (r *ReconciliationReport) Consistent() bool {
	return len(r.Discrepancies) == 0
}

// GenerateReconciliationReport compares every balance with its history.
func (uc *ReconciliationUseCase) GenerateReconciliationReport(ctx context.Context) (*ReconciliationReport, error) {
	totals, err := uc.historyRepo.Totals(ctx)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		TotalBalances: len(totals),
		Discrepancies: make([]*ReconciliationResult, 0),
		CheckedAt:     uc.clock.Now(),
	}

	for _, t := range totals {
		result := &ReconciliationResult{
			ServiceID:         t.Key.ServiceID,
			AssetID:           t.Key.AssetID,
			RecordedBalance:   t.Amount,
			CalculatedBalance: t.HistorySum,
			Difference:        t.Amount.Sub(t.HistorySum),
		}
		result.IsReconciled = result.Difference.IsZero()

		if result.IsReconciled {
			report.ReconciledBalances++
		} else {
			report.Discrepancies = append(report.Discrepancies, result)
		}
	}

	sort.Slice(report.Discrepancies, func(i, j int) bool {
		a, b := report.Discrepancies[i], report.Discrepancies[j]
		return domain.BalanceKey{ServiceID: a.ServiceID, AssetID: a.AssetID}.
			Less(domain.BalanceKey{ServiceID: b.ServiceID, AssetID: b.AssetID})
	})

	if uc.metrics != nil {
		uc.metrics.BalanceDiscrepancies.Set(float64(len(report.Discrepancies)))
	}

	return report, nil
}

// CheckLedgerConsistency returns ErrInconsistentLedger when any balance
// is off.
func (uc *ReconciliationUseCase) CheckLedgerConsistency(ctx context.Context) error {
	report, err := uc.GenerateReconciliationReport(ctx)
	if err != nil {
		return err
	}

	if !report.Consistent() {
		first := report.Discrepancies[0]
		return fmt.Errorf(
			"%w: %d balances off, first service=%s asset=%s recorded=%s history=%s",
			ErrInconsistentLedger,
			len(report.Discrepancies),
			first.ServiceID,
			first.AssetID,
			first.RecordedBalance.String(),
			first.CalculatedBalance.String(),
		)
	}

	return nil
}
