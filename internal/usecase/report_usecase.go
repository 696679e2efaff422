package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/exledger/internal/domain"
)

// ReportUseCase aggregates orders into shift reports. It never writes.
type ReportUseCase struct {
	repos   Repositories
	retrier Retrier
}

// NewReportUseCase creates a new ReportUseCase.
func NewReportUseCase(repos Repositories) *ReportUseCase {
	return &ReportUseCase{repos: repos}
}

// WithRetrier retries report queries on transient store errors.
func (uc *ReportUseCase) WithRetrier(r Retrier) *ReportUseCase {
	uc.retrier = r
	return uc
}

// ReportOrder is an order with its display names resolved.
type ReportOrder struct {
	Order          *domain.Order
	ReceivedSymbol string
	GivenSymbol    string
	OperatorName   string
}

// ShiftTotals are the aggregates of one shift.
type ShiftTotals struct {
	OrderCount    int
	ExchangeCount int
	ProfitRUB     decimal.Decimal
	// ProfitPercent is the sum of the per-order percents.
	ProfitPercent  decimal.Decimal
	AveragePercent decimal.Decimal
	// TurnoverRUB is the RUB value given out by exchanges.
	TurnoverRUB decimal.Decimal
	// NetFlow is received minus given per asset symbol.
	NetFlow map[string]decimal.Decimal
	// DirectionTotals sums the RUB amount of admin operations per direction.
	DirectionTotals map[domain.Direction]decimal.Decimal
}

// ShiftReport is the full report of one shift.
type ShiftReport struct {
	Shift  *domain.Shift
	Orders []ReportOrder
	Totals ShiftTotals
}

// ShiftSummary is one point of a service time series.
type ShiftSummary struct {
	Shift  *domain.Shift
	Totals ShiftTotals
}

// GetShiftReport reports on the non-deleted orders of a shift.
func (uc *ReportUseCase) GetShiftReport(ctx context.Context, shiftID string) (*ShiftReport, error) {
	var shift *domain.Shift
	err := uc.read(ctx, func() (err error) {
		shift, err = uc.repos.Shifts.GetByID(ctx, shiftID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if shift.IsDeleted {
		return nil, domain.ErrShiftNotFound
	}

	var orders []*domain.Order
	err = uc.read(ctx, func() (err error) {
		orders, err = uc.repos.Orders.ListByShifts(ctx, []string{shift.ID})
		return err
	})
	if err != nil {
		return nil, err
	}

	symbols, err := uc.symbols(ctx, orders)
	if err != nil {
		return nil, err
	}

	names, err := uc.operatorNames(ctx, orders)
	if err != nil {
		return nil, err
	}

	report := &ShiftReport{
		Shift:  shift,
		Orders: make([]ReportOrder, 0, len(orders)),
		Totals: aggregate(orders, symbols),
	}

	for _, o := range orders {
		ro := ReportOrder{
			Order:          o,
			ReceivedSymbol: symbols[o.ReceivedAssetID],
			GivenSymbol:    symbols[o.GivenAssetID],
		}
		if o.UserID != nil {
			ro.OperatorName = names[*o.UserID]
		}
		report.Orders = append(report.Orders, ro)
	}

	return report, nil
}

// GetServiceTimeSeries returns the non-deleted shifts of a service that
// overlap [from, to], oldest first, each with its totals.
func (uc *ReportUseCase) GetServiceTimeSeries(ctx context.Context, serviceID string, from, to time.Time) ([]ShiftSummary, error) {
	if err := domain.ValidateTimeRange(from, to); err != nil {
		return nil, err
	}

	if _, err := uc.repos.Services.GetByID(ctx, serviceID); err != nil {
		return nil, err
	}

	var shifts []*domain.Shift
	err := uc.read(ctx, func() (err error) {
		shifts, err = uc.repos.Shifts.ListOverlapping(ctx, serviceID, from, to)
		return err
	})
	if err != nil {
		return nil, err
	}

	live := make([]*domain.Shift, 0, len(shifts))
	ids := make([]string, 0, len(shifts))
	for _, s := range shifts {
		if s.IsDeleted {
			continue
		}
		live = append(live, s)
		ids = append(ids, s.ID)
	}

	sort.Slice(live, func(i, j int) bool { return live[i].StartTime.Before(live[j].StartTime) })

	var orders []*domain.Order
	if len(ids) > 0 {
		err = uc.read(ctx, func() (err error) {
			orders, err = uc.repos.Orders.ListByShifts(ctx, ids)
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	symbols, err := uc.symbols(ctx, orders)
	if err != nil {
		return nil, err
	}

	byShift := make(map[string][]*domain.Order, len(live))
	for _, o := range orders {
		if o.ShiftID != nil {
			byShift[*o.ShiftID] = append(byShift[*o.ShiftID], o)
		}
	}

	series := make([]ShiftSummary, 0, len(live))
	for _, s := range live {
		series = append(series, ShiftSummary{Shift: s, Totals: aggregate(byShift[s.ID], symbols)})
	}

	return series, nil
}

// aggregate totals orders. Deleted orders are skipped even if a store
// returned them.
func aggregate(orders []*domain.Order, symbols map[string]string) ShiftTotals {
	totals := ShiftTotals{
		ProfitRUB:       decimal.Zero,
		ProfitPercent:   decimal.Zero,
		AveragePercent:  decimal.Zero,
		TurnoverRUB:     decimal.Zero,
		NetFlow:         make(map[string]decimal.Decimal),
		DirectionTotals: make(map[domain.Direction]decimal.Decimal),
	}

	for _, o := range orders {
		if o.IsDeleted {
			continue
		}
		totals.OrderCount++

		if o.ReceivedAssetID != "" {
			sym := symbolOf(symbols, o.ReceivedAssetID)
			totals.NetFlow[sym] = totals.NetFlow[sym].Add(o.ReceivedAmount)
		}
		if o.GivenAssetID != "" {
			sym := symbolOf(symbols, o.GivenAssetID)
			totals.NetFlow[sym] = totals.NetFlow[sym].Sub(o.GivenAmount)
		}

		switch o.Type {
		case domain.OrderTypeExchange:
			totals.ExchangeCount++
			totals.ProfitRUB = totals.ProfitRUB.Add(o.ProfitRUB)
			totals.ProfitPercent = totals.ProfitPercent.Add(o.ProfitPercent)
			totals.TurnoverRUB = totals.TurnoverRUB.Add(o.AmountRUB)
		case domain.OrderTypeAdminAction, domain.OrderTypeAdminIO:
			totals.DirectionTotals[o.Direction] = totals.DirectionTotals[o.Direction].Add(o.AmountRUB)
		}
	}

	if totals.ExchangeCount > 0 {
		totals.AveragePercent = totals.ProfitPercent.Div(decimal.NewFromInt(int64(totals.ExchangeCount))).Round(2)
	}

	return totals
}

func symbolOf(symbols map[string]string, assetID string) string {
	if s, ok := symbols[assetID]; ok && s != "" {
		return s
	}
	return assetID
}

func (uc *ReportUseCase) symbols(ctx context.Context, orders []*domain.Order) (map[string]string, error) {
	seen := make(map[string]bool)
	var ids []string
	for _, o := range orders {
		for _, id := range []string{o.ReceivedAssetID, o.GivenAssetID} {
			if id != "" && !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	symbols := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return symbols, nil
	}

	var assets map[string]*domain.Asset
	err := uc.read(ctx, func() (err error) {
		assets, err = uc.repos.Assets.GetByIDs(ctx, ids)
		return err
	})
	if err != nil {
		return nil, err
	}

	for id, a := range assets {
		symbols[id] = a.Symbol
	}
	return symbols, nil
}

func (uc *ReportUseCase) operatorNames(ctx context.Context, orders []*domain.Order) (map[string]string, error) {
	seen := make(map[string]bool)
	var ids []string
	for _, o := range orders {
		if o.UserID != nil && !seen[*o.UserID] {
			seen[*o.UserID] = true
			ids = append(ids, *o.UserID)
		}
	}

	names := make(map[string]string, len(ids))
	if len(ids) == 0 || uc.repos.Users == nil {
		return names, nil
	}

	var users map[string]*domain.User
	err := uc.read(ctx, func() (err error) {
		users, err = uc.repos.Users.GetByIDs(ctx, ids)
		return err
	})
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	for id, u := range users {
		names[id] = u.Name
		if names[id] == "" {
			names[id] = u.Login
		}
	}
	return names, nil
}

func (uc *ReportUseCase) read(ctx context.Context, op func() error) error {
	if uc.retrier == nil {
		return op()
	}
	return uc.retrier.Retry(ctx, op)
}
