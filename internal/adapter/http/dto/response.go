package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/exledger/internal/domain"
	"github.com/iho/exledger/internal/usecase"
)

// ShiftResponse represents a shift in API responses.
type ShiftResponse struct {
	ID        string     `json:"id"`
	ServiceID string     `json:"service_id"`
	Sequence  int64      `json:"sequence"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	OpenedBy  *string    `json:"opened_by,omitempty"`
	IsOpen    bool       `json:"is_open"`
	IsDeleted bool       `json:"is_deleted"`
}

// ShiftFromDomain converts a domain shift to a response. A nil shift
// stays nil.
func ShiftFromDomain(s *domain.Shift) *ShiftResponse {
	if s == nil {
		return nil
	}
	return &ShiftResponse{
		ID:        s.ID,
		ServiceID: s.ServiceID,
		Sequence:  s.Sequence,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		OpenedBy:  s.OpenedBy,
		IsOpen:    s.IsOpen(),
		IsDeleted: s.IsDeleted,
	}
}

// ShiftsFromDomain converts domain shifts to responses.
func ShiftsFromDomain(shifts []*domain.Shift) []*ShiftResponse {
	result := make([]*ShiftResponse, len(shifts))
	for i, s := range shifts {
		result[i] = ShiftFromDomain(s)
	}
	return result
}

// StartShiftResponse is the new shift and the shift it closed, if any.
type StartShiftResponse struct {
	Shift  *ShiftResponse `json:"shift"`
	Closed *ShiftResponse `json:"closed,omitempty"`
}

// OrderResponse represents an order in API responses.
type OrderResponse struct {
	ID              string           `json:"id"`
	ServiceID       string           `json:"service_id"`
	UserID          *string          `json:"user_id,omitempty"`
	ShiftID         *string          `json:"shift_id,omitempty"`
	Type            domain.OrderType `json:"type"`
	Direction       domain.Direction `json:"direction,omitempty"`
	ReceivedAssetID string           `json:"received_asset_id,omitempty"`
	ReceivedAmount  decimal.Decimal  `json:"received_amount"`
	GivenAssetID    string           `json:"given_asset_id,omitempty"`
	GivenAmount     decimal.Decimal  `json:"given_amount"`
	AmountRUB       decimal.Decimal  `json:"amount_rub"`
	Comment         string           `json:"comment,omitempty"`
	CategoryID      *string          `json:"category_id,omitempty"`
	TransferGroup   *string          `json:"transfer_group,omitempty"`
	ReceivedRateRUB *decimal.Decimal `json:"received_rate_rub,omitempty"`
	GivenRateRUB    *decimal.Decimal `json:"given_rate_rub,omitempty"`
	ProfitRUB       decimal.Decimal  `json:"profit_rub"`
	ProfitPercent   decimal.Decimal  `json:"profit_percent"`
	IsDeleted       bool             `json:"is_deleted"`
	DeletedAt       *time.Time       `json:"deleted_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

func nullDecimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

// OrderFromDomain converts a domain order to a response.
func OrderFromDomain(o *domain.Order) *OrderResponse {
	return &OrderResponse{
		ID:              o.ID,
		ServiceID:       o.ServiceID,
		UserID:          o.UserID,
		ShiftID:         o.ShiftID,
		Type:            o.Type,
		Direction:       o.Direction,
		ReceivedAssetID: o.ReceivedAssetID,
		ReceivedAmount:  o.ReceivedAmount,
		GivenAssetID:    o.GivenAssetID,
		GivenAmount:     o.GivenAmount,
		AmountRUB:       o.AmountRUB,
		Comment:         o.Comment,
		CategoryID:      o.CategoryID,
		TransferGroup:   o.TransferGroup,
		ReceivedRateRUB: nullDecimalPtr(o.ReceivedRateRUB),
		GivenRateRUB:    nullDecimalPtr(o.GivenRateRUB),
		ProfitRUB:       o.ProfitRUB,
		ProfitPercent:   o.ProfitPercent,
		IsDeleted:       o.IsDeleted,
		DeletedAt:       o.DeletedAt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

// OrdersFromDomain converts domain orders to responses.
func OrdersFromDomain(orders []*domain.Order) []*OrderResponse {
	result := make([]*OrderResponse, len(orders))
	for i, o := range orders {
		result[i] = OrderFromDomain(o)
	}
	return result
}

// TransferResponse represents both legs of a transfer.
type TransferResponse struct {
	Group    string         `json:"transfer_group"`
	Outgoing *OrderResponse `json:"outgoing"`
	Incoming *OrderResponse `json:"incoming"`
}

// TransferFromResult converts a transfer result to a response.
func TransferFromResult(r *usecase.TransferResult) *TransferResponse {
	return &TransferResponse{
		Group:    r.Group,
		Outgoing: OrderFromDomain(r.Outgoing),
		Incoming: OrderFromDomain(r.Incoming),
	}
}

// BalanceResponse represents a balance in API responses.
type BalanceResponse struct {
	ServiceID string          `json:"service_id"`
	AssetID   string          `json:"asset_id"`
	Amount    decimal.Decimal `json:"amount"`
	UpdatedAt time.Time       `json:"updated_at"`
	// At is set when the amount was read as of a past instant.
	At *time.Time `json:"at,omitempty"`
}

// BalanceFromDomain converts a domain balance to a response.
func BalanceFromDomain(b *domain.Balance) *BalanceResponse {
	return &BalanceResponse{
		ServiceID: b.ServiceID,
		AssetID:   b.AssetID,
		Amount:    b.Amount,
		UpdatedAt: b.UpdatedAt,
	}
}

// BalancesFromDomain converts domain balances to responses.
func BalancesFromDomain(balances []*domain.Balance) []*BalanceResponse {
	result := make([]*BalanceResponse, len(balances))
	for i, b := range balances {
		result[i] = BalanceFromDomain(b)
	}
	return result
}

// BalanceHistoryResponse represents one balance change.
type BalanceHistoryResponse struct {
	ID        string          `json:"id"`
	ServiceID string          `json:"service_id"`
	AssetID   string          `json:"asset_id"`
	OrderID   *string         `json:"order_id,omitempty"`
	OldAmount decimal.Decimal `json:"old_amount"`
	NewAmount decimal.Decimal `json:"new_amount"`
	Change    decimal.Decimal `json:"change"`
	CreatedAt time.Time       `json:"created_at"`
}

// HistoryFromDomain converts history rows to responses.
func HistoryFromDomain(rows []*domain.BalanceHistory) []*BalanceHistoryResponse {
	result := make([]*BalanceHistoryResponse, len(rows))
	for i, h := range rows {
		result[i] = &BalanceHistoryResponse{
			ID:        h.ID,
			ServiceID: h.ServiceID,
			AssetID:   h.AssetID,
			OrderID:   h.OrderID,
			OldAmount: h.OldAmount,
			NewAmount: h.NewAmount,
			Change:    h.Change,
			CreatedAt: h.CreatedAt,
		}
	}
	return result
}

// TotalsResponse is the aggregate block of a shift report.
type TotalsResponse struct {
	OrderCount      int                        `json:"order_count"`
	ExchangeCount   int                        `json:"exchange_count"`
	ProfitRUB       decimal.Decimal            `json:"profit_rub"`
	ProfitPercent   decimal.Decimal            `json:"profit_percent"`
	AveragePercent  decimal.Decimal            `json:"average_percent"`
	TurnoverRUB     decimal.Decimal            `json:"turnover_rub"`
	NetFlow         map[string]decimal.Decimal `json:"net_flow"`
	DirectionTotals map[string]decimal.Decimal `json:"direction_totals"`
}

// TotalsFromUseCase converts report totals to a response.
func TotalsFromUseCase(t usecase.ShiftTotals) TotalsResponse {
	resp := TotalsResponse{
		OrderCount:      t.OrderCount,
		ExchangeCount:   t.ExchangeCount,
		ProfitRUB:       t.ProfitRUB,
		ProfitPercent:   t.ProfitPercent,
		AveragePercent:  t.AveragePercent,
		TurnoverRUB:     t.TurnoverRUB,
		NetFlow:         make(map[string]decimal.Decimal, len(t.NetFlow)),
		DirectionTotals: make(map[string]decimal.Decimal, len(t.DirectionTotals)),
	}
	for sym, v := range t.NetFlow {
		resp.NetFlow[sym] = v
	}
	for dir, v := range t.DirectionTotals {
		resp.DirectionTotals[string(dir)] = v
	}
	return resp
}

// ReportOrderResponse is an order line of a shift report.
type ReportOrderResponse struct {
	*OrderResponse
	ReceivedSymbol string `json:"received_symbol,omitempty"`
	GivenSymbol    string `json:"given_symbol,omitempty"`
	OperatorName   string `json:"operator_name,omitempty"`
}

// ShiftReportResponse represents a full shift report.
type ShiftReportResponse struct {
	Shift  *ShiftResponse         `json:"shift"`
	Orders []*ReportOrderResponse `json:"orders"`
	Totals TotalsResponse         `json:"totals"`
}

// ShiftReportFromUseCase converts a shift report to a response.
func ShiftReportFromUseCase(r *usecase.ShiftReport) *ShiftReportResponse {
	orders := make([]*ReportOrderResponse, len(r.Orders))
	for i, o := range r.Orders {
		orders[i] = &ReportOrderResponse{
			OrderResponse:  OrderFromDomain(o.Order),
			ReceivedSymbol: o.ReceivedSymbol,
			GivenSymbol:    o.GivenSymbol,
			OperatorName:   o.OperatorName,
		}
	}
	return &ShiftReportResponse{
		Shift:  ShiftFromDomain(r.Shift),
		Orders: orders,
		Totals: TotalsFromUseCase(r.Totals),
	}
}

// SeriesPointResponse is one shift of a service time series.
type SeriesPointResponse struct {
	Shift  *ShiftResponse `json:"shift"`
	Totals TotalsResponse `json:"totals"`
}

// SeriesFromUseCase converts a time series to a response.
func SeriesFromUseCase(series []usecase.ShiftSummary) []*SeriesPointResponse {
	result := make([]*SeriesPointResponse, len(series))
	for i, s := range series {
		result[i] = &SeriesPointResponse{
			Shift:  ShiftFromDomain(s.Shift),
			Totals: TotalsFromUseCase(s.Totals),
		}
	}
	return result
}

// DiscrepancyResponse is a balance that disagrees with its history.
type DiscrepancyResponse struct {
	ServiceID         string          `json:"service_id"`
	AssetID           string          `json:"asset_id"`
	RecordedBalance   decimal.Decimal `json:"recorded_balance"`
	CalculatedBalance decimal.Decimal `json:"calculated_balance"`
	Difference        decimal.Decimal `json:"difference"`
}

// ReconciliationResponse represents a reconciliation report.
type ReconciliationResponse struct {
	Consistent         bool                   `json:"consistent"`
	TotalBalances      int                    `json:"total_balances"`
	ReconciledBalances int                    `json:"reconciled_balances"`
	Discrepancies      []*DiscrepancyResponse `json:"discrepancies"`
	CheckedAt          time.Time              `json:"checked_at"`
}

// ReconciliationFromUseCase converts a reconciliation report to a response.
func ReconciliationFromUseCase(r *usecase.ReconciliationReport) *ReconciliationResponse {
	resp := &ReconciliationResponse{
		Consistent:         r.Consistent(),
		TotalBalances:      r.TotalBalances,
		ReconciledBalances: r.ReconciledBalances,
		Discrepancies:      make([]*DiscrepancyResponse, len(r.Discrepancies)),
		CheckedAt:          r.CheckedAt,
	}
	for i, d := range r.Discrepancies {
		resp.Discrepancies[i] = &DiscrepancyResponse{
			ServiceID:         d.ServiceID,
			AssetID:           d.AssetID,
			RecordedBalance:   d.RecordedBalance,
			CalculatedBalance: d.CalculatedBalance,
			Difference:        d.Difference,
		}
	}
	return resp
}

// UserResponse represents the authenticated user.
type UserResponse struct {
	ID        string      `json:"id"`
	Login     string      `json:"login"`
	Name      string      `json:"name,omitempty"`
	Role      domain.Role `json:"role"`
	ServiceID *string     `json:"service_id,omitempty"`
}

// UserFromDomain converts a domain user to a response.
func UserFromDomain(u *domain.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Login:     u.Login,
		Name:      u.Name,
		Role:      u.Role,
		ServiceID: u.ServiceID,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
