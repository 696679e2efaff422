package generated

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Asset struct {
	ID         string             `json:"id"`
	Symbol     string             `json:"symbol"`
	Name       string             `json:"name"`
	PairSymbol pgtype.Text        `json:"pair_symbol"`
	ManualRate pgtype.Numeric     `json:"manual_rate"`
	CreatedAt  pgtype.Timestamptz `json:"created_at"`
}

type Balance struct {
	ServiceID string             `json:"service_id"`
	AssetID   string             `json:"asset_id"`
	Amount    pgtype.Numeric     `json:"amount"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

type BalanceHistory struct {
	ID        string             `json:"id"`
	ServiceID string             `json:"service_id"`
	AssetID   string             `json:"asset_id"`
	OrderID   pgtype.Text        `json:"order_id"`
	OldAmount pgtype.Numeric     `json:"old_amount"`
	NewAmount pgtype.Numeric     `json:"new_amount"`
	Change    pgtype.Numeric     `json:"change"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Order struct {
	ID              string             `json:"id"`
	ServiceID       string             `json:"service_id"`
	UserID          pgtype.Text        `json:"user_id"`
	ShiftID         pgtype.Text        `json:"shift_id"`
	Type            string             `json:"type"`
	Direction       pgtype.Text        `json:"direction"`
	ReceivedAssetID pgtype.Text        `json:"received_asset_id"`
	ReceivedAmount  pgtype.Numeric     `json:"received_amount"`
	GivenAssetID    pgtype.Text        `json:"given_asset_id"`
	GivenAmount     pgtype.Numeric     `json:"given_amount"`
	AmountRub       pgtype.Numeric     `json:"amount_rub"`
	Comment         string             `json:"comment"`
	CategoryID      pgtype.Text        `json:"category_id"`
	TransferGroup   pgtype.Text        `json:"transfer_group"`
	ReceivedRateRub pgtype.Numeric     `json:"received_rate_rub"`
	GivenRateRub    pgtype.Numeric     `json:"given_rate_rub"`
	ProfitRub       pgtype.Numeric     `json:"profit_rub"`
	ProfitPercent   pgtype.Numeric     `json:"profit_percent"`
	IsDeleted       bool               `json:"is_deleted"`
	DeletedAt       pgtype.Timestamptz `json:"deleted_at"`
	CreatedAt       pgtype.Timestamptz `json:"created_at"`
	UpdatedAt       pgtype.Timestamptz `json:"updated_at"`
}

type OutboxEvent struct {
	ID            string             `json:"id"`
	AggregateID   string             `json:"aggregate_id"`
	AggregateType string             `json:"aggregate_type"`
	EventType     string             `json:"event_type"`
	Payload       []byte             `json:"payload"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	PublishedAt   pgtype.Timestamptz `json:"published_at"`
	Published     bool               `json:"published"`
}

type Service struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

type Shift struct {
	ID        string             `json:"id"`
	ServiceID string             `json:"service_id"`
	Sequence  int64              `json:"sequence"`
	StartTime pgtype.Timestamptz `json:"start_time"`
	EndTime   pgtype.Timestamptz `json:"end_time"`
	OpenedBy  pgtype.Text        `json:"opened_by"`
	IsDeleted bool               `json:"is_deleted"`
}

type User struct {
	ID        string             `json:"id"`
	Login     string             `json:"login"`
	Name      string             `json:"name"`
	Role      string             `json:"role"`
	ServiceID pgtype.Text        `json:"service_id"`
	Active    bool               `json:"active"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}
