package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, service_id, user_id, shift_id, type, direction, received_asset_id, received_amount,
given_asset_id, given_amount, amount_rub, comment, category_id, transfer_group, received_rate_rub,
given_rate_rub, profit_rub, profit_percent, is_deleted, deleted_at, created_at, updated_at`

const createOrder = `-- name: CreateOrder :exec
INSERT INTO orders (` + orderColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
`

type CreateOrderParams struct {
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

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) error {
	_, err := q.db.Exec(ctx, createOrder,
		arg.ID,
		arg.ServiceID,
		arg.UserID,
		arg.ShiftID,
		arg.Type,
		arg.Direction,
		arg.ReceivedAssetID,
		arg.ReceivedAmount,
		arg.GivenAssetID,
		arg.GivenAmount,
		arg.AmountRub,
		arg.Comment,
		arg.CategoryID,
		arg.TransferGroup,
		arg.ReceivedRateRub,
		arg.GivenRateRub,
		arg.ProfitRub,
		arg.ProfitPercent,
		arg.IsDeleted,
		arg.DeletedAt,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getOrderByID = `-- name: GetOrderByID :one
SELECT ` + orderColumns + ` FROM orders WHERE id = $1
`

func (q *Queries) GetOrderByID(ctx context.Context, id string) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderByID, id))
}

const getOrderByIDForUpdate = `-- name: GetOrderByIDForUpdate :one
SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE
`

func (q *Queries) GetOrderByIDForUpdate(ctx context.Context, id string) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderByIDForUpdate, id))
}

const getOrdersByTransferGroupForUpdate = `-- name: GetOrdersByTransferGroupForUpdate :many
SELECT ` + orderColumns + ` FROM orders
WHERE transfer_group = $1
ORDER BY id
FOR UPDATE
`

func (q *Queries) GetOrdersByTransferGroupForUpdate(ctx context.Context, transferGroup pgtype.Text) ([]Order, error) {
	rows, err := q.db.Query(ctx, getOrdersByTransferGroupForUpdate, transferGroup)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Order
	for rows.Next() {
		i, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listOrdersByShifts = `-- name: ListOrdersByShifts :many
SELECT ` + orderColumns + ` FROM orders
WHERE shift_id = ANY($1::varchar[]) AND NOT is_deleted
ORDER BY created_at, id
`

func (q *Queries) ListOrdersByShifts(ctx context.Context, dollar_1 []string) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersByShifts, dollar_1)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Order
	for rows.Next() {
		i, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateOrder = `-- name: UpdateOrder :execrows
UPDATE orders SET
    received_asset_id = $2,
    received_amount = $3,
    given_asset_id = $4,
    given_amount = $5,
    amount_rub = $6,
    comment = $7,
    category_id = $8,
    received_rate_rub = $9,
    given_rate_rub = $10,
    profit_rub = $11,
    profit_percent = $12,
    is_deleted = $13,
    deleted_at = $14,
    updated_at = $15
WHERE id = $1
`

type UpdateOrderParams struct {
	ID              string             `json:"id"`
	ReceivedAssetID pgtype.Text        `json:"received_asset_id"`
	ReceivedAmount  pgtype.Numeric     `json:"received_amount"`
	GivenAssetID    pgtype.Text        `json:"given_asset_id"`
	GivenAmount     pgtype.Numeric     `json:"given_amount"`
	AmountRub       pgtype.Numeric     `json:"amount_rub"`
	Comment         string             `json:"comment"`
	CategoryID      pgtype.Text        `json:"category_id"`
	ReceivedRateRub pgtype.Numeric     `json:"received_rate_rub"`
	GivenRateRub    pgtype.Numeric     `json:"given_rate_rub"`
	ProfitRub       pgtype.Numeric     `json:"profit_rub"`
	ProfitPercent   pgtype.Numeric     `json:"profit_percent"`
	IsDeleted       bool               `json:"is_deleted"`
	DeletedAt       pgtype.Timestamptz `json:"deleted_at"`
	UpdatedAt       pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpdateOrder(ctx context.Context, arg UpdateOrderParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateOrder,
		arg.ID,
		arg.ReceivedAssetID,
		arg.ReceivedAmount,
		arg.GivenAssetID,
		arg.GivenAmount,
		arg.AmountRub,
		arg.Comment,
		arg.CategoryID,
		arg.ReceivedRateRub,
		arg.GivenRateRub,
		arg.ProfitRub,
		arg.ProfitPercent,
		arg.IsDeleted,
		arg.DeletedAt,
		arg.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

func scanOrder(row interface{ Scan(...any) error }) (Order, error) {
	var i Order
	err := row.Scan(
		&i.ID,
		&i.ServiceID,
		&i.UserID,
		&i.ShiftID,
		&i.Type,
		&i.Direction,
		&i.ReceivedAssetID,
		&i.ReceivedAmount,
		&i.GivenAssetID,
		&i.GivenAmount,
		&i.AmountRub,
		&i.Comment,
		&i.CategoryID,
		&i.TransferGroup,
		&i.ReceivedRateRub,
		&i.GivenRateRub,
		&i.ProfitRub,
		&i.ProfitPercent,
		&i.IsDeleted,
		&i.DeletedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
