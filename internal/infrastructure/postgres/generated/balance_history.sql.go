package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createBalanceHistory = `-- name: CreateBalanceHistory :exec
INSERT INTO balance_history (id, service_id, asset_id, order_id, old_amount, new_amount, change, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

type CreateBalanceHistoryParams struct {
	ID        string             `json:"id"`
	ServiceID string             `json:"service_id"`
	AssetID   string             `json:"asset_id"`
	OrderID   pgtype.Text        `json:"order_id"`
	OldAmount pgtype.Numeric     `json:"old_amount"`
	NewAmount pgtype.Numeric     `json:"new_amount"`
	Change    pgtype.Numeric     `json:"change"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) CreateBalanceHistory(ctx context.Context, arg CreateBalanceHistoryParams) error {
	_, err := q.db.Exec(ctx, createBalanceHistory,
		arg.ID,
		arg.ServiceID,
		arg.AssetID,
		arg.OrderID,
		arg.OldAmount,
		arg.NewAmount,
		arg.Change,
		arg.CreatedAt,
	)
	return err
}

const getBalanceAtTime = `-- name: GetBalanceAtTime :one
SELECT COALESCE(SUM(change), 0)::numeric AS balance
FROM balance_history
WHERE service_id = $1 AND asset_id = $2 AND created_at <= $3
`

type GetBalanceAtTimeParams struct {
	ServiceID string             `json:"service_id"`
	AssetID   string             `json:"asset_id"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) GetBalanceAtTime(ctx context.Context, arg GetBalanceAtTimeParams) (pgtype.Numeric, error) {
	row := q.db.QueryRow(ctx, getBalanceAtTime, arg.ServiceID, arg.AssetID, arg.CreatedAt)
	var balance pgtype.Numeric
	err := row.Scan(&balance)
	return balance, err
}

const listBalanceHistory = `-- name: ListBalanceHistory :many
SELECT id, service_id, asset_id, order_id, old_amount, new_amount, change, created_at
FROM balance_history
WHERE service_id = $1 AND asset_id = $2
ORDER BY created_at DESC, id DESC
LIMIT $3 OFFSET $4
`

type ListBalanceHistoryParams struct {
	ServiceID string `json:"service_id"`
	AssetID   string `json:"asset_id"`
	Limit     int32  `json:"limit"`
	Offset    int32  `json:"offset"`
}

func (q *Queries) ListBalanceHistory(ctx context.Context, arg ListBalanceHistoryParams) ([]BalanceHistory, error) {
	rows, err := q.db.Query(ctx, listBalanceHistory,
		arg.ServiceID,
		arg.AssetID,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBalanceHistory(rows)
}

const listBalanceHistoryByOrder = `-- name: ListBalanceHistoryByOrder :many
SELECT id, service_id, asset_id, order_id, old_amount, new_amount, change, created_at
FROM balance_history
WHERE order_id = $1
ORDER BY created_at, id
`

func (q *Queries) ListBalanceHistoryByOrder(ctx context.Context, orderID pgtype.Text) ([]BalanceHistory, error) {
	rows, err := q.db.Query(ctx, listBalanceHistoryByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBalanceHistory(rows)
}

func scanBalanceHistory(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]BalanceHistory, error) {
	var items []BalanceHistory
	for rows.Next() {
		var i BalanceHistory
		if err := rows.Scan(
			&i.ID,
			&i.ServiceID,
			&i.AssetID,
			&i.OrderID,
			&i.OldAmount,
			&i.NewAmount,
			&i.Change,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
