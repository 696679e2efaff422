package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const ensureBalance = `-- name: EnsureBalance :exec
INSERT INTO balances (service_id, asset_id, amount, updated_at)
VALUES ($1, $2, 0, $3)
ON CONFLICT (service_id, asset_id) DO NOTHING
`

type EnsureBalanceParams struct {
	ServiceID string             `json:"service_id"`
	AssetID   string             `json:"asset_id"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) EnsureBalance(ctx context.Context, arg EnsureBalanceParams) error {
	_, err := q.db.Exec(ctx, ensureBalance, arg.ServiceID, arg.AssetID, arg.UpdatedAt)
	return err
}

const getBalance = `-- name: GetBalance :one
SELECT service_id, asset_id, amount, updated_at FROM balances
WHERE service_id = $1 AND asset_id = $2
`

type GetBalanceParams struct {
	ServiceID string `json:"service_id"`
	AssetID   string `json:"asset_id"`
}

func (q *Queries) GetBalance(ctx context.Context, arg GetBalanceParams) (Balance, error) {
	row := q.db.QueryRow(ctx, getBalance, arg.ServiceID, arg.AssetID)
	var i Balance
	err := row.Scan(
		&i.ServiceID,
		&i.AssetID,
		&i.Amount,
		&i.UpdatedAt,
	)
	return i, err
}

const getBalanceForUpdate = `-- name: GetBalanceForUpdate :one
SELECT service_id, asset_id, amount, updated_at FROM balances
WHERE service_id = $1 AND asset_id = $2
FOR UPDATE
`

type GetBalanceForUpdateParams struct {
	ServiceID string `json:"service_id"`
	AssetID   string `json:"asset_id"`
}

func (q *Queries) GetBalanceForUpdate(ctx context.Context, arg GetBalanceForUpdateParams) (Balance, error) {
	row := q.db.QueryRow(ctx, getBalanceForUpdate, arg.ServiceID, arg.AssetID)
	var i Balance
	err := row.Scan(
		&i.ServiceID,
		&i.AssetID,
		&i.Amount,
		&i.UpdatedAt,
	)
	return i, err
}

const listBalancesByService = `-- name: ListBalancesByService :many
SELECT b.service_id, b.asset_id, b.amount, b.updated_at FROM balances b
JOIN assets a ON a.id = b.asset_id
WHERE b.service_id = $1
ORDER BY a.symbol
`

func (q *Queries) ListBalancesByService(ctx context.Context, serviceID string) ([]Balance, error) {
	rows, err := q.db.Query(ctx, listBalancesByService, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Balance
	for rows.Next() {
		var i Balance
		if err := rows.Scan(
			&i.ServiceID,
			&i.AssetID,
			&i.Amount,
			&i.UpdatedAt,
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

const listBalanceTotals = `-- name: ListBalanceTotals :many
SELECT b.service_id, b.asset_id, b.amount,
       COALESCE((SELECT SUM(h.change) FROM balance_history h
                 WHERE h.service_id = b.service_id AND h.asset_id = b.asset_id), 0)::numeric AS history_sum
FROM balances b
ORDER BY b.service_id, b.asset_id
`

type ListBalanceTotalsRow struct {
	ServiceID  string         `json:"service_id"`
	AssetID    string         `json:"asset_id"`
	Amount     pgtype.Numeric `json:"amount"`
	HistorySum pgtype.Numeric `json:"history_sum"`
}

func (q *Queries) ListBalanceTotals(ctx context.Context) ([]ListBalanceTotalsRow, error) {
	rows, err := q.db.Query(ctx, listBalanceTotals)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListBalanceTotalsRow
	for rows.Next() {
		var i ListBalanceTotalsRow
		if err := rows.Scan(
			&i.ServiceID,
			&i.AssetID,
			&i.Amount,
			&i.HistorySum,
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

const updateBalanceAmount = `-- name: UpdateBalanceAmount :exec
UPDATE balances SET amount = $3, updated_at = $4
WHERE service_id = $1 AND asset_id = $2
`

type UpdateBalanceAmountParams struct {
	ServiceID string             `json:"service_id"`
	AssetID   string             `json:"asset_id"`
	Amount    pgtype.Numeric     `json:"amount"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpdateBalanceAmount(ctx context.Context, arg UpdateBalanceAmountParams) error {
	_, err := q.db.Exec(ctx, updateBalanceAmount,
		arg.ServiceID,
		arg.AssetID,
		arg.Amount,
		arg.UpdatedAt,
	)
	return err
}
