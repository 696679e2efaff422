package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createAsset = `-- name: CreateAsset :one
INSERT INTO assets (id, symbol, name, pair_symbol, manual_rate, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, symbol, name, pair_symbol, manual_rate, created_at
`

type CreateAssetParams struct {
	ID         string             `json:"id"`
	Symbol     string             `json:"symbol"`
	Name       string             `json:"name"`
	PairSymbol pgtype.Text        `json:"pair_symbol"`
	ManualRate pgtype.Numeric     `json:"manual_rate"`
	CreatedAt  pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) CreateAsset(ctx context.Context, arg CreateAssetParams) (Asset, error) {
	row := q.db.QueryRow(ctx, createAsset,
		arg.ID,
		arg.Symbol,
		arg.Name,
		arg.PairSymbol,
		arg.ManualRate,
		arg.CreatedAt,
	)
	var i Asset
	err := row.Scan(
		&i.ID,
		&i.Symbol,
		&i.Name,
		&i.PairSymbol,
		&i.ManualRate,
		&i.CreatedAt,
	)
	return i, err
}

const getAssetByID = `-- name: GetAssetByID :one
SELECT id, symbol, name, pair_symbol, manual_rate, created_at FROM assets WHERE id = $1
`

func (q *Queries) GetAssetByID(ctx context.Context, id string) (Asset, error) {
	row := q.db.QueryRow(ctx, getAssetByID, id)
	var i Asset
	err := row.Scan(
		&i.ID,
		&i.Symbol,
		&i.Name,
		&i.PairSymbol,
		&i.ManualRate,
		&i.CreatedAt,
	)
	return i, err
}

const getAssetsByIDs = `-- name: GetAssetsByIDs :many
SELECT id, symbol, name, pair_symbol, manual_rate, created_at FROM assets WHERE id = ANY($1::varchar[])
`

func (q *Queries) GetAssetsByIDs(ctx context.Context, dollar_1 []string) ([]Asset, error) {
	rows, err := q.db.Query(ctx, getAssetsByIDs, dollar_1)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Asset
	for rows.Next() {
		var i Asset
		if err := rows.Scan(
			&i.ID,
			&i.Symbol,
			&i.Name,
			&i.PairSymbol,
			&i.ManualRate,
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

const listAssets = `-- name: ListAssets :many
SELECT id, symbol, name, pair_symbol, manual_rate, created_at FROM assets ORDER BY symbol
`

func (q *Queries) ListAssets(ctx context.Context) ([]Asset, error) {
	rows, err := q.db.Query(ctx, listAssets)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Asset
	for rows.Next() {
		var i Asset
		if err := rows.Scan(
			&i.ID,
			&i.Symbol,
			&i.Name,
			&i.PairSymbol,
			&i.ManualRate,
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
