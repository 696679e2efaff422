package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createService = `-- name: CreateService :one
INSERT INTO services (id, name, created_at)
VALUES ($1, $2, $3)
RETURNING id, name, created_at
`

type CreateServiceParams struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) CreateService(ctx context.Context, arg CreateServiceParams) (Service, error) {
	row := q.db.QueryRow(ctx, createService, arg.ID, arg.Name, arg.CreatedAt)
	var i Service
	err := row.Scan(&i.ID, &i.Name, &i.CreatedAt)
	return i, err
}

const getServiceByID = `-- name: GetServiceByID :one
SELECT id, name, created_at FROM services WHERE id = $1
`

func (q *Queries) GetServiceByID(ctx context.Context, id string) (Service, error) {
	row := q.db.QueryRow(ctx, getServiceByID, id)
	var i Service
	err := row.Scan(&i.ID, &i.Name, &i.CreatedAt)
	return i, err
}

const getServiceByIDForUpdate = `-- name: GetServiceByIDForUpdate :one
SELECT id, name, created_at FROM services WHERE id = $1 FOR UPDATE
`

func (q *Queries) GetServiceByIDForUpdate(ctx context.Context, id string) (Service, error) {
	row := q.db.QueryRow(ctx, getServiceByIDForUpdate, id)
	var i Service
	err := row.Scan(&i.ID, &i.Name, &i.CreatedAt)
	return i, err
}

const listServices = `-- name: ListServices :many
SELECT id, name, created_at FROM services ORDER BY name
`

func (q *Queries) ListServices(ctx context.Context) ([]Service, error) {
	rows, err := q.db.Query(ctx, listServices)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Service
	for rows.Next() {
		var i Service
		if err := rows.Scan(&i.ID, &i.Name, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
