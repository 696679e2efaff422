package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const shiftColumns = `id, service_id, sequence, start_time, end_time, opened_by, is_deleted`

const closeShift = `-- name: CloseShift :execrows
UPDATE shifts SET end_time = $2 WHERE id = $1 AND end_time IS NULL
`

type CloseShiftParams struct {
	ID      string             `json:"id"`
	EndTime pgtype.Timestamptz `json:"end_time"`
}

func (q *Queries) CloseShift(ctx context.Context, arg CloseShiftParams) (int64, error) {
	result, err := q.db.Exec(ctx, closeShift, arg.ID, arg.EndTime)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const createShift = `-- name: CreateShift :exec
INSERT INTO shifts (id, service_id, sequence, start_time, end_time, opened_by, is_deleted)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

type CreateShiftParams struct {
	ID        string             `json:"id"`
	ServiceID string             `json:"service_id"`
	Sequence  int64              `json:"sequence"`
	StartTime pgtype.Timestamptz `json:"start_time"`
	EndTime   pgtype.Timestamptz `json:"end_time"`
	OpenedBy  pgtype.Text        `json:"opened_by"`
	IsDeleted bool               `json:"is_deleted"`
}

func (q *Queries) CreateShift(ctx context.Context, arg CreateShiftParams) error {
	_, err := q.db.Exec(ctx, createShift,
		arg.ID,
		arg.ServiceID,
		arg.Sequence,
		arg.StartTime,
		arg.EndTime,
		arg.OpenedBy,
		arg.IsDeleted,
	)
	return err
}

const getOpenShift = `-- name: GetOpenShift :one
SELECT ` + shiftColumns + ` FROM shifts
WHERE service_id = $1 AND end_time IS NULL AND NOT is_deleted
`

func (q *Queries) GetOpenShift(ctx context.Context, serviceID string) (Shift, error) {
	return scanShift(q.db.QueryRow(ctx, getOpenShift, serviceID))
}

const getOpenShiftForShare = `-- name: GetOpenShiftForShare :one
SELECT ` + shiftColumns + ` FROM shifts
WHERE service_id = $1 AND end_time IS NULL AND NOT is_deleted
FOR SHARE
`

// GetOpenShiftForShare keeps the open shift from being closed until the
// calling transaction ends.
func (q *Queries) GetOpenShiftForShare(ctx context.Context, serviceID string) (Shift, error) {
	return scanShift(q.db.QueryRow(ctx, getOpenShiftForShare, serviceID))
}

const getShiftByID = `-- name: GetShiftByID :one
SELECT ` + shiftColumns + ` FROM shifts WHERE id = $1
`

func (q *Queries) GetShiftByID(ctx context.Context, id string) (Shift, error) {
	return scanShift(q.db.QueryRow(ctx, getShiftByID, id))
}

const getShiftByIDForUpdate = `-- name: GetShiftByIDForUpdate :one
SELECT ` + shiftColumns + ` FROM shifts WHERE id = $1 FOR UPDATE
`

func (q *Queries) GetShiftByIDForUpdate(ctx context.Context, id string) (Shift, error) {
	return scanShift(q.db.QueryRow(ctx, getShiftByIDForUpdate, id))
}

const listOverlappingShifts = `-- name: ListOverlappingShifts :many
SELECT ` + shiftColumns + ` FROM shifts
WHERE service_id = $1
  AND NOT is_deleted
  AND start_time <= $3
  AND (end_time IS NULL OR end_time >= $2)
ORDER BY start_time
`

type ListOverlappingShiftsParams struct {
	ServiceID string             `json:"service_id"`
	From      pgtype.Timestamptz `json:"from"`
	To        pgtype.Timestamptz `json:"to"`
}

func (q *Queries) ListOverlappingShifts(ctx context.Context, arg ListOverlappingShiftsParams) ([]Shift, error) {
	rows, err := q.db.Query(ctx, listOverlappingShifts, arg.ServiceID, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Shift
	for rows.Next() {
		i, err := scanShift(rows)
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

const listShiftsByService = `-- name: ListShiftsByService :many
SELECT ` + shiftColumns + ` FROM shifts
WHERE service_id = $1
ORDER BY sequence DESC
LIMIT $2 OFFSET $3
`

type ListShiftsByServiceParams struct {
	ServiceID string `json:"service_id"`
	Limit     int32  `json:"limit"`
	Offset    int32  `json:"offset"`
}

func (q *Queries) ListShiftsByService(ctx context.Context, arg ListShiftsByServiceParams) ([]Shift, error) {
	rows, err := q.db.Query(ctx, listShiftsByService, arg.ServiceID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Shift
	for rows.Next() {
		i, err := scanShift(rows)
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

const nextShiftSequence = `-- name: NextShiftSequence :one
SELECT (COALESCE(MAX(sequence), 0) + 1)::bigint FROM shifts WHERE service_id = $1
`

func (q *Queries) NextShiftSequence(ctx context.Context, serviceID string) (int64, error) {
	row := q.db.QueryRow(ctx, nextShiftSequence, serviceID)
	var sequence int64
	err := row.Scan(&sequence)
	return sequence, err
}

const softDeleteShift = `-- name: SoftDeleteShift :execrows
UPDATE shifts SET is_deleted = TRUE WHERE id = $1
`

func (q *Queries) SoftDeleteShift(ctx context.Context, id string) (int64, error) {
	result, err := q.db.Exec(ctx, softDeleteShift, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

func scanShift(row interface{ Scan(...any) error }) (Shift, error) {
	var i Shift
	err := row.Scan(
		&i.ID,
		&i.ServiceID,
		&i.Sequence,
		&i.StartTime,
		&i.EndTime,
		&i.OpenedBy,
		&i.IsDeleted,
	)
	return i, err
}
