package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iho/exledger/internal/domain"
	"github.com/iho/exledger/internal/infrastructure/postgres/generated"
	"github.com/iho/exledger/internal/usecase"
)

// ShiftRepository implements usecase.ShiftRepository.
type ShiftRepository struct {
	queries *generated.Queries
}

// NewShiftRepository creates a new ShiftRepository.
func NewShiftRepository(db generated.DBTX) *ShiftRepository {
	return &ShiftRepository{queries: generated.New(db)}
}

// Create inserts a shift. The partial unique index on open shifts rejects a
// second open shift for the same service.
func (r *ShiftRepository) Create(ctx context.Context, tx usecase.Transaction, shift *domain.Shift) error {
	return queriesFor(tx).CreateShift(ctx, generated.CreateShiftParams{
		ID:        shift.ID,
		ServiceID: shift.ServiceID,
		Sequence:  shift.Sequence,
		StartTime: timeToPgTimestamptz(shift.StartTime),
		EndTime:   timePtrToPgTimestamptz(shift.EndTime),
		OpenedBy:  ptrToText(shift.OpenedBy),
		IsDeleted: shift.IsDeleted,
	})
}

// GetByID retrieves a shift by ID, deleted or not.
func (r *ShiftRepository) GetByID(ctx context.Context, id string) (*domain.Shift, error) {
	row, err := r.queries.GetShiftByID(ctx, id)
	return shiftOrNotFound(row, err)
}

// GetByIDForUpdate retrieves a shift by ID with a FOR UPDATE lock.
func (r *ShiftRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Shift, error) {
	row, err := queriesFor(tx).GetShiftByIDForUpdate(ctx, id)
	return shiftOrNotFound(row, err)
}

// FindOpen returns the open shift of a service or nil.
func (r *ShiftRepository) FindOpen(ctx context.Context, serviceID string) (*domain.Shift, error) {
	return openShift(r.queries.GetOpenShift(ctx, serviceID))
}

// FindOpenTx returns the open shift of a service or nil, holding a share
// lock on it so it cannot be closed before the transaction ends.
func (r *ShiftRepository) FindOpenTx(ctx context.Context, tx usecase.Transaction, serviceID string) (*domain.Shift, error) {
	return openShift(queriesFor(tx).GetOpenShiftForShare(ctx, serviceID))
}

// NextSequence returns max(sequence)+1 for the service, counting deleted shifts.
func (r *ShiftRepository) NextSequence(ctx context.Context, tx usecase.Transaction, serviceID string) (int64, error) {
	return queriesFor(tx).NextShiftSequence(ctx, serviceID)
}

// Close sets the end time of an open shift.
func (r *ShiftRepository) Close(ctx context.Context, tx usecase.Transaction, id string, endTime time.Time) error {
	n, err := queriesFor(tx).CloseShift(ctx, generated.CloseShiftParams{
		ID:      id,
		EndTime: timeToPgTimestamptz(endTime),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrShiftNotFound
	}
	return nil
}

// SoftDelete hides a shift from reports.
func (r *ShiftRepository) SoftDelete(ctx context.Context, tx usecase.Transaction, id string) error {
	n, err := queriesFor(tx).SoftDeleteShift(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrShiftNotFound
	}
	return nil
}

// ListByService returns the shifts of a service, newest first.
func (r *ShiftRepository) ListByService(ctx context.Context, serviceID string, limit, offset int) ([]*domain.Shift, error) {
	rows, err := r.queries.ListShiftsByService(ctx, generated.ListShiftsByServiceParams{
		ServiceID: serviceID,
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	if err != nil {
		return nil, err
	}
	return rowsToShifts(rows), nil
}

// ListOverlapping returns non-deleted shifts intersecting [from, to], oldest first.
func (r *ShiftRepository) ListOverlapping(ctx context.Context, serviceID string, from, to time.Time) ([]*domain.Shift, error) {
	rows, err := r.queries.ListOverlappingShifts(ctx, generated.ListOverlappingShiftsParams{
		ServiceID: serviceID,
		From:      timeToPgTimestamptz(from),
		To:        timeToPgTimestamptz(to),
	})
	if err != nil {
		return nil, err
	}
	return rowsToShifts(rows), nil
}

func shiftOrNotFound(row generated.Shift, err error) (*domain.Shift, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrShiftNotFound
		}
		return nil, err
	}
	return rowToShift(row), nil
}

func openShift(row generated.Shift, err error) (*domain.Shift, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rowToShift(row), nil
}

func rowsToShifts(rows []generated.Shift) []*domain.Shift {
	shifts := make([]*domain.Shift, 0, len(rows))
	for _, row := range rows {
		shifts = append(shifts, rowToShift(row))
	}
	return shifts
}

func rowToShift(row generated.Shift) *domain.Shift {
	return &domain.Shift{
		ID:        row.ID,
		ServiceID: row.ServiceID,
		Sequence:  row.Sequence,
		StartTime: row.StartTime.Time,
		EndTime:   pgTimestamptzToPtr(row.EndTime),
		OpenedBy:  textToPtr(row.OpenedBy),
		IsDeleted: row.IsDeleted,
	}
}
