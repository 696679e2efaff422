package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/exledger/internal/domain"
	"github.com/iho/exledger/internal/infrastructure/metrics"
)

// ShiftUseCase runs the per-service shift state machine.
type ShiftUseCase struct {
	txManager TransactionManager
	repos     Repositories
	idGen     IDGenerator
	clock     Clock
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewShiftUseCase creates a new ShiftUseCase.
func NewShiftUseCase(
	txManager TransactionManager,
	repos Repositories,
	idGen IDGenerator,
	clock Clock,
	metrics *metrics.Metrics,
) *ShiftUseCase {
	return &ShiftUseCase{
		txManager: txManager,
		repos:     repos,
		idGen:     idGen,
		clock:     clock,
		metrics:   metrics,
		logger:    nopLogger,
	}
}

// WithLogger sets the logger.
func (uc *ShiftUseCase) WithLogger(logger zerolog.Logger) *ShiftUseCase {
	uc.logger = logger.With().Str("component", "shifts").Logger()
	return uc
}

// StartShiftResult is the new shift plus the one it superseded, if any.
type StartShiftResult struct {
	Shift  *domain.Shift
	Closed *domain.Shift
}

// Start opens a new shift for the service. A shift that is still open is
// closed first.
func (uc *ShiftUseCase) Start(ctx context.Context, serviceID string, userID *string) (*StartShiftResult, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := uc.repos.Services.GetByIDForUpdate(ctx, tx, serviceID); err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	result := &StartShiftResult{}

	open, err := uc.repos.Shifts.FindOpenTx(ctx, tx, serviceID)
	if err != nil {
		return nil, err
	}

	if open != nil {
		if err := uc.repos.Shifts.Close(ctx, tx, open.ID, now); err != nil {
			return nil, err
		}
		open.Close(now)
		result.Closed = open

		if err := uc.repos.Outbox.Create(ctx, tx, shiftEvent(uc.idGen, domain.EventTypeShiftEnded, open, now)); err != nil {
			return nil, err
		}
	}

	seq, err := uc.repos.Shifts.NextSequence(ctx, tx, serviceID)
	if err != nil {
		return nil, err
	}

	shift := &domain.Shift{
		ID:        uc.idGen.Generate(),
		ServiceID: serviceID,
		Sequence:  seq,
		StartTime: now,
		OpenedBy:  userID,
	}

	if err := uc.repos.Shifts.Create(ctx, tx, shift); err != nil {
		return nil, err
	}

	if err := uc.repos.Outbox.Create(ctx, tx, shiftEvent(uc.idGen, domain.EventTypeShiftStarted, shift, now)); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	result.Shift = shift

	if uc.metrics != nil {
		uc.metrics.ShiftsStarted.Inc()
		if result.Closed != nil {
			uc.metrics.ShiftsForceClosed.Inc()
		}
	}

	event := uc.logger.Info().Str("service_id", serviceID).Str("shift_id", shift.ID).Int64("sequence", seq)
	if result.Closed != nil {
		event = event.Str("closed_shift_id", result.Closed.ID)
	}
	event.Msg("shift started")

	return result, nil
}

// End closes the open shift of the service. It fails with
// domain.ErrNoActiveShift when there is none.
func (uc *ShiftUseCase) End(ctx context.Context, serviceID string) (*domain.Shift, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := uc.repos.Services.GetByIDForUpdate(ctx, tx, serviceID); err != nil {
		return nil, err
	}

	open, err := uc.repos.Shifts.FindOpenTx(ctx, tx, serviceID)
	if err != nil {
		return nil, err
	}
	if open == nil {
		uc.logger.Debug().Str("service_id", serviceID).Msg("end shift rejected: no open shift")
		return nil, domain.ErrNoActiveShift
	}

	now := uc.clock.Now()
	if err := uc.repos.Shifts.Close(ctx, tx, open.ID, now); err != nil {
		return nil, err
	}
	open.Close(now)

	if err := uc.repos.Outbox.Create(ctx, tx, shiftEvent(uc.idGen, domain.EventTypeShiftEnded, open, now)); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.ShiftsEnded.Inc()
	}

	uc.logger.Info().Str("service_id", serviceID).Str("shift_id", open.ID).Msg("shift ended")

	return open, nil
}

// CurrentOpen returns the open shift of the service, or nil.
func (uc *ShiftUseCase) CurrentOpen(ctx context.Context, serviceID string) (*domain.Shift, error) {
	if _, err := uc.repos.Services.GetByID(ctx, serviceID); err != nil {
		return nil, err
	}
	return uc.repos.Shifts.FindOpen(ctx, serviceID)
}

// SoftDelete hides a closed shift from reporting. Orders and balances are
// left untouched.
func (uc *ShiftUseCase) SoftDelete(ctx context.Context, actor *domain.User, shiftID string) (*domain.Shift, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	if !actor.Role.CanDeleteShifts() {
		return nil, fmt.Errorf("%w: admin role required", domain.ErrForbidden)
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	shift, err := uc.repos.Shifts.GetByIDForUpdate(ctx, tx, shiftID)
	if err != nil {
		return nil, err
	}

	if shift.IsDeleted {
		return shift, nil
	}

	if shift.EndTime == nil {
		return nil, fmt.Errorf("%w: shift is still open", domain.ErrForbidden)
	}

	if err := uc.repos.Shifts.SoftDelete(ctx, tx, shiftID); err != nil {
		return nil, err
	}
	shift.IsDeleted = true

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.logger.Info().Str("shift_id", shiftID).Str("actor_id", actor.ID).Msg("shift deleted")

	return shift, nil
}

// GetShift returns one shift.
func (uc *ShiftUseCase) GetShift(ctx context.Context, shiftID string) (*domain.Shift, error) {
	return uc.repos.Shifts.GetByID(ctx, shiftID)
}

// ListShifts lists the shifts of a service, newest first.
func (uc *ShiftUseCase) ListShifts(ctx context.Context, serviceID string, limit, offset int) ([]*domain.Shift, error) {
	limit, offset, err := domain.ValidatePagination(limit, offset)
	if err != nil {
		return nil, err
	}
	return uc.repos.Shifts.ListByService(ctx, serviceID, limit, offset)
}

func shiftEvent(idGen IDGenerator, eventType string, shift *domain.Shift, at time.Time) *domain.OutboxEvent {
	payload := map[string]any{
		"shift_id":   shift.ID,
		"service_id": shift.ServiceID,
		"sequence":   shift.Sequence,
		"start_time": shift.StartTime,
	}
	if shift.EndTime != nil {
		payload["end_time"] = *shift.EndTime
	}
	if shift.OpenedBy != nil {
		payload["opened_by"] = *shift.OpenedBy
	}
	return newEvent(idGen, domain.AggregateTypeShift, shift.ID, eventType, payload, at)
}
