package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/possync/internal/database"
	apperrors "github.com/allisson/possync/internal/errors"
	outboxDomain "github.com/allisson/possync/internal/outbox/domain"
	"github.com/allisson/possync/internal/pos/domain"
)

// ShiftRepository defines shift session and cash event persistence operations.
type ShiftRepository interface {
	CreateShift(ctx context.Context, shift *domain.ShiftSession) error
	GetShiftByID(ctx context.Context, id uuid.UUID) (*domain.ShiftSession, error)
	GetOpenShift(ctx context.Context, workspaceID string) (*domain.ShiftSession, error)
	CloseShift(ctx context.Context, id uuid.UUID, closingAmountCents int64, closedAt time.Time) error
	SetShiftSynced(ctx context.Context, id uuid.UUID, serverShiftID string) error
	SetShiftSyncOutcome(ctx context.Context, id uuid.UUID, status domain.SyncStatus, detail string) error
	IncrementShiftSyncAttempts(ctx context.Context, id uuid.UUID) error
	CreateCashEvent(ctx context.Context, event *domain.ShiftCashEvent) error
	ListCashEventsByShift(ctx context.Context, shiftID uuid.UUID) ([]*domain.ShiftCashEvent, error)
	SetCashEventSynced(ctx context.Context, id uuid.UUID, serverEventID string) error
	SetCashEventSyncOutcome(ctx context.Context, id uuid.UUID, status domain.SyncStatus, detail string) error
	IncrementCashEventSyncAttempts(ctx context.Context, id uuid.UUID) error
}

// RecordCashEventInput contains the parameters for a cash drawer movement.
type RecordCashEventInput struct {
	Kind        domain.CashEventKind
	AmountCents int64
	Note        string
}

// ShiftUseCase defines the interface for shift operations.
type ShiftUseCase interface {
	OpenShift(ctx context.Context, openingFloatCents int64) (*domain.ShiftSession, error)
	CloseShift(ctx context.Context, closingAmountCents int64) (*domain.ShiftSession, error)
	RecordCashEvent(ctx context.Context, input *RecordCashEventInput) (*domain.ShiftCashEvent, error)
	CurrentShift(ctx context.Context) (*domain.ShiftSession, error)
	ListCashEvents(ctx context.Context, shiftID uuid.UUID) ([]*domain.ShiftCashEvent, error)
}

// ShiftService implements business logic for shift sessions.
type ShiftService struct {
	workspaceID string
	deviceID    string
	txManager   database.TxManager
	shiftRepo   ShiftRepository
	outbox      OutboxWriter
	logger      *slog.Logger
}

// NewShiftService creates a new ShiftService.
func NewShiftService(
	workspaceID string,
	deviceID string,
	txManager database.TxManager,
	shiftRepo ShiftRepository,
	outbox OutboxWriter,
	logger *slog.Logger,
) *ShiftService {
	return &ShiftService{
		workspaceID: workspaceID,
		deviceID:    deviceID,
		txManager:   txManager,
		shiftRepo:   shiftRepo,
		outbox:      outbox,
		logger:      logger,
	}
}

// OpenShift opens a cash shift and enqueues its sync command atomically.
// Only one shift can be open at a time on a terminal.
func (s *ShiftService) OpenShift(ctx context.Context, openingFloatCents int64) (*domain.ShiftSession, error) {
	if _, err := s.shiftRepo.GetOpenShift(ctx, s.workspaceID); err == nil {
		return nil, apperrors.Wrap(apperrors.ErrConflict, "a shift is already open")
	} else if !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	shift, err := domain.NewShiftSession(s.workspaceID, s.deviceID, openingFloatCents, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	payload, err := outboxDomain.EncodePayload(&outboxDomain.OpenShiftPayload{
		ShiftID:           shift.ID,
		DeviceID:          shift.DeviceID,
		OpeningFloatCents: shift.OpeningFloatCents,
		OpenedAt:          shift.OpenedAt,
	})
	if err != nil {
		return nil, err
	}

	cmd, err := outboxDomain.New(s.workspaceID, outboxDomain.CommandTypeOpenShift,
		outboxDomain.EntityKindShift, shift.ID, payload)
	if err != nil {
		return nil, err
	}

	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := s.shiftRepo.CreateShift(ctx, shift); err != nil {
			return err
		}
		return s.outbox.Create(ctx, cmd)
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open shift")
	}

	if s.logger != nil {
		s.logger.Info("shift opened",
			slog.String("shift_id", shift.ID.String()),
			slog.Int64("opening_float_cents", shift.OpeningFloatCents),
		)
	}

	return shift, nil
}

// CloseShift closes the current shift and enqueues its sync command atomically.
// The close command is created after the open command and the queue is FIFO,
// so the server always sees the open before the close.
func (s *ShiftService) CloseShift(ctx context.Context, closingAmountCents int64) (*domain.ShiftSession, error) {
	shift, err := s.shiftRepo.GetOpenShift(ctx, s.workspaceID)
	if err != nil {
		return nil, err
	}

	closedAt := time.Now().UTC()

	payload, err := outboxDomain.EncodePayload(&outboxDomain.CloseShiftPayload{
		ShiftID:            shift.ID,
		ClosingAmountCents: closingAmountCents,
		ClosedAt:           closedAt,
	})
	if err != nil {
		return nil, err
	}

	cmd, err := outboxDomain.New(s.workspaceID, outboxDomain.CommandTypeCloseShift,
		outboxDomain.EntityKindShift, shift.ID, payload)
	if err != nil {
		return nil, err
	}

	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := s.shiftRepo.CloseShift(ctx, shift.ID, closingAmountCents, closedAt); err != nil {
			return err
		}
		return s.outbox.Create(ctx, cmd)
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to close shift")
	}

	if s.logger != nil {
		s.logger.Info("shift closed",
			slog.String("shift_id", shift.ID.String()),
			slog.Int64("closing_amount_cents", closingAmountCents),
		)
	}

	shift.ClosedAt = &closedAt
	shift.ClosingAmountCents = &closingAmountCents
	shift.SyncStatus = domain.SyncStatusPendingSync
	return shift, nil
}

// RecordCashEvent records a paid-in/paid-out movement against the current
// shift and enqueues its sync command atomically.
func (s *ShiftService) RecordCashEvent(ctx context.Context, input *RecordCashEventInput) (*domain.ShiftCashEvent, error) {
	shift, err := s.shiftRepo.GetOpenShift(ctx, s.workspaceID)
	if err != nil {
		return nil, err
	}

	event, err := domain.NewShiftCashEvent(s.workspaceID, shift.ID, input.Kind, input.AmountCents,
		input.Note, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	payload, err := outboxDomain.EncodePayload(&outboxDomain.RecordCashEventPayload{
		EventID:     event.ID,
		ShiftID:     event.ShiftID,
		Kind:        string(event.Kind),
		AmountCents: event.AmountCents,
		Note:        event.Note,
		OccurredAt:  event.OccurredAt,
	})
	if err != nil {
		return nil, err
	}

	cmd, err := outboxDomain.New(s.workspaceID, outboxDomain.CommandTypeRecordCashEvent,
		outboxDomain.EntityKindCashEvent, event.ID, payload)
	if err != nil {
		return nil, err
	}

	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := s.shiftRepo.CreateCashEvent(ctx, event); err != nil {
			return err
		}
		return s.outbox.Create(ctx, cmd)
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to record cash event")
	}

	if s.logger != nil {
		s.logger.Info("cash event recorded",
			slog.String("event_id", event.ID.String()),
			slog.String("shift_id", shift.ID.String()),
			slog.String("kind", string(event.Kind)),
		)
	}

	return event, nil
}

// CurrentShift returns the currently open shift.
func (s *ShiftService) CurrentShift(ctx context.Context) (*domain.ShiftSession, error) {
	return s.shiftRepo.GetOpenShift(ctx, s.workspaceID)
}

// ListCashEvents returns a shift's cash events in occurrence order.
func (s *ShiftService) ListCashEvents(ctx context.Context, shiftID uuid.UUID) ([]*domain.ShiftCashEvent, error) {
	return s.shiftRepo.ListCashEventsByShift(ctx, shiftID)
}
