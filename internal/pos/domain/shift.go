package domain

import (
	"time"

	"github.com/google/uuid"
)

// CashEventKind identifies the direction of a cash drawer event.
type CashEventKind string

const (
	CashEventKindPaidIn  CashEventKind = "paid_in"
	CashEventKindPaidOut CashEventKind = "paid_out"
)

// ShiftSession represents a cash shift opened on this terminal.
type ShiftSession struct {
	ID                 uuid.UUID
	WorkspaceID        string
	DeviceID           string
	OpenedAt           time.Time
	ClosedAt           *time.Time
	OpeningFloatCents  int64
	ClosingAmountCents *int64
	ServerShiftID      *string
	SyncStatus         SyncStatus
	SyncAttempts       int
	SyncError          *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Open reports whether the shift has not been closed yet.
func (s *ShiftSession) Open() bool {
	return s.ClosedAt == nil
}

// NewShiftSession creates an open shift pending synchronization.
func NewShiftSession(workspaceID, deviceID string, openingFloatCents int64, openedAt time.Time) (*ShiftSession, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	return &ShiftSession{
		ID:                id,
		WorkspaceID:       workspaceID,
		DeviceID:          deviceID,
		OpenedAt:          openedAt,
		OpeningFloatCents: openingFloatCents,
		SyncStatus:        SyncStatusPendingSync,
	}, nil
}

// ShiftCashEvent represents a paid-in/paid-out cash movement within a shift.
type ShiftCashEvent struct {
	ID            uuid.UUID
	WorkspaceID   string
	ShiftID       uuid.UUID
	Kind          CashEventKind
	AmountCents   int64
	Note          string
	OccurredAt    time.Time
	ServerEventID *string
	SyncStatus    SyncStatus
	SyncAttempts  int
	SyncError     *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewShiftCashEvent creates a cash event pending synchronization.
func NewShiftCashEvent(workspaceID string, shiftID uuid.UUID, kind CashEventKind, amountCents int64, note string, occurredAt time.Time) (*ShiftCashEvent, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	return &ShiftCashEvent{
		ID:          id,
		WorkspaceID: workspaceID,
		ShiftID:     shiftID,
		Kind:        kind,
		AmountCents: amountCents,
		Note:        note,
		OccurredAt:  occurredAt,
		SyncStatus:  SyncStatusPendingSync,
	}, nil
}
