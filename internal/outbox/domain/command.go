// Package domain defines the outbox command entity: the durable unit of intent
// that survives offline periods, crashes and restarts until the central server
// has applied it exactly once.
package domain

import (
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/possync/internal/errors"
)

// CommandStatus represents the delivery status of an outbox command.
type CommandStatus string

const (
	CommandStatusPending  CommandStatus = "pending"
	CommandStatusInFlight CommandStatus = "in_flight"
	CommandStatusSynced   CommandStatus = "synced"
	CommandStatusFailed   CommandStatus = "failed"
	CommandStatusConflict CommandStatus = "conflict"
)

// CommandType identifies the server operation a command maps to.
// The set is closed: the remote client routes and decodes over it
// exhaustively, and DecodePayload rejects anything else before a
// delivery leaves the terminal.
type CommandType string

const (
	CommandTypeSyncSale        CommandType = "sale.sync"
	CommandTypeOpenShift       CommandType = "shift.open"
	CommandTypeCloseShift      CommandType = "shift.close"
	CommandTypeRecordCashEvent CommandType = "shift.cash_event"
)

// EntityKind identifies which local domain table a command's outcome
// is projected back onto.
type EntityKind string

const (
	EntityKindSale      EntityKind = "sale"
	EntityKindShift     EntityKind = "shift"
	EntityKindCashEvent EntityKind = "cash_event"
)

// Command represents one intended server-side effect recorded in the outbox.
//
// A command is immutable after creation except for Status, Attempts, LastError
// and UpdatedAt. The IdempotencyKey never changes: retries reuse it so repeated
// delivery collapses into a single server-side effect. Rows are retained for
// audit and are never deleted, only finalized.
type Command struct {
	ID             uuid.UUID
	WorkspaceID    string
	Type           CommandType
	Payload        string
	IdempotencyKey string
	Status         CommandStatus
	Attempts       int
	LastError      *string
	EntityKind     EntityKind
	EntityID       uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ServerRefs holds the server-assigned identifiers returned on successful
// application of a command, projected back onto the local domain entity.
type ServerRefs struct {
	InvoiceID   string `json:"server_invoice_id,omitempty"`
	PaymentID   string `json:"server_payment_id,omitempty"`
	ShiftID     string `json:"server_shift_id,omitempty"`
	CashEventID string `json:"server_cash_event_id,omitempty"`
}

// Stats holds queue counters for the UI badge: pending (offline/amber),
// failed (needs attention) and conflicts (needs resolution).
type Stats struct {
	Pending   int `json:"pending"`
	Failed    int `json:"failed"`
	Conflicts int `json:"conflicts"`
}

// New creates a pending command for the given entity. Row IDs are UUIDv7 so
// creation order and primary key order agree; the idempotency key is an
// independent UUIDv4 generated once for the lifetime of the command.
func New(workspaceID string, typ CommandType, kind EntityKind, entityID uuid.UUID, payload string) (*Command, error) {
	if workspaceID == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "workspace id is required")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	return &Command{
		ID:             id,
		WorkspaceID:    workspaceID,
		Type:           typ,
		Payload:        payload,
		IdempotencyKey: uuid.NewString(),
		Status:         CommandStatusPending,
		EntityKind:     kind,
		EntityID:       entityID,
	}, nil
}
