// Package domain defines the point-of-sale entities kept in the local store:
// sales, shift sessions and shift cash events. Each carries its own sync
// status mirroring its outbox command, server-assigned identifiers populated
// once the server confirms, and attempt/error fields for user-facing
// diagnostics. Sync fields are written only by the dispatcher's outcome
// projection, never by UI code.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// SyncStatus represents a local entity's synchronization state.
type SyncStatus string

const (
	SyncStatusPendingSync SyncStatus = "pending_sync"
	SyncStatusSynced      SyncStatus = "synced"
	SyncStatusFailed      SyncStatus = "failed"
	SyncStatusConflict    SyncStatus = "conflict"
)

// SaleLine is one line item of a sale.
type SaleLine struct {
	ProductID  string `json:"product_id"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}

// Sale represents a locally rung-up sale awaiting (or past) synchronization.
type Sale struct {
	ID              uuid.UUID
	WorkspaceID     string
	ShiftID         *uuid.UUID
	Lines           []SaleLine
	TotalCents      int64
	PaymentMethod   string
	OccurredAt      time.Time
	ServerInvoiceID *string
	ServerPaymentID *string
	SyncStatus      SyncStatus
	SyncAttempts    int
	SyncError       *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewSale creates a sale pending synchronization.
func NewSale(workspaceID string, shiftID *uuid.UUID, lines []SaleLine, totalCents int64, paymentMethod string, occurredAt time.Time) (*Sale, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	return &Sale{
		ID:            id,
		WorkspaceID:   workspaceID,
		ShiftID:       shiftID,
		Lines:         lines,
		TotalCents:    totalCents,
		PaymentMethod: paymentMethod,
		OccurredAt:    occurredAt,
		SyncStatus:    SyncStatusPendingSync,
	}, nil
}
