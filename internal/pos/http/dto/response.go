package dto

import (
	"time"

	"github.com/allisson/possync/internal/pos/domain"
)

// SaleResponse represents a sale in API responses.
type SaleResponse struct {
	ID              string            `json:"id"`
	ShiftID         *string           `json:"shift_id,omitempty"`
	Lines           []domain.SaleLine `json:"lines"`
	TotalCents      int64             `json:"total_cents"`
	PaymentMethod   string            `json:"payment_method"`
	OccurredAt      time.Time         `json:"occurred_at"`
	ServerInvoiceID *string           `json:"server_invoice_id,omitempty"`
	ServerPaymentID *string           `json:"server_payment_id,omitempty"`
	SyncStatus      string            `json:"sync_status"`
	SyncAttempts    int               `json:"sync_attempts"`
	SyncError       *string           `json:"sync_error,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// ShiftResponse represents a shift session in API responses.
type ShiftResponse struct {
	ID                 string     `json:"id"`
	DeviceID           string     `json:"device_id"`
	OpenedAt           time.Time  `json:"opened_at"`
	ClosedAt           *time.Time `json:"closed_at,omitempty"`
	OpeningFloatCents  int64      `json:"opening_float_cents"`
	ClosingAmountCents *int64     `json:"closing_amount_cents,omitempty"`
	ServerShiftID      *string    `json:"server_shift_id,omitempty"`
	SyncStatus         string     `json:"sync_status"`
	SyncAttempts       int        `json:"sync_attempts"`
	SyncError          *string    `json:"sync_error,omitempty"`
}

// CashEventResponse represents a shift cash event in API responses.
type CashEventResponse struct {
	ID            string    `json:"id"`
	ShiftID       string    `json:"shift_id"`
	Kind          string    `json:"kind"`
	AmountCents   int64     `json:"amount_cents"`
	Note          string    `json:"note,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
	ServerEventID *string   `json:"server_event_id,omitempty"`
	SyncStatus    string    `json:"sync_status"`
	SyncAttempts  int       `json:"sync_attempts"`
	SyncError     *string   `json:"sync_error,omitempty"`
}

// ListSalesResponse wraps a page of sales.
type ListSalesResponse struct {
	Sales []SaleResponse `json:"sales"`
}

// ListCashEventsResponse wraps a shift's cash events.
type ListCashEventsResponse struct {
	CashEvents []CashEventResponse `json:"cash_events"`
}
