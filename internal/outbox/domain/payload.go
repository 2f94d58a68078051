package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/possync/internal/errors"
)

// SaleLine is one line item of a sale payload.
type SaleLine struct {
	ProductID  string `json:"product_id"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}

// SyncSalePayload is the input for CommandTypeSyncSale.
type SyncSalePayload struct {
	SaleID        uuid.UUID  `json:"sale_id"`
	ShiftID       *uuid.UUID `json:"shift_id,omitempty"`
	Lines         []SaleLine `json:"lines"`
	TotalCents    int64      `json:"total_cents"`
	PaymentMethod string     `json:"payment_method"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

// OpenShiftPayload is the input for CommandTypeOpenShift.
type OpenShiftPayload struct {
	ShiftID           uuid.UUID `json:"shift_id"`
	DeviceID          string    `json:"device_id"`
	OpeningFloatCents int64     `json:"opening_float_cents"`
	OpenedAt          time.Time `json:"opened_at"`
}

// CloseShiftPayload is the input for CommandTypeCloseShift.
type CloseShiftPayload struct {
	ShiftID            uuid.UUID `json:"shift_id"`
	ClosingAmountCents int64     `json:"closing_amount_cents"`
	ClosedAt           time.Time `json:"closed_at"`
}

// RecordCashEventPayload is the input for CommandTypeRecordCashEvent.
type RecordCashEventPayload struct {
	EventID     uuid.UUID `json:"event_id"`
	ShiftID     uuid.UUID `json:"shift_id"`
	Kind        string    `json:"kind"`
	AmountCents int64     `json:"amount_cents"`
	Note        string    `json:"note,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// EncodePayload serializes a typed payload for storage in the outbox row.
func EncodePayload(payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}
	return string(data), nil
}

// DecodePayload deserializes a command's payload into the shape its type
// dictates. The switch is exhaustive over the closed CommandType set; an
// unknown type or an undecodable payload is an invalid-input error, never a
// silent passthrough, so a corrupted row classifies as a permanent failure
// instead of being retried.
func DecodePayload(cmd *Command) (any, error) {
	switch cmd.Type {
	case CommandTypeSyncSale:
		var p SyncSalePayload
		if err := json.Unmarshal([]byte(cmd.Payload), &p); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("failed to decode sale payload: %v", err))
		}
		return &p, nil
	case CommandTypeOpenShift:
		var p OpenShiftPayload
		if err := json.Unmarshal([]byte(cmd.Payload), &p); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("failed to decode open-shift payload: %v", err))
		}
		return &p, nil
	case CommandTypeCloseShift:
		var p CloseShiftPayload
		if err := json.Unmarshal([]byte(cmd.Payload), &p); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("failed to decode close-shift payload: %v", err))
		}
		return &p, nil
	case CommandTypeRecordCashEvent:
		var p RecordCashEventPayload
		if err := json.Unmarshal([]byte(cmd.Payload), &p); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("failed to decode cash-event payload: %v", err))
		}
		return &p, nil
	default:
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("unknown command type %q", cmd.Type))
	}
}
