// Package dto provides data transfer objects for the POS HTTP layer.
package dto

import (
	"time"

	validation "github.com/jellydator/validation"

	appValidation "github.com/allisson/possync/internal/validation"
)

// SaleLineRequest represents one line item of a sale request.
type SaleLineRequest struct {
	ProductID  string `json:"product_id"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}

// Validate validates the SaleLineRequest.
func (r *SaleLineRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.ProductID,
			validation.Required.Error("product_id is required"),
			appValidation.NotBlank,
		),
		validation.Field(&r.Quantity,
			validation.Required.Error("quantity is required"),
			validation.Min(1).Error("quantity must be at least 1"),
		),
		validation.Field(&r.PriceCents, appValidation.NonNegativeAmount),
	)
	return appValidation.WrapValidationError(err)
}

// CreateSaleRequest represents the API request for ringing up a sale.
type CreateSaleRequest struct {
	ShiftID       *string           `json:"shift_id"`
	Lines         []SaleLineRequest `json:"lines"`
	TotalCents    int64             `json:"total_cents"`
	PaymentMethod string            `json:"payment_method"`
	OccurredAt    *time.Time        `json:"occurred_at"`
}

// Validate validates the CreateSaleRequest including every line item.
func (r *CreateSaleRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Lines,
			validation.Required.Error("at least one line is required"),
		),
		validation.Field(&r.TotalCents, appValidation.PositiveAmount),
		validation.Field(&r.PaymentMethod,
			validation.Required.Error("payment_method is required"),
			validation.In("cash", "card", "other").Error("payment_method must be cash, card or other"),
		),
	)
	if err != nil {
		return appValidation.WrapValidationError(err)
	}

	for _, line := range r.Lines {
		if err := line.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// OpenShiftRequest represents the API request for opening a shift.
type OpenShiftRequest struct {
	OpeningFloatCents int64 `json:"opening_float_cents"`
}

// Validate validates the OpenShiftRequest.
func (r *OpenShiftRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.OpeningFloatCents, appValidation.NonNegativeAmount),
	)
	return appValidation.WrapValidationError(err)
}

// CloseShiftRequest represents the API request for closing the current shift.
type CloseShiftRequest struct {
	ClosingAmountCents int64 `json:"closing_amount_cents"`
}

// Validate validates the CloseShiftRequest.
func (r *CloseShiftRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.ClosingAmountCents, appValidation.NonNegativeAmount),
	)
	return appValidation.WrapValidationError(err)
}

// RecordCashEventRequest represents the API request for a cash drawer movement.
type RecordCashEventRequest struct {
	Kind        string `json:"kind"`
	AmountCents int64  `json:"amount_cents"`
	Note        string `json:"note"`
}

// Validate validates the RecordCashEventRequest.
func (r *RecordCashEventRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Kind,
			validation.Required.Error("kind is required"),
			validation.In("paid_in", "paid_out").Error("kind must be paid_in or paid_out"),
		),
		validation.Field(&r.AmountCents, appValidation.PositiveAmount),
		validation.Field(&r.Note,
			validation.Length(0, 500).Error("note must be at most 500 characters"),
		),
	)
	return appValidation.WrapValidationError(err)
}
