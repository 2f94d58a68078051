// Package validation provides custom validation rules for the application.
package validation

import (
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/possync/internal/errors"
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// PositiveAmount validates that an integer amount of cents is strictly positive.
var PositiveAmount = validation.By(func(value interface{}) error {
	amount, ok := value.(int64)
	if !ok {
		return validation.NewError("validation_amount_type", "must be an amount in cents")
	}
	if amount <= 0 {
		return validation.NewError("validation_amount_positive", "must be greater than zero")
	}
	return nil
})

// NonNegativeAmount validates that an integer amount of cents is zero or more.
var NonNegativeAmount = validation.By(func(value interface{}) error {
	amount, ok := value.(int64)
	if !ok {
		return validation.NewError("validation_amount_type", "must be an amount in cents")
	}
	if amount < 0 {
		return validation.NewError("validation_amount_non_negative", "must not be negative")
	}
	return nil
})
