// Package errors provides standardized domain errors that express business intent
// rather than infrastructure details. These errors should be used by use cases
// and mapped to appropriate HTTP status codes by handlers.
package errors

import (
	"errors"
	"fmt"
)

// Standard domain errors that can be used across all domain modules.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates the server's authoritative state and the locally
	// intended effect cannot both hold (e.g. a shift already closed elsewhere).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates the request lacks valid authentication credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnreachable indicates the central server could not be reached
	// (network failure or timeout). Operations failing with ErrUnreachable
	// are transient and safe to retry later.
	ErrUnreachable = errors.New("server unreachable")
)

// RemoteError carries the central server's response details for a rejected
// command delivery, so the dispatcher can classify the outcome.
type RemoteError struct {
	StatusCode int
	Code       string
	Message    string
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("server returned %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Unauthorized reports whether the server rejected the credentials.
func (e *RemoteError) Unauthorized() bool {
	return e.StatusCode == 401
}

// Conflict reports whether the server signalled state divergence, either via
// HTTP 409 or an explicit divergence code in the error envelope.
func (e *RemoteError) Conflict() bool {
	return e.StatusCode == 409 || e.Code == "state_diverged"
}

// Permanent reports whether resubmitting the same input would fail identically
// (validation or business rule rejection). Auth and conflict outcomes are
// classified separately.
func (e *RemoteError) Permanent() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500 && !e.Unauthorized() && !e.Conflict()
}

// Transient reports whether the failure is server-side and worth retrying.
func (e *RemoteError) Transient() bool {
	return e.StatusCode >= 500
}

// New creates a new error with the given message.
// This is a convenience wrapper around errors.New for consistency.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the error chain.
// Use this to add context at each layer without losing the original error type.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's tree matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}
