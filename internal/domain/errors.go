package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across modules. Handlers map these to HTTP
// responses; repositories and services wrap them with %w so callers can
// test with errors.Is.
var (
	// ErrInsufficientHoldings is returned by a sell when the position is
	// missing or holds fewer units than requested. No writes are performed.
	ErrInsufficientHoldings = errors.New("insufficient holdings")

	// ErrOrderNotFound is returned when an order lookup misses.
	ErrOrderNotFound = errors.New("order not found")

	// ErrPositionNotFound is returned when a position lookup misses.
	ErrPositionNotFound = errors.New("position not found")

	// ErrUserNotFound is returned when a user lookup misses.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken is returned on registration with an existing email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned on login with a bad email/password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrGatewayDisabled is returned when the payment gateway is not configured.
	ErrGatewayDisabled = errors.New("payment gateway not configured")
)

// ValidationError reports a malformed or missing request field. It is
// returned before any storage lookup happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a validation error for a single field
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidationError reports whether err is (or wraps) a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StorageError wraps an underlying persistence failure. The core never
// retries these; retry policy belongs to the caller.
type StorageError struct {
	Op  string // Operation that failed (e.g. "order.create")
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure in %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err as a storage failure for the given operation
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// IsStorageError reports whether err is (or wraps) a StorageError
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
