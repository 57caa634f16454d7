// Package common provides shared errors and helpers used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Authentication and authorization errors.
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccessDenied       = errors.New("access denied")
	ErrTokenRevoked       = errors.New("token revoked")

	// Record errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")
	ErrInUse          = errors.New("record is referenced by other records")

	// Input errors.
	ErrValidation   = errors.New("validation failed")
	ErrImportFormat = errors.New("malformed or incomplete backup file")
)

// ValidationError reports a rejected input field. It unwraps to
// ErrValidation so callers can branch on the class without losing
// the field detail.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a field-level validation error.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
