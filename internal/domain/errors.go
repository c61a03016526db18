package domain

import (
	"errors"
	"fmt"
)

// Sentinel error kinds used across all layers. Each kind maps to one
// response status at the transport boundary.
var (
	ErrNotFound     = errors.New("not found")
	ErrBadRequest   = errors.New("bad request")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Error is a kinded error carrying a client-facing message.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Kind }

// Errorf builds an *Error of the given kind with a formatted message.
func Errorf(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// DefaultMessage returns the generic client-facing message for a kind.
func DefaultMessage(kind error) string {
	switch {
	case errors.Is(kind, ErrNotFound):
		return "Resource not found"
	case errors.Is(kind, ErrBadRequest):
		return "Request error"
	case errors.Is(kind, ErrConflict):
		return "Resource conflict"
	case errors.Is(kind, ErrUnauthorized):
		return "Unauthorized"
	case errors.Is(kind, ErrForbidden):
		return "Forbidden"
	default:
		return "Server Error"
	}
}

// Message extracts the client-facing message of err. Errors without an
// explicit message fall back to the default message of their kind.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	return DefaultMessage(err)
}

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrBadRequest }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}
