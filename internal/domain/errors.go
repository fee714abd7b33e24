package domain

import (
	"fmt"
	"strings"
)

// Error types for consistent error handling across the tracker.

// ErrNotFound indicates a resource was not found (or is not owned by the caller).
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrTimeout indicates an operation exceeded its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// FieldError is a single field-level validation problem.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrValidation indicates a validation error (bad input).
// Field/Message describe the first problem; Fields lists all of them.
type ErrValidation struct {
	Field   string
	Message string
	Fields  []FieldError
}

func (e *ErrValidation) Error() string {
	if len(e.Fields) > 1 {
		parts := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			parts = append(parts, fmt.Sprintf("'%s': %s", f.Field, f.Message))
		}
		return "validation error on " + strings.Join(parts, ", ")
	}
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// NewValidationError builds an ErrValidation from one or more field errors.
// It returns nil when fields is empty.
func NewValidationError(fields []FieldError) *ErrValidation {
	if len(fields) == 0 {
		return nil
	}
	return &ErrValidation{Field: fields[0].Field, Message: fields[0].Message, Fields: fields}
}

// ErrUnauthorized indicates invalid credentials or token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrParse carries a parse failure through the service layer.
type ErrParse struct {
	Failure *ParseFailure
}

func (e *ErrParse) Error() string {
	if e.Failure.Detail != "" {
		return fmt.Sprintf("parse failed [%s]: %s: %s", e.Failure.Kind, e.Failure.Reason, e.Failure.Detail)
	}
	return fmt.Sprintf("parse failed [%s]: %s", e.Failure.Kind, e.Failure.Reason)
}
