// Package errors provides custom error types for the pricemap system.
// These errors let callers tell apart the failure kinds a reconciliation run
// distinguishes: fatal preconditions, degraded remote batches, malformed stock
// entries, and persistence failures.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is and As mirror the standard library so callers need a single import.
var (
	Is = errors.Is
	As = errors.As
)

// Common sentinel errors for the pricemap system
var (
	// ErrPrecondition indicates a run could not start: unreadable catalog,
	// missing columns, no warehouse list, or a checkpoint for another catalog
	ErrPrecondition = errors.New("precondition failed")

	// ErrRemoteUnavailable indicates the pricing API kept failing after all retries
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// ErrMalformedStock indicates a stock listing entry that is not "name (qty)"
	ErrMalformedStock = errors.New("malformed stock entry")

	// ErrPersistence indicates a checkpoint or output artifact could not be written
	ErrPersistence = errors.New("persistence failure")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

// PreconditionError represents a fatal failure detected before any batch is processed.
type PreconditionError struct {
	Subject string // "catalog", "warehouses", "checkpoint", "config"
	Message string
	Err     error
}

// Error implements the error interface
func (e *PreconditionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("precondition failed for %s: %s: %v", e.Subject, e.Message, e.Err)
	}
	return fmt.Sprintf("precondition failed for %s: %s", e.Subject, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *PreconditionError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}

// NewPreconditionError creates a new PreconditionError
func NewPreconditionError(subject, message string, err error) *PreconditionError {
	return &PreconditionError{Subject: subject, Message: message, Err: err}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// APIError represents a single failed call to the pricing API, either at the
// HTTP level (StatusCode) or at the application level (Code).
type APIError struct {
	Method     string
	StatusCode int
	Code       int
	Message    string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	switch {
	case e.Code != 0:
		return fmt.Sprintf("API error from %s (code %d): %s", e.Method, e.Code, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("API error from %s (status %d): %s", e.Method, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("API error from %s: %s", e.Method, e.Message)
	}
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// RemoteUnavailableError is returned once every attempt of a request has failed.
// It wraps the error of the last attempt.
type RemoteUnavailableError struct {
	Method   string
	Attempts int
	Err      error
}

// Error implements the error interface
func (e *RemoteUnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable after %d attempts: %v", e.Method, e.Attempts, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *RemoteUnavailableError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *RemoteUnavailableError) Is(target error) bool {
	return target == ErrRemoteUnavailable
}

// PersistenceError represents a failed read or write of durable state.
type PersistenceError struct {
	Operation string // "load", "save", "delete", "write"
	Path      string
	Err       error
}

// Error implements the error interface
func (e *PersistenceError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("persistence error during %s of %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("persistence error during %s: %v", e.Operation, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml", "xlsx", "csv", "stock"
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ParseError) Is(target error) bool {
	return e.Format == "stock" && target == ErrMalformedStock
}

// Helper functions for error checking

// IsPrecondition checks if an error is a precondition failure
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrPrecondition)
}

// IsRemoteUnavailable checks if an error indicates the pricing API gave up
func IsRemoteUnavailable(err error) bool {
	return errors.Is(err, ErrRemoteUnavailable)
}

// IsPersistence checks if an error is a persistence failure
func IsPersistence(err error) bool {
	return errors.Is(err, ErrPersistence)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// Helper wrapping functions for common patterns

// WrapPersistence wraps an error as a PersistenceError
func WrapPersistence(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Operation: operation, Path: path, Err: err}
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Format: format, File: file, Message: err.Error(), Err: err}
}

// WrapPrecondition wraps an error as a PreconditionError
func WrapPrecondition(subject, message string, err error) error {
	if err == nil {
		return nil
	}
	return NewPreconditionError(subject, message, err)
}
