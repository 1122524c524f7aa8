package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeNotFound    ErrorType = "NOT_FOUND"
	ErrTypeSchema      ErrorType = "SCHEMA"
	ErrTypeEmpty       ErrorType = "EMPTY"
	ErrTypeCardinality ErrorType = "CARDINALITY"
	ErrTypeParsing     ErrorType = "PARSING"
	ErrTypeStorage     ErrorType = "STORAGE"
	ErrTypeValidation  ErrorType = "VALIDATION"
	ErrTypeConfig      ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// IsType reports whether err wraps an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// Helper functions for common error types

// NewNotFoundError creates a not found error for a missing resource such as an input file
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil).
		WithContext("resource", resource)
}

// NewMissingColumnsError reports required columns absent from a table
func NewMissingColumnsError(table string, missing, found []string) *AppError {
	msg := fmt.Sprintf("%s: missing required columns: [%s]. Found: [%s]",
		table, strings.Join(missing, ", "), strings.Join(found, ", "))
	return NewAppError(ErrTypeSchema, msg, nil).
		WithContext("table", table).
		WithContext("missing", missing)
}

// NewEmptyTableError reports a table with zero rows
func NewEmptyTableError(table string) *AppError {
	return NewAppError(ErrTypeEmpty, fmt.Sprintf("%s is empty (0 rows)", table), nil).
		WithContext("table", table)
}

// NewCardinalityError reports a join whose secondary side repeats a key
func NewCardinalityError(key, value string, occurrences int) *AppError {
	msg := fmt.Sprintf("join key %q is not unique: value %q appears %d times", key, value, occurrences)
	return NewAppError(ErrTypeCardinality, msg, nil).
		WithContext("key", key).
		WithContext("value", value)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
