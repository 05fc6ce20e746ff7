package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates a validation error
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeConflict indicates a conflict with existing data
	ErrorTypeConflict ErrorType = "CONFLICT"

	// ErrorTypeInvalidState indicates an operation attempted from a state
	// that forbids it
	ErrorTypeInvalidState ErrorType = "INVALID_STATE"

	// ErrorTypeAlreadyCheckedIn indicates the check-in idempotency guard
	// was triggered
	ErrorTypeAlreadyCheckedIn ErrorType = "ALREADY_CHECKED_IN"

	// ErrorTypeEmptyQueue indicates there is no callable queue entry
	ErrorTypeEmptyQueue ErrorType = "EMPTY_QUEUE"

	// ErrorTypeAllocationConflict indicates a queue-number allocation race
	// was detected; safe to retry
	ErrorTypeAllocationConflict ErrorType = "ALLOCATION_CONFLICT"

	// ErrorTypeTransactionFailed indicates the underlying store rolled back
	ErrorTypeTransactionFailed ErrorType = "TRANSACTION_FAILED"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// IsType reports whether err is an AppError of the given type anywhere in
// its chain.
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// Retryable reports whether the operation that produced err may be retried
// without operator intervention. Only allocation conflicts qualify.
func Retryable(err error) bool {
	return IsType(err, ErrorTypeAllocationConflict)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeConflict,
		Message: message,
	}
}

// NewInvalidStateError creates a new invalid state error
func NewInvalidStateError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeInvalidState,
		Message: message,
	}
}

// NewAlreadyCheckedInError creates a new already checked in error
func NewAlreadyCheckedInError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeAlreadyCheckedIn,
		Message: message,
	}
}

// NewEmptyQueueError creates a new empty queue error
func NewEmptyQueueError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeEmptyQueue,
		Message: message,
	}
}

// NewAllocationConflictError creates a new allocation conflict error
func NewAllocationConflictError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeAllocationConflict,
		Message: message,
		Err:     err,
	}
}

// NewTransactionFailedError creates a new transaction failed error
func NewTransactionFailedError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeTransactionFailed,
		Message: message,
		Err:     err,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}
