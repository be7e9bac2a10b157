// Package errors provides structured error types for the planner.
//
// All errors crossing a package boundary should use these types so that
// logging, execution records and Pub/Sub retry decisions stay consistent.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a unique error identifier for categorization.
type ErrorCode string

// Common error codes used throughout the planner.
const (
	// User errors
	CodeUserNotFound   ErrorCode = "USER_NOT_FOUND"
	CodeProfileInvalid ErrorCode = "PROFILE_INVALID"

	// Planning errors
	CodeNoSafeExercises       ErrorCode = "NO_SAFE_EXERCISES"
	CodeInvalidExerciseRecord ErrorCode = "INVALID_EXERCISE_RECORD"
	CodeConfigInvalid         ErrorCode = "CONFIG_INVALID"

	// Infrastructure errors
	CodeStorageError ErrorCode = "STORAGE_ERROR"
	CodePubSubError  ErrorCode = "PUBSUB_ERROR"
	CodeExportError  ErrorCode = "EXPORT_ERROR"

	// General errors
	CodeValidationError ErrorCode = "VALIDATION_ERROR"
	CodeInternalError   ErrorCode = "INTERNAL_ERROR"
	CodeTimeoutError    ErrorCode = "TIMEOUT_ERROR"
)

// PlanError is the base error type for all planner errors.
// It carries an error code, retry semantics and contextual metadata.
type PlanError struct {
	Code      ErrorCode         // Unique error code for categorization
	Message   string            // Human-readable error message
	Cause     error             // Underlying error (if any)
	Retryable bool              // Whether the operation can be retried
	Metadata  map[string]string // Additional context
}

// Error implements the error interface.
func (e *PlanError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *PlanError) Unwrap() error {
	return e.Cause
}

// Is matches any PlanError carrying the same code, so derived errors
// (WithCause, WithMetadata) still satisfy errors.Is against the sentinels.
func (e *PlanError) Is(target error) bool {
	t, ok := target.(*PlanError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause wraps an underlying error.
func (e *PlanError) WithCause(cause error) *PlanError {
	return &PlanError{
		Code:      e.Code,
		Message:   e.Message,
		Cause:     cause,
		Retryable: e.Retryable,
		Metadata:  e.Metadata,
	}
}

// WithMessage replaces the message.
func (e *PlanError) WithMessage(msg string) *PlanError {
	return &PlanError{
		Code:      e.Code,
		Message:   msg,
		Cause:     e.Cause,
		Retryable: e.Retryable,
		Metadata:  e.Metadata,
	}
}

// WithMetadata adds contextual metadata.
func (e *PlanError) WithMetadata(key, value string) *PlanError {
	meta := make(map[string]string, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		meta[k] = v
	}
	meta[key] = value
	return &PlanError{
		Code:      e.Code,
		Message:   e.Message,
		Cause:     e.Cause,
		Retryable: e.Retryable,
		Metadata:  meta,
	}
}

// Pre-defined sentinel errors for common cases.
// Use these with errors.Is() or derive from them with .WithCause().
var (
	ErrUserNotFound   = &PlanError{Code: CodeUserNotFound, Message: "user not found", Retryable: false}
	ErrProfileInvalid = &PlanError{Code: CodeProfileInvalid, Message: "invalid user profile", Retryable: false}

	ErrNoSafeExercises       = &PlanError{Code: CodeNoSafeExercises, Message: "not enough safe exercises to build a plan", Retryable: false}
	ErrInvalidExerciseRecord = &PlanError{Code: CodeInvalidExerciseRecord, Message: "invalid exercise record", Retryable: false}
	ErrConfigInvalid         = &PlanError{Code: CodeConfigInvalid, Message: "invalid configuration", Retryable: false}

	ErrStorageError = &PlanError{Code: CodeStorageError, Message: "storage error", Retryable: true}
	ErrPubSubError  = &PlanError{Code: CodePubSubError, Message: "pubsub error", Retryable: true}
	ErrExportError  = &PlanError{Code: CodeExportError, Message: "export error", Retryable: false}

	ErrValidation = &PlanError{Code: CodeValidationError, Message: "validation error", Retryable: false}
	ErrInternal   = &PlanError{Code: CodeInternalError, Message: "internal error", Retryable: false}
	ErrTimeout    = &PlanError{Code: CodeTimeoutError, Message: "timeout", Retryable: true}
)

// New creates a new PlanError with the given code and message.
func New(code ErrorCode, message string) *PlanError {
	return &PlanError{
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// NewRetryable creates a new retryable PlanError.
func NewRetryable(code ErrorCode, message string) *PlanError {
	return &PlanError{
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// Wrap wraps an error with a PlanError.
func Wrap(cause error, code ErrorCode, message string) *PlanError {
	return &PlanError{
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: false,
	}
}

// WrapRetryable wraps an error with a retryable PlanError.
func WrapRetryable(cause error, code ErrorCode, message string) *PlanError {
	return &PlanError{
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: true,
	}
}

// IsRetryable checks if an error (or anything it wraps) is retryable.
func IsRetryable(err error) bool {
	var pe *PlanError
	if stderrors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// GetCode extracts the error code from an error, if available.
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var pe *PlanError
	if stderrors.As(err, &pe) {
		return pe.Code
	}
	return CodeInternalError
}
