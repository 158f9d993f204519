package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"

	// ErrCodeConfiguration indicates the access-control configuration cannot be used
	// (unreadable CA file, malformed record). The directory is never contacted.
	ErrCodeConfiguration ErrorCode = "configuration"
	// ErrCodeDirectoryUnavailable indicates the directory could not be reached
	// (connection refused, DNS failure, timeout, protocol error).
	ErrCodeDirectoryUnavailable ErrorCode = "directory_unavailable"
	// ErrCodeInvalidServiceCredentials indicates the service account bind was rejected.
	ErrCodeInvalidServiceCredentials ErrorCode = "invalid_service_credentials"
	// ErrCodeAmbiguousOrNotFound indicates a user lookup matched zero or several entries.
	ErrCodeAmbiguousOrNotFound ErrorCode = "ambiguous_or_not_found"
	// ErrCodeInvalidCredentials indicates a bind with user-supplied credentials failed.
	ErrCodeInvalidCredentials ErrorCode = "invalid_credentials"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message for operators
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field is the specific field that caused the error (optional, for validation errors)
	Field string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates an AppError with the given code and message.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return New(ErrCodeNotFound, message)
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return New(ErrCodeValidation, message)
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
		Field:   field,
	}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

// Configuration creates a new Configuration error.
func Configuration(message string) *AppError {
	return New(ErrCodeConfiguration, message)
}

// DirectoryUnavailable creates a new DirectoryUnavailable error.
func DirectoryUnavailable(message string) *AppError {
	return New(ErrCodeDirectoryUnavailable, message)
}

// AmbiguousOrNotFound creates a new AmbiguousOrNotFound error.
func AmbiguousOrNotFound(message string) *AppError {
	return New(ErrCodeAmbiguousOrNotFound, message)
}

// InvalidCredentials creates a new InvalidCredentials error.
func InvalidCredentials(message string) *AppError {
	return New(ErrCodeInvalidCredentials, message)
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool {
	return isCode(err, ErrCodeNotFound)
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool {
	return isCode(err, ErrCodeValidation)
}

// IsTimeout checks if an error is a Timeout error.
func IsTimeout(err error) bool {
	return isCode(err, ErrCodeTimeout)
}

// IsConfiguration checks if an error is a Configuration error.
func IsConfiguration(err error) bool {
	return isCode(err, ErrCodeConfiguration)
}

// IsDirectoryUnavailable checks if an error is a DirectoryUnavailable error.
func IsDirectoryUnavailable(err error) bool {
	return isCode(err, ErrCodeDirectoryUnavailable)
}

// IsInvalidCredentials checks if an error is an InvalidCredentials error.
func IsInvalidCredentials(err error) bool {
	return isCode(err, ErrCodeInvalidCredentials)
}

// IsInvalidServiceCredentials checks if an error is an InvalidServiceCredentials error.
func IsInvalidServiceCredentials(err error) bool {
	return isCode(err, ErrCodeInvalidServiceCredentials)
}

// IsAmbiguousOrNotFound checks if an error is an AmbiguousOrNotFound error.
func IsAmbiguousOrNotFound(err error) bool {
	return isCode(err, ErrCodeAmbiguousOrNotFound)
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}
