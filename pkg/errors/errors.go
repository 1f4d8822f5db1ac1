package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode string

// Error codes shared across all packages
const (
	// Generic errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeStorage      ErrorCode = "STORAGE_ERROR"
	ErrCodeNotification ErrorCode = "NOTIFICATION_FAILED"

	// Validation errors
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeDisallowedField  ErrorCode = "DISALLOWED_FIELD"
	ErrCodeUnsupportedImage ErrorCode = "UNSUPPORTED_IMAGE"
	ErrCodeImageTooLarge    ErrorCode = "IMAGE_TOO_LARGE"

	// Authentication errors
	ErrCodeBadCredentials ErrorCode = "AUTH_BAD_CREDENTIALS"
	ErrCodeNoSuchAccount  ErrorCode = "AUTH_NO_SUCH_ACCOUNT"
	ErrCodeUnknownAccount ErrorCode = "AUTH_UNKNOWN_ACCOUNT"
	ErrCodeTokenExpired   ErrorCode = "TOKEN_EXPIRED"
	ErrCodeTokenMalformed ErrorCode = "TOKEN_MALFORMED"
	ErrCodeTokenInvalid   ErrorCode = "TOKEN_INVALID"
	ErrCodeSessionRevoked ErrorCode = "SESSION_REVOKED"

	// Conflict errors
	ErrCodeEmailTaken      ErrorCode = "EMAIL_TAKEN"
	ErrCodeVersionConflict ErrorCode = "VERSION_CONFLICT"
)

// Error represents a structured error with code, message, and optional details
type Error struct {
	Code    ErrorCode              // Unique error code
	Message string                 // Human-readable error message
	Details map[string]interface{} // Optional additional details
	Err     error                  // Wrapped underlying error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// HTTPStatusCode returns the appropriate HTTP status code for this error
func (e *Error) HTTPStatusCode() int {
	return MapErrorCodeToHTTPStatus(e.Code)
}

// New creates a new Error with the given code and message
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with code and message
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Wrapf wraps an existing error with code and formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// IsCode checks if an error has a specific error code
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
// Returns ErrCodeInternal if the error is not a structured Error
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// IsValidation reports whether the error is user-correctable bad input
func IsValidation(err error) bool {
	switch GetCode(err) {
	case ErrCodeValidationFailed, ErrCodeDisallowedField, ErrCodeUnsupportedImage, ErrCodeImageTooLarge:
		return true
	}
	return false
}

// MapErrorCodeToHTTPStatus maps error codes to HTTP status codes
func MapErrorCodeToHTTPStatus(code ErrorCode) int {
	switch code {
	// 400 Bad Request
	case ErrCodeValidationFailed, ErrCodeDisallowedField,
		ErrCodeUnsupportedImage, ErrCodeImageTooLarge:
		return http.StatusBadRequest

	// 401 Unauthorized
	case ErrCodeBadCredentials, ErrCodeNoSuchAccount, ErrCodeUnknownAccount,
		ErrCodeTokenExpired, ErrCodeTokenMalformed, ErrCodeTokenInvalid,
		ErrCodeSessionRevoked:
		return http.StatusUnauthorized

	// 404 Not Found
	case ErrCodeNotFound:
		return http.StatusNotFound

	// 409 Conflict
	case ErrCodeEmailTaken, ErrCodeVersionConflict:
		return http.StatusConflict

	// 500 Internal Server Error (default)
	case ErrCodeInternal, ErrCodeStorage, ErrCodeNotification:
		fallthrough
	default:
		return http.StatusInternalServerError
	}
}

// NotFound creates a "not found" error
func NotFound(resourceType, identifier string) *Error {
	return Newf(ErrCodeNotFound, "%s not found: %s", resourceType, identifier)
}

// Validation creates a field-level validation error
func Validation(field, reason string) *Error {
	return New(ErrCodeValidationFailed, fmt.Sprintf("invalid %s: %s", field, reason)).
		WithDetail("field", field)
}

// StorageWrap wraps a persistence-layer failure
func StorageWrap(err error, message string) *Error {
	return Wrap(err, ErrCodeStorage, message)
}
