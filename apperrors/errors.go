package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// ErrorCode represents application-specific error codes
type ErrorCode string

const (
	// Authentication & Authorization
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInvalidCreds ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeMissingToken ErrorCode = "MISSING_TOKEN"
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"

	// User Management
	ErrCodeUserNotFound ErrorCode = "USER_NOT_FOUND"
	ErrCodeUserExists   ErrorCode = "USER_EXISTS"

	// Customer requests
	ErrCodeRequestNotFound ErrorCode = "REQUEST_NOT_FOUND"

	// Storage
	ErrCodeStorageError ErrorCode = "STORAGE_ERROR"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"

	// Rate Limiting
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"

	// Validation
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"

	// Internal Errors
	ErrCodeInternal       ErrorCode = "INTERNAL_ERROR"
	ErrCodeServiceUnavail ErrorCode = "SERVICE_UNAVAILABLE"
)

// AppError represents a structured application error
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"-"`
	Internal   error                  `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Internal)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Internal
}

// WithDetails adds contextual details to the error
func (e *AppError) WithDetails(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithInternal wraps an internal error
func (e *AppError) WithInternal(err error) *AppError {
	e.Internal = err
	return e
}

// HTTPStatus reports the response status the error maps to
func (e *AppError) HTTPStatus() int {
	return e.StatusCode
}

// LogFields flattens the error into logger fields
func (e *AppError) LogFields() map[string]any {
	fields := map[string]any{
		"code":   string(e.Code),
		"status": e.StatusCode,
	}
	for k, v := range e.Details {
		fields[k] = v
	}
	if e.Internal != nil {
		fields["internal"] = e.Internal.Error()
	}
	return fields
}

// New creates a new AppError
func New(code ErrorCode, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Pre-defined error constructors for common cases

func NewValidationError(message string) *AppError {
	return New(ErrCodeValidationFailed, message, fiber.StatusBadRequest)
}

func NewBadRequest(message string) *AppError {
	if message == "" {
		message = "Bad request"
	}
	return New(ErrCodeInvalidInput, message, fiber.StatusBadRequest)
}

func NewDuplicateEmail(email string) *AppError {
	return New(ErrCodeUserExists, "Email already registered", fiber.StatusBadRequest).
		WithDetails("email", email)
}

func NewUserNotFound() *AppError {
	return New(ErrCodeUserNotFound, "User not found", fiber.StatusBadRequest)
}

func NewInvalidCredentials() *AppError {
	return New(ErrCodeInvalidCreds, "Incorrect password", fiber.StatusBadRequest)
}

func NewMissingToken() *AppError {
	return New(ErrCodeMissingToken, "Missing token", fiber.StatusUnauthorized)
}

func NewInvalidToken() *AppError {
	return New(ErrCodeInvalidToken, "Invalid token", fiber.StatusUnauthorized)
}

func NewUnauthorizedAdmin() *AppError {
	return New(ErrCodeUnauthorized, "Unauthorized", fiber.StatusUnauthorized)
}

func NewRequestNotFound() *AppError {
	return New(ErrCodeRequestNotFound, "Request not found", fiber.StatusBadRequest)
}

func NewStorageError(operation string, err error) *AppError {
	return New(ErrCodeStorageError, "Storage operation failed", fiber.StatusInternalServerError).
		WithDetails("operation", operation).
		WithInternal(err)
}

func NewInternalError(message string) *AppError {
	if message == "" {
		message = "An internal error occurred"
	}
	return New(ErrCodeInternal, message, fiber.StatusInternalServerError)
}

func NewRateLimitError() *AppError {
	return New(ErrCodeRateLimited, "Too many requests. Please try again later.", http.StatusTooManyRequests)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// HasCode reports whether err is an AppError carrying the given code
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// FromError converts a standard error to AppError if possible
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	// Convert known fiber errors
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		switch fiberErr.Code {
		case fiber.StatusUnauthorized:
			return NewUnauthorizedAdmin()
		case fiber.StatusNotFound:
			return New(ErrCodeNotFound, "Resource not found", fiber.StatusNotFound)
		case fiber.StatusMethodNotAllowed:
			return New(ErrCodeNotFound, "Method not allowed", fiber.StatusMethodNotAllowed)
		case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
			return NewBadRequest("Invalid request body")
		case fiber.StatusRequestEntityTooLarge:
			return New(ErrCodeInvalidInput, "Request body too large", fiber.StatusRequestEntityTooLarge)
		}
	}

	// Default to internal error
	return NewInternalError("").WithInternal(err)
}
