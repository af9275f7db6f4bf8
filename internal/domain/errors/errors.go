package errors

import (
	"errors"
	"fmt"
)

// Error types for the review pipeline
type ErrorType string

const (
	ErrorTypeValidation       ErrorType = "validation"
	ErrorTypeConfiguration    ErrorType = "configuration"
	ErrorTypeInsufficientData ErrorType = "insufficient_data"
	ErrorTypeInternal         ErrorType = "internal"
	ErrorTypeExternal         ErrorType = "external"
	ErrorTypeNotFound         ErrorType = "not_found"
	ErrorTypeRateLimit        ErrorType = "rate_limit"
)

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType              `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{}, len(details))
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// Field returns the offending field name of a validation error, if any.
func (e *AppError) Field() string {
	if f, ok := e.Details["field"].(string); ok {
		return f
	}
	return ""
}

// Error constructors

// NewValidationError reports malformed or missing input. field names the
// offending input field.
func NewValidationError(field, message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Code:    "INVALID_" + toCode(field),
		Message: message,
		Details: map[string]interface{}{"field": field},
	}
}

// NewConfigurationError reports a missing or invalid policy/application
// configuration. Callers fail the run before any record is processed.
func NewConfigurationError(code, message string) *AppError {
	return &AppError{
		Type:    ErrorTypeConfiguration,
		Code:    code,
		Message: message,
	}
}

// NewInsufficientDataError reports a training set too small or too skewed
// to produce a model.
func NewInsufficientDataError(code, message string) *AppError {
	return &AppError{
		Type:    ErrorTypeInsufficientData,
		Code:    code,
		Message: message,
	}
}

func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Code:    "RESOURCE_NOT_FOUND",
		Message: fmt.Sprintf("%s not found", resource),
	}
}

func NewInternalError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
}

func NewExternalError(service, message string) *AppError {
	return &AppError{
		Type:    ErrorTypeExternal,
		Code:    "EXTERNAL_SERVICE_ERROR",
		Message: fmt.Sprintf("%s service error: %s", service, message),
		Details: map[string]interface{}{"service": service},
	}
}

func NewRateLimitError(service string) *AppError {
	return &AppError{
		Type:    ErrorTypeRateLimit,
		Code:    "RATE_LIMIT_EXCEEDED",
		Message: fmt.Sprintf("%s rate limit exceeded", service),
		Details: map[string]interface{}{"service": service},
	}
}

// Wrap wraps an error with a message using fmt.Errorf with %w
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsType checks if an error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// As extracts the AppError from an error chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func toCode(field string) string {
	out := make([]byte, 0, len(field))
	for i := 0; i < len(field); i++ {
		c := field[i]
		switch {
		case c >= 'a' && c <= 'z':
			out = append(out, c-'a'+'A')
		case c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "INPUT"
	}
	return string(out)
}
