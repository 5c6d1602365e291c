package errorx

import (
	"fmt"
	"net/http"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryValidation     ErrorCategory = "validation"
	CategoryAuthentication ErrorCategory = "authentication"
	CategoryAuthorization  ErrorCategory = "authorization"
	CategoryNotFound       ErrorCategory = "not_found"
	CategoryConflict       ErrorCategory = "conflict"
	CategoryInternal       ErrorCategory = "internal"
	CategoryExternal       ErrorCategory = "external"
)

// Severity represents the severity level of an error
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// APIError represents a structured API error
type APIError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Category   ErrorCategory  `json:"category"`
	Severity   Severity       `json:"severity"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	TraceID    string         `json:"trace_id,omitempty"`
	Timestamp  string         `json:"timestamp,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Category, e.Message)
}

// WithDetail adds a detail to the error
func (e *APIError) WithDetail(key string, value any) *APIError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Validation creates a bad-request error for malformed or invalid input
func Validation(message string) *APIError {
	return &APIError{
		Code:       "E1001",
		Message:    message,
		Category:   CategoryValidation,
		Severity:   SeverityWarning,
		HTTPStatus: http.StatusBadRequest,
	}
}

// Unauthorized creates an authentication-missing error
func Unauthorized(message string) *APIError {
	return &APIError{
		Code:       "E1401",
		Message:    message,
		Category:   CategoryAuthentication,
		Severity:   SeverityWarning,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Forbidden creates an authorization-denied error. It carries no
// information about the target, so an unauthorized caller cannot learn
// whether the target exists.
func Forbidden() *APIError {
	return &APIError{
		Code:       "E1403",
		Message:    "insufficient permissions",
		Category:   CategoryAuthorization,
		Severity:   SeverityWarning,
		HTTPStatus: http.StatusForbidden,
	}
}

// NotFound creates a not-found error for a named resource. Only returned
// to callers already authorized to see the resource.
func NotFound(resource string) *APIError {
	return &APIError{
		Code:       "E1404",
		Message:    fmt.Sprintf("%s not found", resource),
		Category:   CategoryNotFound,
		Severity:   SeverityWarning,
		HTTPStatus: http.StatusNotFound,
	}
}

// Conflict creates a conflict error (duplicate email, duplicate module name)
func Conflict(message string) *APIError {
	return &APIError{
		Code:       "E1409",
		Message:    message,
		Category:   CategoryConflict,
		Severity:   SeverityWarning,
		HTTPStatus: http.StatusConflict,
	}
}

// Internal creates a generic internal error; the underlying cause is logged
// by the handler, never returned to the caller.
func Internal() *APIError {
	return &APIError{
		Code:       "E5001",
		Message:    "internal server error",
		Category:   CategoryInternal,
		Severity:   SeverityCritical,
		HTTPStatus: http.StatusInternalServerError,
	}
}
