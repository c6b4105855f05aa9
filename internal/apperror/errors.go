package apperror

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrTriageFailed = errors.New("failed to perform triage analysis")
	ErrUnavailable  = errors.New("dependency unavailable")
)

// Wire codes returned in the error envelope.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeInternal          = "INTERNAL_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeRateLimited       = "RATE_LIMIT_EXCEEDED"
	CodeTriageRateLimited = "TRIAGE_RATE_LIMIT_EXCEEDED"
	CodeSearchRateLimited = "SEARCH_RATE_LIMIT_EXCEEDED"
	CodeMissingQuery      = "MISSING_QUERY"
	CodeQueryTooShort     = "QUERY_TOO_SHORT"
	CodeSeverityTooHigh   = "SEVERITY_TOO_HIGH"
	CodeUnavailable       = "SERVICE_UNAVAILABLE"
	CodeSymptomNotFound   = "SYMPTOM_NOT_FOUND"
	CodeConditionNotFound = "CONDITION_NOT_FOUND"
	CodeSessionNotFound   = "SESSION_NOT_FOUND"
)

// Detail points at the offending field of a rejected request.
type Detail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Error is a client-visible error with a stable code.
type Error struct {
	Status  int      `json:"-"`
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []Detail `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Validation builds a 400 error that unwraps to ErrInvalidInput.
func Validation(message string, details ...Detail) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Code:    CodeValidation,
		Message: message,
		Details: details,
		cause:   ErrInvalidInput,
	}
}

// BadRequest builds a 400 error with a specific code.
func BadRequest(code, message string) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Code:    code,
		Message: message,
		cause:   ErrInvalidInput,
	}
}

// NotFound builds a 404 error that unwraps to ErrNotFound.
func NotFound(code, message string) *Error {
	return &Error{
		Status:  http.StatusNotFound,
		Code:    code,
		Message: message,
		cause:   ErrNotFound,
	}
}

// TooManyRequests builds a 429 error.
func TooManyRequests(code, message string) *Error {
	return &Error{
		Status:  http.StatusTooManyRequests,
		Code:    code,
		Message: message,
	}
}

// Internal builds a 500 error. The cause is kept for logs only.
func Internal(message string, cause error) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Code:    CodeInternal,
		Message: message,
		cause:   cause,
	}
}

// From classifies any error into an *Error. Unknown errors become 500s with a
// generic message so internals never leak.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return NotFound(CodeNotFound, "resource not found")
	case errors.Is(err, ErrInvalidInput):
		return Validation(err.Error())
	case errors.Is(err, ErrUnavailable):
		return &Error{Status: http.StatusServiceUnavailable, Code: CodeUnavailable, Message: "service temporarily unavailable", cause: err}
	default:
		return Internal("internal server error", err)
	}
}
