package errs

import (
	"net/http"
	"strings"
)

// FieldError represents a field-level validation error.
//
//	{ "field": "amount", "error": "must be at least 1" }
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// HTTPError is the error type written to API responses.
type HTTPError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Status  int          `json:"status"`
	Errors  []FieldError `json:"errors,omitempty"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

// Is matches any *HTTPError, so errors.Is(err, &HTTPError{}) tells whether an
// error already carries an HTTP status.
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)
	return ok
}

// WithMessage returns a copy of e with Message replaced.
func (e *HTTPError) WithMessage(message string) *HTTPError {
	return &HTTPError{
		Code:    e.Code,
		Message: message,
		Status:  e.Status,
		Errors:  e.Errors,
	}
}

// Retryable reports whether the request may succeed if sent again unchanged.
func (e *HTTPError) Retryable() bool {
	return e.Status >= http.StatusInternalServerError || e.Status == http.StatusTooManyRequests
}

// MakeUpperCaseWithUnderscores converts "Bad Request" into "BAD_REQUEST".
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}

// New creates an HTTPError whose code is derived from the status text.
func New(status int, message string) *HTTPError {
	return &HTTPError{
		Code:    MakeUpperCaseWithUnderscores(http.StatusText(status)),
		Message: message,
		Status:  status,
	}
}

func NewBadRequestError(message string, errors ...FieldError) *HTTPError {
	e := New(http.StatusBadRequest, message)
	e.Errors = errors
	return e
}

func NewUnauthorizedError(message string) *HTTPError {
	return New(http.StatusUnauthorized, message)
}

func NewForbiddenError(message string) *HTTPError {
	return New(http.StatusForbidden, message)
}

func NewNotFoundError(message string) *HTTPError {
	return New(http.StatusNotFound, message)
}

func NewConflictError(message string) *HTTPError {
	return New(http.StatusConflict, message)
}

func NewUnprocessableError(message string) *HTTPError {
	return New(http.StatusUnprocessableEntity, message)
}

func NewPayloadTooLargeError(message string) *HTTPError {
	return New(http.StatusRequestEntityTooLarge, message)
}

// NewInternalServerError hides the underlying failure from the client.
func NewInternalServerError() *HTTPError {
	return New(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}
