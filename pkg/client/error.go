package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"github.com/doodlesbykumbi/community-in-go/pkg/errs"
)

// maxErrorBody bounds how much of a failed response is read.
const maxErrorBody = 64 << 10

var (
	// ErrNotAuthenticated is returned when a request needs a token and the
	// client has none.
	ErrNotAuthenticated = errors.New("client is not authenticated")
	// ErrTokenExpired is returned instead of sending a request with a token
	// that has already expired.
	ErrTokenExpired = errors.New("access token expired")
	// ErrNoRows is returned by Single when nothing matched.
	ErrNoRows = errors.New("no rows in result")
)

// Error is a non-2xx response from the server.
type Error struct {
	Method string
	Path   string
	errs.HTTPError
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.Status, e.Code, e.Message)
}

// Field returns the validation message for field, if the server sent one.
func (e *Error) Field(field string) (string, bool) {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return fe.Error, true
		}
	}
	return "", false
}

// decodeError builds an *Error from a failed response. Bodies that are not
// the server's JSON error shape become the message verbatim.
func decodeError(resp *http.Response) *Error {
	e := &Error{
		Method: resp.Request.Method,
		Path:   resp.Request.URL.Path,
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err := json.Unmarshal(body, &e.HTTPError); err != nil || e.Code == "" {
		e.HTTPError = *errs.New(resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if e.Status == 0 {
		e.Status = resp.StatusCode
	}
	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}
	return e
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// IsRetryable reports whether sending the same request again might
// succeed: server errors, rate limiting and transport failures are
// retryable, cancellation and client errors are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable()
	}
	var ue *url.Error
	return errors.As(err, &ue)
}
