package transport

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

var (
	// ErrInvalidHref is returned when an href cannot be parsed or resolved.
	ErrInvalidHref = errors.New("transport: invalid href")

	// ErrDecode is returned when a response body is not valid JSON.
	ErrDecode = errors.New("transport: decode response")

	// ErrCircuitOpen is returned when the breaker for a host is open.
	ErrCircuitOpen = errors.New("transport: circuit breaker is open")

	// ErrTimeout is returned when a single attempt exceeds Config.Timeout.
	ErrTimeout = errors.New("transport: request timed out")
)

// StatusError reports a non-2xx response.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
}

// Error formats as "<status text> response executing <METHOD> on <url>.".
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s response executing %s on %s.", e.statusText(), e.Method, e.URL)
}

func (e *StatusError) statusText() string {
	// http.Response.Status is "404 Not Found"; keep the reason phrase.
	if text := strings.TrimSpace(strings.TrimPrefix(e.Status, strconv.Itoa(e.StatusCode))); text != "" {
		return text
	}
	if text := http.StatusText(e.StatusCode); text != "" {
		return text
	}
	return strconv.Itoa(e.StatusCode)
}

// Temporary reports whether the status is worth retrying: 5xx or 429.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// IsStatus reports whether err wraps a *StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
