package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the receivables API.
type APIError struct {
	Status  int    // HTTP status code
	Message string // "message" field of the error body, if any
	Method  string
	Path    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

// Is maps status codes onto the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrValidation:
		return e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity
	case ErrConflict:
		return e.Status == http.StatusConflict
	}
	return false
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

// IsUnauthorized reports whether err is an authorization rejection (401).
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }

// Message picks a user-facing message: the API message first, then the error
// text, then fallback.
func Message(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	var ae *APIError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	if s := err.Error(); s != "" {
		return s
	}
	return fallback
}
