// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across api/session/store layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates the API rejected the credentials or the bearer token (401).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the caller lacks the role required for the resource (403).
	ErrForbidden = errors.New("forbidden")

	// ErrValidation indicates a request payload failed client or server validation (400/422).
	ErrValidation = errors.New("validation failed")

	// ErrConflict indicates a state conflict reported by the API (409).
	ErrConflict = errors.New("conflict")

	// ErrNoSession indicates an operation that needs a token was called without one.
	ErrNoSession = errors.New("not authorized")
)
