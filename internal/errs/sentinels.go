// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across client layers.
var (
	// ErrNotFound indicates the backend has no such entity.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates the backend rejected the bearer token or credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenAbsent indicates no token is stored locally.
	ErrTokenAbsent = errors.New("token absent")

	// ErrTokenMalformed indicates the stored token cannot be decoded.
	ErrTokenMalformed = errors.New("token malformed")

	// ErrValidation indicates a form failed client-side validation; nothing was sent.
	ErrValidation = errors.New("validation failed")

	// ErrUnknownRoute indicates navigation to a route the router does not serve.
	ErrUnknownRoute = errors.New("unknown route")
)
