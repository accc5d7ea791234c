package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")

	// ErrGenerationFailed marks a completion-message generation that errored
	// or came back empty. Callers fall back to a generic message instead of
	// dropping the notification.
	ErrGenerationFailed = errors.New("generation failed")
)
