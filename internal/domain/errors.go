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
	// ErrInvalidState marks an operation attempted outside its legal workflow state,
	// e.g. a claim before identity confirmation or a second review of a closed request.
	ErrInvalidState = errors.New("invalid state")
	// ErrStorage wraps document store failures.
	ErrStorage = errors.New("storage error")
)
