// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios.  For
// example, ErrForbidden indicates that the current user is not authorized
// to act on a resource assigned to someone else, while ErrConflict signals
// that an operation cannot proceed due to existing state (e.g. registering
// a second payment for a table that already has one).
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they are not assigned to.  Handlers should translate this into
// an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be performed because of
// conflicting state, such as a duplicate payment or a backward order
// status transition.  Handlers should translate this into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")
