// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to perform an operation on a resource owned by
// someone else, while ErrConflict signals that an operation
// cannot proceed due to existing conflicting records (e.g. banning
// a phone the same resident already has an active ban on).
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an insert or update cannot be
// performed because of conflicting state, such as creating a
// duplicate active ban. Handlers should translate this into an
// HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrCapacity is returned when a building has no spare admission
// licenses. The conditional increment shares a transaction with the
// visit insert, so two concurrent creations can never both consume
// the last license.
var ErrCapacity = errors.New("no spare licenses")

// ErrDuplicateCode is returned when an insert collides with the
// visits.qr_code unique index. Callers regenerate the code and retry
// a bounded number of times.
var ErrDuplicateCode = errors.New("qr code already exists")
