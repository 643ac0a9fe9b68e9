// Package access implements the visit access-control state machine: the
// typed rejection taxonomy, the scan guard chain, visit status
// derivation, per-visitor progression and ban aggregation.  Everything
// in this package is pure: callers supply snapshots of database state
// and the current time, which keeps the guard order testable without a
// database.
package access

import "fmt"

// Kind is the stable machine-readable classification of a rejection.
// Values are part of the wire contract with scanning and host clients
// and must not change once released.
type Kind string

const (
    KindValidation        Kind = "validation"
    KindCapacityExceeded  Kind = "capacity_exceeded"
    KindVisitorBanned     Kind = "visitor_banned"
    KindAdmissionDenied   Kind = "admission_denied"
    KindCodeNotFound      Kind = "code_not_found"
    KindCodeExpired       Kind = "code_expired"
    KindVisitClosed       Kind = "visit_already_closed"
    KindDuplicateEntry    Kind = "duplicate_entry"
    KindDuplicateExit     Kind = "duplicate_exit"
    KindExitWithoutEntry  Kind = "exit_without_entry"
    KindConflict          Kind = "conflict"
    KindIssuanceExhausted Kind = "issuance_exhausted"
    KindStorage           Kind = "storage"
)

// Error is a typed rejection carrying a stable kind and a
// human-readable message.  Guard failures are recovered into an Error
// and returned to the caller; they are never retried by the core.
type Error struct {
    Kind    Kind   `json:"kind"`
    Message string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
    return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewError builds a typed rejection with a formatted message.
func NewError(kind Kind, format string, args ...interface{}) *Error {
    return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// AsError unwraps err into a typed *Error when possible.  Plain errors
// (driver failures, context cancellation) are reported as storage
// errors so that callers always see a stable kind.
func AsError(err error) *Error {
    if err == nil {
        return nil
    }
    if e, ok := err.(*Error); ok {
        return e
    }
    return &Error{Kind: KindStorage, Message: err.Error()}
}
