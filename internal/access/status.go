package access

import "time"

// Visit lifecycle statuses.  The status column is a projection of the
// entered/exited booleans plus time; it is recomputed by DeriveStatus
// on every write and never mutated independently, so the stored value
// and the booleans cannot drift apart.
const (
    StatusPending   = "pending"
    StatusConfirmed = "confirmed"
    StatusActive    = "active"
    StatusCompleted = "completed"
    StatusCancelled = "cancelled"
    StatusExpired   = "expired"
)

// Visit types.
const (
    VisitTypeSingle = "SINGLE"
    VisitTypeGroup  = "GROUP"
)

// Scan actions.
const (
    ActionEntry = "ENTRY"
    ActionExit  = "EXIT"
)

// IsTerminal reports whether a visit status permits no further entry
// or exit mutation.
func IsTerminal(status string) bool {
    switch status {
    case StatusCompleted, StatusCancelled, StatusExpired:
        return true
    }
    return false
}

// DeriveStatus computes the visit status from its ground-truth inputs.
// prior is the currently stored status and is consulted to keep the
// terminal cancelled and expired states sticky and to preserve the
// externally-set confirmed marker while the visit is still waiting at
// the gate. Stickiness matters for sweep-expired visits: the grace
// sweep can expire a visit whose code timestamp has not lapsed yet,
// and a later read must not derive it back to pending.
// Expiry is otherwise evaluated lazily against the QR expiry
// timestamp; there is no background timer invalidating codes the
// instant they lapse.
func DeriveStatus(prior string, entered, exited bool, qrExpiresAt time.Time, now time.Time) string {
    if prior == StatusCancelled {
        return StatusCancelled
    }
    if prior == StatusExpired {
        return StatusExpired
    }
    if exited {
        return StatusCompleted
    }
    if entered {
        return StatusActive
    }
    if now.After(qrExpiresAt) {
        return StatusExpired
    }
    if prior == StatusConfirmed {
        return StatusConfirmed
    }
    return StatusPending
}
