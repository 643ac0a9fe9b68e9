package access

import (
    "time"

    "github.com/safegate/visitor-access/internal/model"
)

// Blocker describes one active ban contributing to a block decision.
// Apartment is empty for building-wide bans.
type Blocker struct {
    Apartment string `json:"resident_apartment,omitempty"`
    Severity  string `json:"severity"`
    Reason    string `json:"reason"`
}

// BanDecision is the answer to "is this phone blocked from the
// building, and by whom".  Blocked is true iff any resident or the
// building itself holds an active, unexpired ban on the phone: a
// deliberate OR over all ban owners, not a single-ban lookup.
type BanDecision struct {
    Blocked  bool      `json:"is_banned"`
    Blockers []Blocker `json:"blockers"`
}

// DecideBan aggregates raw ban rows into a decision.  A ban whose
// expiry has passed is non-blocking even while its is_active flag is
// stale; flag cleanup is a separate lazy sweep and callers must not
// depend on the flag alone.  apartments maps ban owner user IDs to
// apartment labels for the blocker listing.
func DecideBan(bans []model.VisitorBan, apartments map[uint64]string, now time.Time) BanDecision {
    dec := BanDecision{Blockers: []Blocker{}}
    for _, b := range bans {
        if !b.IsActive {
            continue
        }
        if b.ExpiresAt != nil && !b.ExpiresAt.After(now) {
            continue
        }
        dec.Blocked = true
        dec.Blockers = append(dec.Blockers, Blocker{
            Apartment: apartments[b.UserID],
            Severity:  b.Severity,
            Reason:    b.Reason,
        })
    }
    return dec
}
