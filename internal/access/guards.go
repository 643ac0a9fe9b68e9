package access

import "time"

// VisitSnapshot is the subset of a visit row the guard chain needs.
// The scan processor reads it under a row lock so that two concurrent
// scans of the same code observe the booleans serially: exactly one
// passes and the other receives a typed duplicate rejection.
type VisitSnapshot struct {
    ID          uint64
    Status      string
    Entered     bool
    Exited      bool
    QRExpiresAt time.Time
}

// EvaluateScan runs the scan guard chain against a locked visit
// snapshot, short-circuiting on the first failure.  The order is
// contractual:
//
//  1. expiry   – now must not be past the QR expiry (KindCodeExpired);
//  2. terminal – cancelled/completed/expired visits are frozen
//                (KindVisitClosed);
//  3. entry    – requires entered=false (KindDuplicateEntry);
//  4. exit     – requires entered=true (KindExitWithoutEntry) and
//                exited=false (KindDuplicateExit).
//
// Code resolution (guard 1 of the contract) happens before the
// snapshot exists and the ban re-check for entry scans happens after
// this function passes, both in the scan processor.  A nil return
// means the transition may proceed.
// ExpireOnRejectedScan reports whether a scan rejected for a lapsed
// code may persist the expired status. Only visits still waiting at
// the gate expire this way: once entry is recorded the visit is
// active regardless of the code lapsing (entry beats a lapsed code),
// and flipping it to a terminal state would strand the visitor inside
// with no recordable exit.
func ExpireOnRejectedScan(v VisitSnapshot) bool {
    return !IsTerminal(v.Status) && !v.Entered
}

func EvaluateScan(v VisitSnapshot, action string, now time.Time) *Error {
    if now.After(v.QRExpiresAt) {
        return NewError(KindCodeExpired, "code expired at %s", v.QRExpiresAt.UTC().Format(time.RFC3339))
    }
    if IsTerminal(v.Status) {
        return NewError(KindVisitClosed, "visit is %s and accepts no further scans", v.Status)
    }
    switch action {
    case ActionEntry:
        if v.Entered {
            return NewError(KindDuplicateEntry, "entry already recorded for this visit")
        }
    case ActionExit:
        if !v.Entered {
            return NewError(KindExitWithoutEntry, "cannot exit a visit that never entered")
        }
        if v.Exited {
            return NewError(KindDuplicateExit, "exit already recorded for this visit")
        }
    default:
        return NewError(KindValidation, "unknown scan action %q", action)
    }
    return nil
}
