package access

// Per-visitor statuses.  Progression is strictly forward:
// EXPECTED → ARRIVED → ENTERED → EXITED.
const (
    VisitorExpected = "EXPECTED"
    VisitorArrived  = "ARRIVED"
    VisitorEntered  = "ENTERED"
    VisitorExited   = "EXITED"
)

// ProgressOnEntry returns the per-visitor status after an accepted
// entry scan.  A visitor still EXPECTED passes through ARRIVED in the
// same scan (the gate event both registers arrival and admits), so
// both EXPECTED and ARRIVED advance to ENTERED.  Visitors already past
// that point are left untouched; regression never happens.  ok is
// false when the row must not be written.
func ProgressOnEntry(current string) (next string, ok bool) {
    switch current {
    case VisitorExpected, VisitorArrived:
        return VisitorEntered, true
    }
    return current, false
}

// ProgressOnExit returns the per-visitor status after an accepted exit
// scan.  Only visitors who actually entered advance to EXITED; a
// no-show stays EXPECTED so the record shows the invitation was never
// used.
func ProgressOnExit(current string) (next string, ok bool) {
    if current == VisitorEntered {
        return VisitorExited, true
    }
    return current, false
}
