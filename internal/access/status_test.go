package access

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
)

func TestDeriveStatus(t *testing.T) {
    base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
    future := base.Add(2 * time.Hour)
    past := base.Add(-time.Second)

    cases := []struct {
        name             string
        prior            string
        entered, exited  bool
        expiresAt        time.Time
        want             string
    }{
        {"fresh visit stays pending", StatusPending, false, false, future, StatusPending},
        {"confirmed preserved before entry", StatusConfirmed, false, false, future, StatusConfirmed},
        {"entry makes it active", StatusPending, true, false, future, StatusActive},
        {"exit completes", StatusActive, true, true, future, StatusCompleted},
        {"lapsed code expires the visit", StatusPending, false, false, past, StatusExpired},
        {"cancel is sticky", StatusCancelled, false, false, future, StatusCancelled},
        {"entry beats a lapsed code", StatusActive, true, false, past, StatusActive},
        {"cancellation beats completion", StatusCancelled, true, true, past, StatusCancelled},
        {"sweep-expired stays expired while code is valid", StatusExpired, false, false, future, StatusExpired},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            got := DeriveStatus(tc.prior, tc.entered, tc.exited, tc.expiresAt, base)
            assert.Equal(t, tc.want, got)
        })
    }
}

func TestIsTerminal(t *testing.T) {
    assert.True(t, IsTerminal(StatusCompleted))
    assert.True(t, IsTerminal(StatusCancelled))
    assert.True(t, IsTerminal(StatusExpired))
    assert.False(t, IsTerminal(StatusPending))
    assert.False(t, IsTerminal(StatusConfirmed))
    assert.False(t, IsTerminal(StatusActive))
}

func TestProgressOnEntry(t *testing.T) {
    next, ok := ProgressOnEntry(VisitorExpected)
    assert.True(t, ok)
    assert.Equal(t, VisitorEntered, next)

    next, ok = ProgressOnEntry(VisitorArrived)
    assert.True(t, ok)
    assert.Equal(t, VisitorEntered, next)

    _, ok = ProgressOnEntry(VisitorEntered)
    assert.False(t, ok)
    _, ok = ProgressOnEntry(VisitorExited)
    assert.False(t, ok)
}

func TestProgressOnExitNeverRegresses(t *testing.T) {
    next, ok := ProgressOnExit(VisitorEntered)
    assert.True(t, ok)
    assert.Equal(t, VisitorExited, next)

    // A no-show keeps the EXPECTED record; skipping straight to EXITED
    // would fake a presence that never happened.
    _, ok = ProgressOnExit(VisitorExpected)
    assert.False(t, ok)
    _, ok = ProgressOnExit(VisitorExited)
    assert.False(t, ok)
}
