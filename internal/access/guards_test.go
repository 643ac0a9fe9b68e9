package access

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func freshVisit() VisitSnapshot {
    return VisitSnapshot{
        ID:          42,
        Status:      StatusPending,
        QRExpiresAt: now.Add(4 * time.Hour),
    }
}

func TestEntryThenExitHappyPath(t *testing.T) {
    v := freshVisit()

    require.Nil(t, EvaluateScan(v, ActionEntry, now))
    v.Entered = true
    v.Status = DeriveStatus(v.Status, v.Entered, v.Exited, v.QRExpiresAt, now)
    assert.Equal(t, StatusActive, v.Status)

    require.Nil(t, EvaluateScan(v, ActionExit, now.Add(time.Hour)))
    v.Exited = true
    v.Status = DeriveStatus(v.Status, v.Entered, v.Exited, v.QRExpiresAt, now.Add(time.Hour))
    assert.Equal(t, StatusCompleted, v.Status)
}

func TestDuplicateEntryRejected(t *testing.T) {
    v := freshVisit()
    v.Entered = true
    v.Status = StatusActive

    rej := EvaluateScan(v, ActionEntry, now)
    require.NotNil(t, rej)
    assert.Equal(t, KindDuplicateEntry, rej.Kind)
}

func TestExitWithoutEntryRejected(t *testing.T) {
    for _, status := range []string{StatusPending, StatusConfirmed} {
        v := freshVisit()
        v.Status = status

        rej := EvaluateScan(v, ActionExit, now)
        require.NotNil(t, rej, "status %s", status)
        assert.Equal(t, KindExitWithoutEntry, rej.Kind)
    }
}

func TestDuplicateExitRejected(t *testing.T) {
    v := freshVisit()
    v.Entered = true
    v.Exited = true
    // Status still active on purpose: the boolean is the ground truth
    // and must win even when the projection is stale.
    v.Status = StatusActive

    rej := EvaluateScan(v, ActionExit, now)
    require.NotNil(t, rej)
    assert.Equal(t, KindDuplicateExit, rej.Kind)
}

func TestExpiryCheckedBeforeTerminalAndBooleans(t *testing.T) {
    v := freshVisit()
    v.QRExpiresAt = now.Add(-time.Second)
    v.Entered = true

    for _, action := range []string{ActionEntry, ActionExit} {
        rej := EvaluateScan(v, action, now)
        require.NotNil(t, rej)
        assert.Equal(t, KindCodeExpired, rej.Kind)
    }
}

func TestTerminalVisitFrozen(t *testing.T) {
    for _, status := range []string{StatusCancelled, StatusCompleted, StatusExpired} {
        v := freshVisit()
        v.Status = status
        v.Entered = true

        rej := EvaluateScan(v, ActionEntry, now)
        require.NotNil(t, rej, "status %s", status)
        assert.Equal(t, KindVisitClosed, rej.Kind)
    }
}

func TestLapsedCodeExpiresOnlyUnenteredVisits(t *testing.T) {
    waiting := freshVisit()
    waiting.QRExpiresAt = now.Add(-time.Second)
    assert.True(t, ExpireOnRejectedScan(waiting))

    // A visitor who is already inside keeps an active visit even when
    // the code lapses; the rejected scan must not flip it terminal.
    inside := freshVisit()
    inside.Status = StatusActive
    inside.Entered = true
    inside.QRExpiresAt = now.Add(-time.Second)

    rej := EvaluateScan(inside, ActionExit, now)
    require.NotNil(t, rej)
    assert.Equal(t, KindCodeExpired, rej.Kind)
    assert.False(t, ExpireOnRejectedScan(inside))
    assert.Equal(t, StatusActive,
        DeriveStatus(inside.Status, inside.Entered, inside.Exited, inside.QRExpiresAt, now))
}

func TestUnknownActionRejected(t *testing.T) {
    rej := EvaluateScan(freshVisit(), "LOITER", now)
    require.NotNil(t, rej)
    assert.Equal(t, KindValidation, rej.Kind)
}

func TestConcurrentEntrySerializedToOneWinner(t *testing.T) {
    // The row lock serializes two simultaneous scans; whichever commits
    // first flips the boolean the loser then observes.
    v := freshVisit()

    require.Nil(t, EvaluateScan(v, ActionEntry, now))
    v.Entered = true
    v.Status = DeriveStatus(v.Status, true, false, v.QRExpiresAt, now)

    rej := EvaluateScan(v, ActionEntry, now)
    require.NotNil(t, rej)
    assert.Equal(t, KindDuplicateEntry, rej.Kind)
}
