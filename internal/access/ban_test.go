package access

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/safegate/visitor-access/internal/model"
)

func TestDecideBanORAggregation(t *testing.T) {
    at := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
    later := at.Add(24 * time.Hour)

    bans := []model.VisitorBan{
        {UserID: 7, Severity: "HIGH", Reason: "harassment", IsActive: true},
        {UserID: 9, Severity: "LOW", Reason: "noise", IsActive: true, ExpiresAt: &later},
    }
    apartments := map[uint64]string{7: "4B", 9: "12A"}

    dec := DecideBan(bans, apartments, at)
    require.True(t, dec.Blocked)
    require.Len(t, dec.Blockers, 2)
    assert.Equal(t, "4B", dec.Blockers[0].Apartment)
    assert.Equal(t, "12A", dec.Blockers[1].Apartment)
}

func TestDecideBanExpiredBanDoesNotBlock(t *testing.T) {
    at := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
    lapsed := at.Add(-time.Minute)

    // is_active is stale on purpose: the guard must treat the expired
    // ban as inactive before any sweep flips the flag.
    bans := []model.VisitorBan{
        {UserID: 7, Severity: "HIGH", Reason: "old grudge", IsActive: true, ExpiresAt: &lapsed},
    }

    dec := DecideBan(bans, nil, at)
    assert.False(t, dec.Blocked)
    assert.Empty(t, dec.Blockers)
}

func TestDecideBanInactiveAndBuildingWide(t *testing.T) {
    at := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

    bans := []model.VisitorBan{
        {UserID: 7, Severity: "LOW", Reason: "lifted", IsActive: false},
        {UserID: 0, Severity: "HIGH", Reason: "building-wide block", IsActive: true},
    }

    dec := DecideBan(bans, map[uint64]string{7: "4B"}, at)
    require.True(t, dec.Blocked)
    require.Len(t, dec.Blockers, 1)
    assert.Empty(t, dec.Blockers[0].Apartment)
    assert.Equal(t, "building-wide block", dec.Blockers[0].Reason)
}
