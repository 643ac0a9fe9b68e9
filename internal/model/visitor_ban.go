package model

import "time"

// VisitorBan blocks a phone number from a building.  A single phone
// may carry several independent active bans from different residents
// of the same building; the visitor is blocked building-wide as long
// as any of them is active.  A ban whose ExpiresAt has passed is
// treated as inactive by the ban guard even while the IsActive flag is
// stale; the flag is swept lazily, so callers must never rely on the
// flag alone.
//
// Fields:
//  ID         – primary key identifier.
//  BuildingID – building the ban applies to.
//  UserID     – resident who issued the ban; zero for building-wide bans.
//  Phone      – canonical E.164 phone number being blocked.
//  Severity   – WARNING, STANDARD or SEVERE; informational for the officer.
//  Reason     – free-form explanation shown to the officer.
//  IsActive   – lazily-swept active flag.
//  ExpiresAt  – optional expiry after which the ban no longer blocks.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type VisitorBan struct {
    ID         uint64     // visitor_bans.id
    BuildingID uint64     // visitor_bans.building_id
    UserID     uint64     // visitor_bans.user_id (0 = building-wide)
    Phone      string     // visitor_bans.phone (canonical E.164)
    Severity   string     // visitor_bans.severity
    Reason     string     // visitor_bans.reason
    IsActive   bool       // visitor_bans.is_active
    ExpiresAt  *time.Time // visitor_bans.expires_at (nullable)
    CreatedAt  time.Time  // visitor_bans.created_at
    UpdatedAt  time.Time  // visitor_bans.updated_at
}
