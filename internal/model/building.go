package model

import "time"

// Building is the tenant boundary of the system.  Every visitor, visit
// and ban belongs to exactly one building.  The two license counters
// track admission capacity: UsedLicenses may never exceed
// TotalLicenses, and attempts to overrun the limit are rejected at the
// database level rather than clamped.
//
// Fields:
//  ID            – primary key identifier.
//  Name          – display name of the building.
//  Address       – postal address.
//  TotalLicenses – total admission licenses purchased.
//  UsedLicenses  – licenses currently consumed by visits.
//  IsActive      – soft-delete flag.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Building struct {
    ID            uint64    // buildings.id
    Name          string    // buildings.name
    Address       string    // buildings.address
    TotalLicenses uint32    // buildings.total_licenses
    UsedLicenses  uint32    // buildings.used_licenses
    IsActive      bool      // buildings.is_active
    CreatedAt     time.Time // buildings.created_at
    UpdatedAt     time.Time // buildings.updated_at
}
