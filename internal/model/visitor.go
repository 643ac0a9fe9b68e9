package model

import "time"

// FrequentVisitorThreshold is the visit count at which a visitor is
// considered frequent.  The flag is derived, never stored directly.
const FrequentVisitorThreshold = 5

// Visitor is a person identified by (building_id, phone) where the
// phone is stored in canonical E.164 form.  Visitors are created on
// first reference by any visit and are never deleted, only
// deactivated.  Display fields may be refreshed by later visits.
//
// Fields:
//  ID         – primary key identifier.
//  BuildingID – building the visitor record belongs to.
//  Phone      – canonical E.164 phone number, unique per building.
//  Name       – display name supplied by the most recent host.
//  Email      – optional contact email.
//  Company    – optional company name.
//  VisitCount – number of visits this visitor has been invited to.
//  IsActive   – soft-delete flag.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Visitor struct {
    ID         uint64    // visitors.id
    BuildingID uint64    // visitors.building_id
    Phone      string    // visitors.phone (canonical E.164)
    Name       string    // visitors.name
    Email      *string   // visitors.email (nullable)
    Company    *string   // visitors.company (nullable)
    VisitCount uint32    // visitors.visit_count
    IsActive   bool      // visitors.is_active
    CreatedAt  time.Time // visitors.created_at
    UpdatedAt  time.Time // visitors.updated_at
}

// IsFrequent reports whether the visitor has reached the frequent
// visitor threshold.
func (v Visitor) IsFrequent() bool {
    return v.VisitCount >= FrequentVisitorThreshold
}
