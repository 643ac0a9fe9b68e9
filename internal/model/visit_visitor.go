package model

import "time"

// VisitVisitor links a visit to an individual visitor and tracks that
// visitor's own progression through the gate.  The pair
// (visit_id, visitor_id) is unique.  Per-visitor status only ever
// moves forward: EXPECTED, ARRIVED, ENTERED, EXITED.  Regression is
// rejected at the transition boundary, not by the column type.
//
// Fields:
//  ID            – primary key identifier.
//  VisitID       – visit the row belongs to.
//  VisitorID     – visitor covered by the invitation.
//  Status        – per-visitor gate status.
//  ArrivalTime   – set when the visitor passes an entry scan.
//  DepartureTime – set when the visitor passes an exit scan.
//  CreatedAt     – creation timestamp.
type VisitVisitor struct {
    ID            uint64     // visit_visitors.id
    VisitID       uint64     // visit_visitors.visit_id
    VisitorID     uint64     // visit_visitors.visitor_id
    Status        string     // visit_visitors.status
    ArrivalTime   *time.Time // visit_visitors.arrival_time (nullable)
    DepartureTime *time.Time // visit_visitors.departure_time (nullable)
    CreatedAt     time.Time  // visit_visitors.created_at
}
