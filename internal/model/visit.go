package model

import "time"

// Visit is the aggregate root of the access-control engine.  It is a
// host-created invitation bound to a single QR code and covering one
// or more visitors.  Entered and Exited are the ground truth for
// physical presence; Status is a projection of those booleans plus
// time and is recomputed at every write, never mutated independently.
//
// Fields:
//  ID            – primary key identifier.
//  BuildingID    – building the visit admits into.
//  HostUserID    – user who created the invitation.
//  Title         – short description shown to the gate officer.
//  Description   – optional free-form notes.
//  VisitType     – SINGLE or GROUP.
//  Status        – pending, confirmed, active, completed, cancelled or expired.
//  Entered       – true once an entry scan has been accepted.
//  Exited        – true once an exit scan has been accepted.
//  UsesLicense   – whether creation consumed a building license.
//  ExpectedStart – when the visit is expected to begin.
//  ExpectedEnd   – optional expected end; also bounds the QR expiry.
//  ActualStart   – set on the first accepted entry scan.
//  ActualEnd     – set on the final accepted exit scan.
//  QRCode        – opaque unique code string bound to this visit.
//  QRIssuedAt    – when the code was issued.
//  QRExpiresAt   – when the code stops being scannable.
//  CurrentVisitors – count of visit_visitor rows in a non-terminal state.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Visit struct {
    ID              uint64     // visits.id
    BuildingID      uint64     // visits.building_id
    HostUserID      uint64     // visits.host_user_id
    Title           string     // visits.title
    Description     *string    // visits.description (nullable)
    VisitType       string     // visits.visit_type (SINGLE, GROUP)
    Status          string     // visits.status
    Entered         bool       // visits.entered
    Exited          bool       // visits.exited
    UsesLicense     bool       // visits.uses_license
    ExpectedStart   time.Time  // visits.expected_start
    ExpectedEnd     *time.Time // visits.expected_end (nullable)
    ActualStart     *time.Time // visits.actual_start (nullable)
    ActualEnd       *time.Time // visits.actual_end (nullable)
    QRCode          string     // visits.qr_code (unique)
    QRIssuedAt      time.Time  // visits.qr_issued_at
    QRExpiresAt     time.Time  // visits.qr_expires_at
    CurrentVisitors uint32     // visits.current_visitors
    CreatedAt       time.Time  // visits.created_at
    UpdatedAt       time.Time  // visits.updated_at
}
