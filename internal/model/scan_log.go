package model

import "time"

// ScanLog is the immutable audit record appended for every accepted
// gate scan.  Rows are only ever inserted, never updated or deleted.
//
// Fields:
//  ID         – primary key identifier.
//  VisitID    – visit the scan acted on.
//  OfficerID  – gate officer who performed the scan.
//  Action     – ENTRY or EXIT.
//  GateLabel  – optional label of the physical gate.
//  GeoLat     – optional latitude reported by the scanning device.
//  GeoLng     – optional longitude reported by the scanning device.
//  GeoAddress – optional reverse-geocoded address.
//  ScannedAt  – when the scan was accepted.
type ScanLog struct {
    ID         uint64    // scan_logs.id
    VisitID    uint64    // scan_logs.visit_id
    OfficerID  uint64    // scan_logs.officer_id
    Action     string    // scan_logs.action (ENTRY, EXIT)
    GateLabel  *string   // scan_logs.gate_label (nullable)
    GeoLat     *float64  // scan_logs.geo_lat (nullable)
    GeoLng     *float64  // scan_logs.geo_lng (nullable)
    GeoAddress *string   // scan_logs.geo_address (nullable)
    ScannedAt  time.Time // scan_logs.scanned_at
}
