// Package queue defines message payloads exchanged over the message broker.
package queue

// Event types published on the visit.events queue.
const (
    TypeVisitCreated    = "visit.created"
    TypeVisitorEntered  = "visitor.entered"
    TypeVisitorExited   = "visitor.exited"
    TypeAdmissionDenied = "admission.denied"
)

// VisitEvent is published whenever the access-control core commits a
// state change worth notifying about.  It contains enough information
// for downstream consumers (notifications, dashboards) to act without
// querying the primary database.  Delivery is asynchronous and
// best-effort; the core never blocks on it.
type VisitEvent struct {
    EventID      string   `json:"event_id"`
    Type         string   `json:"type"`
    OccurredAt   string   `json:"occurred_at"`
    VisitID      uint64   `json:"visit_id"`
    BuildingID   uint64   `json:"building_id"`
    HostUserID   uint64   `json:"host_user_id"`
    VisitTitle   string   `json:"visit_title"`
    VisitStatus  string   `json:"visit_status"`
    VisitorNames []string `json:"visitors"`
    OfficerID    uint64   `json:"officer_id,omitempty"`
    GateLabel    string   `json:"gate_label,omitempty"`
    Reason       string   `json:"reason,omitempty"`
}
