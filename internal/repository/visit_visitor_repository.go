package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/safegate/visitor-access/internal/access"
    "github.com/safegate/visitor-access/internal/model"
)

// VisitVisitorRepo manages the join rows linking a visit to its
// visitors and their per-visitor gate status.  All writes happen under
// the visit's row lock, so no extra locking is needed here.
type VisitVisitorRepo struct {
    db *sql.DB
}

// NewVisitVisitorRepo returns a new VisitVisitorRepo bound to the given database.
func NewVisitVisitorRepo(db *sql.DB) *VisitVisitorRepo { return &VisitVisitorRepo{db: db} }

// CreateBulkTx inserts one EXPECTED row per visitor for a freshly
// created visit in a single statement.  Passing an empty slice has no
// effect and returns nil.
func (r *VisitVisitorRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, visitID uint64, visitorIDs []uint64) error {
    if len(visitorIDs) == 0 {
        return nil
    }
    query := `INSERT INTO visit_visitors (visit_id, visitor_id, status) VALUES `
    args := make([]interface{}, 0, len(visitorIDs)*3)
    for i, vid := range visitorIDs {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?)"
        args = append(args, visitID, vid, access.VisitorExpected)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// ListByVisitTx returns all join rows of a visit within the provided
// transaction, ordered by ID for deterministic event payloads.
func (r *VisitVisitorRepo) ListByVisitTx(ctx context.Context, tx *sql.Tx, visitID uint64) ([]model.VisitVisitor, error) {
    const q = `SELECT id, visit_id, visitor_id, status, arrival_time, departure_time, created_at
               FROM visit_visitors WHERE visit_id = ? ORDER BY id`
    rows, err := tx.QueryContext(ctx, q, visitID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.VisitVisitor, 0)
    for rows.Next() {
        var vv model.VisitVisitor
        var arrival, departure sql.NullTime
        if err := rows.Scan(&vv.ID, &vv.VisitID, &vv.VisitorID, &vv.Status, &arrival, &departure, &vv.CreatedAt); err != nil {
            return nil, err
        }
        assignNullTime(&vv.ArrivalTime, arrival)
        assignNullTime(&vv.DepartureTime, departure)
        out = append(out, vv)
    }
    return out, rows.Err()
}

// VisitorRow is a join row enriched with the visitor's identity, used
// by scan processing to evaluate bans per visitor and to name people
// in published events.
type VisitorRow struct {
    model.VisitVisitor
    Phone string
    Name  string
}

// ListWithVisitorsTx returns the join rows of a visit together with
// each visitor's phone and name, within the provided transaction.
func (r *VisitVisitorRepo) ListWithVisitorsTx(ctx context.Context, tx *sql.Tx, visitID uint64) ([]VisitorRow, error) {
    const q = `SELECT vv.id, vv.visit_id, vv.visitor_id, vv.status, vv.arrival_time, vv.departure_time, vv.created_at,
                      v.phone, v.name
               FROM visit_visitors vv
               JOIN visitors v ON v.id = vv.visitor_id
               WHERE vv.visit_id = ? ORDER BY vv.id`
    rows, err := tx.QueryContext(ctx, q, visitID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]VisitorRow, 0)
    for rows.Next() {
        var vr VisitorRow
        var arrival, departure sql.NullTime
        if err := rows.Scan(&vr.ID, &vr.VisitID, &vr.VisitorID, &vr.Status, &arrival, &departure, &vr.CreatedAt,
            &vr.Phone, &vr.Name); err != nil {
            return nil, err
        }
        assignNullTime(&vr.ArrivalTime, arrival)
        assignNullTime(&vr.DepartureTime, departure)
        out = append(out, vr)
    }
    return out, rows.Err()
}

// AdvanceTx writes a single row's forward progression.  The caller has
// already computed the next status through the access package, so the
// monotonic rule is enforced at the transition boundary rather than
// here.  Arrival and departure stamps are first-write-wins.
func (r *VisitVisitorRepo) AdvanceTx(ctx context.Context, tx *sql.Tx, rowID uint64, status string, at time.Time) error {
    var q string
    switch status {
    case access.VisitorEntered:
        q = `UPDATE visit_visitors SET status = ?, arrival_time = IFNULL(arrival_time, ?) WHERE id = ?`
    case access.VisitorExited:
        q = `UPDATE visit_visitors SET status = ?, departure_time = IFNULL(departure_time, ?) WHERE id = ?`
    default:
        q = `UPDATE visit_visitors SET status = ? WHERE id = ?`
        _, err := tx.ExecContext(ctx, q, status, rowID)
        return err
    }
    _, err := tx.ExecContext(ctx, q, status, at.UTC(), rowID)
    return err
}
