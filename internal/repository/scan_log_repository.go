package repository

import (
    "context"
    "database/sql"

    "github.com/safegate/visitor-access/internal/model"
)

// ScanLogRepo appends and reads the immutable scan-audit trail.  Rows
// are insert-only; there is deliberately no update or delete method.
type ScanLogRepo struct {
    db *sql.DB
}

// NewScanLogRepo returns a new ScanLogRepo bound to the given database.
func NewScanLogRepo(db *sql.DB) *ScanLogRepo { return &ScanLogRepo{db: db} }

// InsertTx appends one audit row inside the scan transaction so the
// record commits atomically with the transition it documents.
func (r *ScanLogRepo) InsertTx(ctx context.Context, tx *sql.Tx, l *model.ScanLog) error {
    const q = `INSERT INTO scan_logs (visit_id, officer_id, action, gate_label, geo_lat, geo_lng, geo_address, scanned_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q,
        l.VisitID, l.OfficerID, l.Action, l.GateLabel, l.GeoLat, l.GeoLng, l.GeoAddress, l.ScannedAt.UTC())
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    l.ID = uint64(id)
    return nil
}

// ListByVisit returns a visit's audit trail oldest first.
func (r *ScanLogRepo) ListByVisit(ctx context.Context, visitID uint64) ([]model.ScanLog, error) {
    const q = `SELECT id, visit_id, officer_id, action, gate_label, geo_lat, geo_lng, geo_address, scanned_at
               FROM scan_logs WHERE visit_id = ? ORDER BY scanned_at, id`
    rows, err := r.db.QueryContext(ctx, q, visitID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.ScanLog, 0)
    for rows.Next() {
        var l model.ScanLog
        var gate, addr sql.NullString
        var lat, lng sql.NullFloat64
        if err := rows.Scan(&l.ID, &l.VisitID, &l.OfficerID, &l.Action, &gate, &lat, &lng, &addr, &l.ScannedAt); err != nil {
            return nil, err
        }
        assignNullString(&l.GateLabel, gate)
        assignNullString(&l.GeoAddress, addr)
        if lat.Valid {
            v := lat.Float64
            l.GeoLat = &v
        }
        if lng.Valid {
            v := lng.Float64
            l.GeoLng = &v
        }
        out = append(out, l)
    }
    return out, rows.Err()
}
