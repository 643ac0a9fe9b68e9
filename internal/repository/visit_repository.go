package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/safegate/visitor-access/internal/model"
)

// VisitRepo persists the visit aggregate.  All mutating methods are
// *Tx variants: the handlers own the transaction so that the license
// counter, the visit row, its visit_visitors rows and the audit log
// commit together or not at all.  Per-visit mutations are serialized
// by locking the visit row with SELECT ... FOR UPDATE before any
// guard is evaluated.
type VisitRepo struct {
    db *sql.DB
}

// NewVisitRepo returns a new VisitRepo bound to the given database.
func NewVisitRepo(db *sql.DB) *VisitRepo { return &VisitRepo{db: db} }

// DB exposes the underlying handle so handlers can begin transactions.
func (r *VisitRepo) DB() *sql.DB { return r.db }

const visitColumns = `id, building_id, host_user_id, title, description, visit_type, status,
                      entered, exited, uses_license, expected_start, expected_end,
                      actual_start, actual_end, qr_code, qr_issued_at, qr_expires_at,
                      current_visitors, created_at, updated_at`

// VisitRecord mirrors the schema of the visits table and is populated
// by CreateTx.  Business logic should use model.Visit for reads.
type VisitRecord struct {
    ID            uint64
    BuildingID    uint64
    HostUserID    uint64
    Title         string
    Description   *string
    VisitType     string
    Status        string
    UsesLicense   bool
    ExpectedStart time.Time
    ExpectedEnd   *time.Time
    QRCode        string
    QRIssuedAt    time.Time
    QRExpiresAt   time.Time
    VisitorCount  uint32
}

// CreateTx inserts a new visit within the scope of an existing
// transaction and populates the generated ID on the record.  A
// collision on the qr_code unique index is reported as
// ErrDuplicateCode so the caller can regenerate and retry inside the
// same transaction.
func (r *VisitRepo) CreateTx(ctx context.Context, tx *sql.Tx, v *VisitRecord) error {
    const q = `INSERT INTO visits
               (building_id, host_user_id, title, description, visit_type, status,
                entered, exited, uses_license, expected_start, expected_end,
                qr_code, qr_issued_at, qr_expires_at, current_visitors)
               VALUES (?, ?, ?, ?, ?, ?, 0, 0, ?, ?, ?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q,
        v.BuildingID, v.HostUserID, v.Title, v.Description, v.VisitType, v.Status,
        v.UsesLicense, v.ExpectedStart.UTC(), nullableTime(v.ExpectedEnd),
        v.QRCode, v.QRIssuedAt.UTC(), v.QRExpiresAt.UTC(), v.VisitorCount,
    )
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return ErrDuplicateCode
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    v.ID = uint64(id)
    return nil
}

// GetByCodeForUpdateTx resolves a scanned code to its visit and locks
// the row for the remainder of the transaction.  Two simultaneous
// scans of the same code therefore observe the entry/exit booleans
// serially: exactly one transition succeeds.  Returns sql.ErrNoRows
// when the code is bound to no visit.
func (r *VisitRepo) GetByCodeForUpdateTx(ctx context.Context, tx *sql.Tx, code string) (*model.Visit, error) {
    q := `SELECT ` + visitColumns + ` FROM visits WHERE qr_code = ? FOR UPDATE`
    return scanVisitRow(tx.QueryRowContext(ctx, q, code))
}

// GetByIDForUpdateTx locks a visit row by ID.  Used by cancellation so
// that a cancel and a concurrent scan contend on the same lock and
// resolve last-committer-wins.
func (r *VisitRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Visit, error) {
    q := `SELECT ` + visitColumns + ` FROM visits WHERE id = ? FOR UPDATE`
    return scanVisitRow(tx.QueryRowContext(ctx, q, id))
}

// GetByID loads a visit without locking.  Read-model use only.
func (r *VisitRepo) GetByID(ctx context.Context, id uint64) (*model.Visit, error) {
    q := `SELECT ` + visitColumns + ` FROM visits WHERE id = ?`
    return scanVisitRow(r.db.QueryRowContext(ctx, q, id))
}

// ApplyScanTx writes the outcome of an accepted scan: the presence
// booleans, the re-derived status and the actual start/end stamps.
// IFNULL keeps the first recorded timestamp immutable on any later
// write.
func (r *VisitRepo) ApplyScanTx(ctx context.Context, tx *sql.Tx, id uint64, entered, exited bool, status string, actualStart, actualEnd *time.Time) error {
    const q = `UPDATE visits
               SET entered = ?, exited = ?, status = ?,
                   actual_start = IFNULL(actual_start, ?),
                   actual_end = IFNULL(actual_end, ?)
               WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, entered, exited, status, nullableTime(actualStart), nullableTime(actualEnd), id)
    return err
}

// SetStatusTx overwrites the derived status, used for cancellation and
// the lazy expiry flip.  The entry/exit booleans are never touched
// here; they remain the ground truth.
func (r *VisitRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
    _, err := tx.ExecContext(ctx, `UPDATE visits SET status = ? WHERE id = ?`, status, id)
    return err
}

// RecountVisitorsTx refreshes the cached count of visit_visitor rows
// still in a non-terminal per-visitor status.
func (r *VisitRepo) RecountVisitorsTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    const q = `UPDATE visits
               SET current_visitors = (SELECT COUNT(*) FROM visit_visitors WHERE visit_id = ? AND status <> 'EXITED')
               WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, id, id)
    return err
}

// ExpireOverdue flips never-entered visits to expired once their code
// has lapsed or their expected start plus the grace window has passed.
// Invoked by the periodic sweep job; scans independently enforce
// expiry through the guard chain, so this only keeps dashboards
// honest.  Returns the number of visits flipped.
func (r *VisitRepo) ExpireOverdue(ctx context.Context, grace time.Duration) (int64, error) {
    const q = `UPDATE visits SET status = 'expired'
               WHERE entered = 0
                 AND status IN ('pending', 'confirmed')
                 AND (qr_expires_at <= UTC_TIMESTAMP()
                      OR expected_start + INTERVAL ? MINUTE <= UTC_TIMESTAMP())`
    res, err := r.db.ExecContext(ctx, q, int(grace.Minutes()))
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}

// ListByHost returns a host's visits newest first.  Read model for
// host dashboards; never mutates state.
func (r *VisitRepo) ListByHost(ctx context.Context, hostUserID uint64, limit int) ([]model.Visit, error) {
    if limit <= 0 || limit > 100 {
        limit = 50
    }
    q := `SELECT ` + visitColumns + ` FROM visits WHERE host_user_id = ? ORDER BY created_at DESC LIMIT ?`
    rows, err := r.db.QueryContext(ctx, q, hostUserID, limit)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Visit, 0)
    for rows.Next() {
        v, err := scanVisitRows(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *v)
    }
    return out, rows.Err()
}

type rowScanner interface {
    Scan(dest ...interface{}) error
}

func scanVisit(s rowScanner) (*model.Visit, error) {
    var v model.Visit
    var description sql.NullString
    var expectedEnd, actualStart, actualEnd sql.NullTime
    err := s.Scan(
        &v.ID, &v.BuildingID, &v.HostUserID, &v.Title, &description, &v.VisitType, &v.Status,
        &v.Entered, &v.Exited, &v.UsesLicense, &v.ExpectedStart, &expectedEnd,
        &actualStart, &actualEnd, &v.QRCode, &v.QRIssuedAt, &v.QRExpiresAt,
        &v.CurrentVisitors, &v.CreatedAt, &v.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    assignNullString(&v.Description, description)
    assignNullTime(&v.ExpectedEnd, expectedEnd)
    assignNullTime(&v.ActualStart, actualStart)
    assignNullTime(&v.ActualEnd, actualEnd)
    return &v, nil
}

func scanVisitRow(row *sql.Row) (*model.Visit, error)   { return scanVisit(row) }
func scanVisitRows(rows *sql.Rows) (*model.Visit, error) { return scanVisit(rows) }

func nullableTime(t *time.Time) interface{} {
    if t == nil {
        return nil
    }
    return t.UTC()
}
