package repository

import (
    "context"
    "database/sql"
    "log"

    "github.com/safegate/visitor-access/internal/model"
)

// BanRepo provides data access to the visitor_bans table.  The ban
// guard semantics (OR-aggregation over all owners, expired bans
// treated as inactive) live in the access package; this repository
// only fetches the raw rows and performs the lazy is_active sweep.
type BanRepo struct {
    db *sql.DB
}

// NewBanRepo returns a new BanRepo bound to the provided database.
func NewBanRepo(db *sql.DB) *BanRepo { return &BanRepo{db: db} }

// ActiveByPhone returns every ban row flagged active for the phone in
// the building, from any resident or building-wide, together with
// the apartment labels of the ban owners.  Before reading it sweeps
// expired rows so the flag converges lazily; the access-layer decision
// does not depend on the sweep having run.
func (r *BanRepo) ActiveByPhone(ctx context.Context, buildingID uint64, canonicalPhone string) ([]model.VisitorBan, map[uint64]string, error) {
    r.sweepExpired(ctx, buildingID)
    return activeByPhone(ctx, r.db, buildingID, canonicalPhone)
}

// ActiveByPhoneTx is ActiveByPhone inside an existing transaction.  It
// skips the lazy sweep: the caller holds row locks and the guard does
// not need the flag to be fresh.
func (r *BanRepo) ActiveByPhoneTx(ctx context.Context, tx *sql.Tx, buildingID uint64, canonicalPhone string) ([]model.VisitorBan, map[uint64]string, error) {
    return activeByPhone(ctx, tx, buildingID, canonicalPhone)
}

// banQueryer abstracts *sql.DB and *sql.Tx for the shared ban query.
type banQueryer interface {
    QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func activeByPhone(ctx context.Context, q banQueryer, buildingID uint64, canonicalPhone string) ([]model.VisitorBan, map[uint64]string, error) {
    const query = `SELECT b.id, b.building_id, b.user_id, b.phone, b.severity, b.reason,
                      b.is_active, b.expires_at, b.created_at, b.updated_at,
                      COALESCE(u.apartment, '')
               FROM visitor_bans b
               LEFT JOIN users u ON u.id = b.user_id
               WHERE b.building_id = ? AND b.phone = ? AND b.is_active = 1`
    rows, err := q.QueryContext(ctx, query, buildingID, canonicalPhone)
    if err != nil {
        return nil, nil, err
    }
    defer rows.Close()
    bans := make([]model.VisitorBan, 0)
    apartments := make(map[uint64]string)
    for rows.Next() {
        var b model.VisitorBan
        var expires sql.NullTime
        var apartment string
        if err := rows.Scan(&b.ID, &b.BuildingID, &b.UserID, &b.Phone, &b.Severity, &b.Reason,
            &b.IsActive, &expires, &b.CreatedAt, &b.UpdatedAt, &apartment); err != nil {
            return nil, nil, err
        }
        assignNullTime(&b.ExpiresAt, expires)
        bans = append(bans, b)
        if b.UserID != 0 {
            apartments[b.UserID] = apartment
        }
    }
    return bans, apartments, rows.Err()
}

// Create inserts a new ban.  A resident may hold at most one active
// ban per phone; a second attempt returns ErrConflict instead of the
// duplicate-ban errors the multi-row model would otherwise allow.
func (r *BanRepo) Create(ctx context.Context, b *model.VisitorBan) error {
    const dup = `SELECT COUNT(*) FROM visitor_bans
                 WHERE building_id = ? AND user_id = ? AND phone = ? AND is_active = 1
                   AND (expires_at IS NULL OR expires_at > UTC_TIMESTAMP())`
    var n int
    if err := r.db.QueryRowContext(ctx, dup, b.BuildingID, b.UserID, b.Phone).Scan(&n); err != nil {
        return err
    }
    if n > 0 {
        return ErrConflict
    }
    const q = `INSERT INTO visitor_bans (building_id, user_id, phone, severity, reason, is_active, expires_at)
               VALUES (?, ?, ?, ?, ?, 1, ?)`
    res, err := r.db.ExecContext(ctx, q, b.BuildingID, b.UserID, b.Phone, b.Severity, b.Reason, nullableTime(b.ExpiresAt))
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    return nil
}

// Lift deactivates a ban.  Only its owner may lift it; building-wide
// bans (user_id 0) require the caller to pass ownerID 0, which the
// handler maps to an admin-only path.
func (r *BanRepo) Lift(ctx context.Context, banID, ownerID uint64) error {
    var actualOwner uint64
    err := r.db.QueryRowContext(ctx, `SELECT user_id FROM visitor_bans WHERE id = ?`, banID).Scan(&actualOwner)
    if err != nil {
        return err
    }
    if actualOwner != ownerID {
        return ErrForbidden
    }
    _, err = r.db.ExecContext(ctx, `UPDATE visitor_bans SET is_active = 0 WHERE id = ?`, banID)
    return err
}

// ListByOwner returns all bans issued by one resident, newest first.
func (r *BanRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.VisitorBan, error) {
    const q = `SELECT id, building_id, user_id, phone, severity, reason, is_active, expires_at, created_at, updated_at
               FROM visitor_bans WHERE user_id = ? ORDER BY created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, ownerID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.VisitorBan, 0)
    for rows.Next() {
        var b model.VisitorBan
        var expires sql.NullTime
        if err := rows.Scan(&b.ID, &b.BuildingID, &b.UserID, &b.Phone, &b.Severity, &b.Reason,
            &b.IsActive, &expires, &b.CreatedAt, &b.UpdatedAt); err != nil {
            return nil, err
        }
        assignNullTime(&b.ExpiresAt, expires)
        out = append(out, b)
    }
    return out, rows.Err()
}

// sweepExpired flips the is_active flag on bans whose expiry has
// passed.  Best effort: the guard already treats expired bans as
// non-blocking, so a failed sweep only delays flag convergence.
func (r *BanRepo) sweepExpired(ctx context.Context, buildingID uint64) {
    const q = `UPDATE visitor_bans SET is_active = 0
               WHERE building_id = ? AND is_active = 1
                 AND expires_at IS NOT NULL AND expires_at <= UTC_TIMESTAMP()`
    if _, err := r.db.ExecContext(ctx, q, buildingID); err != nil {
        log.Printf("ban-repo: expired-ban sweep failed: %v", err)
    }
}
