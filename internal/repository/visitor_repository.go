package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/safegate/visitor-access/internal/model"
)

// VisitorRepo deduplicates visitor identities by (building_id, phone)
// and owns the visitor-level aggregate counters.  Phones are stored in
// canonical E.164 form; callers normalize before passing them in.
type VisitorRepo struct {
    db *sql.DB
}

// NewVisitorRepo returns a new VisitorRepo bound to the given database.
func NewVisitorRepo(db *sql.DB) *VisitorRepo { return &VisitorRepo{db: db} }

// VisitorInput carries the display fields a host supplies when
// inviting a visitor.  Phone must already be canonical.
type VisitorInput struct {
    Phone   string
    Name    string
    Email   *string
    Company *string
}

// UpsertTx gets-or-creates a visitor row by (building, phone) inside
// the provided transaction and returns its ID.  On conflict the
// display fields are refreshed and visit_count is incremented; the
// LAST_INSERT_ID(id) trick makes LastInsertId return the existing
// row's ID on the duplicate path.
func (r *VisitorRepo) UpsertTx(ctx context.Context, tx *sql.Tx, buildingID uint64, in VisitorInput) (uint64, error) {
    const q = `INSERT INTO visitors (building_id, phone, name, email, company, visit_count)
               VALUES (?, ?, ?, ?, ?, 1)
               ON DUPLICATE KEY UPDATE
                   id = LAST_INSERT_ID(id),
                   name = VALUES(name),
                   email = COALESCE(VALUES(email), email),
                   company = COALESCE(VALUES(company), company),
                   visit_count = visit_count + 1`
    res, err := tx.ExecContext(ctx, q, buildingID, in.Phone, in.Name, in.Email, in.Company)
    if err != nil {
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// GetByID loads a single visitor row.
func (r *VisitorRepo) GetByID(ctx context.Context, id uint64) (*model.Visitor, error) {
    const q = `SELECT id, building_id, phone, name, email, company, visit_count, is_active, created_at, updated_at
               FROM visitors WHERE id = ?`
    return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

// GetByPhone loads a visitor by its dedup key.  Returns sql.ErrNoRows
// when the phone has never been invited to the building.
func (r *VisitorRepo) GetByPhone(ctx context.Context, buildingID uint64, canonicalPhone string) (*model.Visitor, error) {
    const q = `SELECT id, building_id, phone, name, email, company, visit_count, is_active, created_at, updated_at
               FROM visitors WHERE building_id = ? AND phone = ?`
    return r.scanOne(r.db.QueryRowContext(ctx, q, buildingID, canonicalPhone))
}

// Deactivate soft-deletes a visitor.  Rows are never removed; the
// aggregate history stays intact.
func (r *VisitorRepo) Deactivate(ctx context.Context, id uint64) error {
    _, err := r.db.ExecContext(ctx, `UPDATE visitors SET is_active = 0 WHERE id = ?`, id)
    return err
}

// Search lists visitors of a building whose name or phone matches the
// given term, newest first.  This is a read model for host dashboards
// and never mutates visit state.
func (r *VisitorRepo) Search(ctx context.Context, buildingID uint64, term string, limit int) ([]model.Visitor, error) {
    if limit <= 0 || limit > 100 {
        limit = 50
    }
    const q = `SELECT id, building_id, phone, name, email, company, visit_count, is_active, created_at, updated_at
               FROM visitors
               WHERE building_id = ? AND (name LIKE CONCAT('%', ?, '%') OR phone LIKE CONCAT('%', ?, '%'))
               ORDER BY updated_at DESC
               LIMIT ?`
    rows, err := r.db.QueryContext(ctx, q, buildingID, term, term, limit)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Visitor, 0)
    for rows.Next() {
        v, err := scanVisitor(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *v)
    }
    return out, rows.Err()
}

func (r *VisitorRepo) scanOne(row *sql.Row) (*model.Visitor, error) {
    var v model.Visitor
    var email, company sql.NullString
    err := row.Scan(&v.ID, &v.BuildingID, &v.Phone, &v.Name, &email, &company,
        &v.VisitCount, &v.IsActive, &v.CreatedAt, &v.UpdatedAt)
    if err != nil {
        return nil, err
    }
    assignNullString(&v.Email, email)
    assignNullString(&v.Company, company)
    return &v, nil
}

func scanVisitor(rows *sql.Rows) (*model.Visitor, error) {
    var v model.Visitor
    var email, company sql.NullString
    err := rows.Scan(&v.ID, &v.BuildingID, &v.Phone, &v.Name, &email, &company,
        &v.VisitCount, &v.IsActive, &v.CreatedAt, &v.UpdatedAt)
    if err != nil {
        return nil, err
    }
    assignNullString(&v.Email, email)
    assignNullString(&v.Company, company)
    return &v, nil
}

func assignNullString(dst **string, src sql.NullString) {
    if src.Valid {
        s := src.String
        *dst = &s
    }
}

func assignNullTime(dst **time.Time, src sql.NullTime) {
    if src.Valid {
        t := src.Time.UTC()
        *dst = &t
    }
}
