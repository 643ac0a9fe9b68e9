package repository

import (
    "context"
    "database/sql"

    "github.com/safegate/visitor-access/internal/model"
)

// BuildingRepo provides access to the buildings table and owns the
// license capacity counters.  used_licenses is the one piece of
// cluster-wide shared mutable counter state in the system; it is only
// ever written inside the same transaction as the visit-state change
// that justifies the write (create → increment, cancel before entry →
// decrement).
type BuildingRepo struct {
    db *sql.DB
}

// NewBuildingRepo returns a new BuildingRepo bound to the given database.
func NewBuildingRepo(db *sql.DB) *BuildingRepo { return &BuildingRepo{db: db} }

// GetByID loads a single building row.
func (r *BuildingRepo) GetByID(ctx context.Context, id uint64) (*model.Building, error) {
    const q = `SELECT id, name, address, total_licenses, used_licenses, is_active, created_at, updated_at
               FROM buildings WHERE id = ?`
    var b model.Building
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &b.ID, &b.Name, &b.Address, &b.TotalLicenses, &b.UsedLicenses,
        &b.IsActive, &b.CreatedAt, &b.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    return &b, nil
}

// TryReserveLicenseTx consumes one admission license for the building
// within the provided transaction.  The check and the increment are a
// single conditional UPDATE so the used counter can never overrun the
// total under concurrent creations: when no spare capacity exists the
// statement matches zero rows and ErrCapacity is returned without any
// state change.
func (r *BuildingRepo) TryReserveLicenseTx(ctx context.Context, tx *sql.Tx, buildingID uint64) error {
    const q = `UPDATE buildings
               SET used_licenses = used_licenses + 1
               WHERE id = ? AND used_licenses < total_licenses`
    res, err := tx.ExecContext(ctx, q, buildingID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrCapacity
    }
    return nil
}

// ReleaseLicenseTx returns one license to the pool.  Called only when
// a license-consuming visit is cancelled before entry; a completed or
// no-show visit keeps its license consumed.  The guard against
// decrementing below zero protects against double release.
func (r *BuildingRepo) ReleaseLicenseTx(ctx context.Context, tx *sql.Tx, buildingID uint64) error {
    const q = `UPDATE buildings
               SET used_licenses = used_licenses - 1
               WHERE id = ? AND used_licenses > 0`
    _, err := tx.ExecContext(ctx, q, buildingID)
    return err
}
