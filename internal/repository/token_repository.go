package repository

import (
    "context"
    "database/sql"
    "time"
)

// TokenRepo persists refresh-token sessions for hosts and gate
// officers.  Only the SHA-256 hash of a token is ever stored; the raw
// value exists solely in the client's hands, so a leaked table cannot
// mint sessions.
type TokenRepo struct{ DB *sql.DB }

// NewTokenRepo returns a new TokenRepo bound to the provided database.
func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh records a freshly issued refresh token hash.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
    const q = `INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)`
    _, err := r.DB.ExecContext(ctx, q, userID, tokenHash, exp.UTC())
    return err
}

// ValidateRefresh resolves a token hash to its user.  Revoked and
// expired tokens behave exactly like unknown ones: sql.ErrNoRows, so
// callers cannot distinguish the three cases.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
    const q = `SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash = ? LIMIT 1`
    var (
        userID    uint64
        expiresAt time.Time
        revokedAt sql.NullTime
    )
    err := r.DB.QueryRowContext(ctx, q, tokenHash).Scan(&userID, &expiresAt, &revokedAt)
    if err != nil {
        return 0, err
    }
    if revokedAt.Valid || time.Now().UTC().After(expiresAt) {
        return 0, sql.ErrNoRows
    }
    return userID, nil
}

// RevokeByHash ends one session.  Rotation revokes the old hash in
// the same request that stores the new one.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
    const q = `UPDATE refresh_tokens SET revoked_at = UTC_TIMESTAMP() WHERE token_hash = ? AND revoked_at IS NULL`
    _, err := r.DB.ExecContext(ctx, q, tokenHash)
    return err
}

// RevokeAllForUser ends every active session of one user, used when an
// officer account is retired or a host reports a stolen device.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
    const q = `UPDATE refresh_tokens SET revoked_at = UTC_TIMESTAMP() WHERE user_id = ? AND revoked_at IS NULL`
    _, err := r.DB.ExecContext(ctx, q, userID)
    return err
}
