package repository

import (
	"context"
	"database/sql"
)

// TokenRepo persists session tokens (single 'token_hash' column).  Rows act
// as the user's token list: a session is live while its row exists without
// a revoked_at timestamp.  Revoked rows are kept for audit, never reused.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Store inserts a session token hash row.
func (r *TokenRepo) Store(ctx context.Context, userID uint64, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO auth_tokens (user_id, token_hash) VALUES (?,?)",
		userID, tokenHash)
	return err
}

// IsLive reports whether a non-revoked row with this hash exists for the
// user.  A token that verifies cryptographically but has been revoked is
// not live.
func (r *TokenRepo) IsLive(ctx context.Context, userID uint64, tokenHash string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM auth_tokens WHERE user_id=? AND token_hash=? AND revoked_at IS NULL",
		userID, tokenHash).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Revoke marks exactly the matching token as revoked.
func (r *TokenRepo) Revoke(ctx context.Context, userID uint64, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE auth_tokens SET revoked_at=NOW() WHERE user_id=? AND token_hash=? AND revoked_at IS NULL",
		userID, tokenHash)
	return err
}

// RevokeAll revokes every active session of a user.
func (r *TokenRepo) RevokeAll(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE auth_tokens SET revoked_at=NOW() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}
