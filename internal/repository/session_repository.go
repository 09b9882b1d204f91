package repository

import (
	"context"
	"database/sql"
	"time"
)

// SessionRepo persists login sessions. The sid column holds the
// SHA-256 hex digest of the refresh token handed to the client; the
// raw token never touches the database.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Store inserts a session row.
func (r *SessionRepo) Store(ctx context.Context, sid, userID string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO sessions (sid, user_id, expires_at) VALUES (?,?,?)",
		sid, userID, exp)
	return err
}

// Validate returns the owning user id when a non-revoked, non-expired
// session exists for sid; otherwise sql.ErrNoRows.
func (r *SessionRepo) Validate(ctx context.Context, sid string) (string, error) {
	var (
		userID    string
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, expires_at, revoked_at FROM sessions WHERE sid=? LIMIT 1",
		sid).Scan(&userID, &expiresAt, &revokedAt)
	if err != nil {
		return "", err
	}
	if revokedAt.Valid || time.Now().UTC().After(expiresAt) {
		return "", sql.ErrNoRows
	}
	return userID, nil
}

// Revoke marks one session as revoked.
func (r *SessionRepo) Revoke(ctx context.Context, sid string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET revoked_at=UTC_TIMESTAMP() WHERE sid=? AND revoked_at IS NULL", sid)
	return err
}

// RevokeAllForUser revokes every active session of a user.
func (r *SessionRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET revoked_at=UTC_TIMESTAMP() WHERE user_id=? AND revoked_at IS NULL", userID)
	return err
}

// DeleteExpired clears out sessions whose expiry has long passed.
// Run periodically from main.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at < UTC_TIMESTAMP() - INTERVAL 7 DAY")
	return err
}
