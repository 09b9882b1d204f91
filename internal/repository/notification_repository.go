package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/tasksur/tasksur/internal/model"
)

// NotificationRepo provides persistence for the `notifications` table.
type NotificationRepo struct{ DB *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{DB: db} }

// Create inserts a notification for a user. MessageID may be nil for
// notification types not tied to a message.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	n.ID = uuid.NewString()
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, type, title, message, message_id)
		VALUES (?,?,?,?,?,?)`,
		n.ID, n.UserID, n.Type, n.Title, n.Message, n.MessageID)
	return err
}

// ListByUser returns one page of a user's notifications, newest
// first, optionally narrowed by type and read state.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID string, page, limit int, f model.NotificationFilter) ([]model.Notification, int64, error) {
	cond := "user_id = ?"
	args := []any{userID}
	if f.Type != "" {
		cond += " AND type = ?"
		args = append(args, f.Type)
	}
	if f.IsRead != nil {
		cond += " AND is_read = ?"
		args = append(args, *f.IsRead)
	}

	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	argsData := append(append([]any{}, args...), limit, (page-1)*limit)
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, type, title, message, is_read, message_id, created_at
		FROM notifications WHERE `+cond+`
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]model.Notification, 0, limit)
	for rows.Next() {
		var n model.Notification
		var msgID sql.NullString
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message,
			&n.IsRead, &msgID, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		n.MessageID = nullStr(msgID)
		out = append(out, n)
	}
	return out, total, rows.Err()
}

// MarkRead flips one notification to read, scoped to its owner so a
// user cannot touch someone else's notification. sql.ErrNoRows means
// no matching row; marking an already-read notification succeeds.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE notifications SET is_read=1 WHERE id=? AND user_id=?", id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	// Zero affected rows also happens when is_read was already 1, so
	// determine whether the row is missing or the call is a repeat.
	var one int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM notifications WHERE id=? AND user_id=? LIMIT 1", id, userID).Scan(&one); err != nil {
		return err // sql.ErrNoRows when no such notification for this user
	}
	return nil
}

// MarkAllRead flips every unread notification of a user and returns
// how many were updated.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE notifications SET is_read=1 WHERE user_id=? AND is_read=0", userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
