package repository

import (
	"context"
	"database/sql"
	"log"

	"github.com/google/uuid"

	"github.com/tasksur/tasksur/internal/model"
)

// MessageRepo provides persistence for the `messages` table. Every
// message insert also attempts to create a new_message notification
// for the receiver; that secondary write is best-effort and a failure
// there never fails the message itself.
type MessageRepo struct{ DB *sql.DB }

func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{DB: db} }

const messageCols = `id,task_id,sender_id,receiver_id,content,is_read,read_at,created_at`

// Create inserts a message (task-scoped when m.TaskID is set, a
// direct message otherwise) and then notifies the receiver. The
// notification stores the message id directly so no later lookup
// heuristic is needed.
func (r *MessageRepo) Create(ctx context.Context, m *model.Message, senderName string) error {
	m.ID = uuid.NewString()
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO messages (id, task_id, sender_id, receiver_id, content)
		VALUES (?,?,?,?,?)`,
		m.ID, m.TaskID, m.SenderID, m.ReceiverID, m.Content)
	if err != nil {
		return err
	}

	// Best-effort secondary write; the message already exists.
	if _, err := r.DB.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, type, title, message, message_id)
		VALUES (?,?,?,?,?,?)`,
		uuid.NewString(), m.ReceiverID, model.NotificationNewMessage,
		"New message", "You have a new message from "+senderName, m.ID); err != nil {
		log.Printf("message %s: notification insert failed: %v", m.ID, err)
	}
	return nil
}

// GetByID fetches one message; absence surfaces as sql.ErrNoRows.
func (r *MessageRepo) GetByID(ctx context.Context, id string) (model.Message, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+messageCols+" FROM messages WHERE id=? LIMIT 1", id)
	return scanMessage(row)
}

// ListByTask returns a task's messages in chronological order.
func (r *MessageRepo) ListByTask(ctx context.Context, taskID string) ([]model.Message, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+messageCols+" FROM messages WHERE task_id=? ORDER BY created_at ASC", taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MarkRead flips a message to read and stamps read_at. Only the
// receiver may do this; the caller enforces that. sql.ErrNoRows is
// returned when the message does not exist.
func (r *MessageRepo) MarkRead(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE messages SET is_read=1, read_at=UTC_TIMESTAMP() WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanMessage(s scanner) (model.Message, error) {
	var m model.Message
	var taskID sql.NullString
	var readAt sql.NullTime
	err := s.Scan(&m.ID, &taskID, &m.SenderID, &m.ReceiverID,
		&m.Content, &m.IsRead, &readAt, &m.CreatedAt)
	m.TaskID = nullStr(taskID)
	m.ReadAt = nullTime(readAt)
	return m, err
}
