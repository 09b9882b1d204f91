package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/tasksur/tasksur/internal/model"
)

// OfferRepo provides persistence for the `offers` table, including
// the transactional acceptance workflow that keeps the "exactly one
// accepted offer per task" invariant.
type OfferRepo struct{ DB *sql.DB }

func NewOfferRepo(db *sql.DB) *OfferRepo { return &OfferRepo{DB: db} }

const offerCols = `id,task_id,tasker_id,amount,currency,message,estimated_duration,status,created_at,updated_at`

// Create inserts a pending offer and returns its id.
func (r *OfferRepo) Create(ctx context.Context, o *model.Offer) error {
	o.ID = uuid.NewString()
	o.Status = model.OfferPending
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO offers (id, task_id, tasker_id, amount, currency, message, estimated_duration, status)
		VALUES (?,?,?,?,?,?,?,?)`,
		o.ID, o.TaskID, o.TaskerID, o.Amount, o.Currency, o.Message, o.EstimatedDuration, string(o.Status))
	return err
}

// GetByID fetches one offer; absence surfaces as sql.ErrNoRows.
func (r *OfferRepo) GetByID(ctx context.Context, id string) (model.Offer, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+offerCols+" FROM offers WHERE id=? LIMIT 1", id)
	return scanOffer(row)
}

// ListByTask returns one page of a task's offers, newest first, each
// joined with the public profile of its tasker.
func (r *OfferRepo) ListByTask(ctx context.Context, taskID string, page, limit int) ([]model.OfferWithTasker, int64, error) {
	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM offers WHERE task_id=?", taskID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT o.id, o.task_id, o.tasker_id, o.amount, o.currency, o.message,
		       o.estimated_duration, o.status, o.created_at, o.updated_at,
		       u.id, u.first_name, u.last_name, u.role, u.location, u.rating, u.review_count
		FROM offers o
		JOIN users u ON u.id = o.tasker_id
		WHERE o.task_id = ?
		ORDER BY o.created_at DESC
		LIMIT ? OFFSET ?`, taskID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]model.OfferWithTasker, 0, limit)
	for rows.Next() {
		var ow model.OfferWithTasker
		var tk joinedUser
		if err := rows.Scan(&ow.ID, &ow.TaskID, &ow.TaskerID, &ow.Amount, &ow.Currency,
			&ow.Message, &ow.EstimatedDuration, &ow.Status, &ow.CreatedAt, &ow.UpdatedAt,
			&tk.id, &tk.firstName, &tk.lastName, &tk.role, &tk.location, &tk.rating, &tk.reviewCount); err != nil {
			return nil, 0, err
		}
		ow.Tasker = tk.public()
		out = append(out, ow)
	}
	return out, total, rows.Err()
}

// ListByTasker returns one page of a tasker's offers, newest first,
// each joined with the bare task it targets.
func (r *OfferRepo) ListByTasker(ctx context.Context, taskerID string, page, limit int) ([]model.OfferWithTask, int64, error) {
	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM offers WHERE tasker_id=?", taskerID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT o.id, o.task_id, o.tasker_id, o.amount, o.currency, o.message,
		       o.estimated_duration, o.status, o.created_at, o.updated_at,
		       t.id, t.title, t.description, t.client_id, t.budget, t.currency, t.status, t.created_at
		FROM offers o
		JOIN tasks t ON t.id = o.task_id
		WHERE o.tasker_id = ?
		ORDER BY o.created_at DESC
		LIMIT ? OFFSET ?`, taskerID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]model.OfferWithTask, 0, limit)
	for rows.Next() {
		var ow model.OfferWithTask
		var t model.Task
		if err := rows.Scan(&ow.ID, &ow.TaskID, &ow.TaskerID, &ow.Amount, &ow.Currency,
			&ow.Message, &ow.EstimatedDuration, &ow.Status, &ow.CreatedAt, &ow.UpdatedAt,
			&t.ID, &t.Title, &t.Description, &t.ClientID, &t.Budget, &t.Currency, &t.Status, &t.CreatedAt); err != nil {
			return nil, 0, err
		}
		ow.Task = &t
		out = append(out, ow)
	}
	return out, total, rows.Err()
}

// UpdateStatus flips an offer's status. Validity of the status string
// is the caller's responsibility; absence of the offer surfaces as
// sql.ErrNoRows.
func (r *OfferRepo) UpdateStatus(ctx context.Context, id string, status model.OfferStatus) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE offers SET status=?, updated_at=UTC_TIMESTAMP() WHERE id=?",
		string(status), id)
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

// Accept performs the offer acceptance workflow in one transaction:
// the offer becomes accepted, every sibling pending offer is
// rejected, and the task is assigned to the offer's tasker and moved
// to in_progress. The task row is locked first so concurrent accepts
// serialize on it; a task that already left the open state aborts
// with ErrTaskNotOpen and an offer no longer pending aborts with
// ErrOfferNotPending. The accepted offer is returned on success.
func (r *OfferRepo) Accept(ctx context.Context, offerID string) (model.Offer, error) {
	var o model.Offer
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return o, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		"SELECT "+offerCols+" FROM offers WHERE id=? LIMIT 1 FOR UPDATE", offerID)
	o, err = scanOffer(row)
	if err != nil {
		return o, err
	}
	if o.Status != model.OfferPending {
		return o, ErrOfferNotPending
	}

	var status model.TaskStatus
	if err := tx.QueryRowContext(ctx,
		"SELECT status FROM tasks WHERE id=? LIMIT 1 FOR UPDATE", o.TaskID).Scan(&status); err != nil {
		return o, err
	}
	// Only an open task accepts offers. assigned is reachable through
	// an admin status override and must not admit acceptance either.
	if status != model.TaskOpen {
		return o, ErrTaskNotOpen
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE offers SET status='accepted', updated_at=UTC_TIMESTAMP() WHERE id=?", o.ID); err != nil {
		return o, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE offers SET status='rejected', updated_at=UTC_TIMESTAMP() WHERE task_id=? AND id<>? AND status='pending'",
		o.TaskID, o.ID); err != nil {
		return o, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE tasks SET assigned_tasker_id=?, status='in_progress', updated_at=UTC_TIMESTAMP() WHERE id=?",
		o.TaskerID, o.TaskID); err != nil {
		return o, err
	}
	if err := tx.Commit(); err != nil {
		return o, err
	}
	o.Status = model.OfferAccepted
	return o, nil
}

func scanOffer(s scanner) (model.Offer, error) {
	var o model.Offer
	var msg sql.NullString
	err := s.Scan(&o.ID, &o.TaskID, &o.TaskerID, &o.Amount, &o.Currency,
		&msg, &o.EstimatedDuration, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	o.Message = msg.String
	return o, err
}
