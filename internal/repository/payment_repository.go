package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/tasksur/tasksur/internal/model"
)

// PaymentRepo provides persistence for the `payments` table. OrderID
// is the unique correlation key shared with the payment provider.
type PaymentRepo struct{ DB *sql.DB }

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{DB: db} }

const paymentCols = `id,user_id,order_id,amount,currency,status,method,created_at,updated_at`

// Create inserts a pending payment. Reusing an order id surfaces as
// ErrOrderExists.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	p.ID = uuid.NewString()
	if p.Status == "" {
		p.Status = model.PaymentPending
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO payments (id, user_id, order_id, amount, currency, status, method)
		VALUES (?,?,?,?,?,?,?)`,
		p.ID, p.UserID, p.OrderID, p.Amount, p.Currency, string(p.Status), p.Method)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
		return ErrOrderExists
	}
	return err
}

// GetByOrderID fetches a payment by its external order id.
func (r *PaymentRepo) GetByOrderID(ctx context.Context, orderID string) (model.Payment, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+paymentCols+" FROM payments WHERE order_id=? LIMIT 1", orderID)
	return scanPayment(row)
}

// ListByUser returns a user's payments, newest first.
func (r *PaymentRepo) ListByUser(ctx context.Context, userID string) ([]model.Payment, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+paymentCols+" FROM payments WHERE user_id=? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateStatusByOrderID flips a payment's status. Completing a paypal
// payment also folds the amount into the user's cached earnings.
// sql.ErrNoRows is returned when the order id is unknown.
func (r *PaymentRepo) UpdateStatusByOrderID(ctx context.Context, orderID string, status model.PaymentStatus) (model.Payment, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Payment{}, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		"SELECT "+paymentCols+" FROM payments WHERE order_id=? LIMIT 1 FOR UPDATE", orderID)
	p, err := scanPayment(row)
	if err != nil {
		return p, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE payments SET status=?, updated_at=UTC_TIMESTAMP() WHERE order_id=?",
		string(status), orderID); err != nil {
		return p, err
	}
	if status == model.PaymentCompleted && p.Status != model.PaymentCompleted {
		if _, err := tx.ExecContext(ctx,
			"UPDATE users SET total_earnings = total_earnings + ?, updated_at=UTC_TIMESTAMP() WHERE id=?",
			p.Amount, p.UserID); err != nil {
			return p, err
		}
	}
	if err := tx.Commit(); err != nil {
		return p, err
	}
	p.Status = status
	return p, nil
}

func scanPayment(s scanner) (model.Payment, error) {
	var p model.Payment
	err := s.Scan(&p.ID, &p.UserID, &p.OrderID, &p.Amount, &p.Currency,
		&p.Status, &p.Method, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
