package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/tasksur/tasksur/internal/model"
	"github.com/tasksur/tasksur/internal/utils"
)

// UserRepo provides persistence for the `users` table, including the
// aggregate stats query and the transactional cascading delete.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = `id,email,password_hash,role,first_name,last_name,bio,location,phone,skills,hourly_rate,rating,review_count,total_earnings,total_tasks,created_at,updated_at`

// Create inserts a user and returns its generated id. Emails are
// normalized to lower case before insert; a duplicate email surfaces
// as ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, email, password, role, firstName, lastName string, cost int) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO users (id, email, password_hash, role, first_name, last_name, skills) VALUES (?,?,?,?,?,?,JSON_ARRAY())",
		id, email, hash, role, firstName, lastName)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return "", ErrEmailExists
		}
		return "", err
	}
	return id, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE email=? LIMIT 1", email)
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// UserUpdate carries the optional profile fields for UpdateProfile.
// Nil pointers leave the column untouched.
type UserUpdate struct {
	FirstName  *string
	LastName   *string
	Bio        *string
	Location   *string
	Phone      *string
	Skills     *[]string
	HourlyRate *float64
}

// UpdateProfile applies the non-nil fields of upd to the user row and
// stamps updated_at. It reports sql.ErrNoRows when the user is gone.
func (r *UserRepo) UpdateProfile(ctx context.Context, id string, upd UserUpdate) error {
	set := []string{}
	args := []any{}
	add := func(col string, v any) {
		set = append(set, col+"=?")
		args = append(args, v)
	}
	if upd.FirstName != nil {
		add("first_name", *upd.FirstName)
	}
	if upd.LastName != nil {
		add("last_name", *upd.LastName)
	}
	if upd.Bio != nil {
		add("bio", *upd.Bio)
	}
	if upd.Location != nil {
		add("location", *upd.Location)
	}
	if upd.Phone != nil {
		add("phone", *upd.Phone)
	}
	if upd.Skills != nil {
		b, err := json.Marshal(*upd.Skills)
		if err != nil {
			return err
		}
		add("skills", string(b))
	}
	if upd.HourlyRate != nil {
		add("hourly_rate", *upd.HourlyRate)
	}
	if len(set) == 0 {
		return nil
	}
	set = append(set, "updated_at=UTC_TIMESTAMP()")
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(set, ",")+" WHERE id=?", args...)
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

// Stats counts the tasks assigned to the user (total and completed)
// and reads the cached rating fields off the user row.
func (r *UserRepo) Stats(ctx context.Context, userID string) (model.UserStats, error) {
	var s model.UserStats
	err := r.DB.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM tasks WHERE assigned_tasker_id = u.id),
			(SELECT COUNT(*) FROM tasks WHERE assigned_tasker_id = u.id AND status = 'completed'),
			u.rating, u.review_count
		FROM users u WHERE u.id = ?`, userID).
		Scan(&s.TotalTasks, &s.CompletedTasks, &s.Rating, &s.ReviewCount)
	return s, err
}

// DeleteCascade removes a user and every row referencing them inside
// a single transaction: messages, notifications, offers, reviews,
// payments, tasks (and offers/reviews/messages hanging off those
// tasks), sessions, then the user row itself. It returns whether the
// user row was actually removed; any statement failure rolls back the
// whole operation.
func (r *UserRepo) DeleteCascade(ctx context.Context, userID string) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	// Rows attached to tasks owned by the user must go before the
	// tasks themselves to satisfy the foreign keys.
	steps := []string{
		`DELETE FROM reviews WHERE task_id IN (SELECT id FROM tasks WHERE client_id=?)`,
		`DELETE FROM offers  WHERE task_id IN (SELECT id FROM tasks WHERE client_id=?)`,
		`DELETE FROM messages WHERE task_id IN (SELECT id FROM tasks WHERE client_id=?)`,
		`DELETE FROM messages WHERE sender_id=? OR receiver_id=?`,
		`DELETE FROM notifications WHERE user_id=?`,
		`DELETE FROM offers  WHERE tasker_id=?`,
		`DELETE FROM reviews WHERE reviewer_id=? OR reviewee_id=?`,
		`DELETE FROM payments WHERE user_id=?`,
		`UPDATE tasks SET assigned_tasker_id=NULL WHERE assigned_tasker_id=?`,
		`DELETE FROM tasks WHERE client_id=?`,
		`DELETE FROM sessions WHERE user_id=?`,
	}
	for _, q := range steps {
		args := []any{userID}
		if n := strings.Count(q, "?"); n == 2 {
			args = append(args, userID)
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return false, err
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id=?`, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return n > 0, nil
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface{ Scan(dest ...any) error }

// scanUser reads one full user row, decoding the skills JSON column.
func scanUser(s scanner) (model.User, error) {
	var u model.User
	var bio, skills sql.NullString
	var hourly sql.NullFloat64
	err := s.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role,
		&u.FirstName, &u.LastName, &bio, &u.Location, &u.Phone,
		&skills, &hourly, &u.Rating, &u.ReviewCount,
		&u.TotalEarnings, &u.TotalTasks, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return u, err
	}
	u.Bio = bio.String
	u.Skills = decodeSkills(skills)
	if hourly.Valid {
		v := hourly.Float64
		u.HourlyRate = &v
	}
	return u, nil
}

func decodeSkills(col sql.NullString) []string {
	out := []string{}
	if col.Valid && col.String != "" {
		// Skills are stored as a JSON array; a malformed value is
		// treated as empty rather than failing the whole read.
		_ = json.Unmarshal([]byte(col.String), &out)
	}
	return out
}
