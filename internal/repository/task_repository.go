package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tasksur/tasksur/internal/model"
)

// TaskRepo provides persistence for the `tasks` table and the joined
// listing queries that enrich each task with its category, client and
// assigned tasker.
type TaskRepo struct{ DB *sql.DB }

func NewTaskRepo(db *sql.DB) *TaskRepo { return &TaskRepo{DB: db} }

// taskSelect joins tasks with their category and both user relations.
// The category and assigned tasker sides are LEFT JOINs because both
// foreign keys are nullable.
const taskSelect = `
	SELECT t.id, t.title, t.description, t.category_id, t.client_id,
	       t.assigned_tasker_id, t.budget, t.currency, t.location,
	       t.status, t.priority, t.due_date, t.completed_at,
	       t.created_at, t.updated_at,
	       c.id, c.slug, c.name, c.description, c.icon, c.color,
	       cl.id, cl.first_name, cl.last_name, cl.role, cl.location, cl.rating, cl.review_count,
	       tk.id, tk.first_name, tk.last_name, tk.role, tk.location, tk.rating, tk.review_count
	FROM tasks t
	LEFT JOIN categories c ON c.id = t.category_id
	JOIN users cl ON cl.id = t.client_id
	LEFT JOIN users tk ON tk.id = t.assigned_tasker_id`

// List returns one page of tasks matching the sparse filter, newest
// first, along with the total matching count. Page numbering starts
// at 1; an offset past the end yields an empty slice, not an error.
func (r *TaskRepo) List(ctx context.Context, f model.TaskFilter, page, limit int) ([]model.TaskDetail, int64, error) {
	where := []string{}
	args := []any{}

	if f.Status != "" {
		where = append(where, "t.status = ?")
		args = append(args, string(f.Status))
	}
	if f.CategoryID != "" {
		where = append(where, "t.category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.CategoryName != "" {
		where = append(where, "LOWER(c.name) = ?")
		args = append(args, strings.ToLower(f.CategoryName))
	}
	if f.Location != "" {
		where = append(where, "LOWER(t.location) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.Location)+"%")
	}
	if f.ClientID != "" {
		where = append(where, "t.client_id = ?")
		args = append(args, f.ClientID)
	}
	if f.TaskerID != "" {
		where = append(where, "t.assigned_tasker_id = ?")
		args = append(args, f.TaskerID)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	countSQL := `SELECT COUNT(*)
		FROM tasks t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE ` + cond
	if err := r.DB.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	dataSQL := taskSelect + ` WHERE ` + cond + ` ORDER BY t.created_at DESC LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.DB.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.TaskDetail, 0, limit)
	for rows.Next() {
		d, err := scanTaskDetail(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetByID fetches one task with the same relation enrichment as List.
// Absence is reported as sql.ErrNoRows.
func (r *TaskRepo) GetByID(ctx context.Context, id string) (model.TaskDetail, error) {
	row := r.DB.QueryRowContext(ctx, taskSelect+` WHERE t.id = ? LIMIT 1`, id)
	return scanTaskDetail(row)
}

// Get fetches the bare task row without relations, used by the
// ownership middleware where the joins would be wasted work.
func (r *TaskRepo) Get(ctx context.Context, id string) (model.Task, error) {
	var t model.Task
	var catID, taskerID sql.NullString
	var due, completed sql.NullTime
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, title, description, category_id, client_id, assigned_tasker_id,
		       budget, currency, location, status, priority, due_date, completed_at,
		       created_at, updated_at
		FROM tasks WHERE id=? LIMIT 1`, id).
		Scan(&t.ID, &t.Title, &t.Description, &catID, &t.ClientID, &taskerID,
			&t.Budget, &t.Currency, &t.Location, &t.Status, &t.Priority,
			&due, &completed, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return t, err
	}
	t.CategoryID = nullStr(catID)
	t.AssignedTaskerID = nullStr(taskerID)
	t.DueDate = nullTime(due)
	t.CompletedAt = nullTime(completed)
	return t, nil
}

// Create inserts a new task in the open state and returns its id.
func (r *TaskRepo) Create(ctx context.Context, t *model.Task) error {
	t.ID = uuid.NewString()
	if t.Status == "" {
		t.Status = model.TaskOpen
	}
	if t.Priority == "" {
		t.Priority = model.PriorityNormal
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, category_id, client_id,
			budget, currency, location, status, priority, due_date)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.Title, t.Description, t.CategoryID, t.ClientID,
		t.Budget, t.Currency, t.Location, string(t.Status), t.Priority, t.DueDate)
	return err
}

// TaskUpdate carries the optional columns for Update. Nil pointers
// leave the column untouched. Status changes must already have passed
// the model.CanTransition guard at the caller.
type TaskUpdate struct {
	Title       *string
	Description *string
	CategoryID  *string
	Budget      *float64
	Currency    *string
	Location    *string
	Priority    *string
	Status      *model.TaskStatus
	DueDate     *time.Time
}

// Update applies the non-nil fields and stamps updated_at. Moving a
// task to completed also stamps completed_at. sql.ErrNoRows is
// returned when the task does not exist.
func (r *TaskRepo) Update(ctx context.Context, id string, upd TaskUpdate) error {
	set := []string{}
	args := []any{}
	add := func(col string, v any) {
		set = append(set, col+"=?")
		args = append(args, v)
	}
	if upd.Title != nil {
		add("title", *upd.Title)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.CategoryID != nil {
		add("category_id", *upd.CategoryID)
	}
	if upd.Budget != nil {
		add("budget", *upd.Budget)
	}
	if upd.Currency != nil {
		add("currency", *upd.Currency)
	}
	if upd.Location != nil {
		add("location", *upd.Location)
	}
	if upd.Priority != nil {
		add("priority", *upd.Priority)
	}
	if upd.Status != nil {
		add("status", string(*upd.Status))
		if *upd.Status == model.TaskCompleted {
			set = append(set, "completed_at=UTC_TIMESTAMP()")
		}
	}
	if upd.DueDate != nil {
		add("due_date", *upd.DueDate)
	}
	if len(set) == 0 {
		return nil
	}
	set = append(set, "updated_at=UTC_TIMESTAMP()")
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE tasks SET "+strings.Join(set, ",")+" WHERE id=?", args...)
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

// Delete removes a task and its dependent offers, reviews and
// messages, reporting whether the task row was removed.
func (r *TaskRepo) Delete(ctx context.Context, id string) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()
	for _, q := range []string{
		`DELETE FROM reviews WHERE task_id=?`,
		`DELETE FROM offers WHERE task_id=?`,
		`DELETE FROM messages WHERE task_id=?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return false, err
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id=?`, id)
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

// scanTaskDetail reads one joined row from taskSelect.
func scanTaskDetail(s scanner) (model.TaskDetail, error) {
	var d model.TaskDetail
	var catID, taskerID sql.NullString
	var due, completed sql.NullTime
	var cID, cSlug, cName, cDesc, cIcon, cColor sql.NullString
	var clP, tkP joinedUser
	err := s.Scan(&d.ID, &d.Title, &d.Description, &catID, &d.ClientID,
		&taskerID, &d.Budget, &d.Currency, &d.Location,
		&d.Status, &d.Priority, &due, &completed,
		&d.CreatedAt, &d.UpdatedAt,
		&cID, &cSlug, &cName, &cDesc, &cIcon, &cColor,
		&clP.id, &clP.firstName, &clP.lastName, &clP.role, &clP.location, &clP.rating, &clP.reviewCount,
		&tkP.id, &tkP.firstName, &tkP.lastName, &tkP.role, &tkP.location, &tkP.rating, &tkP.reviewCount)
	if err != nil {
		return d, err
	}
	d.CategoryID = nullStr(catID)
	d.AssignedTaskerID = nullStr(taskerID)
	d.DueDate = nullTime(due)
	d.CompletedAt = nullTime(completed)
	if cID.Valid {
		d.Category = &model.Category{
			ID: cID.String, Slug: cSlug.String, Name: cName.String,
			Description: cDesc.String, Icon: cIcon.String, Color: cColor.String,
		}
	}
	d.Client = clP.public()
	d.AssignedTasker = tkP.public()
	return d, nil
}

// joinedUser scans the nullable public-profile columns of a user join.
type joinedUser struct {
	id, firstName, lastName, role, location sql.NullString
	rating                                  sql.NullFloat64
	reviewCount                             sql.NullInt64
}

func (j joinedUser) public() *model.PublicUser {
	if !j.id.Valid {
		return nil
	}
	return &model.PublicUser{
		ID:          j.id.String,
		FirstName:   j.firstName.String,
		LastName:    j.lastName.String,
		Role:        j.role.String,
		Location:    j.location.String,
		Skills:      []string{},
		Rating:      j.rating.Float64,
		ReviewCount: int(j.reviewCount.Int64),
	}
}

func nullStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
