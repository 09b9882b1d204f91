package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/tasksur/tasksur/internal/model"
)

// CategoryRepo provides persistence for the `categories` reference
// table. Mutations are gated to the admin role at the route layer.
type CategoryRepo struct{ DB *sql.DB }

func NewCategoryRepo(db *sql.DB) *CategoryRepo { return &CategoryRepo{DB: db} }

const categoryCols = `id,slug,name,description,icon,color`

// List returns all categories ordered by name.
func (r *CategoryRepo) List(ctx context.Context) ([]model.Category, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+categoryCols+" FROM categories ORDER BY name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetByID fetches one category.
func (r *CategoryRepo) GetByID(ctx context.Context, id string) (model.Category, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+categoryCols+" FROM categories WHERE id=? LIMIT 1", id)
	return scanCategory(row)
}

// Create inserts a category. A duplicate slug surfaces as ErrSlugExists.
func (r *CategoryRepo) Create(ctx context.Context, c *model.Category) error {
	c.ID = uuid.NewString()
	c.Slug = strings.ToLower(strings.TrimSpace(c.Slug))
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO categories (id, slug, name, description, icon, color) VALUES (?,?,?,?,?,?)",
		c.ID, c.Slug, c.Name, c.Description, c.Icon, c.Color)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
		return ErrSlugExists
	}
	return err
}

// Update rewrites the mutable columns of a category. It reports
// sql.ErrNoRows when the category does not exist and ErrSlugExists on
// a slug collision. Re-submitting the current values succeeds.
func (r *CategoryRepo) Update(ctx context.Context, c *model.Category) error {
	c.Slug = strings.ToLower(strings.TrimSpace(c.Slug))
	res, err := r.DB.ExecContext(ctx,
		"UPDATE categories SET slug=?, name=?, description=?, icon=?, color=? WHERE id=?",
		c.Slug, c.Name, c.Description, c.Icon, c.Color, c.ID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrSlugExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	// MySQL reports zero affected rows for an UPDATE that changes no
	// values, so determine whether the row is missing or just unchanged.
	var one int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM categories WHERE id=? LIMIT 1", c.ID).Scan(&one); err != nil {
		return err // sql.ErrNoRows when the category does not exist
	}
	return nil
}

// Delete removes a category and reports whether a row was removed.
func (r *CategoryRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM categories WHERE id=?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func scanCategory(s scanner) (model.Category, error) {
	var c model.Category
	var desc sql.NullString
	err := s.Scan(&c.ID, &c.Slug, &c.Name, &desc, &c.Icon, &c.Color)
	c.Description = desc.String
	return c, err
}
