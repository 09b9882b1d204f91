package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/tasksur/tasksur/internal/model"
)

// ReviewRepo provides persistence for the `reviews` table and keeps
// the reviewee's denormalized rating cache in step.
type ReviewRepo struct{ DB *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{DB: db} }

// Create inserts a review and recomputes the reviewee's cached
// rating and review count by re-reading all of their reviews. The
// insert and the recompute run in one transaction so a concurrent
// review cannot leave the cache stale. A second review for the same
// (task, reviewer) pair surfaces as ErrDuplicateReview.
func (r *ReviewRepo) Create(ctx context.Context, rev *model.Review) error {
	rev.ID = uuid.NewString()
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reviews (id, task_id, reviewer_id, reviewee_id, rating, comment)
		VALUES (?,?,?,?,?,?)`,
		rev.ID, rev.TaskID, rev.ReviewerID, rev.RevieweeID, rev.Rating, rev.Comment)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrDuplicateReview
		}
		return err
	}

	// Full recompute rather than an incremental update: at this data
	// volume consistency is worth the extra read.
	if _, err := tx.ExecContext(ctx, `
		UPDATE users u
		SET u.rating = (SELECT COALESCE(AVG(rating),0) FROM reviews WHERE reviewee_id=?),
		    u.review_count = (SELECT COUNT(*) FROM reviews WHERE reviewee_id=?),
		    u.updated_at = UTC_TIMESTAMP()
		WHERE u.id = ?`,
		rev.RevieweeID, rev.RevieweeID, rev.RevieweeID); err != nil {
		return err
	}
	return tx.Commit()
}

// ListByReviewee returns all reviews received by a user, newest
// first, joined with the reviewer's public profile.
func (r *ReviewRepo) ListByReviewee(ctx context.Context, revieweeID string) ([]model.ReviewWithReviewer, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT r.id, r.task_id, r.reviewer_id, r.reviewee_id, r.rating, r.comment, r.created_at,
		       u.id, u.first_name, u.last_name, u.role, u.location, u.rating, u.review_count
		FROM reviews r
		JOIN users u ON u.id = r.reviewer_id
		WHERE r.reviewee_id = ?
		ORDER BY r.created_at DESC`, revieweeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ReviewWithReviewer, 0)
	for rows.Next() {
		var rw model.ReviewWithReviewer
		var comment sql.NullString
		var rev joinedUser
		if err := rows.Scan(&rw.ID, &rw.TaskID, &rw.ReviewerID, &rw.RevieweeID,
			&rw.Rating, &comment, &rw.CreatedAt,
			&rev.id, &rev.firstName, &rev.lastName, &rev.role, &rev.location, &rev.rating, &rev.reviewCount); err != nil {
			return nil, err
		}
		rw.Comment = comment.String
		rw.Reviewer = rev.public()
		out = append(out, rw)
	}
	return out, rows.Err()
}
