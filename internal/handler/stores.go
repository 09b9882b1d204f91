package handler

// stores.go declares the data-access interfaces the handlers consume.
// The concrete repositories in internal/repository satisfy them; the
// handler tests substitute in-memory fakes. Handlers receive their
// stores explicitly at construction instead of reaching for a shared
// singleton.

import (
	"context"
	"time"

	"github.com/tasksur/tasksur/internal/model"
	"github.com/tasksur/tasksur/internal/repository"
)

// UserStore is the user persistence surface the auth and user
// handlers depend on.
type UserStore interface {
	Create(ctx context.Context, email, password, role, firstName, lastName string, cost int) (string, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	UpdateProfile(ctx context.Context, id string, upd repository.UserUpdate) error
	Stats(ctx context.Context, userID string) (model.UserStats, error)
	DeleteCascade(ctx context.Context, userID string) (bool, error)
}

// SessionStore persists refresh-token sessions.
type SessionStore interface {
	Store(ctx context.Context, sid, userID string, exp time.Time) error
	Validate(ctx context.Context, sid string) (string, error)
	Revoke(ctx context.Context, sid string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

// TaskStore is the task persistence surface of the task handlers.
type TaskStore interface {
	List(ctx context.Context, f model.TaskFilter, page, limit int) ([]model.TaskDetail, int64, error)
	GetByID(ctx context.Context, id string) (model.TaskDetail, error)
	Get(ctx context.Context, id string) (model.Task, error)
	Create(ctx context.Context, t *model.Task) error
	Update(ctx context.Context, id string, upd repository.TaskUpdate) error
	Delete(ctx context.Context, id string) (bool, error)
}

// OfferStore is the offer persistence surface of the offer handlers.
type OfferStore interface {
	Create(ctx context.Context, o *model.Offer) error
	GetByID(ctx context.Context, id string) (model.Offer, error)
	ListByTask(ctx context.Context, taskID string, page, limit int) ([]model.OfferWithTasker, int64, error)
	ListByTasker(ctx context.Context, taskerID string, page, limit int) ([]model.OfferWithTask, int64, error)
	UpdateStatus(ctx context.Context, id string, status model.OfferStatus) error
	Accept(ctx context.Context, offerID string) (model.Offer, error)
}

// CategoryStore is the category persistence surface.
type CategoryStore interface {
	List(ctx context.Context) ([]model.Category, error)
	GetByID(ctx context.Context, id string) (model.Category, error)
	Create(ctx context.Context, c *model.Category) error
	Update(ctx context.Context, c *model.Category) error
	Delete(ctx context.Context, id string) (bool, error)
}

// ReviewStore is the review persistence surface.
type ReviewStore interface {
	Create(ctx context.Context, rev *model.Review) error
	ListByReviewee(ctx context.Context, revieweeID string) ([]model.ReviewWithReviewer, error)
}

// MessageStore is the message persistence surface.
type MessageStore interface {
	Create(ctx context.Context, m *model.Message, senderName string) error
	GetByID(ctx context.Context, id string) (model.Message, error)
	ListByTask(ctx context.Context, taskID string) ([]model.Message, error)
	MarkRead(ctx context.Context, id string) error
}

// NotificationStore is the notification persistence surface.
type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID string, page, limit int, f model.NotificationFilter) ([]model.Notification, int64, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

// PaymentStore is the payment persistence surface.
type PaymentStore interface {
	Create(ctx context.Context, p *model.Payment) error
	GetByOrderID(ctx context.Context, orderID string) (model.Payment, error)
	ListByUser(ctx context.Context, userID string) ([]model.Payment, error)
	UpdateStatusByOrderID(ctx context.Context, orderID string, status model.PaymentStatus) (model.Payment, error)
}
