package handler

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tasksur/tasksur/internal/model"
	"github.com/tasksur/tasksur/internal/queue"
	"github.com/tasksur/tasksur/internal/repository"
	"github.com/tasksur/tasksur/internal/service"
)

// OfferHandler bundles dependencies for the offer endpoints. Users
// resolves the tasker's email for the acceptance event; Notifications
// receives the in-app notification row.
type OfferHandler struct {
	Offers        OfferStore
	Tasks         TaskStore
	Users         UserStore
	Notifications NotificationStore
}

func NewOfferHandler(offers OfferStore, tasks TaskStore, users UserStore, notifications NotificationStore) *OfferHandler {
	return &OfferHandler{Offers: offers, Tasks: tasks, Users: users, Notifications: notifications}
}

type createOfferReq struct {
	TaskID            string  `json:"taskId" validate:"required"`
	Amount            float64 `json:"amount" validate:"required,gt=0"`
	Currency          string  `json:"currency"`
	Message           string  `json:"message"`
	EstimatedDuration string  `json:"estimatedDuration"`
}

type updateOfferReq struct {
	Status string `json:"status" validate:"required"`
}

// Create handles POST /api/offers. Only taskers and admins reach this
// endpoint (router role guard); the task must still be open, and a
// client cannot bid on their own task.
func (h *OfferHandler) Create(c echo.Context) error {
	u, ok := requester(c)
	if !ok {
		return nil
	}
	var req createOfferReq
	if !bindAndValidate(c, &req) {
		return nil
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	t, err := h.Tasks.Get(ctx, req.TaskID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "task not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not load task"})
	}
	if t.Status != model.TaskOpen {
		return c.JSON(http.StatusConflict, echo.Map{"message": "task is no longer open for offers"})
	}
	if t.ClientID == u.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "cannot make an offer on your own task"})
	}
	if req.Currency == "" {
		req.Currency = t.Currency
	}

	o := model.Offer{
		TaskID:            req.TaskID,
		TaskerID:          u.ID,
		Amount:            req.Amount,
		Currency:          req.Currency,
		Message:           strings.TrimSpace(req.Message),
		EstimatedDuration: req.EstimatedDuration,
	}
	if err := h.Offers.Create(ctx, &o); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not create offer"})
	}
	created, err := h.Offers.GetByID(ctx, o.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not load offer"})
	}
	return c.JSON(http.StatusCreated, created)
}

// ListByTask handles GET /api/tasks/:id/offers.
func (h *OfferHandler) ListByTask(c echo.Context) error {
	page, limit := paging(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Tasks.Get(ctx, c.Param("id")); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "task not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not load task"})
	}
	items, total, err := h.Offers.ListByTask(ctx, c.Param("id"), page, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not list offers"})
	}
	return c.JSON(http.StatusOK, pageResp{Items: items, Total: total, Page: page, Limit: limit})
}

// ListByTasker handles GET /api/users/:id/offers. Users see their own
// offers; admins see anyone's.
func (h *OfferHandler) ListByTasker(c echo.Context) error {
	u, ok := requester(c)
	if !ok {
		return nil
	}
	taskerID := c.Param("id")
	if u.Role != model.RoleAdmin && u.ID != taskerID {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "cannot view another user's offers"})
	}
	page, limit := paging(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	items, total, err := h.Offers.ListByTasker(ctx, taskerID, page, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not list offers"})
	}
	return c.JSON(http.StatusOK, pageResp{Items: items, Total: total, Page: page, Limit: limit})
}

// UpdateStatus handles PATCH /api/offers/:id. The ownership middleware
// has already admitted only the task's client (task still open) or an
// admin. Acceptance runs the full assignment workflow and emits a
// best-effort queue event; rejection is a plain status write.
func (h *OfferHandler) UpdateStatus(c echo.Context) error {
	u, ok := requester(c)
	if !ok {
		return nil
	}
	var req updateOfferReq
	if !bindAndValidate(c, &req) {
		return nil
	}
	status := model.OfferStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if !model.ValidOfferStatus(status) || status == model.OfferPending {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "status must be accepted or rejected"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if status == model.OfferRejected {
		if err := h.Offers.UpdateStatus(ctx, c.Param("id"), status); err != nil {
			if err == sql.ErrNoRows {
				return c.JSON(http.StatusNotFound, echo.Map{"message": "offer not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not update offer"})
		}
		o, err := h.Offers.GetByID(ctx, c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not load offer"})
		}
		return c.JSON(http.StatusOK, o)
	}

	o, err := h.Offers.Accept(ctx, c.Param("id"))
	if err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "offer not found"})
		case repository.ErrOfferNotPending:
			return c.JSON(http.StatusConflict, echo.Map{"message": "offer has already been decided"})
		case repository.ErrTaskNotOpen:
			return c.JSON(http.StatusConflict, echo.Map{"message": "task is no longer open for offers"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not accept offer"})
		}
	}

	h.notifyAccepted(u, o)

	return c.JSON(http.StatusOK, o)
}

// notifyAccepted records the in-app notification for the tasker and
// emits the offer.accepted event. Both are best effort; the
// acceptance itself has already committed.
func (h *OfferHandler) notifyAccepted(client *model.User, o model.Offer) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ev := queue.OfferAcceptedEvent{
		OfferID:    o.ID,
		TaskID:     o.TaskID,
		TaskerID:   o.TaskerID,
		ClientName: client.FirstName + " " + client.LastName,
		Amount:     o.Amount,
		Currency:   o.Currency,
		AcceptedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if t, err := h.Tasks.Get(ctx, o.TaskID); err == nil {
		ev.TaskTitle = t.Title
	}
	if tasker, err := h.Users.GetByID(ctx, o.TaskerID); err == nil {
		ev.TaskerEmail = tasker.Email
	}

	n := model.Notification{
		UserID:  o.TaskerID,
		Type:    model.NotificationOfferAccepted,
		Title:   "Offer accepted",
		Message: ev.ClientName + " accepted your offer on \"" + ev.TaskTitle + "\"",
	}
	if err := h.Notifications.Create(ctx, &n); err != nil {
		log.Printf("offer %s: accepted notification not stored: %v", o.ID, err)
	}

	if err := service.PublishOfferAccepted(ctx, ev); err != nil {
		log.Printf("offer %s: accepted event not published: %v", o.ID, err)
	}
}
