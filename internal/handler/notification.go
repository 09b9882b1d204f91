package handler

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tasksur/tasksur/internal/model"
)

// NotificationHandler serves a user's own notification feed.
type NotificationHandler struct {
	Notifications NotificationStore
}

func NewNotificationHandler(notifications NotificationStore) *NotificationHandler {
	return &NotificationHandler{Notifications: notifications}
}

// List handles GET /api/notifications. Optional filters: type, isRead.
func (h *NotificationHandler) List(c echo.Context) error {
	u, ok := requester(c)
	if !ok {
		return nil
	}
	page, limit := paging(c)
	f := model.NotificationFilter{Type: c.QueryParam("type")}
	if raw := c.QueryParam("isRead"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "isRead must be true or false"})
		}
		f.IsRead = &v
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	items, total, err := h.Notifications.ListByUser(ctx, u.ID, page, limit, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not list notifications"})
	}
	return c.JSON(http.StatusOK, pageResp{Items: items, Total: total, Page: page, Limit: limit})
}

// MarkRead handles PATCH /api/notifications/:id/read. The query is
// scoped to the requester, so another user's notification reads as
// not found.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	u, ok := requester(c)
	if !ok {
		return nil
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Notifications.MarkRead(ctx, c.Param("id"), u.ID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "notification not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not mark notification read"})
	}
	return c.NoContent(http.StatusNoContent)
}

// MarkAllRead handles PATCH /api/notifications/read-all.
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	u, ok := requester(c)
	if !ok {
		return nil
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	n, err := h.Notifications.MarkAllRead(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not mark notifications read"})
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": n})
}
