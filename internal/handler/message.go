package handler

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tasksur/tasksur/internal/middleware"
	"github.com/tasksur/tasksur/internal/model"
	"github.com/tasksur/tasksur/internal/queue"
	"github.com/tasksur/tasksur/internal/service"
)

// MessageHandler serves task conversations and direct messages.
type MessageHandler struct {
	Messages MessageStore
	Users    UserStore
}

func NewMessageHandler(messages MessageStore, users UserStore) *MessageHandler {
	return &MessageHandler{Messages: messages, Users: users}
}

type taskMessageReq struct {
	ReceiverID string `json:"receiverId" validate:"required"`
	Content    string `json:"content" validate:"required"`
}

type directMessageReq struct {
	ReceiverID string  `json:"receiverId" validate:"required"`
	Content    string  `json:"content" validate:"required"`
	TaskID     *string `json:"taskId"`
}

// ListByTask handles GET /api/tasks/:id/messages. The ownership
// middleware has already restricted access to the task's participants.
func (h *MessageHandler) ListByTask(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	msgs, err := h.Messages.ListByTask(ctx, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not list messages"})
	}
	return c.JSON(http.StatusOK, msgs)
}

// CreateForTask handles POST /api/tasks/:id/messages. The task comes
// from the ownership middleware; the receiver must be the other
// participant.
func (h *MessageHandler) CreateForTask(c echo.Context) error {
	u, ok := requester(c)
	if !ok {
		return nil
	}
	t, ok := c.Get(middleware.CtxTask).(model.Task)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "task not resolved"})
	}
	var req taskMessageReq
	if !bindAndValidate(c, &req) {
		return nil
	}
	if req.ReceiverID == u.ID {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "cannot message yourself"})
	}

	taskID := t.ID
	m := model.Message{
		TaskID:     &taskID,
		SenderID:   u.ID,
		ReceiverID: req.ReceiverID,
		Content:    strings.TrimSpace(req.Content),
	}
	return h.create(c, u, &m)
}

// CreateDirect handles POST /api/messages, a message outside (or
// optionally attached to) a task conversation.
func (h *MessageHandler) CreateDirect(c echo.Context) error {
	u, ok := requester(c)
	if !ok {
		return nil
	}
	var req directMessageReq
	if !bindAndValidate(c, &req) {
		return nil
	}
	if req.ReceiverID == u.ID {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "cannot message yourself"})
	}

	m := model.Message{
		TaskID:     req.TaskID,
		SenderID:   u.ID,
		ReceiverID: req.ReceiverID,
		Content:    strings.TrimSpace(req.Content),
	}
	return h.create(c, u, &m)
}

func (h *MessageHandler) create(c echo.Context, u *model.User, m *model.Message) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Users.GetByID(ctx, m.ReceiverID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "receiver not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not load receiver"})
	}

	senderName := u.FirstName + " " + u.LastName
	if err := h.Messages.Create(ctx, m, senderName); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not send message"})
	}

	h.publishCreated(senderName, *m)

	return c.JSON(http.StatusCreated, m)
}

// MarkRead handles PATCH /api/messages/:id/read. Only the receiver
// flips the flag.
func (h *MessageHandler) MarkRead(c echo.Context) error {
	u, ok := requester(c)
	if !ok {
		return nil
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	m, err := h.Messages.GetByID(ctx, c.Param("id"))
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "message not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not load message"})
	}
	if m.ReceiverID != u.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "only the receiver can mark a message read"})
	}
	if err := h.Messages.MarkRead(ctx, m.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not mark message read"})
	}
	m, err = h.Messages.GetByID(ctx, m.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not load message"})
	}
	return c.JSON(http.StatusOK, m)
}

// publishCreated emits the message.created event. Failures are logged
// only; the message row is already committed.
func (h *MessageHandler) publishCreated(senderName string, m model.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ev := queue.MessageCreatedEvent{
		MessageID:  m.ID,
		TaskID:     m.TaskID,
		SenderName: senderName,
		ReceiverID: m.ReceiverID,
		Preview:    preview(m.Content, 120),
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if receiver, err := h.Users.GetByID(ctx, m.ReceiverID); err == nil {
		ev.ReceiverEmail = receiver.Email
	}
	if err := service.PublishMessageCreated(ctx, ev); err != nil {
		log.Printf("message %s: created event not published: %v", m.ID, err)
	}
}

// preview clips s to n runes for the event payload. Cutting on a rune
// boundary keeps multi-byte content valid UTF-8.
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
