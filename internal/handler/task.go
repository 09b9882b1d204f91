package handler

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tasksur/tasksur/internal/middleware"
	"github.com/tasksur/tasksur/internal/model"
	"github.com/tasksur/tasksur/internal/repository"
)

// TaskHandler bundles dependencies for the task endpoints.
type TaskHandler struct {
	Tasks TaskStore
}

func NewTaskHandler(tasks TaskStore) *TaskHandler {
	return &TaskHandler{Tasks: tasks}
}

type createTaskReq struct {
	Title       string     `json:"title" validate:"required,max=255"`
	Description string     `json:"description" validate:"required"`
	CategoryID  *string    `json:"categoryId"`
	Budget      float64    `json:"budget" validate:"gte=0"`
	Currency    string     `json:"currency"`
	Location    string     `json:"location"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
}

type updateTaskReq struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	CategoryID  *string    `json:"categoryId"`
	Budget      *float64   `json:"budget"`
	Currency    *string    `json:"currency"`
	Location    *string    `json:"location"`
	Priority    *string    `json:"priority"`
	Status      *string    `json:"status"`
	DueDate     *time.Time `json:"dueDate"`
}

// List handles GET /api/tasks. All filters are optional; results are
// newest first with offset pagination.
func (h *TaskHandler) List(c echo.Context) error {
	page, limit := paging(c)
	f := model.TaskFilter{
		Status:       model.TaskStatus(strings.TrimSpace(c.QueryParam("status"))),
		CategoryID:   c.QueryParam("categoryId"),
		CategoryName: c.QueryParam("categoryName"),
		Location:     c.QueryParam("location"),
		ClientID:     c.QueryParam("clientId"),
		TaskerID:     c.QueryParam("taskerId"),
	}
	if f.Status != "" && !model.ValidTaskStatus(f.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid status filter"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	items, total, err := h.Tasks.List(ctx, f, page, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not list tasks"})
	}
	return c.JSON(http.StatusOK, pageResp{Items: items, Total: total, Page: page, Limit: limit})
}

// Get handles GET /api/tasks/:id.
func (h *TaskHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	t, err := h.Tasks.GetByID(ctx, c.Param("id"))
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "task not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not load task"})
	}
	return c.JSON(http.StatusOK, t)
}

// Create handles POST /api/tasks. The requester becomes the client;
// new tasks always start open.
func (h *TaskHandler) Create(c echo.Context) error {
	u, ok := requester(c)
	if !ok {
		return nil
	}
	var req createTaskReq
	if !bindAndValidate(c, &req) {
		return nil
	}
	if req.Priority != "" && !model.ValidPriority(req.Priority) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid priority"})
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}

	t := model.Task{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		CategoryID:  req.CategoryID,
		ClientID:    u.ID,
		Budget:      req.Budget,
		Currency:    req.Currency,
		Location:    req.Location,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Tasks.Create(ctx, &t); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not create task"})
	}
	created, err := h.Tasks.GetByID(ctx, t.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not load task"})
	}
	return c.JSON(http.StatusCreated, created)
}

// Update handles PATCH /api/tasks/:id. The ownership middleware has
// already loaded the task and verified the requester; status changes
// go through the transition table unless the requester is an admin.
func (h *TaskHandler) Update(c echo.Context) error {
	u, ok := requester(c)
	if !ok {
		return nil
	}
	t, ok := c.Get(middleware.CtxTask).(model.Task)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "task not resolved"})
	}
	var req updateTaskReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}

	upd := repository.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Budget:      req.Budget,
		Currency:    req.Currency,
		Location:    req.Location,
		DueDate:     req.DueDate,
	}
	if req.Priority != nil {
		if !model.ValidPriority(*req.Priority) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid priority"})
		}
		upd.Priority = req.Priority
	}
	if req.Status != nil {
		next := model.TaskStatus(*req.Status)
		if !model.ValidTaskStatus(next) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid status"})
		}
		if u.Role != model.RoleAdmin && !model.CanTransition(t.Status, next) {
			return c.JSON(http.StatusConflict, echo.Map{
				"message": "cannot move task from " + string(t.Status) + " to " + string(next),
			})
		}
		upd.Status = &next
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Tasks.Update(ctx, t.ID, upd); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "task not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not update task"})
	}
	updated, err := h.Tasks.GetByID(ctx, t.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not load task"})
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /api/tasks/:id.
func (h *TaskHandler) Delete(c echo.Context) error {
	t, ok := c.Get(middleware.CtxTask).(model.Task)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "task not resolved"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	removed, err := h.Tasks.Delete(ctx, t.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not delete task"})
	}
	if !removed {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "task not found"})
	}
	return c.NoContent(http.StatusNoContent)
}
