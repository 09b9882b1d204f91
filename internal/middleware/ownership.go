package middleware

// ownership.go implements the per-request ownership predicates gating
// task mutation, offer mutation and task message access. Each
// middleware loads the task once and stashes it in the context under
// CtxTask so the handler does not query it again.

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tasksur/tasksur/internal/model"
)

// TaskGetter is the slice of the task repository the ownership
// middleware needs.
type TaskGetter interface {
	Get(ctx context.Context, id string) (model.Task, error)
}

// taskIDParam names the route parameter carrying the task id.
const taskIDParam = "id"

func loadTask(c echo.Context, tasks TaskGetter) (model.Task, error) {
	return tasks.Get(c.Request().Context(), c.Param(taskIDParam))
}

// CanModifyTask admits the task's client, its assigned tasker, or an
// admin; everyone else gets 403. A missing task is 404.
func CanModifyTask(tasks TaskGetter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := CurrentUser(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			t, err := loadTask(c, tasks)
			if err != nil {
				if err == sql.ErrNoRows {
					return c.JSON(http.StatusNotFound, echo.Map{"message": "task not found"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not load task"})
			}
			if !ownsTask(u, t) {
				return c.JSON(http.StatusForbidden, echo.Map{"message": "not allowed to modify this task"})
			}
			c.Set(CtxTask, t)
			return next(c)
		}
	}
}

// CanModifyOffer admits an admin always, and the task's client while
// the task is still open. Offers on a task that has moved past open
// are frozen for non-admins.
func CanModifyOffer(tasks TaskGetter, taskOf func(c echo.Context) (string, error)) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := CurrentUser(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			if u.Role == model.RoleAdmin {
				return next(c)
			}
			taskID, err := taskOf(c)
			if err != nil {
				if err == sql.ErrNoRows {
					return c.JSON(http.StatusNotFound, echo.Map{"message": "offer not found"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not resolve offer"})
			}
			t, err := tasks.Get(c.Request().Context(), taskID)
			if err != nil {
				if err == sql.ErrNoRows {
					return c.JSON(http.StatusNotFound, echo.Map{"message": "task not found"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not load task"})
			}
			if t.ClientID != u.ID {
				return c.JSON(http.StatusForbidden, echo.Map{"message": "not allowed to modify this offer"})
			}
			if t.Status != model.TaskOpen {
				return c.JSON(http.StatusForbidden, echo.Map{"message": "task is no longer open"})
			}
			c.Set(CtxTask, t)
			return next(c)
		}
	}
}

// CanAccessTaskMessages admits the task's client, its assigned
// tasker, or an admin.
func CanAccessTaskMessages(tasks TaskGetter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := CurrentUser(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			t, err := loadTask(c, tasks)
			if err != nil {
				if err == sql.ErrNoRows {
					return c.JSON(http.StatusNotFound, echo.Map{"message": "task not found"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not load task"})
			}
			if !ownsTask(u, t) {
				return c.JSON(http.StatusForbidden, echo.Map{"message": "not allowed to view these messages"})
			}
			c.Set(CtxTask, t)
			return next(c)
		}
	}
}

// ownsTask is the shared predicate: admin, client, or assigned tasker.
func ownsTask(u *model.User, t model.Task) bool {
	if u.Role == model.RoleAdmin {
		return true
	}
	if t.ClientID == u.ID {
		return true
	}
	return t.AssignedTaskerID != nil && *t.AssignedTaskerID == u.ID
}
