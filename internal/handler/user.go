package handler

import (
	"database/sql"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tasksur/tasksur/internal/middleware"
	"github.com/tasksur/tasksur/internal/model"
	"github.com/tasksur/tasksur/internal/repository"
)

// UserHandler serves public profiles, profile updates, stats, reviews
// and account deletion.
type UserHandler struct {
	Users   UserStore
	Tasks   TaskStore
	Reviews ReviewStore
}

func NewUserHandler(users UserStore, tasks TaskStore, reviews ReviewStore) *UserHandler {
	return &UserHandler{Users: users, Tasks: tasks, Reviews: reviews}
}

type updateUserReq struct {
	FirstName  *string   `json:"firstName"`
	LastName   *string   `json:"lastName"`
	Bio        *string   `json:"bio"`
	Location   *string   `json:"location"`
	Phone      *string   `json:"phone"`
	Skills     *[]string `json:"skills"`
	HourlyRate *float64  `json:"hourlyRate"`
}

type createReviewReq struct {
	TaskID  string `json:"taskId" validate:"required"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// Get handles GET /api/users/:id. The requester sees their own full
// record; everyone else gets the public shape.
func (h *UserHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, c.Param("id"))
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not load user"})
	}
	if me, ok := middleware.CurrentUser(c); ok && (me.ID == u.ID || me.Role == model.RoleAdmin) {
		return c.JSON(http.StatusOK, u)
	}
	return c.JSON(http.StatusOK, u.Public())
}

// Update handles PATCH /api/users/:id. Users edit themselves; admins
// edit anyone.
func (h *UserHandler) Update(c echo.Context) error {
	me, ok := requester(c)
	if !ok {
		return nil
	}
	id := c.Param("id")
	if me.Role != model.RoleAdmin && me.ID != id {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "cannot edit another user's profile"})
	}
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	upd := repository.UserUpdate{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Bio:        req.Bio,
		Location:   req.Location,
		Phone:      req.Phone,
		Skills:     req.Skills,
		HourlyRate: req.HourlyRate,
	}
	if err := h.Users.UpdateProfile(ctx, id, upd); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not update profile"})
	}
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not load user"})
	}
	return c.JSON(http.StatusOK, u)
}

// Stats handles GET /api/users/:id/stats.
func (h *UserHandler) Stats(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	st, err := h.Users.Stats(ctx, c.Param("id"))
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not load stats"})
	}
	return c.JSON(http.StatusOK, st)
}

// ListReviews handles GET /api/users/:id/reviews.
func (h *UserHandler) ListReviews(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	revs, err := h.Reviews.ListByReviewee(ctx, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not list reviews"})
	}
	return c.JSON(http.StatusOK, revs)
}

// CreateReview handles POST /api/reviews. Only a participant of a
// completed task may review, and only the other participant; the
// unique (task, reviewer) constraint blocks repeats.
func (h *UserHandler) CreateReview(c echo.Context) error {
	me, ok := requester(c)
	if !ok {
		return nil
	}
	var req createReviewReq
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
	if t.Status != model.TaskCompleted {
		return c.JSON(http.StatusConflict, echo.Map{"message": "task is not completed"})
	}
	if t.AssignedTaskerID == nil {
		return c.JSON(http.StatusConflict, echo.Map{"message": "task has no assigned tasker"})
	}

	var revieweeID string
	switch me.ID {
	case t.ClientID:
		revieweeID = *t.AssignedTaskerID
	case *t.AssignedTaskerID:
		revieweeID = t.ClientID
	default:
		return c.JSON(http.StatusForbidden, echo.Map{"message": "only task participants can review"})
	}

	rev := model.Review{
		TaskID:     req.TaskID,
		ReviewerID: me.ID,
		RevieweeID: revieweeID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	}
	if err := h.Reviews.Create(ctx, &rev); err != nil {
		if err == repository.ErrDuplicateReview {
			return c.JSON(http.StatusConflict, echo.Map{"message": "you have already reviewed this task"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not create review"})
	}
	return c.JSON(http.StatusCreated, rev)
}

// Delete handles DELETE /api/users/:id. Self or admin; removes the
// account and everything hanging off it in one transaction.
func (h *UserHandler) Delete(c echo.Context) error {
	me, ok := requester(c)
	if !ok {
		return nil
	}
	id := c.Param("id")
	if me.Role != model.RoleAdmin && me.ID != id {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "cannot delete another user's account"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	removed, err := h.Users.DeleteCascade(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not delete account"})
	}
	if !removed {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
	}
	return c.NoContent(http.StatusNoContent)
}
