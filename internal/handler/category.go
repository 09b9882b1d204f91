package handler

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tasksur/tasksur/internal/model"
	"github.com/tasksur/tasksur/internal/repository"
)

// CategoryHandler serves the category reference data. Reads are
// public; mutations are limited to admins by the router.
type CategoryHandler struct {
	Categories CategoryStore
}

func NewCategoryHandler(categories CategoryStore) *CategoryHandler {
	return &CategoryHandler{Categories: categories}
}

type categoryReq struct {
	Slug        string `json:"slug" validate:"required,max=100"`
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
}

// List handles GET /api/categories.
func (h *CategoryHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	cats, err := h.Categories.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not list categories"})
	}
	return c.JSON(http.StatusOK, cats)
}

// Get handles GET /api/categories/:id.
func (h *CategoryHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	cat, err := h.Categories.GetByID(ctx, c.Param("id"))
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "category not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not load category"})
	}
	return c.JSON(http.StatusOK, cat)
}

// Create handles POST /api/categories.
func (h *CategoryHandler) Create(c echo.Context) error {
	var req categoryReq
	if !bindAndValidate(c, &req) {
		return nil
	}
	cat := model.Category{
		Slug:        strings.ToLower(strings.TrimSpace(req.Slug)),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Icon:        req.Icon,
		Color:       req.Color,
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Categories.Create(ctx, &cat); err != nil {
		if err == repository.ErrSlugExists {
			return c.JSON(http.StatusConflict, echo.Map{"message": "category slug already in use"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not create category"})
	}
	return c.JSON(http.StatusCreated, cat)
}

// Update handles PATCH /api/categories/:id. Empty fields keep their
// current value.
func (h *CategoryHandler) Update(c echo.Context) error {
	var req categoryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	cat, err := h.Categories.GetByID(ctx, c.Param("id"))
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "category not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not load category"})
	}
	if req.Slug != "" {
		cat.Slug = strings.ToLower(strings.TrimSpace(req.Slug))
	}
	if req.Name != "" {
		cat.Name = strings.TrimSpace(req.Name)
	}
	if req.Description != "" {
		cat.Description = req.Description
	}
	if req.Icon != "" {
		cat.Icon = req.Icon
	}
	if req.Color != "" {
		cat.Color = req.Color
	}

	if err := h.Categories.Update(ctx, &cat); err != nil {
		if err == repository.ErrSlugExists {
			return c.JSON(http.StatusConflict, echo.Map{"message": "category slug already in use"})
		}
		if err == sql.ErrNoRows { // deleted between the read and the write
			return c.JSON(http.StatusNotFound, echo.Map{"message": "category not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not update category"})
	}
	return c.JSON(http.StatusOK, cat)
}

// Delete handles DELETE /api/categories/:id.
func (h *CategoryHandler) Delete(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	removed, err := h.Categories.Delete(ctx, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not delete category"})
	}
	if !removed {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "category not found"})
	}
	return c.NoContent(http.StatusNoContent)
}
