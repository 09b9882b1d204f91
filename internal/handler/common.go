package handler // handler defines the HTTP handlers of the REST API

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/tasksur/tasksur/internal/middleware"
	"github.com/tasksur/tasksur/internal/model"
)

// reqCtx bounds every database call made on behalf of a request.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// paging parses ?page and ?limit: page >= 1, limit in [1,100],
// defaulting to 1 and 10.
func paging(c echo.Context) (page, limit int) {
	page, limit = 1, 10
	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

// pageResp is the uniform list envelope.
type pageResp struct {
	Items any   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

// requester returns the authenticated user or writes a 401. Handlers
// behind the auth middleware can rely on ok being true.
func requester(c echo.Context) (*model.User, bool) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		_ = c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	return u, ok
}

// Validator adapts go-playground/validator to echo's Validator
// interface so handlers can call c.Validate(dto).
type Validator struct{ v *validator.Validate }

func NewValidator() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate implements echo.Validator. Failures come back as an
// echo.HTTPError carrying a per-field message so the client sees
// which field was rejected.
func (cv *Validator) Validate(i any) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, strings.ToLower(fe.Field()[:1])+fe.Field()[1:]+" failed "+fe.Tag())
		}
		return echo.NewHTTPError(http.StatusBadRequest, strings.Join(fields, "; "))
	}
	return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
}

// bindAndValidate binds the JSON body and runs the validator,
// answering 400 itself on failure.
func bindAndValidate(c echo.Context, dto any) bool {
	if err := c.Bind(dto); err != nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
		return false
	}
	if err := c.Validate(dto); err != nil {
		msg := "invalid request body"
		if he, ok := err.(*echo.HTTPError); ok {
			if s, ok := he.Message.(string); ok {
				msg = s
			}
		}
		_ = c.JSON(http.StatusBadRequest, echo.Map{"message": msg})
		return false
	}
	return true
}

// HTTPErrorHandler normalizes every error that escapes a handler into
// the {message} body shape. Unclassified errors become a generic 500;
// the underlying error is logged, and echoed back only outside prod.
func HTTPErrorHandler(env string) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status := http.StatusInternalServerError
		msg := "internal server error"
		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
			if s, ok := he.Message.(string); ok {
				msg = s
			} else {
				msg = http.StatusText(status)
			}
		} else if env != "prod" {
			msg = err.Error()
		}
		if status >= http.StatusInternalServerError {
			c.Logger().Error(err)
		}
		_ = c.JSON(status, echo.Map{"message": msg})
	}
}
