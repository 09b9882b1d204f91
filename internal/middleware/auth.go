package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"database/sql"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/tasksur/tasksur/internal/model"
)

// Context keys populated by Authenticate and reused downstream.
const (
	CtxUser   = "user"    // *model.User
	CtxUserID = "user_id" // string
	CtxRole   = "role"    // string
	CtxTask   = "task"    // model.Task, set by the ownership middleware
)

// UserLoader is the slice of the user repository the auth middleware
// needs. Handlers receive the loaded user via the context so they
// never re-fetch it.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (model.User, error)
}

// Authenticate returns a middleware that validates a Bearer access
// token, verifies its HS256 signature and expiry, loads the full user
// row and attaches it to the request context. Missing or invalid
// tokens, and tokens whose subject no longer exists, are rejected
// with 401.
func Authenticate(secret string, users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid or expired token"})
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid claims"})
			}
			sub, _ := claims["sub"].(string)
			if sub == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid claims"})
			}

			u, err := users.GetByID(c.Request().Context(), sub)
			if err != nil {
				if err == sql.ErrNoRows {
					return c.JSON(http.StatusUnauthorized, echo.Map{"message": "user no longer exists"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not load user"})
			}

			c.Set(CtxUser, &u)
			c.Set(CtxUserID, u.ID)
			c.Set(CtxRole, u.Role)
			return next(c)
		}
	}
}

// AuthenticateOptional attaches the user when the request carries a
// valid Bearer token and lets it through unauthenticated otherwise.
// Logout sits behind it: a refresh token in the body and a bearer
// token are each sufficient on their own, so a missing or bad token
// must not end the request here.
func AuthenticateOptional(secret string, users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return next(c)
			}
			tok, err := jwt.Parse(strings.TrimPrefix(auth, "Bearer "), func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return next(c)
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return next(c)
			}
			sub, _ := claims["sub"].(string)
			if sub == "" {
				return next(c)
			}
			u, err := users.GetByID(c.Request().Context(), sub)
			if err != nil {
				return next(c)
			}

			c.Set(CtxUser, &u)
			c.Set(CtxUserID, u.ID)
			c.Set(CtxRole, u.Role)
			return next(c)
		}
	}
}

// CurrentUser pulls the authenticated user out of the context. The
// second return is false when the request is unauthenticated.
func CurrentUser(c echo.Context) (*model.User, bool) {
	u, ok := c.Get(CtxUser).(*model.User)
	return u, ok && u != nil
}
