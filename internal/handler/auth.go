package handler

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tasksur/tasksur/internal/config"
	"github.com/tasksur/tasksur/internal/model"
	"github.com/tasksur/tasksur/internal/repository"
	"github.com/tasksur/tasksur/internal/utils"
)

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    UserStore
	Sessions SessionStore
}

func NewAuthHandler(cfg config.Config, users UserStore, sessions SessionStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Sessions: sessions}
}

// ----- DTOs -----

type registerReq struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Role      string `json:"role"` // client | tasker
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type authResp struct {
	User    model.User `json:"user"`
	Access  tokenPart  `json:"access"`
	Refresh tokenPart  `json:"refresh"`
}

// Register creates a user and returns a token pair immediately.
// Registering an email that already exists is a 400, matching the
// frontend's "user already exists" handling.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if !bindAndValidate(c, &req) {
		return nil
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role != model.RoleTasker && role != model.RoleClient {
		role = model.RoleClient
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, req.Password, role, req.FirstName, req.LastName, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "user already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not create user"})
	}
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not load user"})
	}

	resp, ok := h.issueTokens(c, u)
	if !ok {
		return nil
	}
	return c.JSON(http.StatusCreated, resp)
}

// Login verifies credentials and returns a fresh token pair. Unknown
// email and wrong password are indistinguishable to the caller.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if !bindAndValidate(c, &req) {
		return nil
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid credentials"})
	}

	resp, ok := h.issueTokens(c, u)
	if !ok {
		return nil
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh validates a refresh token by hash, revokes it and issues a
// new pair (rotation).
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "refreshToken required"})
	}
	sid := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := reqCtx(c)
	defer cancel()

	userID, err := h.Sessions.Validate(ctx, sid)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid refresh token"})
	}
	_ = h.Sessions.Revoke(ctx, sid)

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid refresh token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not load user"})
	}

	resp, ok := h.issueTokens(c, u)
	if !ok {
		return nil
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout revokes a single session when a refreshToken is supplied,
// or every session of the authenticated user otherwise.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	raw := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := reqCtx(c)
	defer cancel()

	if raw != "" {
		sid := utils.HashRefreshRaw(raw)
		if _, err := h.Sessions.Validate(ctx, sid); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid refresh token"})
		}
		if err := h.Sessions.Revoke(ctx, sid); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "logout failed"})
		}
		return c.NoContent(http.StatusNoContent)
	}

	if u, ok := requester(c); ok {
		if err := h.Sessions.RevokeAllForUser(ctx, u.ID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "logout failed"})
		}
		return c.NoContent(http.StatusNoContent)
	}
	return nil
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	u, ok := requester(c)
	if !ok {
		return nil
	}
	return c.JSON(http.StatusOK, u)
}

// issueTokens signs an access token, mints and stores a refresh
// session, and returns the response payload. On failure it writes the
// 500 itself and returns ok=false.
func (h *AuthHandler) issueTokens(c echo.Context, u model.User) (*authResp, bool) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		_ = c.JSON(http.StatusInternalServerError, echo.Map{"message": "issue access failed"})
		return nil, false
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		_ = c.JSON(http.StatusInternalServerError, echo.Map{"message": "issue refresh failed"})
		return nil, false
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Sessions.Store(ctx, utils.HashRefreshRaw(refresh.Raw), u.ID, refresh.Exp); err != nil {
		_ = c.JSON(http.StatusInternalServerError, echo.Map{"message": "save session failed"})
		return nil, false
	}
	return &authResp{
		User:    u,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	}, true
}
