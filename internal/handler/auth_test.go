package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/tasksur/tasksur/internal/config"
	"github.com/tasksur/tasksur/internal/middleware"
	"github.com/tasksur/tasksur/internal/model"
	"github.com/tasksur/tasksur/internal/utils"
)

func testAuthHandler() (*AuthHandler, *fakeUsers, *fakeSessions) {
	users := newFakeUsers()
	sessions := newFakeSessions()
	cfg := config.Config{
		Env:            "test",
		JWTSecret:      "test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 30,
		BcryptCost:     4,
	}
	return NewAuthHandler(cfg, users, sessions), users, sessions
}

func TestRegisterIssuesTokenPair(t *testing.T) {
	h, _, sessions := testAuthHandler()
	c, rec := jsonCtx(t, http.MethodPost, "/api/register", map[string]string{
		"email":     "new@example.com",
		"password":  "longenough",
		"firstName": "Ada",
		"lastName":  "Lovelace",
		"role":      "tasker",
	}, nil)

	require.NoError(t, h.Register(c))
	wantStatus(t, rec, http.StatusCreated)

	var resp struct {
		User    model.User `json:"user"`
		Access  tokenPart  `json:"access"`
		Refresh tokenPart  `json:"refresh"`
	}
	decodeBody(t, rec, &resp)
	require.Equal(t, "new@example.com", resp.User.Email)
	require.Equal(t, model.RoleTasker, resp.User.Role)
	require.NotEmpty(t, resp.Access.Token)
	require.NotEmpty(t, resp.Refresh.Token)
	require.Equal(t, 1, sessions.active())
}

func TestRegisterDefaultsToClientRole(t *testing.T) {
	h, users, _ := testAuthHandler()
	c, rec := jsonCtx(t, http.MethodPost, "/api/register", map[string]string{
		"email":     "plain@example.com",
		"password":  "longenough",
		"firstName": "Jo",
		"lastName":  "Doe",
		"role":      "superuser", // unknown roles fall back to client
	}, nil)

	require.NoError(t, h.Register(c))
	wantStatus(t, rec, http.StatusCreated)

	u, err := users.GetByEmail(c.Request().Context(), "plain@example.com")
	require.NoError(t, err)
	require.Equal(t, model.RoleClient, u.Role)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h, users, _ := testAuthHandler()
	_, err := users.Create(nil, "taken@example.com", "longenough", "client", "A", "B", 4)
	require.NoError(t, err)

	c, rec := jsonCtx(t, http.MethodPost, "/api/register", map[string]string{
		"email":     "taken@example.com",
		"password":  "longenough",
		"firstName": "A",
		"lastName":  "B",
	}, nil)

	require.NoError(t, h.Register(c))
	wantStatus(t, rec, http.StatusBadRequest)
	require.Contains(t, rec.Body.String(), "already exists")
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	h, _, _ := testAuthHandler()
	c, rec := jsonCtx(t, http.MethodPost, "/api/register", map[string]string{
		"email":     "x@example.com",
		"password":  "short",
		"firstName": "A",
		"lastName":  "B",
	}, nil)

	require.NoError(t, h.Register(c))
	wantStatus(t, rec, http.StatusBadRequest)
}

func TestLogin(t *testing.T) {
	h, users, _ := testAuthHandler()
	_, err := users.Create(nil, "who@example.com", "correct-pass", "client", "A", "B", 4)
	require.NoError(t, err)

	c, rec := jsonCtx(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "who@example.com",
		"password": "correct-pass",
	}, nil)
	require.NoError(t, h.Login(c))
	wantStatus(t, rec, http.StatusOK)

	c, rec = jsonCtx(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "who@example.com",
		"password": "wrong-pass",
	}, nil)
	require.NoError(t, h.Login(c))
	wantStatus(t, rec, http.StatusUnauthorized)

	c, rec = jsonCtx(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "ghost@example.com",
		"password": "whatever",
	}, nil)
	require.NoError(t, h.Login(c))
	wantStatus(t, rec, http.StatusUnauthorized)
}

func TestRefreshRotatesSession(t *testing.T) {
	h, users, sessions := testAuthHandler()
	uid, err := users.Create(nil, "rot@example.com", "longenough", "client", "A", "B", 4)
	require.NoError(t, err)

	// seed a session the way issueTokens would
	rt, err := utils.NewRefreshToken(30)
	require.NoError(t, err)
	require.NoError(t, sessions.Store(nil, utils.HashRefreshRaw(rt.Raw), uid, rt.Exp))

	c, rec := jsonCtx(t, http.MethodPost, "/api/auth/refresh", map[string]string{
		"refreshToken": rt.Raw,
	}, nil)
	require.NoError(t, h.Refresh(c))
	wantStatus(t, rec, http.StatusOK)

	// the old token is spent
	c, rec = jsonCtx(t, http.MethodPost, "/api/auth/refresh", map[string]string{
		"refreshToken": rt.Raw,
	}, nil)
	require.NoError(t, h.Refresh(c))
	wantStatus(t, rec, http.StatusUnauthorized)
}

// TestLogoutRevokesAllSessions drives Logout through the same lenient
// token middleware the route carries, so a bearer token with no
// refreshToken in the body must reach the revoke-all branch.
func TestLogoutRevokesAllSessions(t *testing.T) {
	h, users, sessions := testAuthHandler()
	uid, err := users.Create(nil, "out@example.com", "longenough", "client", "A", "B", 4)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		rt, err := utils.NewRefreshToken(30)
		require.NoError(t, err)
		require.NoError(t, sessions.Store(nil, utils.HashRefreshRaw(rt.Raw), uid, rt.Exp))
	}
	require.Equal(t, 3, sessions.active())

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, uid, model.RoleClient, h.Cfg.AccessTTLMin)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+access.Token)
	rec := httptest.NewRecorder()
	c := newTestEcho().NewContext(req, rec)

	logout := middleware.AuthenticateOptional(h.Cfg.JWTSecret, users)(h.Logout)
	require.NoError(t, logout(c))
	wantStatus(t, rec, http.StatusNoContent)
	require.Equal(t, 0, sessions.active())
}

// Without a bearer token and without a refreshToken there is nothing
// to revoke; the request is rejected instead of silently succeeding.
func TestLogoutWithoutCredentials(t *testing.T) {
	h, users, sessions := testAuthHandler()
	uid, err := users.Create(nil, "stay@example.com", "longenough", "client", "A", "B", 4)
	require.NoError(t, err)

	rt, err := utils.NewRefreshToken(30)
	require.NoError(t, err)
	require.NoError(t, sessions.Store(nil, utils.HashRefreshRaw(rt.Raw), uid, rt.Exp))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := newTestEcho().NewContext(req, rec)

	logout := middleware.AuthenticateOptional(h.Cfg.JWTSecret, users)(h.Logout)
	require.NoError(t, logout(c))
	wantStatus(t, rec, http.StatusUnauthorized)
	require.Equal(t, 1, sessions.active())
}
