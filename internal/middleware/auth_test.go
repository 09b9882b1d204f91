package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/tasksur/tasksur/internal/model"
	"github.com/tasksur/tasksur/internal/utils"
)

type fakeUsers struct {
	users map[string]model.User
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

const testSecret = "test-secret"

func authRequest(t *testing.T, users UserLoader, header string) (int, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := Authenticate(testSecret, users)(okHandler)(c); err != nil {
		t.Fatalf("middleware: %v", err)
	}
	return rec.Code, c
}

func TestAuthenticateValidToken(t *testing.T) {
	u := model.User{ID: "user-1", Role: model.RoleClient, Email: "a@b.c"}
	users := &fakeUsers{users: map[string]model.User{u.ID: u}}
	at, err := utils.NewAccessToken(testSecret, u.ID, u.Role, 5)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}

	code, c := authRequest(t, users, "Bearer "+at.Token)
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	got, ok := CurrentUser(c)
	if !ok || got.ID != u.ID {
		t.Error("user not attached to context")
	}
	if c.Get(CtxRole) != model.RoleClient {
		t.Errorf("role = %v, want client", c.Get(CtxRole))
	}
}

func TestAuthenticateMissingHeader(t *testing.T) {
	code, _ := authRequest(t, &fakeUsers{}, "")
	if code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", code)
	}
}

func TestAuthenticateWrongSecret(t *testing.T) {
	at, err := utils.NewAccessToken("another-secret", "user-1", "client", 5)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	code, _ := authRequest(t, &fakeUsers{}, "Bearer "+at.Token)
	if code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", code)
	}
}

func optionalAuthRequest(t *testing.T, users UserLoader, header string) (int, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := AuthenticateOptional(testSecret, users)(okHandler)(c); err != nil {
		t.Fatalf("middleware: %v", err)
	}
	return rec.Code, c
}

func TestAuthenticateOptionalValidToken(t *testing.T) {
	u := model.User{ID: "user-1", Role: model.RoleClient, Email: "a@b.c"}
	users := &fakeUsers{users: map[string]model.User{u.ID: u}}
	at, err := utils.NewAccessToken(testSecret, u.ID, u.Role, 5)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}

	code, c := optionalAuthRequest(t, users, "Bearer "+at.Token)
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	got, ok := CurrentUser(c)
	if !ok || got.ID != u.ID {
		t.Error("user not attached to context")
	}
}

func TestAuthenticateOptionalPassesThrough(t *testing.T) {
	bad, err := utils.NewAccessToken("another-secret", "user-1", "client", 5)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	for name, header := range map[string]string{
		"no header":    "",
		"wrong secret": "Bearer " + bad.Token,
		"garbage":      "Bearer not-a-jwt",
	} {
		code, c := optionalAuthRequest(t, &fakeUsers{}, header)
		if code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", name, code)
		}
		if _, ok := CurrentUser(c); ok {
			t.Errorf("%s: user unexpectedly attached", name)
		}
	}
}

func TestAuthenticateDeletedUser(t *testing.T) {
	at, err := utils.NewAccessToken(testSecret, "ghost", "client", 5)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	code, _ := authRequest(t, &fakeUsers{users: map[string]model.User{}}, "Bearer "+at.Token)
	if code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", code)
	}
}
