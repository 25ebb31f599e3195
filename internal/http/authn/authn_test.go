package authn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/flowdeck/flowdeck/internal/auth"
	"github.com/flowdeck/flowdeck/internal/store"
)

func TestSanitizeNext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "whitespace", in: "   ", want: ""},
		{name: "root", in: "/", want: ""},
		{name: "ok_path", in: "/workflows", want: "/workflows"},
		{name: "ok_path_query", in: "/workflows?foo=bar", want: "/workflows?foo=bar"},
		{name: "ok_root_query", in: "/?foo=bar", want: "/?foo=bar"},
		{name: "absolute_url", in: "https://evil.example/", want: ""},
		{name: "protocol_relative", in: "//evil.example/", want: ""},
		{name: "triple_slash", in: "///evil.example/", want: ""},
		{name: "backslash", in: "/\\evil.example/", want: ""},
		{name: "encoded_slash", in: "/%2f%2fevil.example/", want: ""},
		{name: "encoded_backslash", in: "/%5cevil.example/", want: ""},
		{name: "login_path", in: "/login", want: ""},
		{name: "login_subpath", in: "/login/reset", want: ""},
		{name: "newline", in: "/\n/evil", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeNext(tt.in); got != tt.want {
				t.Fatalf("SanitizeNext(%q)=%q; want %q", tt.in, got, tt.want)
			}
		})
	}
}

type fakeUserStore struct {
	users map[int64]store.AuthUser
}

func (f *fakeUserStore) GetAuthUser(_ context.Context, id int64) (store.AuthUser, error) {
	u, ok := f.users[id]
	if !ok {
		return store.AuthUser{}, pgx.ErrNoRows
	}
	return u, nil
}

func sessionContext(t *testing.T, sessions *scs.SessionManager, userID int64) echo.Context {
	t.Helper()

	ctx, err := sessions.Load(context.Background(), "")
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if userID > 0 {
		sessions.Put(ctx, SessionKeyUserID, userID)
	}

	req := httptest.NewRequest(http.MethodGet, "/workflows", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec)
}

func TestLoadPrincipal(t *testing.T) {
	sessions := scs.New()
	users := &fakeUserStore{users: map[int64]store.AuthUser{
		1: {ID: 1, Email: "ops@flowdeck.test", Role: "admin", IsActive: true},
		2: {ID: 2, Email: "former@flowdeck.test", Role: "viewer", IsActive: false},
	}}

	t.Run("active user", func(t *testing.T) {
		c := sessionContext(t, sessions, 1)
		p, ok, err := LoadPrincipal(c, sessions, users)
		if err != nil {
			t.Fatalf("LoadPrincipal: %v", err)
		}
		if !ok {
			t.Fatal("expected principal")
		}
		if p.UserID != 1 || p.Email != "ops@flowdeck.test" || p.Role != "admin" {
			t.Fatalf("unexpected principal %+v", p)
		}
	})

	t.Run("no session", func(t *testing.T) {
		c := sessionContext(t, sessions, 0)
		_, ok, err := LoadPrincipal(c, sessions, users)
		if err != nil || ok {
			t.Fatalf("ok=%v err=%v; want anonymous", ok, err)
		}
	})

	t.Run("deleted user destroys session", func(t *testing.T) {
		c := sessionContext(t, sessions, 99)
		_, ok, err := LoadPrincipal(c, sessions, users)
		if err != nil || ok {
			t.Fatalf("ok=%v err=%v; want anonymous", ok, err)
		}
		if got := sessions.GetInt64(c.Request().Context(), SessionKeyUserID); got != 0 {
			t.Fatalf("session user id survived: %d", got)
		}
	})

	t.Run("inactive user destroys session", func(t *testing.T) {
		c := sessionContext(t, sessions, 2)
		_, ok, err := LoadPrincipal(c, sessions, users)
		if err != nil || ok {
			t.Fatalf("ok=%v err=%v; want anonymous", ok, err)
		}
	})
}

func TestRequireAuthUnauthenticated(t *testing.T) {
	sessions := scs.New()
	users := &fakeUserStore{users: map[int64]store.AuthUser{}}
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	mw := RequireAuth(sessions, users)(next)

	t.Run("api request gets 401 json", func(t *testing.T) {
		ctx, err := sessions.Load(context.Background(), "")
		if err != nil {
			t.Fatalf("load session: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/api/workflows", nil).WithContext(ctx)
		rec := httptest.NewRecorder()
		c := echo.New().NewContext(req, rec)
		c.SetPath("/api/workflows")

		if err := mw(c); err != nil {
			t.Fatalf("middleware: %v", err)
		}
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status=%d want 401", rec.Code)
		}
	})

	t.Run("page request redirects to login with next", func(t *testing.T) {
		ctx, err := sessions.Load(context.Background(), "")
		if err != nil {
			t.Fatalf("load session: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/approvals", nil).WithContext(ctx)
		rec := httptest.NewRecorder()
		c := echo.New().NewContext(req, rec)
		c.SetPath("/approvals")

		if err := mw(c); err != nil {
			t.Fatalf("middleware: %v", err)
		}
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("status=%d want 303", rec.Code)
		}
		if got := rec.Header().Get("Location"); got != "/login?next=%2Fapprovals" {
			t.Fatalf("location=%q", got)
		}
	})
}

func TestRequireRole(t *testing.T) {
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	mw := RequireRole("admin")(next)

	req := httptest.NewRequest(http.MethodPost, "/settings/integrations/1/toggle", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.Set(ContextKeyPrincipal, auth.Principal{UserID: 7, Email: "viewer@flowdeck.test", Role: "viewer"})

	err := mw(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Fatalf("err=%v; want 403", err)
	}
}
