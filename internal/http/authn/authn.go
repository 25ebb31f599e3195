package authn

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/flowdeck/flowdeck/internal/auth"
	"github.com/flowdeck/flowdeck/internal/store"
)

const (
	ContextKeyPrincipal = "auth_principal"

	SessionKeyUserID = "auth_user_id"
)

// UserStore is the slice of the store the session middleware needs.
type UserStore interface {
	GetAuthUser(ctx context.Context, id int64) (store.AuthUser, error)
}

func PrincipalFromContext(c echo.Context) (auth.Principal, bool) {
	p, ok := c.Get(ContextKeyPrincipal).(auth.Principal)
	return p, ok
}

// LoadPrincipal resolves the session's user. A stale session (user deleted
// or deactivated) is destroyed rather than surfaced as an error.
func LoadPrincipal(c echo.Context, sessions *scs.SessionManager, users UserStore) (auth.Principal, bool, error) {
	userID := sessions.GetInt64(c.Request().Context(), SessionKeyUserID)
	if userID <= 0 {
		return auth.Principal{}, false, nil
	}

	user, err := users.GetAuthUser(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			_ = sessions.Destroy(c.Request().Context())
			return auth.Principal{}, false, nil
		}
		return auth.Principal{}, false, err
	}
	if !user.IsActive {
		_ = sessions.Destroy(c.Request().Context())
		return auth.Principal{}, false, nil
	}

	return auth.Principal{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}, true, nil
}

func RequireAuth(sessions *scs.SessionManager, users UserStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok, err := LoadPrincipal(c, sessions, users)
			if err != nil {
				return err
			}
			if !ok {
				return handleUnauth(c)
			}
			c.Set(ContextKeyPrincipal, principal)
			return next(c)
		}
	}
}

func RequireRole(role string) echo.MiddlewareFunc {
	role = strings.ToLower(strings.TrimSpace(role))
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFromContext(c)
			if !ok {
				return handleUnauth(c)
			}
			if strings.ToLower(strings.TrimSpace(p.Role)) != role {
				if isAPIRequest(c) {
					return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
				}
				return echo.NewHTTPError(http.StatusForbidden)
			}
			return next(c)
		}
	}
}

func isAPIRequest(c echo.Context) bool {
	return strings.HasPrefix(c.Path(), "/api/") || strings.HasPrefix(c.Request().URL.Path, "/api/")
}

func handleUnauth(c echo.Context) error {
	if isAPIRequest(c) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}

	location := "/login"
	if c.Request().Method == http.MethodGet {
		if next := SanitizeNext(c.Request().URL.RequestURI()); next != "" {
			location = "/login?next=" + url.QueryEscape(next)
		}
	}
	return c.Redirect(http.StatusSeeOther, location)
}

// SanitizeNext accepts only same-site relative paths for the post-login
// redirect. Anything absolute, schemeful, or pointing back at /login is
// dropped.
func SanitizeNext(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || next == "/" || len(next) > 2048 {
		return ""
	}
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return ""
	}
	if strings.Contains(next, "\\") {
		return ""
	}
	lower := strings.ToLower(next)
	if strings.Contains(lower, "%2f") || strings.Contains(lower, "%5c") {
		return ""
	}

	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" || u.Scheme != "" {
		return ""
	}
	if strings.HasPrefix(u.Path, "//") {
		return ""
	}
	if u.Path == "/login" || strings.HasPrefix(u.Path, "/login/") {
		return ""
	}
	return next
}
