// Package authn bridges browser cookie sessions to identity-provider
// sessions and gates sections by resolved role.
package authn

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/labstack/echo/v4"

	"github.com/memberdesk/memberdesk/internal/auth"
)

const (
	ContextKeySession = "auth_session"
	ContextKeyRole    = "auth_role"

	// SessionKeyToken is the scs key holding the identity session token.
	SessionKeyToken = "auth_session_token"

	passwordPath = "/password"
)

func SessionFromContext(c echo.Context) (auth.Session, bool) {
	s, ok := c.Get(ContextKeySession).(auth.Session)
	return s, ok
}

func RoleFromContext(c echo.Context) auth.Role {
	role, ok := c.Get(ContextKeyRole).(auth.Role)
	if !ok {
		return auth.RoleNone
	}
	return role
}

// LoadSession resolves the browser cookie to an active identity session.
// A stale token destroys the cookie session and reads as unauthenticated.
func LoadSession(c echo.Context, sessions *scs.SessionManager, provider auth.Provider) (auth.Session, bool, error) {
	ctx := c.Request().Context()

	token := sessions.GetString(ctx, SessionKeyToken)
	if token == "" {
		return auth.Session{}, false, nil
	}

	sess, ok, err := provider.CurrentSession(ctx, token)
	if err != nil {
		return auth.Session{}, false, err
	}
	if !ok {
		_ = sessions.Destroy(ctx)
		return auth.Session{}, false, nil
	}
	return sess, true, nil
}

// RequireAuth loads the session, forces the mandatory first-login reset
// before anything else, and redirects anonymous requests to the login
// entry point.
func RequireAuth(sessions *scs.SessionManager, provider auth.Provider) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, ok, err := LoadSession(c, sessions, provider)
			if err != nil {
				return err
			}
			if !ok {
				return handleUnauth(c)
			}
			if sess.Principal.PasswordResetRequired && !isPasswordPath(c) {
				return c.Redirect(http.StatusSeeOther, passwordPath+"?first=1")
			}
			c.Set(ContextKeySession, sess)
			return next(c)
		}
	}
}

// RoleResolver is the slice of auth.Resolver the middleware needs.
type RoleResolver interface {
	Resolve(ctx echo.Context) (auth.Role, error)
}

// ResolverFunc adapts a resolve function to RoleResolver.
type ResolverFunc func(ctx echo.Context) (auth.Role, error)

func (f ResolverFunc) Resolve(ctx echo.Context) (auth.Role, error) {
	return f(ctx)
}

// ResolveWith builds a RoleResolver over the session already placed in the
// request context.
func ResolveWith(resolver *auth.Resolver) RoleResolver {
	return ResolverFunc(func(c echo.Context) (auth.Role, error) {
		sess, ok := SessionFromContext(c)
		if !ok {
			return auth.RoleNone, nil
		}
		return resolver.Resolve(c.Request().Context(), sess.Principal.ID)
	})
}

// RequireSection gates a route on the access table. A role-fetch failure is
// surfaced as an error, never as a silent deny-and-redirect.
func RequireSection(resolver RoleResolver, section auth.Section) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, err := resolver.Resolve(c)
			if err != nil {
				return err
			}
			if !auth.CanAccess(role, section) {
				if role == auth.RoleNone {
					return handleUnauth(c)
				}
				return echo.NewHTTPError(http.StatusForbidden)
			}
			c.Set(ContextKeyRole, role)
			return next(c)
		}
	}
}

func isPasswordPath(c echo.Context) bool {
	return c.Request().URL.Path == passwordPath
}

func handleUnauth(c echo.Context) error {
	location := "/login"
	if c.Request().Method == http.MethodGet {
		if next := SanitizeNext(c.Request().URL.RequestURI()); next != "" {
			location = "/login?next=" + url.QueryEscape(next)
		}
	}
	return c.Redirect(http.StatusSeeOther, location)
}

// SanitizeNext keeps post-login redirects on-site.
func SanitizeNext(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || len(next) > 2048 {
		return ""
	}
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return ""
	}

	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" || u.Scheme != "" {
		return ""
	}
	if u.Path == "/login" || strings.HasPrefix(u.Path, "/login/") {
		return ""
	}
	if strings.Contains(next, "\\") {
		return ""
	}
	return next
}
