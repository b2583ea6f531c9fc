// Package handlers contains HTTP handler logic split by domain.
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/alexedwards/scs/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/memberdesk/memberdesk/internal/auth"
	"github.com/memberdesk/memberdesk/internal/config"
	"github.com/memberdesk/memberdesk/internal/http/authn"
	"github.com/memberdesk/memberdesk/internal/http/viewmodels"
	"github.com/memberdesk/memberdesk/internal/store"
)

const (
	// ContextKeyRequestID stores the request id (X-Request-ID) for logging and client error references.
	ContextKeyRequestID = "request_id"

	// InternalErrorCode is a stable error code safe to return to clients.
	InternalErrorCode = "INTERNAL_ERROR"
)

// Handlers groups all HTTP handlers and shared dependencies.
type Handlers struct {
	Cfg        config.Config
	Q          *store.Queries
	Pool       *pgxpool.Pool
	Sessions   *scs.SessionManager
	Provider   auth.Provider
	Reconciler *auth.Reconciler
	Changer    *auth.PasswordChanger
	Roles      *auth.Resolver
	Logger     *slog.Logger
}

// LayoutData builds the common layout data for page rendering. The session
// must already be in the request context (RequireAuth ran).
func (h *Handlers) LayoutData(c echo.Context, title string) (viewmodels.LayoutData, error) {
	sess, _ := authn.SessionFromContext(c)

	role := authn.RoleFromContext(c)
	if role == auth.RoleNone && sess.Principal.ID != "" {
		resolved, err := h.Roles.Resolve(c.Request().Context(), sess.Principal.ID)
		if err != nil {
			return viewmodels.LayoutData{}, err
		}
		role = resolved
	}

	csrfToken, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return viewmodels.LayoutData{
		Title:          title,
		CSRFToken:      csrfToken,
		MemberNumber:   sess.Principal.MemberNumber,
		Role:           string(role),
		ActivePath:     c.Request().URL.Path,
		ShowUsers:      auth.CanAccess(role, auth.SectionUsers),
		ShowCollectors: auth.CanAccess(role, auth.SectionCollectors),
		Toast:          popFlashToast(c),
	}, nil
}

// RenderComponent renders a templ component as the response.
func (h *Handlers) RenderComponent(c echo.Context, component templ.Component) error {
	c.Response().Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(c.Request().Context(), c.Response()); err != nil {
		return h.RenderError(c, err)
	}
	return nil
}

// RenderError returns a plain text error response.
func (h *Handlers) RenderError(c echo.Context, err error) error {
	requestID, _ := c.Get(ContextKeyRequestID).(string)
	h.logger().Error("http error",
		"request_id", requestID,
		"method", c.Request().Method,
		"path", c.Request().URL.Path,
		"ip", c.RealIP(),
		"error", err,
	)

	msg := "Internal server error."
	if requestID != "" {
		msg = fmt.Sprintf("%s Reference: %s.", msg, requestID)
	}
	msg = fmt.Sprintf("%s Code: %s.", msg, InternalErrorCode)
	return c.String(http.StatusInternalServerError, msg)
}

// RenderNotFound returns a 404 response.
func RenderNotFound(c echo.Context) error {
	return c.String(http.StatusNotFound, "404 page not found")
}

func (h *Handlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
