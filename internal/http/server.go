// Package httpapp wires handlers, middleware and routes into an Echo server.
package httpapp

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/memberdesk/memberdesk/internal/auth"
	"github.com/memberdesk/memberdesk/internal/http/authn"
	"github.com/memberdesk/memberdesk/internal/http/handlers"
)

// EchoServer is the HTTP server wrapper.
type EchoServer struct {
	h *handlers.Handlers
	e *echo.Echo
}

// NewEchoServer creates a new HTTP server around the shared handler set.
func NewEchoServer(h *handlers.Handlers) (*EchoServer, error) {
	if h.Sessions == nil {
		return nil, errors.New("httpapp: session manager is required")
	}
	if h.Provider == nil {
		return nil, errors.New("httpapp: identity provider is required")
	}

	es := &EchoServer{h: h, e: echo.New()}
	es.e.HideBanner = true
	es.e.HTTPErrorHandler = es.handleError
	es.registerRoutes()
	return es, nil
}

func (es *EchoServer) registerRoutes() {
	es.e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		RequestIDHandler: func(c echo.Context, id string) {
			c.Set(handlers.ContextKeyRequestID, id)
		},
	}))
	es.e.Use(echo.WrapMiddleware(es.h.Sessions.LoadAndSave))
	es.e.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "header:" + echo.HeaderXCSRFToken + ",form:csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   es.h.Cfg.AuthCookieSecure,
		CookieSameSite: http.SameSiteLaxMode,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/healthz"
		},
	}))

	es.e.GET("/healthz", es.h.HandleHealthz)
	es.e.GET("/login", es.h.HandleLoginGet)
	es.e.POST("/login", es.h.HandleLoginPost)
	es.e.POST("/logout", es.h.HandleLogoutPost)

	authed := es.e.Group("", authn.RequireAuth(es.h.Sessions, es.h.Provider))
	roles := authn.ResolveWith(es.h.Roles)

	authed.GET("/", es.h.HandleDashboard, authn.RequireSection(roles, auth.SectionDashboard))
	authed.GET("/members", es.h.HandleMembers, authn.RequireSection(roles, auth.SectionUsers))
	authed.GET("/collectors", es.h.HandleCollectors, authn.RequireSection(roles, auth.SectionCollectors))
	authed.GET("/password", es.h.HandlePasswordGet)
	authed.POST("/password", es.h.HandlePasswordPost)
	authed.GET("/events/session", es.h.HandleSessionEvents)

	es.e.Static("/static", "web/static")
}

// handleError renders role denials as the forbidden page and leaves the
// rest to Echo's default handling.
func (es *EchoServer) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code == http.StatusForbidden {
		if _, ok := authn.SessionFromContext(c); ok {
			if rerr := es.h.RenderForbidden(c); rerr == nil {
				return
			}
		}
	}
	es.e.DefaultHTTPErrorHandler(err, c)
}

// Start starts the HTTP server.
func (es *EchoServer) Start(addr string) error {
	return es.e.Start(addr)
}

// StartServer starts the HTTP server with a custom http.Server.
func (es *EchoServer) StartServer(server *http.Server) error {
	return es.e.StartServer(server)
}

// Shutdown gracefully shuts down the HTTP server.
func (es *EchoServer) Shutdown(ctx context.Context) error {
	return es.e.Shutdown(ctx)
}
