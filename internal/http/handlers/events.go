package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/memberdesk/memberdesk/internal/auth"
	"github.com/memberdesk/memberdesk/internal/http/authn"
)

const sessionEventsPing = 30 * time.Second

// HandleSessionEvents streams session liveness to the browser over
// server-sent events. When the backing session dies the client receives a
// single redirect event pointing at the login page.
func (h *Handlers) HandleSessionEvents(c echo.Context) error {
	sess, ok := authn.SessionFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized)
	}

	w := c.Response()
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	// The watcher callback and the ping ticker share the response writer.
	var mu sync.Mutex

	watcher := &auth.SessionWatcher{
		Provider: h.Provider,
		Token:    sess.Token,
		OnUnauthenticated: func() {
			mu.Lock()
			fmt.Fprint(w, "event: redirect\ndata: /login\n\n")
			w.Flush()
			mu.Unlock()
			cancel()
		},
	}
	go watcher.Run(ctx)

	ticker := time.NewTicker(sessionEventsPing)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			mu.Lock()
			fmt.Fprint(w, ": ping\n\n")
			w.Flush()
			mu.Unlock()
		}
	}
}
