package handlers

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/memberdesk/memberdesk/internal/http/authn"
	"github.com/memberdesk/memberdesk/internal/http/viewmodels"
	"github.com/memberdesk/memberdesk/internal/http/views"
)

func (h *Handlers) HandleDashboard(c echo.Context) error {
	ctx := c.Request().Context()

	layout, err := h.LayoutData(c, "Dashboard")
	if err != nil {
		return h.RenderError(c, err)
	}

	sess, _ := authn.SessionFromContext(c)
	data := viewmodels.DashboardViewData{Layout: layout}

	member, err := h.Q.GetMemberByNumber(ctx, sess.Principal.MemberNumber)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		data.ProfileMissing = true
	case err != nil:
		return h.RenderError(c, err)
	default:
		data.Profile = &viewmodels.MemberProfile{
			MemberNumber:    member.MemberNumber,
			FullName:        member.FullName,
			Email:           member.Email,
			Address:         member.Address,
			Status:          member.Status,
			CollectorNumber: member.CollectorNumber,
			Role:            layout.Role,
		}
	}

	return h.RenderComponent(c, views.DashboardPage(data))
}

func (h *Handlers) HandleHealthz(c echo.Context) error {
	if h.Pool != nil {
		if err := h.Pool.Ping(c.Request().Context()); err != nil {
			return c.String(http.StatusServiceUnavailable, "db unreachable")
		}
	}
	return c.String(http.StatusOK, "ok")
}
