package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/memberdesk/memberdesk/internal/auth"
	"github.com/memberdesk/memberdesk/internal/http/authn"
	"github.com/memberdesk/memberdesk/internal/http/viewmodels"
	"github.com/memberdesk/memberdesk/internal/http/views"
)

func (h *Handlers) HandlePasswordGet(c echo.Context) error {
	sess, _ := authn.SessionFromContext(c)

	layout, err := h.LayoutData(c, "Change Password")
	if err != nil {
		return h.RenderError(c, err)
	}

	csrfToken, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	data := viewmodels.PasswordViewData{
		Layout:    layout,
		CSRFToken: csrfToken,
		FirstTime: sess.Principal.PasswordResetRequired,
	}
	return h.RenderComponent(c, views.PasswordPage(data))
}

func (h *Handlers) HandlePasswordPost(c echo.Context) error {
	ctx := c.Request().Context()
	sess, _ := authn.SessionFromContext(c)

	// The flag on the principal decides the mode, not the form. A forged
	// "first" field must not let a caller skip the current password.
	firstTime := sess.Principal.PasswordResetRequired

	req := auth.ChangePasswordRequest{
		MemberNumber:    sess.Principal.MemberNumber,
		CurrentPassword: c.FormValue("current_password"),
		NewPassword:     c.FormValue("new_password"),
		ConfirmPassword: c.FormValue("confirm_password"),
		FirstTimeReset:  firstTime,
		// The caller's session survives the rotation; every other session of
		// the principal is revoked.
		KeepToken: sess.Token,
		Client: auth.ClientMetadata{
			Platform: c.Request().UserAgent(),
			Locale:   c.Request().Header.Get("Accept-Language"),
			RemoteIP: c.RealIP(),
			At:       time.Now(),
		},
	}

	if err := h.Changer.Change(ctx, req); err != nil {
		var verr *auth.ValidationError
		if !errors.As(err, &verr) {
			return h.RenderError(c, err)
		}

		layout, lerr := h.LayoutData(c, "Change Password")
		if lerr != nil {
			return h.RenderError(c, lerr)
		}
		csrfToken, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
		data := viewmodels.PasswordViewData{
			Layout:       layout,
			CSRFToken:    csrfToken,
			FirstTime:    firstTime,
			ErrorField:   verr.Field,
			ErrorMessage: verr.Message,
		}
		return h.RenderComponent(c, views.PasswordPage(data))
	}

	h.Roles.Invalidate(sess.Principal.ID)

	title := "Password changed"
	if firstTime {
		title = "Password set"
	}
	setFlashToast(c, viewmodels.ToastViewData{
		Category: "success",
		Title:    title,
	})
	return c.Redirect(http.StatusSeeOther, "/")
}
