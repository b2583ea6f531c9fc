package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/memberdesk/memberdesk/internal/auth"
	"github.com/memberdesk/memberdesk/internal/http/authn"
	"github.com/memberdesk/memberdesk/internal/http/viewmodels"
	"github.com/memberdesk/memberdesk/internal/http/views"
	"github.com/memberdesk/memberdesk/internal/store"
)

func (h *Handlers) HandleLoginGet(c echo.Context) error {
	if h.Sessions == nil {
		return errors.New("auth sessions not configured")
	}

	if _, ok, err := authn.LoadSession(c, h.Sessions, h.Provider); err != nil {
		return err
	} else if ok {
		return c.Redirect(http.StatusSeeOther, "/")
	}

	csrfToken, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	data := viewmodels.LoginViewData{
		CSRFToken: csrfToken,
		Next:      authn.SanitizeNext(c.QueryParam("next")),
		Toast:     popFlashToast(c),
	}
	return h.RenderComponent(c, views.LoginPage(data))
}

func (h *Handlers) HandleLoginPost(c echo.Context) error {
	if h.Sessions == nil {
		return errors.New("auth sessions not configured")
	}

	ctx := c.Request().Context()

	memberNumber := auth.NormalizeMemberNumber(c.FormValue("member_number"))
	next := authn.SanitizeNext(c.FormValue("next"))

	csrfToken, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	data := viewmodels.LoginViewData{
		CSRFToken:    csrfToken,
		MemberNumber: memberNumber,
		Next:         next,
	}

	if memberNumber == "" {
		data.ErrorMessage = "Member number is required."
		return h.RenderComponent(c, views.LoginPage(data))
	}

	sess, err := h.Reconciler.EnsureSession(ctx, memberNumber)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMemberNotFound):
			data.ErrorMessage = "Member number not found."
		case errors.Is(err, auth.ErrPostSignupSignInFailed), errors.Is(err, auth.ErrSignInFailed):
			data.ErrorMessage = "Unable to sign you in with this member number. If you have set a password, contact an administrator to reset it."
		default:
			return err
		}
		return h.RenderComponent(c, views.LoginPage(data))
	}

	if err := h.Sessions.RenewToken(ctx); err != nil {
		return err
	}
	h.Sessions.Put(ctx, authn.SessionKeyToken, sess.Token)

	_ = h.Q.UpdateAuthUserLoginMeta(ctx, store.UpdateAuthUserLoginMetaParams{
		ID:          sess.Principal.ID,
		LastLoginAt: pgtype.Timestamptz{Time: time.Now(), Valid: true},
		LastLoginIP: strings.TrimSpace(c.RealIP()),
	})

	if sess.Principal.PasswordResetRequired {
		return c.Redirect(http.StatusSeeOther, "/password?first=1")
	}

	setFlashToast(c, viewmodels.ToastViewData{
		Category:    "success",
		Title:       "Login successful",
		Description: "Welcome back!",
	})

	if next != "" {
		return c.Redirect(http.StatusSeeOther, next)
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handlers) HandleLogoutPost(c echo.Context) error {
	if h.Sessions == nil {
		return errors.New("auth sessions not configured")
	}

	ctx := c.Request().Context()

	if token := h.Sessions.GetString(ctx, authn.SessionKeyToken); token != "" {
		if err := h.Provider.SignOut(ctx, token); err != nil {
			return err
		}
	}
	if err := h.Sessions.Destroy(ctx); err != nil {
		return err
	}
	setFlashToast(c, viewmodels.ToastViewData{
		Category: "success",
		Title:    "Signed out",
	})
	return c.Redirect(http.StatusSeeOther, "/login")
}
