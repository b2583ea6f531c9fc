package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/memberdesk/memberdesk/internal/http/viewmodels"
	"github.com/memberdesk/memberdesk/internal/http/views"
	"github.com/memberdesk/memberdesk/internal/store"
)

func (h *Handlers) HandleMembers(c echo.Context) error {
	layout, err := h.LayoutData(c, "Members")
	if err != nil {
		return h.RenderError(c, err)
	}

	members, err := h.Q.ListMembers(c.Request().Context())
	if err != nil {
		return h.RenderError(c, err)
	}

	data := viewmodels.MembersViewData{
		Layout:  layout,
		Members: memberItems(members),
	}
	return h.RenderComponent(c, views.MembersPage(data))
}

func memberItems(members []store.Member) []viewmodels.MemberItem {
	items := make([]viewmodels.MemberItem, 0, len(members))
	for _, m := range members {
		items = append(items, viewmodels.MemberItem{
			MemberNumber: m.MemberNumber,
			FullName:     m.FullName,
			Email:        m.Email,
			Status:       m.Status,
			Linked:       m.AuthUserID.Valid,
		})
	}
	return items
}
