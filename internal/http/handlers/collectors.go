package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/memberdesk/memberdesk/internal/http/viewmodels"
	"github.com/memberdesk/memberdesk/internal/http/views"
)

func (h *Handlers) HandleCollectors(c echo.Context) error {
	layout, err := h.LayoutData(c, "Collectors")
	if err != nil {
		return h.RenderError(c, err)
	}

	collectors, err := h.Q.ListCollectors(c.Request().Context())
	if err != nil {
		return h.RenderError(c, err)
	}

	data := viewmodels.CollectorsViewData{
		Layout:     layout,
		Collectors: memberItems(collectors),
	}
	return h.RenderComponent(c, views.CollectorsPage(data))
}
