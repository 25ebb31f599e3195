package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/flowdeck/flowdeck/internal/http/viewmodels"
	"github.com/flowdeck/flowdeck/internal/http/views"
)

// IntegrationsPage renders the settings list at GET /settings/integrations.
func (h *Handlers) IntegrationsPage(c echo.Context) error {
	integrations, err := h.Store.ListIntegrations(c.Request().Context())
	if err != nil {
		return h.RenderError(c, err)
	}

	items := make([]viewmodels.IntegrationItem, 0, len(integrations))
	for _, in := range integrations {
		items = append(items, viewmodels.IntegrationItem{
			ID:      in.ID,
			Name:    in.Name,
			Kind:    in.Kind,
			BaseURL: in.BaseURL,
			Enabled: in.Enabled,
		})
	}

	data := viewmodels.IntegrationsViewData{
		Layout:          h.LayoutData(c, "Integrations"),
		Integrations:    items,
		HasIntegrations: len(items) > 0,
	}
	return h.RenderComponent(c, views.IntegrationsPage(data))
}

// ToggleIntegration flips an integration's enabled flag from the settings
// table. Admin only; the route group enforces the role.
func (h *Handlers) ToggleIntegration(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		setFlashToast(c, viewmodels.ToastViewData{Category: "error", Title: "Unknown integration"})
		return c.Redirect(http.StatusSeeOther, "/settings/integrations")
	}

	integrations, err := h.Store.ListIntegrations(ctx)
	if err != nil {
		return h.RenderError(c, err)
	}
	var current *viewmodels.IntegrationItem
	for _, in := range integrations {
		if in.ID == id {
			current = &viewmodels.IntegrationItem{ID: in.ID, Name: in.Name, Enabled: in.Enabled}
			break
		}
	}
	if current == nil {
		setFlashToast(c, viewmodels.ToastViewData{Category: "error", Title: "Unknown integration"})
		return c.Redirect(http.StatusSeeOther, "/settings/integrations")
	}

	if err := h.Store.SetIntegrationEnabled(ctx, id, !current.Enabled); err != nil {
		return h.RenderError(c, err)
	}

	title := current.Name + " enabled"
	if current.Enabled {
		title = current.Name + " disabled"
	}
	setFlashToast(c, viewmodels.ToastViewData{Category: "success", Title: title})
	return c.Redirect(http.StatusSeeOther, "/settings/integrations")
}
