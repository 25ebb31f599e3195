package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/flowdeck/flowdeck/internal/http/viewmodels"
	"github.com/flowdeck/flowdeck/internal/http/views"
)

const (
	recentExecutionsWindow = 24 * time.Hour
	successRateWindow      = 30 * 24 * time.Hour
	recentExecutionsLimit  = 10
)

// DashboardStats is the payload of GET /api/dashboard/stats. SuccessRate is
// null until at least one execution has finished, so clients can tell "no
// data yet" apart from an actual 0% rate.
type DashboardStats struct {
	TotalWorkflows     int64    `json:"totalWorkflows"`
	RecentExecutions   int64    `json:"recentExecutions"`
	SuccessRate        *float64 `json:"successRate"`
	ActiveIntegrations []string `json:"activeIntegrations"`
	PendingApprovals   int64    `json:"pendingApprovals"`
}

func (h *Handlers) loadDashboardStats(ctx context.Context, now time.Time) (DashboardStats, error) {
	totalWorkflows, err := h.Store.CountWorkflows(ctx)
	if err != nil {
		return DashboardStats{}, err
	}
	recent, err := h.Store.CountExecutionsCreatedSince(ctx, now.Add(-recentExecutionsWindow))
	if err != nil {
		return DashboardStats{}, err
	}
	outcomes, err := h.Store.CountExecutionOutcomesSince(ctx, now.Add(-successRateWindow))
	if err != nil {
		return DashboardStats{}, err
	}
	pending, err := h.Store.CountPendingApprovals(ctx)
	if err != nil {
		return DashboardStats{}, err
	}
	integrations, err := h.Store.ListActiveIntegrationNames(ctx)
	if err != nil {
		return DashboardStats{}, err
	}
	if integrations == nil {
		integrations = []string{}
	}

	stats := DashboardStats{
		TotalWorkflows:     totalWorkflows,
		RecentExecutions:   recent,
		ActiveIntegrations: integrations,
		PendingApprovals:   pending,
	}
	if total := outcomes.Succeeded + outcomes.Failed; total > 0 {
		rate := float64(outcomes.Succeeded) / float64(total) * 100
		stats.SuccessRate = &rate
	}
	return stats, nil
}

// DashboardPage renders the stats overview at GET /.
func (h *Handlers) DashboardPage(c echo.Context) error {
	ctx := c.Request().Context()

	stats, err := h.loadDashboardStats(ctx, time.Now())
	if err != nil {
		return h.RenderError(c, err)
	}
	recentRaw, err := h.Store.ListRecentExecutions(ctx, recentExecutionsLimit)
	if err != nil {
		return h.RenderError(c, err)
	}

	recent := make([]viewmodels.DashboardExecutionItem, 0, len(recentRaw))
	for _, item := range recentRaw {
		recent = append(recent, viewmodels.DashboardExecutionItem{
			ID:           item.ID,
			WorkflowName: item.WorkflowName,
			Status:       item.Status,
			CreatedAt:    views.FormatTimestamp(item.CreatedAt),
		})
	}

	data := viewmodels.DashboardViewData{
		Layout:             h.LayoutData(c, "Dashboard"),
		TotalWorkflows:     stats.TotalWorkflows,
		RecentExecutions:   stats.RecentExecutions,
		SuccessRate:        stats.SuccessRate,
		PendingApprovals:   stats.PendingApprovals,
		ActiveIntegrations: stats.ActiveIntegrations,
		Recent:             recent,
	}
	return h.RenderComponent(c, views.DashboardPage(data))
}

// APIDashboardStats serves GET /api/dashboard/stats.
func (h *Handlers) APIDashboardStats(c echo.Context) error {
	stats, err := h.loadDashboardStats(c.Request().Context(), time.Now())
	if err != nil {
		return h.RenderError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}
