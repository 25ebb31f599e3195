package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/flowdeck/flowdeck/internal/http/viewmodels"
	"github.com/flowdeck/flowdeck/internal/http/views"
	"github.com/flowdeck/flowdeck/internal/store"
)

// WorkflowItem is the wire shape of a workflow in GET /api/workflows.
type WorkflowItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Enabled     bool   `json:"enabled"`
	CreatedAt   string `json:"createdAt"`
}

// ExecutionRef is the wire shape of a freshly queued execution.
type ExecutionRef struct {
	ID         string `json:"id"`
	WorkflowID string `json:"workflowId"`
	Status     string `json:"status"`
}

// WorkflowsPage renders the workflow cards at GET /workflows.
func (h *Handlers) WorkflowsPage(c echo.Context) error {
	workflows, err := h.Store.ListWorkflows(c.Request().Context())
	if err != nil {
		return h.RenderError(c, err)
	}

	cards := make([]viewmodels.WorkflowCard, 0, len(workflows))
	for _, wf := range workflows {
		cards = append(cards, viewmodels.WorkflowCard{
			ID:          wf.ID,
			Name:        wf.Name,
			Description: wf.Description,
			Enabled:     wf.Enabled,
			CreatedAt:   views.FormatTimestamp(wf.CreatedAt),
		})
	}

	data := viewmodels.WorkflowsViewData{
		Layout:        h.LayoutData(c, "Workflows"),
		Workflows:     cards,
		HasWorkflows:  len(cards) > 0,
		EmptyStateMsg: "No workflows defined yet.",
	}
	return h.RenderComponent(c, views.WorkflowsPage(data))
}

// ExecuteWorkflowForm queues an execution from the workflow card form and
// redirects back with a toast.
func (h *Handlers) ExecuteWorkflowForm(c echo.Context) error {
	_, wf, err := h.queueExecution(c)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			setFlashToast(c, viewmodels.ToastViewData{
				Category: "error",
				Title:    "Workflow not found",
			})
		case errors.Is(err, errWorkflowDisabled):
			setFlashToast(c, viewmodels.ToastViewData{
				Category:    "warning",
				Title:       "Workflow is disabled",
				Description: "Enable it before running.",
			})
		default:
			return h.RenderError(c, err)
		}
		return c.Redirect(http.StatusSeeOther, "/workflows")
	}

	setFlashToast(c, viewmodels.ToastViewData{
		Category:    "success",
		Title:       "Execution queued",
		Description: wf.Name + " will start shortly.",
	})
	return c.Redirect(http.StatusSeeOther, "/workflows")
}

// APIListWorkflows serves GET /api/workflows. The list is ordered newest
// first; ties on created_at break by id so the order is stable.
func (h *Handlers) APIListWorkflows(c echo.Context) error {
	workflows, err := h.Store.ListWorkflows(c.Request().Context())
	if err != nil {
		return h.RenderError(c, err)
	}

	items := make([]WorkflowItem, 0, len(workflows))
	for _, wf := range workflows {
		items = append(items, WorkflowItem{
			ID:          wf.ID,
			Name:        wf.Name,
			Description: wf.Description,
			Enabled:     wf.Enabled,
			CreatedAt:   wf.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, map[string][]WorkflowItem{"workflows": items})
}

// APIExecuteWorkflow serves POST /api/workflows/:id/execute. Queuing is
// asynchronous so success is 202, not 200.
func (h *Handlers) APIExecuteWorkflow(c echo.Context) error {
	exec, _, err := h.queueExecution(c)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return c.JSON(http.StatusNotFound, map[string]string{"error": "workflow not found"})
		case errors.Is(err, errWorkflowDisabled):
			return c.JSON(http.StatusConflict, map[string]string{"error": "workflow is disabled"})
		default:
			return h.RenderError(c, err)
		}
	}
	return c.JSON(http.StatusAccepted, map[string]ExecutionRef{"execution": {
		ID:         exec.ID,
		WorkflowID: exec.WorkflowID,
		Status:     exec.Status,
	}})
}

var errWorkflowDisabled = errors.New("workflow is disabled")

func (h *Handlers) queueExecution(c echo.Context) (store.Execution, store.Workflow, error) {
	ctx := c.Request().Context()

	// A malformed id would make Postgres reject the uuid cast with a type
	// error, not ErrNoRows. Ids are opaque to clients, so garbage is just
	// another unknown id.
	id := c.Param("id")
	if uuid.Validate(id) != nil {
		return store.Execution{}, store.Workflow{}, pgx.ErrNoRows
	}

	wf, err := h.Store.GetWorkflow(ctx, id)
	if err != nil {
		return store.Execution{}, store.Workflow{}, err
	}
	if !wf.Enabled {
		return store.Execution{}, wf, errWorkflowDisabled
	}

	exec, err := h.Store.CreateExecution(ctx, wf.ID)
	if err != nil {
		return store.Execution{}, wf, err
	}
	return exec, wf, nil
}
