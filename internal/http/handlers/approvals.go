package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/flowdeck/flowdeck/internal/http/authn"
	"github.com/flowdeck/flowdeck/internal/http/viewmodels"
	"github.com/flowdeck/flowdeck/internal/http/views"
	"github.com/flowdeck/flowdeck/internal/metrics"
	"github.com/flowdeck/flowdeck/internal/store"
)

// ApprovalsPage renders the pending approval queue at GET /approvals.
func (h *Handlers) ApprovalsPage(c echo.Context) error {
	pending, err := h.Store.ListPendingApprovals(c.Request().Context())
	if err != nil {
		return h.RenderError(c, err)
	}

	items := make([]viewmodels.ApprovalItem, 0, len(pending))
	for _, p := range pending {
		items = append(items, viewmodels.ApprovalItem{
			ID:           p.ID,
			ExecutionID:  p.ExecutionID,
			WorkflowName: p.WorkflowName,
			StepName:     p.StepName,
			Message:      p.Message,
			RequestedAt:  views.FormatTimestamp(p.CreatedAt),
		})
	}

	data := viewmodels.ApprovalsViewData{
		Layout:        h.LayoutData(c, "Approvals"),
		Approvals:     items,
		HasApprovals:  len(items) > 0,
		EmptyStateMsg: "No approvals waiting on you.",
	}
	return h.RenderComponent(c, views.ApprovalsPage(data))
}

// ApproveApproval handles POST /approvals/:id/approve. Approving re-queues
// the parked execution; it resumes at the step after the gate.
func (h *Handlers) ApproveApproval(c echo.Context) error {
	return h.decideApproval(c, store.ApprovalStatusApproved)
}

// DenyApproval handles POST /approvals/:id/deny. Denying fails the
// execution.
func (h *Handlers) DenyApproval(c echo.Context) error {
	return h.decideApproval(c, store.ApprovalStatusDenied)
}

func (h *Handlers) decideApproval(c echo.Context, status string) error {
	ctx := c.Request().Context()

	// Same as queueExecution: a malformed id must read as not found, not
	// as a uuid cast error from Postgres.
	id := c.Param("id")
	if uuid.Validate(id) != nil {
		setFlashToast(c, viewmodels.ToastViewData{Category: "error", Title: "Approval not found"})
		return c.Redirect(http.StatusSeeOther, "/approvals")
	}

	approval, err := h.Store.GetApproval(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			setFlashToast(c, viewmodels.ToastViewData{Category: "error", Title: "Approval not found"})
			return c.Redirect(http.StatusSeeOther, "/approvals")
		}
		return h.RenderError(c, err)
	}

	principal, _ := authn.PrincipalFromContext(c)
	decided, err := h.Store.DecideApproval(ctx, store.DecideApprovalParams{
		ID:        approval.ID,
		Status:    status,
		DecidedBy: principal.Email,
	})
	if err != nil {
		return h.RenderError(c, err)
	}
	if !decided {
		setFlashToast(c, viewmodels.ToastViewData{
			Category:    "info",
			Title:       "Already decided",
			Description: "Someone else handled this approval first.",
		})
		return c.Redirect(http.StatusSeeOther, "/approvals")
	}

	exec, err := h.Store.GetExecution(ctx, approval.ExecutionID)
	if err != nil {
		return h.RenderError(c, err)
	}

	if status == store.ApprovalStatusApproved {
		if err := h.Store.RequeueExecution(ctx, exec.ID, exec.StepsDone); err != nil {
			return h.RenderError(c, err)
		}
		metrics.ApprovalDecisionsTotal.WithLabelValues("approved").Inc()
		setFlashToast(c, viewmodels.ToastViewData{
			Category:    "success",
			Title:       "Approved",
			Description: "The execution will resume shortly.",
		})
	} else {
		if err := h.Store.MarkExecutionFailed(ctx, exec.ID, "approval denied at step "+approval.StepName); err != nil {
			return h.RenderError(c, err)
		}
		metrics.ApprovalDecisionsTotal.WithLabelValues("denied").Inc()
		setFlashToast(c, viewmodels.ToastViewData{
			Category:    "info",
			Title:       "Denied",
			Description: "The execution was stopped.",
		})
	}
	return c.Redirect(http.StatusSeeOther, "/approvals")
}
