// Package handlers contains HTTP handler logic split by domain.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/alexedwards/scs/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/flowdeck/flowdeck/internal/config"
	"github.com/flowdeck/flowdeck/internal/http/authn"
	"github.com/flowdeck/flowdeck/internal/http/viewmodels"
	"github.com/flowdeck/flowdeck/internal/store"
)

const (
	// ContextKeyRequestID stores the request id (X-Request-ID) for logging and client error references.
	ContextKeyRequestID = "request_id"

	// InternalErrorCode is a stable error code safe to return to clients.
	InternalErrorCode = "INTERNAL_ERROR"
)

// Store is the persistence surface the HTTP layer depends on.
type Store interface {
	ListWorkflows(ctx context.Context) ([]store.Workflow, error)
	GetWorkflow(ctx context.Context, id string) (store.Workflow, error)
	CountWorkflows(ctx context.Context) (int64, error)

	CreateExecution(ctx context.Context, workflowID string) (store.Execution, error)
	GetExecution(ctx context.Context, id string) (store.Execution, error)
	RequeueExecution(ctx context.Context, id string, stepsDone int32) error
	MarkExecutionFailed(ctx context.Context, id string, execError string) error
	CountExecutionsCreatedSince(ctx context.Context, since time.Time) (int64, error)
	CountExecutionOutcomesSince(ctx context.Context, since time.Time) (store.ExecutionOutcomes, error)
	ListRecentExecutions(ctx context.Context, limit int32) ([]store.ExecutionListItem, error)

	GetApproval(ctx context.Context, id string) (store.Approval, error)
	DecideApproval(ctx context.Context, arg store.DecideApprovalParams) (bool, error)
	CountPendingApprovals(ctx context.Context) (int64, error)
	ListPendingApprovals(ctx context.Context) ([]store.PendingApprovalItem, error)

	ListIntegrations(ctx context.Context) ([]store.Integration, error)
	ListActiveIntegrationNames(ctx context.Context) ([]string, error)
	SetIntegrationEnabled(ctx context.Context, id int64, enabled bool) error

	GetAuthUser(ctx context.Context, id int64) (store.AuthUser, error)
	GetAuthUserByEmail(ctx context.Context, email string) (store.AuthUser, error)
	CountAuthUsers(ctx context.Context) (int64, error)
	UpdateAuthUserLoginMeta(ctx context.Context, arg store.UpdateAuthUserLoginMetaParams) error
}

// Handlers groups all HTTP handlers and shared dependencies.
type Handlers struct {
	Cfg      config.Config
	Store    Store
	Pool     *pgxpool.Pool
	Sessions *scs.SessionManager
	Logger   *slog.Logger
}

func (h *Handlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// LayoutData builds the common layout data for page rendering.
func (h *Handlers) LayoutData(c echo.Context, title string) viewmodels.LayoutData {
	principal, ok := authn.PrincipalFromContext(c)
	csrfToken, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)

	return viewmodels.LayoutData{
		Title:      title,
		CSRFToken:  csrfToken,
		UserEmail:  principal.Email,
		UserRole:   principal.Role,
		IsAdmin:    ok && principal.IsAdmin(),
		ActivePath: c.Request().URL.Path,
		Toast:      popFlashToast(c),
	}
}

// RenderComponent renders a templ component as the response.
func (h *Handlers) RenderComponent(c echo.Context, component templ.Component) error {
	c.Response().Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(c.Request().Context(), c.Response()); err != nil {
		return h.RenderError(c, err)
	}
	return nil
}

// RenderError logs the error and returns a generic plain text response.
// Clients only ever see the request id reference and a stable code.
func (h *Handlers) RenderError(c echo.Context, err error) error {
	requestID, _ := c.Get(ContextKeyRequestID).(string)
	path := ""
	if req := c.Request(); req != nil && req.URL != nil {
		path = req.URL.Path
	}
	method := ""
	if req := c.Request(); req != nil {
		method = req.Method
	}
	h.logger().Error("http error",
		"request_id", requestID,
		"method", method,
		"path", path,
		"ip", c.RealIP(),
		"error", err,
	)

	msg := "Internal server error."
	if requestID != "" {
		msg = fmt.Sprintf("%s Reference: %s.", msg, requestID)
	}
	msg = fmt.Sprintf("%s Code: %s.", msg, InternalErrorCode)
	return c.String(http.StatusInternalServerError, msg)
}

// RenderNotFound returns a 404 response.
func RenderNotFound(c echo.Context) error {
	return c.String(http.StatusNotFound, "404 page not found")
}

// ParseBoolForm parses a form value as a boolean.
func ParseBoolForm(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
