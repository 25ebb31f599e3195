package httpapp

import (
	"context"
	"errors"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/flowdeck/flowdeck/internal/auth"
	"github.com/flowdeck/flowdeck/internal/config"
	"github.com/flowdeck/flowdeck/internal/http/authn"
	"github.com/flowdeck/flowdeck/internal/http/handlers"
)

// EchoServer is the HTTP server wrapper.
type EchoServer struct {
	h *handlers.Handlers
	e *echo.Echo
}

// NewEchoServer creates a new HTTP server.
func NewEchoServer(cfg config.Config, st handlers.Store, pool *pgxpool.Pool, sessions *scs.SessionManager) (*EchoServer, error) {
	if sessions == nil {
		return nil, errors.New("session manager is required")
	}

	h := &handlers.Handlers{Cfg: cfg, Store: st, Pool: pool, Sessions: sessions}
	es := &EchoServer{h: h, e: echo.New()}
	es.e.HideBanner = true
	es.e.HTTPErrorHandler = func(err error, c echo.Context) {
		es.httpErrorHandler(c, err)
	}
	es.registerRoutes()
	return es, nil
}

func (es *EchoServer) registerRoutes() {
	es.e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		RequestIDHandler: func(c echo.Context, id string) {
			c.Set(handlers.ContextKeyRequestID, id)
		},
	}))

	es.e.GET("/healthz", es.h.HandleHealthz)

	csrfConfig := middleware.CSRFConfig{
		TokenLookup:    "header:" + echo.HeaderXCSRFToken + ",form:_csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   es.h.Cfg.AuthCookieSecure,
		CookieSameSite: http.SameSiteLaxMode,
	}

	session := echo.WrapMiddleware(es.h.Sessions.LoadAndSave)

	login := es.e.Group("", session, middleware.CSRFWithConfig(csrfConfig))
	login.GET("/login", es.h.HandleLoginGet)
	login.POST("/login", es.h.HandleLoginPost)
	login.POST("/logout", es.h.HandleLogoutPost)

	pages := es.e.Group("", session,
		middleware.CSRFWithConfig(csrfConfig),
		authn.RequireAuth(es.h.Sessions, es.h.Store),
	)
	pages.GET("/", es.h.DashboardPage)
	pages.GET("/workflows", es.h.WorkflowsPage)
	pages.POST("/workflows/:id/execute", es.h.ExecuteWorkflowForm)
	pages.GET("/approvals", es.h.ApprovalsPage)
	pages.POST("/approvals/:id/approve", es.h.ApproveApproval)
	pages.POST("/approvals/:id/deny", es.h.DenyApproval)

	admin := pages.Group("", authn.RequireRole(auth.RoleAdmin))
	admin.GET("/settings/integrations", es.h.IntegrationsPage)
	admin.POST("/settings/integrations/:id/toggle", es.h.ToggleIntegration)

	api := es.e.Group("/api", session, authn.RequireAuth(es.h.Sessions, es.h.Store))
	api.GET("/dashboard/stats", es.h.APIDashboardStats)
	api.GET("/workflows", es.h.APIListWorkflows)
	api.POST("/workflows/:id/execute", es.h.APIExecuteWorkflow)

	es.e.Static("/static", "web/static")
}

// httpErrorHandler keeps error responses generic. Internal errors go
// through RenderError so clients only see a reference id and stable code.
func (es *EchoServer) httpErrorHandler(c echo.Context, err error) {
	if c.Response().Committed {
		return
	}

	status := httpStatusFromError(err)
	switch {
	case status == http.StatusNotFound:
		_ = handlers.RenderNotFound(c)
	case status >= http.StatusInternalServerError:
		_ = es.h.RenderError(c, err)
	default:
		_ = c.String(status, http.StatusText(status))
	}
}

func httpStatusFromError(err error) int {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}
	return http.StatusInternalServerError
}

// Start starts the HTTP server.
func (es *EchoServer) Start(addr string) error {
	return es.e.Start(addr)
}

// StartServer starts the HTTP server with a custom http.Server.
func (es *EchoServer) StartServer(server *http.Server) error {
	return es.e.StartServer(server)
}

// Shutdown gracefully shuts down the HTTP server.
func (es *EchoServer) Shutdown(ctx context.Context) error {
	return es.e.Shutdown(ctx)
}
