package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/flowdeck/flowdeck/internal/store"
)

func dashboardStatsResponse(t *testing.T, h *Handlers) (int, map[string]json.RawMessage) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/stats", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.SetPath("/api/dashboard/stats")

	if err := h.APIDashboardStats(c); err != nil {
		t.Fatalf("APIDashboardStats: %v", err)
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return rec.Code, body
}

func TestAPIDashboardStatsEmptyDatabase(t *testing.T) {
	h := &Handlers{Store: newFakeStore(), Logger: discardLogger()}

	code, body := dashboardStatsResponse(t, h)
	if code != http.StatusOK {
		t.Fatalf("status=%d want 200", code)
	}

	for key, want := range map[string]string{
		"totalWorkflows":     "0",
		"recentExecutions":   "0",
		"pendingApprovals":   "0",
		"successRate":        "null",
		"activeIntegrations": "[]",
	} {
		raw, ok := body[key]
		if !ok {
			t.Fatalf("missing key %q in %s", key, body)
		}
		if string(raw) != want {
			t.Errorf("%s=%s want %s", key, raw, want)
		}
	}
}

func TestAPIDashboardStatsSuccessRate(t *testing.T) {
	fs := newFakeStore()
	fs.addWorkflow("deploy", true)
	fs.outcomes = store.ExecutionOutcomes{Succeeded: 3, Failed: 1}
	h := &Handlers{Store: fs, Logger: discardLogger()}

	code, body := dashboardStatsResponse(t, h)
	if code != http.StatusOK {
		t.Fatalf("status=%d want 200", code)
	}

	var rate float64
	if err := json.Unmarshal(body["successRate"], &rate); err != nil {
		t.Fatalf("successRate=%s: %v", body["successRate"], err)
	}
	if rate != 75 {
		t.Errorf("successRate=%v want 75", rate)
	}
	if string(body["totalWorkflows"]) != "1" {
		t.Errorf("totalWorkflows=%s want 1", body["totalWorkflows"])
	}
}

func TestAPIDashboardStatsAllFailedIsZeroNotNull(t *testing.T) {
	fs := newFakeStore()
	fs.outcomes = store.ExecutionOutcomes{Succeeded: 0, Failed: 4}
	h := &Handlers{Store: fs, Logger: discardLogger()}

	_, body := dashboardStatsResponse(t, h)
	if string(body["successRate"]) != "0" {
		t.Errorf("successRate=%s want 0 (finished executions exist)", body["successRate"])
	}
}

func TestAPIDashboardStatsStoreFailure(t *testing.T) {
	fs := newFakeStore()
	fs.failWith = errors.New("connection refused: 10.0.0.7:5432")
	h := &Handlers{Store: fs, Logger: discardLogger()}

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/stats", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.SetPath("/api/dashboard/stats")
	c.Set(ContextKeyRequestID, "req-123")

	if err := h.APIDashboardStats(c); err != nil {
		t.Fatalf("APIDashboardStats: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d want 500", rec.Code)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "Internal server error.") {
		t.Errorf("body=%q missing generic message", body)
	}
	if !strings.Contains(body, "Reference: req-123.") {
		t.Errorf("body=%q missing request id reference", body)
	}
	if !strings.Contains(body, "Code: "+InternalErrorCode+".") {
		t.Errorf("body=%q missing stable error code", body)
	}
	if strings.Contains(body, "connection refused") || strings.Contains(body, "10.0.0.7") {
		t.Errorf("body=%q leaks store error detail", body)
	}
}

func TestAPIDashboardStatsActiveIntegrations(t *testing.T) {
	fs := newFakeStore()
	fs.integrations = []store.Integration{
		{ID: 1, Name: "billing", Enabled: true},
		{ID: 2, Name: "crm", Enabled: false},
	}
	h := &Handlers{Store: fs, Logger: discardLogger()}

	_, body := dashboardStatsResponse(t, h)
	var names []string
	if err := json.Unmarshal(body["activeIntegrations"], &names); err != nil {
		t.Fatalf("activeIntegrations=%s: %v", body["activeIntegrations"], err)
	}
	if len(names) != 1 || names[0] != "billing" {
		t.Errorf("activeIntegrations=%v want [billing]", names)
	}
}
