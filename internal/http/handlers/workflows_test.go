package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/flowdeck/flowdeck/internal/store"
)

func TestAPIListWorkflows(t *testing.T) {
	fs := newFakeStore()
	older := fs.addWorkflow("first", true)
	newer := fs.addWorkflow("second", false)
	h := &Handlers{Store: fs, Logger: discardLogger()}

	req := httptest.NewRequest(http.MethodGet, "/api/workflows", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.SetPath("/api/workflows")

	if err := h.APIListWorkflows(c); err != nil {
		t.Fatalf("APIListWorkflows: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rec.Code)
	}

	var body struct {
		Workflows []WorkflowItem `json:"workflows"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Workflows) != 2 {
		t.Fatalf("got %d workflows want 2", len(body.Workflows))
	}
	if body.Workflows[0].ID != newer.ID || body.Workflows[1].ID != older.ID {
		t.Errorf("order not newest first: %v", body.Workflows)
	}
	if body.Workflows[0].Enabled {
		t.Error("second workflow should be disabled")
	}
	if _, err := time.Parse(time.RFC3339, body.Workflows[0].CreatedAt); err != nil {
		t.Errorf("createdAt %q not RFC3339: %v", body.Workflows[0].CreatedAt, err)
	}
}

func TestAPIListWorkflowsEmpty(t *testing.T) {
	h := &Handlers{Store: newFakeStore(), Logger: discardLogger()}

	req := httptest.NewRequest(http.MethodGet, "/api/workflows", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	if err := h.APIListWorkflows(c); err != nil {
		t.Fatalf("APIListWorkflows: %v", err)
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(body["workflows"]) != "[]" {
		t.Errorf("workflows=%s want []", body["workflows"])
	}
}

func executeRequest(t *testing.T, h *Handlers, id string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/workflows/"+id+"/execute", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.SetPath("/api/workflows/:id/execute")
	c.SetParamNames("id")
	c.SetParamValues(id)

	if err := h.APIExecuteWorkflow(c); err != nil {
		t.Fatalf("APIExecuteWorkflow: %v", err)
	}
	return rec
}

func TestAPIExecuteWorkflowQueues(t *testing.T) {
	fs := newFakeStore()
	wf := fs.addWorkflow("deploy", true)
	h := &Handlers{Store: fs, Logger: discardLogger()}

	rec := executeRequest(t, h, wf.ID)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status=%d want 202", rec.Code)
	}

	var body struct {
		Execution ExecutionRef `json:"execution"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Execution.WorkflowID != wf.ID {
		t.Errorf("workflowId=%q want %q", body.Execution.WorkflowID, wf.ID)
	}
	if body.Execution.Status != store.ExecutionStatusQueued {
		t.Errorf("status=%q want queued", body.Execution.Status)
	}
	if _, err := fs.GetExecution(t.Context(), body.Execution.ID); err != nil {
		t.Errorf("execution %q not persisted: %v", body.Execution.ID, err)
	}
}

func TestAPIExecuteWorkflowNotFound(t *testing.T) {
	h := &Handlers{Store: newFakeStore(), Logger: discardLogger()}

	rec := executeRequest(t, h, "d2b7e9f2-0000-0000-0000-000000000000")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d want 404", rec.Code)
	}
}

func TestAPIExecuteWorkflowMalformedID(t *testing.T) {
	h := &Handlers{Store: newFakeStore(), Logger: discardLogger()}

	// Ids that would fail the uuid cast in Postgres must read as 404, not
	// fall through to the generic 500 path.
	for _, id := range []string{"not-a-uuid", "42", "d2b7e9f2"} {
		rec := executeRequest(t, h, id)
		if rec.Code != http.StatusNotFound {
			t.Errorf("id=%q: status=%d want 404", id, rec.Code)
		}
	}
}

func TestAPIExecuteWorkflowDisabled(t *testing.T) {
	fs := newFakeStore()
	wf := fs.addWorkflow("paused", false)
	h := &Handlers{Store: fs, Logger: discardLogger()}

	rec := executeRequest(t, h, wf.ID)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status=%d want 409", rec.Code)
	}
	if n, _ := fs.CountExecutionsCreatedSince(t.Context(), time.Time{}); n != 0 {
		t.Errorf("disabled workflow still queued %d executions", n)
	}
}
