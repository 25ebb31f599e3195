package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/flowdeck/flowdeck/internal/store"
)

func decideRequest(t *testing.T, h *Handlers, approvalID, action string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/approvals/"+approvalID+"/"+action, nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.SetPath("/approvals/:id/" + action)
	c.SetParamNames("id")
	c.SetParamValues(approvalID)

	var err error
	switch action {
	case "approve":
		err = h.ApproveApproval(c)
	case "deny":
		err = h.DenyApproval(c)
	default:
		t.Fatalf("unknown action %q", action)
	}
	if err != nil {
		t.Fatalf("decide %s: %v", action, err)
	}
	return rec
}

func parkedExecution(t *testing.T, fs *fakeStore) (store.Execution, store.Approval) {
	t.Helper()

	wf := fs.addWorkflow("deploy", true)
	exec, err := fs.CreateExecution(t.Context(), wf.ID)
	if err != nil {
		t.Fatalf("create execution: %v", err)
	}
	fs.mu.Lock()
	fs.executions[exec.ID].Status = store.ExecutionStatusWaiting
	fs.executions[exec.ID].StepsDone = 2
	fs.mu.Unlock()
	approval := fs.addApproval(exec.ID, "sign-off")
	return exec, approval
}

func TestApproveRequeuesExecution(t *testing.T) {
	fs := newFakeStore()
	exec, approval := parkedExecution(t, fs)
	h := &Handlers{Store: fs, Logger: discardLogger()}

	rec := decideRequest(t, h, approval.ID, "approve")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status=%d want 303", rec.Code)
	}

	got, err := fs.GetExecution(t.Context(), exec.ID)
	if err != nil {
		t.Fatalf("get execution: %v", err)
	}
	if got.Status != store.ExecutionStatusQueued {
		t.Errorf("status=%q want queued", got.Status)
	}
	if got.StepsDone != 2 {
		t.Errorf("stepsDone=%d want 2 (resume after the gate)", got.StepsDone)
	}

	a, _ := fs.GetApproval(t.Context(), approval.ID)
	if a.Status != store.ApprovalStatusApproved {
		t.Errorf("approval status=%q want approved", a.Status)
	}
}

func TestDenyFailsExecution(t *testing.T) {
	fs := newFakeStore()
	exec, approval := parkedExecution(t, fs)
	h := &Handlers{Store: fs, Logger: discardLogger()}

	rec := decideRequest(t, h, approval.ID, "deny")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status=%d want 303", rec.Code)
	}

	got, _ := fs.GetExecution(t.Context(), exec.ID)
	if got.Status != store.ExecutionStatusFailed {
		t.Errorf("status=%q want failed", got.Status)
	}
	if got.Error == "" {
		t.Error("denied execution should record an error")
	}
}

func TestDecideApprovalIsSingleShot(t *testing.T) {
	fs := newFakeStore()
	exec, approval := parkedExecution(t, fs)
	h := &Handlers{Store: fs, Logger: discardLogger()}

	decideRequest(t, h, approval.ID, "approve")
	decideRequest(t, h, approval.ID, "deny")

	got, _ := fs.GetExecution(t.Context(), exec.ID)
	if got.Status != store.ExecutionStatusQueued {
		t.Errorf("second decision changed the execution: status=%q", got.Status)
	}
	a, _ := fs.GetApproval(t.Context(), approval.ID)
	if a.Status != store.ApprovalStatusApproved {
		t.Errorf("second decision overwrote the first: %q", a.Status)
	}
}

func TestDecideApprovalUnknownIDRedirects(t *testing.T) {
	h := &Handlers{Store: newFakeStore(), Logger: discardLogger()}

	rec := decideRequest(t, h, "1f1e1d1c-0000-0000-0000-000000000000", "approve")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status=%d want 303", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/approvals" {
		t.Errorf("location=%q want /approvals", got)
	}
}

func TestDecideApprovalMalformedIDRedirects(t *testing.T) {
	h := &Handlers{Store: newFakeStore(), Logger: discardLogger()}

	// Same treatment as an unknown id; the uuid cast error from Postgres
	// must never surface as a 500.
	rec := decideRequest(t, h, "not-a-uuid", "deny")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status=%d want 303", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/approvals" {
		t.Errorf("location=%q want /approvals", got)
	}
}
