package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/flowdeck/flowdeck/internal/store"
)

// fakeStore is an in-memory Store for handler tests.
type fakeStore struct {
	mu sync.Mutex

	workflows    []store.Workflow
	executions   map[string]*store.Execution
	approvals    map[string]*store.Approval
	integrations []store.Integration
	users        map[int64]store.AuthUser

	outcomes store.ExecutionOutcomes

	// failWith, when set, is returned by the dashboard count queries.
	failWith error
}

// errInvalidUUID mimics Postgres rejecting a non-uuid value in a uuid
// column (invalid_text_representation). Handlers must never let such an
// id reach the store in the first place.
var errInvalidUUID = &pgconn.PgError{Code: "22P02", Message: "invalid input syntax for type uuid"}

func newFakeStore() *fakeStore {
	return &fakeStore{
		executions: map[string]*store.Execution{},
		approvals:  map[string]*store.Approval{},
		users:      map[int64]store.AuthUser{},
	}
}

func (f *fakeStore) addWorkflow(name string, enabled bool) store.Workflow {
	f.mu.Lock()
	defer f.mu.Unlock()
	wf := store.Workflow{
		ID:        uuid.NewString(),
		Name:      name,
		Enabled:   enabled,
		CreatedAt: time.Now().Add(-time.Duration(len(f.workflows)) * time.Minute),
	}
	// Prepend: the real query orders newest first.
	f.workflows = append([]store.Workflow{wf}, f.workflows...)
	return wf
}

func (f *fakeStore) ListWorkflows(context.Context) ([]store.Workflow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]store.Workflow, len(f.workflows))
	copy(out, f.workflows)
	return out, nil
}

func (f *fakeStore) GetWorkflow(_ context.Context, id string) (store.Workflow, error) {
	if uuid.Validate(id) != nil {
		return store.Workflow{}, errInvalidUUID
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, wf := range f.workflows {
		if wf.ID == id {
			return wf, nil
		}
	}
	return store.Workflow{}, pgx.ErrNoRows
}

func (f *fakeStore) CountWorkflows(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return 0, f.failWith
	}
	return int64(len(f.workflows)), nil
}

func (f *fakeStore) CreateExecution(_ context.Context, workflowID string) (store.Execution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	exec := store.Execution{
		ID:         uuid.NewString(),
		WorkflowID: workflowID,
		Status:     store.ExecutionStatusQueued,
		CreatedAt:  time.Now(),
	}
	f.executions[exec.ID] = &exec
	return exec, nil
}

func (f *fakeStore) GetExecution(_ context.Context, id string) (store.Execution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if exec, ok := f.executions[id]; ok {
		return *exec, nil
	}
	return store.Execution{}, pgx.ErrNoRows
}

func (f *fakeStore) RequeueExecution(_ context.Context, id string, stepsDone int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if exec, ok := f.executions[id]; ok && exec.Status == store.ExecutionStatusWaiting {
		exec.Status = store.ExecutionStatusQueued
		exec.StepsDone = stepsDone
	}
	return nil
}

func (f *fakeStore) MarkExecutionFailed(_ context.Context, id string, execError string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if exec, ok := f.executions[id]; ok {
		exec.Status = store.ExecutionStatusFailed
		exec.Error = execError
		exec.FinishedAt = pgtype.Timestamptz{Time: time.Now(), Valid: true}
	}
	return nil
}

func (f *fakeStore) CountExecutionsCreatedSince(_ context.Context, since time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, exec := range f.executions {
		if !exec.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CountExecutionOutcomesSince(context.Context, time.Time) (store.ExecutionOutcomes, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return store.ExecutionOutcomes{}, f.failWith
	}
	return f.outcomes, nil
}

func (f *fakeStore) ListRecentExecutions(_ context.Context, limit int32) ([]store.ExecutionListItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []store.ExecutionListItem
	for _, exec := range f.executions {
		if int32(len(items)) >= limit {
			break
		}
		items = append(items, store.ExecutionListItem{Execution: *exec, WorkflowName: "wf"})
	}
	return items, nil
}

func (f *fakeStore) addApproval(executionID, stepName string) store.Approval {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := store.Approval{
		ID:          uuid.NewString(),
		ExecutionID: executionID,
		StepName:    stepName,
		Status:      store.ApprovalStatusPending,
		CreatedAt:   time.Now(),
	}
	f.approvals[a.ID] = &a
	return a
}

func (f *fakeStore) GetApproval(_ context.Context, id string) (store.Approval, error) {
	if uuid.Validate(id) != nil {
		return store.Approval{}, errInvalidUUID
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.approvals[id]; ok {
		return *a, nil
	}
	return store.Approval{}, pgx.ErrNoRows
}

func (f *fakeStore) DecideApproval(_ context.Context, arg store.DecideApprovalParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.approvals[arg.ID]
	if !ok || a.Status != store.ApprovalStatusPending {
		return false, nil
	}
	a.Status = arg.Status
	a.DecidedBy = arg.DecidedBy
	a.DecidedAt = pgtype.Timestamptz{Time: time.Now(), Valid: true}
	return true, nil
}

func (f *fakeStore) CountPendingApprovals(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, a := range f.approvals {
		if a.Status == store.ApprovalStatusPending {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) ListPendingApprovals(context.Context) ([]store.PendingApprovalItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []store.PendingApprovalItem
	for _, a := range f.approvals {
		if a.Status == store.ApprovalStatusPending {
			items = append(items, store.PendingApprovalItem{Approval: *a, WorkflowName: "wf"})
		}
	}
	return items, nil
}

func (f *fakeStore) ListIntegrations(context.Context) ([]store.Integration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]store.Integration, len(f.integrations))
	copy(out, f.integrations)
	return out, nil
}

func (f *fakeStore) ListActiveIntegrationNames(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for _, in := range f.integrations {
		if in.Enabled {
			names = append(names, in.Name)
		}
	}
	return names, nil
}

func (f *fakeStore) SetIntegrationEnabled(_ context.Context, id int64, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.integrations {
		if f.integrations[i].ID == id {
			f.integrations[i].Enabled = enabled
		}
	}
	return nil
}

func (f *fakeStore) GetAuthUser(_ context.Context, id int64) (store.AuthUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return store.AuthUser{}, pgx.ErrNoRows
}

func (f *fakeStore) GetAuthUserByEmail(_ context.Context, email string) (store.AuthUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return store.AuthUser{}, pgx.ErrNoRows
}

func (f *fakeStore) CountAuthUsers(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.users)), nil
}

func (f *fakeStore) UpdateAuthUserLoginMeta(_ context.Context, arg store.UpdateAuthUserLoginMetaParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[arg.ID]; ok {
		u.LastLoginAt = arg.LastLoginAt
		u.LastLoginIP = arg.LastLoginIP
		f.users[arg.ID] = u
	}
	return nil
}
