package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Execution statuses. queued -> running -> (waiting_approval -> queued)* ->
// succeeded | failed. Terminal transitions happen exactly once.
const (
	ExecutionStatusQueued    = "queued"
	ExecutionStatusRunning   = "running"
	ExecutionStatusWaiting   = "waiting_approval"
	ExecutionStatusSucceeded = "succeeded"
	ExecutionStatusFailed    = "failed"
)

type Execution struct {
	ID         string
	WorkflowID string
	Status     string
	Error      string
	StepsDone  int32
	StartedAt  pgtype.Timestamptz
	FinishedAt pgtype.Timestamptz
	CreatedAt  time.Time
}

const executionColumns = `id, workflow_id, status, COALESCE(error, ''), steps_done, started_at, finished_at, created_at`

func scanExecution(row interface{ Scan(...any) error }) (Execution, error) {
	var e Execution
	err := row.Scan(&e.ID, &e.WorkflowID, &e.Status, &e.Error, &e.StepsDone, &e.StartedAt, &e.FinishedAt, &e.CreatedAt)
	return e, err
}

const createExecution = `
INSERT INTO executions (id, workflow_id, status)
VALUES ($1, $2, 'queued')
RETURNING ` + executionColumns

func (q *Queries) CreateExecution(ctx context.Context, workflowID string) (Execution, error) {
	return scanExecution(q.db.QueryRow(ctx, createExecution, uuid.NewString(), workflowID))
}

const getExecution = `
SELECT ` + executionColumns + ` FROM executions WHERE id = $1
`

func (q *Queries) GetExecution(ctx context.Context, id string) (Execution, error) {
	return scanExecution(q.db.QueryRow(ctx, getExecution, id))
}

// ClaimQueuedExecutions moves up to limit queued executions to running and
// returns them. SKIP LOCKED keeps concurrent workers from claiming the same
// rows. started_at resets on every claim so it marks the current run
// attempt; ReclaimStalledExecutions measures staleness against it.
const claimQueuedExecutions = `
UPDATE executions SET status = 'running', started_at = now()
WHERE id IN (
    SELECT id FROM executions
    WHERE status = 'queued'
    ORDER BY created_at
    LIMIT $1
    FOR UPDATE SKIP LOCKED
)
RETURNING ` + executionColumns

func (q *Queries) ClaimQueuedExecutions(ctx context.Context, limit int32) ([]Execution, error) {
	rows, err := q.db.Query(ctx, claimQueuedExecutions, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Execution
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

// ReclaimStalledExecutions re-queues running executions whose current
// attempt started before the cutoff. Those rows belong to a worker that
// died or was interrupted mid-run; steps_done still records the last
// completed step, so the next claim resumes there (an interrupted step
// runs again).
const reclaimStalledExecutions = `
UPDATE executions SET status = 'queued', started_at = NULL
WHERE status = 'running' AND started_at < $1
`

func (q *Queries) ReclaimStalledExecutions(ctx context.Context, before time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, reclaimStalledExecutions, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const markExecutionSucceeded = `
UPDATE executions SET status = 'succeeded', steps_done = $2, finished_at = now()
WHERE id = $1 AND status = 'running'
`

func (q *Queries) MarkExecutionSucceeded(ctx context.Context, id string, stepsDone int32) error {
	_, err := q.db.Exec(ctx, markExecutionSucceeded, id, stepsDone)
	return err
}

const markExecutionFailed = `
UPDATE executions SET status = 'failed', error = NULLIF($2, ''), finished_at = now()
WHERE id = $1 AND status IN ('running', 'waiting_approval')
`

func (q *Queries) MarkExecutionFailed(ctx context.Context, id string, execError string) error {
	_, err := q.db.Exec(ctx, markExecutionFailed, id, execError)
	return err
}

const markExecutionWaiting = `
UPDATE executions SET status = 'waiting_approval', steps_done = $2
WHERE id = $1 AND status = 'running'
`

func (q *Queries) MarkExecutionWaiting(ctx context.Context, id string, stepsDone int32) error {
	_, err := q.db.Exec(ctx, markExecutionWaiting, id, stepsDone)
	return err
}

// RequeueExecution puts a parked execution back on the queue after its
// pending approval was granted. steps_done already points past the
// approval step, so the step runs at most once per cycle.
const requeueExecution = `
UPDATE executions SET status = 'queued', steps_done = $2
WHERE id = $1 AND status = 'waiting_approval'
`

func (q *Queries) RequeueExecution(ctx context.Context, id string, stepsDone int32) error {
	_, err := q.db.Exec(ctx, requeueExecution, id, stepsDone)
	return err
}

const countExecutionsCreatedSince = `
SELECT COUNT(*) FROM executions WHERE created_at >= $1
`

func (q *Queries) CountExecutionsCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countExecutionsCreatedSince, since).Scan(&n)
	return n, err
}

const countQueuedExecutions = `
SELECT COUNT(*) FROM executions WHERE status = 'queued'
`

func (q *Queries) CountQueuedExecutions(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countQueuedExecutions).Scan(&n)
	return n, err
}

type ExecutionOutcomes struct {
	Succeeded int64
	Failed    int64
}

const countExecutionOutcomesSince = `
SELECT
    COUNT(*) FILTER (WHERE status = 'succeeded'),
    COUNT(*) FILTER (WHERE status = 'failed')
FROM executions
WHERE finished_at >= $1
`

// CountExecutionOutcomesSince feeds the dashboard success rate. Callers
// must treat a zero total as "no data", not as a 0% rate.
func (q *Queries) CountExecutionOutcomesSince(ctx context.Context, since time.Time) (ExecutionOutcomes, error) {
	var out ExecutionOutcomes
	err := q.db.QueryRow(ctx, countExecutionOutcomesSince, since).Scan(&out.Succeeded, &out.Failed)
	return out, err
}

type ExecutionListItem struct {
	Execution
	WorkflowName string
}

const listRecentExecutions = `
SELECT e.id, e.workflow_id, e.status, COALESCE(e.error, ''), e.steps_done, e.started_at, e.finished_at, e.created_at, w.name
FROM executions e
JOIN workflows w ON w.id = e.workflow_id
ORDER BY e.created_at DESC
LIMIT $1
`

func (q *Queries) ListRecentExecutions(ctx context.Context, limit int32) ([]ExecutionListItem, error) {
	rows, err := q.db.Query(ctx, listRecentExecutions, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ExecutionListItem
	for rows.Next() {
		var item ExecutionListItem
		if err := rows.Scan(&item.ID, &item.WorkflowID, &item.Status, &item.Error, &item.StepsDone,
			&item.StartedAt, &item.FinishedAt, &item.CreatedAt, &item.WorkflowName); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
