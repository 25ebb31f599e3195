package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	ApprovalStatusPending  = "pending"
	ApprovalStatusApproved = "approved"
	ApprovalStatusDenied   = "denied"
)

type Approval struct {
	ID          string
	ExecutionID string
	StepName    string
	Message     string
	Status      string
	DecidedBy   string
	DecidedAt   pgtype.Timestamptz
	CreatedAt   time.Time
}

type CreateApprovalParams struct {
	ExecutionID string
	StepName    string
	Message     string
}

const createApproval = `
INSERT INTO approvals (id, execution_id, step_name, message, status)
VALUES ($1, $2, $3, NULLIF($4, ''), 'pending')
RETURNING id, execution_id, step_name, COALESCE(message, ''), status, COALESCE(decided_by, ''), decided_at, created_at
`

func (q *Queries) CreateApproval(ctx context.Context, arg CreateApprovalParams) (Approval, error) {
	var a Approval
	err := q.db.QueryRow(ctx, createApproval, uuid.NewString(), arg.ExecutionID, arg.StepName, arg.Message).
		Scan(&a.ID, &a.ExecutionID, &a.StepName, &a.Message, &a.Status, &a.DecidedBy, &a.DecidedAt, &a.CreatedAt)
	return a, err
}

const getApproval = `
SELECT id, execution_id, step_name, COALESCE(message, ''), status, COALESCE(decided_by, ''), decided_at, created_at
FROM approvals
WHERE id = $1
`

func (q *Queries) GetApproval(ctx context.Context, id string) (Approval, error) {
	var a Approval
	err := q.db.QueryRow(ctx, getApproval, id).
		Scan(&a.ID, &a.ExecutionID, &a.StepName, &a.Message, &a.Status, &a.DecidedBy, &a.DecidedAt, &a.CreatedAt)
	return a, err
}

type DecideApprovalParams struct {
	ID        string
	Status    string
	DecidedBy string
}

// DecideApproval records a decision on a pending approval. The WHERE guard
// makes repeated decisions a no-op rather than an overwrite.
const decideApproval = `
UPDATE approvals SET status = $2, decided_by = NULLIF($3, ''), decided_at = now()
WHERE id = $1 AND status = 'pending'
`

func (q *Queries) DecideApproval(ctx context.Context, arg DecideApprovalParams) (bool, error) {
	tag, err := q.db.Exec(ctx, decideApproval, arg.ID, arg.Status, arg.DecidedBy)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

const countPendingApprovals = `
SELECT COUNT(*) FROM approvals WHERE status = 'pending'
`

func (q *Queries) CountPendingApprovals(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countPendingApprovals).Scan(&n)
	return n, err
}

type PendingApprovalItem struct {
	Approval
	WorkflowName string
}

const listPendingApprovals = `
SELECT a.id, a.execution_id, a.step_name, COALESCE(a.message, ''), a.status, COALESCE(a.decided_by, ''), a.decided_at, a.created_at, w.name
FROM approvals a
JOIN executions e ON e.id = a.execution_id
JOIN workflows w ON w.id = e.workflow_id
WHERE a.status = 'pending'
ORDER BY a.created_at
`

func (q *Queries) ListPendingApprovals(ctx context.Context) ([]PendingApprovalItem, error) {
	rows, err := q.db.Query(ctx, listPendingApprovals)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []PendingApprovalItem
	for rows.Next() {
		var item PendingApprovalItem
		if err := rows.Scan(&item.ID, &item.ExecutionID, &item.StepName, &item.Message, &item.Status,
			&item.DecidedBy, &item.DecidedAt, &item.CreatedAt, &item.WorkflowName); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
