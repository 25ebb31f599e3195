package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Workflow struct {
	ID          string
	Name        string
	Description string
	Enabled     bool
	Definition  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const listWorkflows = `
SELECT id, name, COALESCE(description, ''), enabled, definition, created_at, updated_at
FROM workflows
ORDER BY created_at DESC, id
`

// ListWorkflows returns all workflows, newest first. The order is part of
// the API contract: clients render summaries in exactly this order.
func (q *Queries) ListWorkflows(ctx context.Context) ([]Workflow, error) {
	rows, err := q.db.Query(ctx, listWorkflows)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Workflow
	for rows.Next() {
		var w Workflow
		if err := rows.Scan(&w.ID, &w.Name, &w.Description, &w.Enabled, &w.Definition, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, w)
	}
	return items, rows.Err()
}

const getWorkflow = `
SELECT id, name, COALESCE(description, ''), enabled, definition, created_at, updated_at
FROM workflows
WHERE id = $1
`

func (q *Queries) GetWorkflow(ctx context.Context, id string) (Workflow, error) {
	var w Workflow
	err := q.db.QueryRow(ctx, getWorkflow, id).
		Scan(&w.ID, &w.Name, &w.Description, &w.Enabled, &w.Definition, &w.CreatedAt, &w.UpdatedAt)
	return w, err
}

const countWorkflows = `SELECT COUNT(*) FROM workflows`

func (q *Queries) CountWorkflows(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countWorkflows).Scan(&n)
	return n, err
}

type CreateWorkflowParams struct {
	Name        string
	Description string
	Enabled     bool
	Definition  string
}

const createWorkflow = `
INSERT INTO workflows (id, name, description, enabled, definition)
VALUES ($1, $2, NULLIF($3, ''), $4, $5)
RETURNING id, name, COALESCE(description, ''), enabled, definition, created_at, updated_at
`

func (q *Queries) CreateWorkflow(ctx context.Context, arg CreateWorkflowParams) (Workflow, error) {
	var w Workflow
	err := q.db.QueryRow(ctx, createWorkflow, uuid.NewString(), arg.Name, arg.Description, arg.Enabled, arg.Definition).
		Scan(&w.ID, &w.Name, &w.Description, &w.Enabled, &w.Definition, &w.CreatedAt, &w.UpdatedAt)
	return w, err
}

const setWorkflowEnabled = `
UPDATE workflows SET enabled = $2, updated_at = now() WHERE id = $1
`

func (q *Queries) SetWorkflowEnabled(ctx context.Context, id string, enabled bool) error {
	_, err := q.db.Exec(ctx, setWorkflowEnabled, id, enabled)
	return err
}
