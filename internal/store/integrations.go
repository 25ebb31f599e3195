package store

import (
	"context"
	"time"
)

type Integration struct {
	ID        int64
	Name      string
	Kind      string
	BaseURL   string
	Enabled   bool
	CreatedAt time.Time
}

const listIntegrations = `
SELECT id, name, kind, COALESCE(base_url, ''), enabled, created_at
FROM integrations
ORDER BY name
`

func (q *Queries) ListIntegrations(ctx context.Context) ([]Integration, error) {
	rows, err := q.db.Query(ctx, listIntegrations)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Integration
	for rows.Next() {
		var in Integration
		if err := rows.Scan(&in.ID, &in.Name, &in.Kind, &in.BaseURL, &in.Enabled, &in.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, in)
	}
	return items, rows.Err()
}

// ListActiveIntegrationNames backs the dashboard integrations panel: the
// distinct names of enabled integrations, name order.
const listActiveIntegrationNames = `
SELECT DISTINCT name FROM integrations WHERE enabled ORDER BY name
`

func (q *Queries) ListActiveIntegrationNames(ctx context.Context) ([]string, error) {
	rows, err := q.db.Query(ctx, listActiveIntegrationNames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

const getIntegrationByName = `
SELECT id, name, kind, COALESCE(base_url, ''), enabled, created_at
FROM integrations
WHERE name = $1
`

func (q *Queries) GetIntegrationByName(ctx context.Context, name string) (Integration, error) {
	var in Integration
	err := q.db.QueryRow(ctx, getIntegrationByName, name).
		Scan(&in.ID, &in.Name, &in.Kind, &in.BaseURL, &in.Enabled, &in.CreatedAt)
	return in, err
}

type CreateIntegrationParams struct {
	Name    string
	Kind    string
	BaseURL string
	Enabled bool
}

const createIntegration = `
INSERT INTO integrations (name, kind, base_url, enabled)
VALUES ($1, $2, NULLIF($3, ''), $4)
ON CONFLICT (name) DO NOTHING
RETURNING id
`

func (q *Queries) CreateIntegration(ctx context.Context, arg CreateIntegrationParams) error {
	_, err := q.db.Exec(ctx, createIntegration, arg.Name, arg.Kind, arg.BaseURL, arg.Enabled)
	return err
}

const setIntegrationEnabled = `
UPDATE integrations SET enabled = $2 WHERE id = $1
`

func (q *Queries) SetIntegrationEnabled(ctx context.Context, id int64, enabled bool) error {
	_, err := q.db.Exec(ctx, setIntegrationEnabled, id, enabled)
	return err
}
