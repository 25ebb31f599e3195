package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/flowdeck/flowdeck/internal/config"
	"github.com/flowdeck/flowdeck/internal/store"
	"github.com/flowdeck/flowdeck/internal/workflow"
)

var seedCmd = &cobra.Command{
	Use:         "seed",
	Short:       "Insert sample workflows and integrations (idempotent).",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationStructuredLog: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSeed()
	},
}

type seedWorkflow struct {
	name        string
	description string
	definition  string
}

var seedWorkflows = []seedWorkflow{
	{
		name:        "morning-checks",
		description: "Ping the status endpoint and log the result.",
		definition: `name: morning-checks
description: Ping the status endpoint and log the result.
steps:
  - name: announce
    kind: log
    message: starting morning checks
  - name: probe
    kind: http
    integration: statuspage
    url: /healthz
  - name: done
    kind: log
    message: morning checks finished
`,
	},
	{
		name:        "deploy-approval",
		description: "Wait for a human before the deploy step runs.",
		definition: `name: deploy-approval
description: Wait for a human before the deploy step runs.
steps:
  - name: notify
    kind: log
    message: deploy requested
  - name: sign-off
    kind: approval
    message: confirm the deploy window is open
  - name: settle
    kind: sleep
    duration: 5s
  - name: done
    kind: log
    message: deploy window confirmed
`,
	},
}

var seedIntegrations = []store.CreateIntegrationParams{
	{Name: "statuspage", Kind: "http", BaseURL: "https://status.flowdeck.local", Enabled: true},
	{Name: "billing", Kind: "http", BaseURL: "https://billing.flowdeck.local/api", Enabled: false},
}

func runSeed() error {
	for _, sw := range seedWorkflows {
		if _, err := workflow.Parse([]byte(sw.definition)); err != nil {
			return fmt.Errorf("seed workflow %s: %w", sw.name, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	q := store.New(pool)

	existing, err := q.ListWorkflows(ctx)
	if err != nil {
		return err
	}
	haveWorkflow := make(map[string]bool, len(existing))
	for _, wf := range existing {
		haveWorkflow[wf.Name] = true
	}

	for _, sw := range seedWorkflows {
		if haveWorkflow[sw.name] {
			slog.Info("workflow already present", "name", sw.name)
			continue
		}
		if _, err := q.CreateWorkflow(ctx, store.CreateWorkflowParams{
			Name:        sw.name,
			Description: sw.description,
			Enabled:     true,
			Definition:  sw.definition,
		}); err != nil {
			return fmt.Errorf("create workflow %s: %w", sw.name, err)
		}
		slog.Info("workflow created", "name", sw.name)
	}

	for _, in := range seedIntegrations {
		if err := q.CreateIntegration(ctx, in); err != nil {
			return fmt.Errorf("create integration %s: %w", in.Name, err)
		}
		slog.Info("integration ensured", "name", in.Name)
	}

	return nil
}
