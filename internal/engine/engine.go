// Package engine claims queued executions and runs their workflow steps.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/flowdeck/flowdeck/internal/metrics"
	"github.com/flowdeck/flowdeck/internal/store"
	"github.com/flowdeck/flowdeck/internal/workflow"
)

// Store is the slice of the query layer the engine needs.
type Store interface {
	GetWorkflow(ctx context.Context, id string) (store.Workflow, error)
	ClaimQueuedExecutions(ctx context.Context, limit int32) ([]store.Execution, error)
	MarkExecutionSucceeded(ctx context.Context, id string, stepsDone int32) error
	MarkExecutionFailed(ctx context.Context, id string, execError string) error
	MarkExecutionWaiting(ctx context.Context, id string, stepsDone int32) error
	CreateApproval(ctx context.Context, arg store.CreateApprovalParams) (store.Approval, error)
	GetIntegrationByName(ctx context.Context, name string) (store.Integration, error)
	CountQueuedExecutions(ctx context.Context) (int64, error)
	ReclaimStalledExecutions(ctx context.Context, before time.Time) (int64, error)
}

// Options tune the executor.
type Options struct {
	// Workers bounds concurrent executions per RunOnce pass.
	Workers int
	// ClaimLimit bounds how many executions one pass claims.
	ClaimLimit int
	// HTTPTimeout applies to each http step request.
	HTTPTimeout time.Duration
	// StaleAfter is how long an execution may sit in running before a
	// pass assumes its worker died and re-queues it.
	StaleAfter time.Duration
}

type Executor struct {
	store      Store
	httpClient *http.Client
	workers    int
	claimLimit int32
	staleAfter time.Duration
}

func New(s Store, opts Options) *Executor {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	claimLimit := opts.ClaimLimit
	if claimLimit < 1 {
		claimLimit = workers
	}
	timeout := opts.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	staleAfter := opts.StaleAfter
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	return &Executor{
		store:      s,
		httpClient: &http.Client{Timeout: timeout},
		workers:    workers,
		claimLimit: int32(claimLimit),
		staleAfter: staleAfter,
	}
}

// RunOnce claims a batch of queued executions and drives each to its next
// stopping point: terminal status or an approval gate. Before claiming it
// re-queues executions left in running past StaleAfter, so rows orphaned
// by a crashed or interrupted worker get picked up again.
func (x *Executor) RunOnce(ctx context.Context) error {
	if n, err := x.store.ReclaimStalledExecutions(ctx, time.Now().Add(-x.staleAfter)); err != nil {
		slog.Warn("reclaim stalled executions", "err", err)
	} else if n > 0 {
		slog.Info("requeued stalled executions", "count", n)
	}

	if queued, err := x.store.CountQueuedExecutions(ctx); err == nil {
		metrics.ExecutionsQueued.Set(float64(queued))
	}

	claimed, err := x.store.ClaimQueuedExecutions(ctx, x.claimLimit)
	if err != nil {
		return fmt.Errorf("claim executions: %w", err)
	}
	if len(claimed) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(x.workers)
	for _, exec := range claimed {
		g.Go(func() error {
			x.runExecution(gctx, exec)
			return nil
		})
	}
	return g.Wait()
}

func (x *Executor) runExecution(ctx context.Context, exec store.Execution) {
	logger := slog.With("execution_id", exec.ID, "workflow_id", exec.WorkflowID)

	wf, err := x.store.GetWorkflow(ctx, exec.WorkflowID)
	if err != nil {
		x.fail(ctx, exec, "", fmt.Sprintf("load workflow: %v", err))
		return
	}
	def, err := workflow.Parse([]byte(wf.Definition))
	if err != nil {
		x.fail(ctx, exec, wf.Name, fmt.Sprintf("parse definition: %v", err))
		return
	}

	for i := int(exec.StepsDone); i < len(def.Steps); i++ {
		if ctx.Err() != nil {
			// Shutting down; the row stays running until a later pass
			// reclaims it once started_at ages past StaleAfter.
			return
		}
		step := def.Steps[i]

		if step.Kind == workflow.StepKindApproval {
			_, err := x.store.CreateApproval(ctx, store.CreateApprovalParams{
				ExecutionID: exec.ID,
				StepName:    step.Name,
				Message:     step.Message,
			})
			if err != nil {
				x.fail(ctx, exec, wf.Name, fmt.Sprintf("step %q: create approval: %v", step.Name, err))
				return
			}
			// steps_done moves past the gate now so an approval re-queues
			// the execution at the following step.
			if err := x.store.MarkExecutionWaiting(ctx, exec.ID, int32(i+1)); err != nil {
				logger.Error("park execution", "err", err)
			}
			logger.Info("execution waiting for approval", "step", step.Name)
			return
		}

		if err := x.runStep(ctx, exec, step); err != nil {
			metrics.StepFailuresTotal.WithLabelValues(step.Kind).Inc()
			x.fail(ctx, exec, wf.Name, fmt.Sprintf("step %q: %v", step.Name, err))
			return
		}
	}

	if err := x.store.MarkExecutionSucceeded(ctx, exec.ID, int32(len(def.Steps))); err != nil {
		logger.Error("mark execution succeeded", "err", err)
		return
	}
	x.observe(exec, wf.Name, store.ExecutionStatusSucceeded)
	logger.Info("execution succeeded", "workflow", wf.Name, "steps", len(def.Steps))
}

func (x *Executor) fail(ctx context.Context, exec store.Execution, workflowName, reason string) {
	if err := x.store.MarkExecutionFailed(ctx, exec.ID, reason); err != nil {
		slog.Error("mark execution failed", "execution_id", exec.ID, "err", err)
		return
	}
	x.observe(exec, workflowName, store.ExecutionStatusFailed)
	slog.Warn("execution failed", "execution_id", exec.ID, "workflow", workflowName, "reason", reason)
}

func (x *Executor) observe(exec store.Execution, workflowName, status string) {
	if workflowName == "" {
		workflowName = "unknown"
	}
	metrics.ExecutionsTotal.WithLabelValues(workflowName, status).Inc()
	if exec.StartedAt.Valid {
		metrics.ExecutionDuration.WithLabelValues(workflowName).
			Observe(time.Since(exec.StartedAt.Time).Seconds())
	}
}
