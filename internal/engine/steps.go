package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/flowdeck/flowdeck/internal/store"
	"github.com/flowdeck/flowdeck/internal/workflow"
)

func (x *Executor) runStep(ctx context.Context, exec store.Execution, step workflow.Step) error {
	switch step.Kind {
	case workflow.StepKindLog:
		slog.Info("workflow log step",
			"execution_id", exec.ID,
			"step", step.Name,
			"message", step.Message,
		)
		return nil
	case workflow.StepKindSleep:
		return sleepCtx(ctx, step.Duration.Std())
	case workflow.StepKindHTTP:
		return x.runHTTPStep(ctx, step)
	default:
		return fmt.Errorf("unknown step kind %q", step.Kind)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (x *Executor) runHTTPStep(ctx context.Context, step workflow.Step) error {
	target := strings.TrimSpace(step.URL)

	if name := strings.TrimSpace(step.Integration); name != "" {
		integration, err := x.store.GetIntegrationByName(ctx, name)
		if err != nil {
			return fmt.Errorf("integration %q: %w", name, err)
		}
		if !integration.Enabled {
			return fmt.Errorf("integration %q is disabled", name)
		}
		base := strings.TrimRight(strings.TrimSpace(integration.BaseURL), "/")
		if base == "" {
			return fmt.Errorf("integration %q has no base url", name)
		}
		target = base + "/" + strings.TrimLeft(target, "/")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := x.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", target, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("request %s: unexpected status %d", target, resp.StatusCode)
	}
	return nil
}
