package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/flowdeck/flowdeck/internal/config"
	"github.com/flowdeck/flowdeck/internal/engine"
	"github.com/flowdeck/flowdeck/internal/metrics"
	"github.com/flowdeck/flowdeck/internal/store"
)

var workerCmd = &cobra.Command{
	Use:         "worker",
	Short:       "Run only the execution worker loop.",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationStructuredLog: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorker()
	},
}

func runWorker() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.ExecInterval <= 0 {
		return errors.New("EXEC_INTERVAL must be > 0 to run the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	metrics.StartServer(ctx, cfg.MetricsAddr)

	executor := engine.New(store.New(pool), engine.Options{
		Workers:     cfg.ExecWorkers,
		ClaimLimit:  cfg.ExecClaimLimit,
		HTTPTimeout: cfg.HTTPStepTimeout,
		StaleAfter:  cfg.ExecStaleAfter,
	})

	slog.Info("execution worker started", "interval", cfg.ExecInterval, "workers", cfg.ExecWorkers)
	scheduler := engine.Scheduler{Runner: executor, Interval: cfg.ExecInterval}
	scheduler.Run(ctx)
	return nil
}
