package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/pgxstore"
	"github.com/alexedwards/scs/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/flowdeck/flowdeck/internal/config"
	"github.com/flowdeck/flowdeck/internal/engine"
	httpapp "github.com/flowdeck/flowdeck/internal/http"
	"github.com/flowdeck/flowdeck/internal/metrics"
	"github.com/flowdeck/flowdeck/internal/store"
)

var serveCmd = &cobra.Command{
	Use:         "serve",
	Short:       "Run the HTTP server and the execution worker loop.",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationStructuredLog: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	queries := store.New(pool)

	if cfg.DevSeedAdmin {
		if err := seedDevAdmin(ctx, queries); err != nil {
			return err
		}
	}

	sessions := newSessionManager(pool, cfg)

	executor := engine.New(queries, engine.Options{
		Workers:     cfg.ExecWorkers,
		ClaimLimit:  cfg.ExecClaimLimit,
		HTTPTimeout: cfg.HTTPStepTimeout,
		StaleAfter:  cfg.ExecStaleAfter,
	})
	scheduler := engine.Scheduler{Runner: executor, Interval: cfg.ExecInterval}
	go scheduler.Run(ctx)

	metrics.StartServer(ctx, cfg.MetricsAddr)

	srv, err := httpapp.NewEchoServer(cfg, queries, pool, sessions)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.HTTPAddr)
		errCh <- srv.StartServer(httpServer)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func newSessionManager(pool *pgxpool.Pool, cfg config.Config) *scs.SessionManager {
	sessions := scs.New()
	sessions.Store = pgxstore.New(pool)
	sessions.Lifetime = 12 * time.Hour
	sessions.Cookie.HttpOnly = true
	sessions.Cookie.SameSite = http.SameSiteLaxMode
	sessions.Cookie.Secure = cfg.AuthCookieSecure
	return sessions
}
