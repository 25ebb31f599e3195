package config

import (
	"testing"
	"time"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is unset")
	}
	if _, err := LoadOptionalDB(); err != nil {
		t.Fatalf("LoadOptionalDB: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/flowdeck")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("METRICS_ADDR", "")
	t.Setenv("EXEC_INTERVAL", "")
	t.Setenv("EXEC_STALE_AFTER", "")
	t.Setenv("EXEC_WORKERS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr=%q want :8080", cfg.HTTPAddr)
	}
	if cfg.MetricsAddr != "off" {
		t.Errorf("MetricsAddr=%q want off", cfg.MetricsAddr)
	}
	if cfg.ExecInterval != 5*time.Second {
		t.Errorf("ExecInterval=%v want 5s", cfg.ExecInterval)
	}
	if cfg.ExecWorkers != 4 {
		t.Errorf("ExecWorkers=%d want 4", cfg.ExecWorkers)
	}
	if cfg.ExecClaimLimit != 16 {
		t.Errorf("ExecClaimLimit=%d want 16", cfg.ExecClaimLimit)
	}
	if cfg.ExecStaleAfter != 10*time.Minute {
		t.Errorf("ExecStaleAfter=%v want 10m", cfg.ExecStaleAfter)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/flowdeck")
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("EXEC_INTERVAL", "30s")
	t.Setenv("EXEC_STALE_AFTER", "3m")
	t.Setenv("EXEC_WORKERS", "8")
	t.Setenv("HTTP_STEP_TIMEOUT", "10s")
	t.Setenv("AUTH_COOKIE_SECURE", "1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9999" {
		t.Errorf("HTTPAddr=%q want :9999", cfg.HTTPAddr)
	}
	if cfg.ExecInterval != 30*time.Second {
		t.Errorf("ExecInterval=%v want 30s", cfg.ExecInterval)
	}
	if cfg.ExecWorkers != 8 {
		t.Errorf("ExecWorkers=%d want 8", cfg.ExecWorkers)
	}
	if cfg.ExecStaleAfter != 3*time.Minute {
		t.Errorf("ExecStaleAfter=%v want 3m", cfg.ExecStaleAfter)
	}
	if cfg.HTTPStepTimeout != 10*time.Second {
		t.Errorf("HTTPStepTimeout=%v want 10s", cfg.HTTPStepTimeout)
	}
	if !cfg.AuthCookieSecure {
		t.Error("AuthCookieSecure should be true")
	}
}

func TestGetenvHelpers(t *testing.T) {
	t.Setenv("FLOWDECK_TEST_INT", "not-a-number")
	if got := getenvIntDefault("FLOWDECK_TEST_INT", 7); got != 7 {
		t.Errorf("getenvIntDefault=%d want 7", got)
	}
	t.Setenv("FLOWDECK_TEST_INT", "0")
	if got := getenvIntDefault("FLOWDECK_TEST_INT", 7); got != 7 {
		t.Errorf("getenvIntDefault with 0=%d want 7", got)
	}
	t.Setenv("FLOWDECK_TEST_BOOL", "yes")
	if got := getenvBoolDefault("FLOWDECK_TEST_BOOL", false); got {
		t.Error("getenvBoolDefault should fall back on unrecognized value")
	}
}
