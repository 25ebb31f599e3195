package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr    = ":8080"
	defaultMetricsAddr = "off"

	defaultExecInterval    = 5 * time.Second
	defaultExecWorkers     = 4
	defaultExecClaimLimit  = 16
	defaultExecStaleAfter  = 10 * time.Minute
	defaultHTTPStepTimeout = 30 * time.Second
)

type Config struct {
	DatabaseURL      string
	HTTPAddr         string
	MetricsAddr      string
	AuthCookieSecure bool
	DevSeedAdmin     bool
	ExecInterval     time.Duration
	ExecWorkers      int
	ExecClaimLimit   int
	ExecStaleAfter   time.Duration
	HTTPStepTimeout  time.Duration
}

type LoadOptions struct {
	RequireDatabaseURL bool
}

func Load() (Config, error) {
	return LoadWithOptions(LoadOptions{RequireDatabaseURL: true})
}

func LoadOptionalDB() (Config, error) {
	return LoadWithOptions(LoadOptions{RequireDatabaseURL: false})
}

func LoadWithOptions(opts LoadOptions) (Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, err
		}
	}

	cfg := Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		HTTPAddr:         getenvDefault("HTTP_ADDR", defaultHTTPAddr),
		MetricsAddr:      getenvDefault("METRICS_ADDR", defaultMetricsAddr),
		AuthCookieSecure: getenvBoolDefault("AUTH_COOKIE_SECURE", false),
		DevSeedAdmin:     getenvBoolDefault("DEV_SEED_ADMIN", false),
		ExecInterval:     defaultExecInterval,
		ExecWorkers:      getenvIntDefault("EXEC_WORKERS", defaultExecWorkers),
		ExecClaimLimit:   getenvIntDefault("EXEC_CLAIM_LIMIT", defaultExecClaimLimit),
		ExecStaleAfter:   defaultExecStaleAfter,
		HTTPStepTimeout:  defaultHTTPStepTimeout,
	}

	if v := os.Getenv("EXEC_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.ExecInterval = d
		}
	}
	if v := os.Getenv("EXEC_STALE_AFTER"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.ExecStaleAfter = d
		}
	}
	if v := os.Getenv("HTTP_STEP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.HTTPStepTimeout = d
		}
	}

	if opts.RequireDatabaseURL && cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func getenvBoolDefault(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	switch v {
	case "1":
		return true
	case "0":
		return false
	default:
		return def
	}
}
