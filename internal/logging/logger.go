// Package logging configures the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	// EnvFormat selects the handler format: "json" (default) or "text".
	EnvFormat = "LOG_FORMAT"
	// EnvLevel selects the minimum severity: debug, info (default), warn, error.
	EnvLevel = "LOG_LEVEL"
)

// Options controls logger construction.
type Options struct {
	// Command is recorded on every log line so multi-command deployments
	// can be told apart. Empty means "flowdeck".
	Command string
	// Writer defaults to os.Stdout.
	Writer io.Writer
}

// Setup builds a logger from LOG_FORMAT/LOG_LEVEL, installs it as the slog
// default, and returns it. Invalid env values are an error rather than a
// silent fallback.
func Setup(opts Options) (*slog.Logger, error) {
	level, err := ParseLevel(os.Getenv(EnvLevel))
	if err != nil {
		return nil, err
	}

	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}

	var handler slog.Handler
	switch format := strings.ToLower(strings.TrimSpace(os.Getenv(EnvFormat))); format {
	case "", "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case "text":
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	default:
		return nil, fmt.Errorf("%s must be one of: json, text", EnvFormat)
	}

	command := strings.TrimSpace(opts.Command)
	if command == "" {
		command = "flowdeck"
	}

	logger := slog.New(handler).With("app", "flowdeck", "command", command)
	slog.SetDefault(logger)
	return logger, nil
}

// ParseLevel maps a LOG_LEVEL value to a slog.Level. Empty means info.
func ParseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%s must be one of: debug, info, warn, error", EnvLevel)
	}
}
