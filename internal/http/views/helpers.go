package views

//go:generate go run github.com/a-h/templ/cmd/templ generate

import (
	"strconv"
	"strings"
	"time"
)

func FormatInt64(v int64) string {
	return strconv.FormatInt(v, 10)
}

// FormatSuccessRate renders the dashboard rate tile. nil means no finished
// execution exists yet and renders as a dash, never as "0%".
func FormatSuccessRate(rate *float64) string {
	if rate == nil {
		return "—"
	}
	v := *rate
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return strconv.FormatFloat(v, 'f', 0, 64) + "%"
}

func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Local().Format("Jan 2, 2006 15:04")
}

func HumanizeExecutionStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "queued":
		return "Queued"
	case "running":
		return "Running"
	case "waiting_approval":
		return "Waiting for approval"
	case "succeeded":
		return "Succeeded"
	case "failed":
		return "Failed"
	default:
		status = strings.TrimSpace(status)
		if status == "" {
			return "—"
		}
		return status
	}
}

func ExecutionStatusBadgeClass(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "succeeded":
		return "badge bg-emerald-100 text-emerald-800 dark:bg-emerald-900/50 dark:text-emerald-100"
	case "failed":
		return "badge bg-rose-100 text-rose-800 dark:bg-rose-900/50 dark:text-rose-100"
	case "running":
		return "badge bg-sky-100 text-sky-800 dark:bg-sky-900/50 dark:text-sky-100"
	case "waiting_approval":
		return "badge bg-amber-100 text-amber-800 dark:bg-amber-900/50 dark:text-amber-100"
	case "queued":
		return "badge bg-slate-100 text-slate-800 dark:bg-slate-900/50 dark:text-slate-100"
	default:
		return "badge-outline"
	}
}

func WorkflowEnabledLabel(enabled bool) string {
	if enabled {
		return "Enabled"
	}
	return "Disabled"
}

func WorkflowEnabledBadgeClass(enabled bool) string {
	if enabled {
		return "badge bg-emerald-100 text-emerald-800 dark:bg-emerald-900/50 dark:text-emerald-100"
	}
	return "badge bg-slate-100 text-slate-800 dark:bg-slate-900/50 dark:text-slate-100"
}

func IntegrationStatusLabel(enabled bool) string {
	if enabled {
		return "Active"
	}
	return "Disabled"
}

func IsActivePath(activePath, target string) bool {
	activePath = strings.TrimSpace(activePath)
	target = strings.TrimSpace(target)
	if target == "/" {
		return activePath == "/"
	}
	return strings.HasPrefix(activePath, target)
}

func AriaCurrent(activePath, target string) string {
	if IsActivePath(activePath, target) {
		return "page"
	}
	return ""
}

func ShortIdentifier(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "—"
	}
	runes := []rune(value)
	if len(runes) <= 12 {
		return value
	}
	return string(runes[:8]) + "..."
}
