package views

import (
	"testing"
	"time"
)

func TestFormatSuccessRate(t *testing.T) {
	rate := func(v float64) *float64 { return &v }

	cases := []struct {
		name string
		in   *float64
		want string
	}{
		{"absent renders dash", nil, "—"},
		{"zero is a real value", rate(0), "0%"},
		{"whole percent", rate(97.4), "97%"},
		{"full", rate(100), "100%"},
		{"clamped above", rate(140), "100%"},
		{"clamped below", rate(-3), "0%"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatSuccessRate(tc.in); got != tc.want {
				t.Errorf("FormatSuccessRate=%q want %q", got, tc.want)
			}
		})
	}
}

func TestHumanizeExecutionStatus(t *testing.T) {
	cases := map[string]string{
		"queued":           "Queued",
		"WAITING_APPROVAL": "Waiting for approval",
		"succeeded":        "Succeeded",
		"failed":           "Failed",
		"":                 "—",
		"odd":              "odd",
	}
	for in, want := range cases {
		if got := HumanizeExecutionStatus(in); got != want {
			t.Errorf("HumanizeExecutionStatus(%q)=%q want %q", in, got, want)
		}
	}
}

func TestIsActivePath(t *testing.T) {
	if !IsActivePath("/", "/") {
		t.Error("root should match root exactly")
	}
	if IsActivePath("/workflows", "/") {
		t.Error("root must not match every path")
	}
	if !IsActivePath("/workflows/abc", "/workflows") {
		t.Error("subpaths should match their section")
	}
	if AriaCurrent("/approvals", "/approvals") != "page" {
		t.Error("active path should report aria-current=page")
	}
}

func TestFormatTimestamp(t *testing.T) {
	if got := FormatTimestamp(time.Time{}); got != "—" {
		t.Errorf("zero time=%q want dash", got)
	}
	if got := FormatTimestamp(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)); got == "—" {
		t.Error("real time should not render as dash")
	}
}

func TestShortIdentifier(t *testing.T) {
	if got := ShortIdentifier("0123456789abcdef-rest"); got != "01234567..." {
		t.Errorf("ShortIdentifier=%q", got)
	}
	if got := ShortIdentifier("short"); got != "short" {
		t.Errorf("ShortIdentifier=%q want unchanged", got)
	}
	if got := ShortIdentifier("  "); got != "—" {
		t.Errorf("ShortIdentifier=%q want dash", got)
	}
}
