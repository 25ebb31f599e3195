package workflow

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValidDefinition(t *testing.T) {
	raw := `
name: nightly-report
description: Builds and ships the nightly report.
steps:
  - name: announce
    kind: log
    message: starting nightly report
  - name: settle
    kind: sleep
    duration: 30s
  - name: trigger-build
    kind: http
    url: /v1/reports/build
    integration: reporting
  - name: sign-off
    kind: approval
    message: Ship the report?
`
	def, err := Parse([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "nightly-report", def.Name)
	require.Len(t, def.Steps, 4)
	assert.Equal(t, StepKindSleep, def.Steps[1].Kind)
	assert.Equal(t, 30*time.Second, def.Steps[1].Duration.Std())
	assert.Equal(t, "reporting", def.Steps[2].Integration)
}

func TestParseRejectsInvalidDefinitions(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr string
	}{
		{
			name:    "missing name",
			raw:     "steps:\n  - name: a\n    kind: log\n    message: hi\n",
			wantErr: "name required",
		},
		{
			name:    "no steps",
			raw:     "name: empty\n",
			wantErr: "at least one step",
		},
		{
			name:    "duplicate step names",
			raw:     "name: dup\nsteps:\n  - name: a\n    kind: log\n    message: x\n  - name: a\n    kind: log\n    message: y\n",
			wantErr: "duplicate step name",
		},
		{
			name:    "unknown kind",
			raw:     "name: bad\nsteps:\n  - name: a\n    kind: teleport\n",
			wantErr: "unknown step kind",
		},
		{
			name:    "log without message",
			raw:     "name: bad\nsteps:\n  - name: a\n    kind: log\n",
			wantErr: "requires a message",
		},
		{
			name:    "sleep without duration",
			raw:     "name: bad\nsteps:\n  - name: a\n    kind: sleep\n",
			wantErr: "positive duration",
		},
		{
			name:    "sleep over the cap",
			raw:     "name: bad\nsteps:\n  - name: a\n    kind: sleep\n    duration: 1h\n",
			wantErr: "exceeds",
		},
		{
			name:    "http relative url without integration",
			raw:     "name: bad\nsteps:\n  - name: a\n    kind: http\n    url: /relative\n",
			wantErr: "not absolute",
		},
		{
			name:    "http absolute url with integration",
			raw:     "name: bad\nsteps:\n  - name: a\n    kind: http\n    url: https://example.com/x\n    integration: reporting\n",
			wantErr: "relative url",
		},
		{
			name:    "http bad scheme",
			raw:     "name: bad\nsteps:\n  - name: a\n    kind: http\n    url: ftp://example.com/x\n",
			wantErr: "not supported",
		},
		{
			name:    "unknown field",
			raw:     "name: bad\nretries: 3\nsteps:\n  - name: a\n    kind: log\n    message: x\n",
			wantErr: "field retries not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDurationRoundTrip(t *testing.T) {
	d := Duration(90 * time.Second)
	out, err := d.MarshalYAML()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", out)
}

func TestApprovalStepAllowsEmptyMessage(t *testing.T) {
	raw := strings.Join([]string{
		"name: gated",
		"steps:",
		"  - name: gate",
		"    kind: approval",
	}, "\n")
	def, err := Parse([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, StepKindApproval, def.Steps[0].Kind)
}
