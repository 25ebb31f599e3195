package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "flowdeck"
)

var (
	executionDurationBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600}

	// Execution metrics
	ExecutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "executions_total",
		Help:      "Count of workflow executions by terminal status.",
	}, []string{"workflow", "status"})

	ExecutionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "execution_duration_seconds",
		Help:      "Wall-clock time from claim to terminal state.",
		Buckets:   executionDurationBuckets,
	}, []string{"workflow"})

	ExecutionsQueued = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "executions_queued",
		Help:      "Executions currently waiting to be claimed.",
	})

	StepFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "step_failures_total",
		Help:      "Count of failed step runs by step kind.",
	}, []string{"kind"})

	// Approval metrics
	ApprovalDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "approval_decisions_total",
		Help:      "Count of approval decisions.",
	}, []string{"decision"})
)
