// Package observability provides Prometheus metrics and OpenTelemetry tracing for the content pipeline.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// WORKFLOW METRICS
// =============================================================================

var (
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repurpose_runs_total",
			Help: "Total number of workflow runs",
		},
		[]string{"status"}, // status: success, partial, upstream_error
	)

	runDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "repurpose_run_duration_seconds",
			Help:    "Workflow run duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	stageExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repurpose_stage_executions_total",
			Help: "Total number of stage executions",
		},
		[]string{"stage", "platform", "status"}, // status: success, error, degraded
	)

	stageDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "repurpose_stage_duration_seconds",
			Help:    "Stage duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)
)

// =============================================================================
// LLM METRICS
// =============================================================================

var (
	llmCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repurpose_llm_calls_total",
			Help: "Total number of completion calls",
		},
		[]string{"class", "task", "status"}, // status: success or error kind
	)

	llmDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "repurpose_llm_duration_seconds",
			Help:    "Completion call duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"class", "task"},
	)

	critiqueVerdictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repurpose_critique_verdicts_total",
			Help: "Critique verdicts by platform",
		},
		[]string{"platform", "verdict", "outcome"},
	)
)

// RecordRun records one finished workflow run.
func RecordRun(status string, d time.Duration) {
	runsTotal.WithLabelValues(status).Inc()
	runDurationSeconds.Observe(d.Seconds())
}

// RecordStage records one stage execution. platform is empty for global stages.
func RecordStage(stage, platform, status string, d time.Duration) {
	stageExecutionsTotal.WithLabelValues(stage, platform, status).Inc()
	stageDurationSeconds.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordLLMCall records one completion call.
func RecordLLMCall(class, task, status string, d time.Duration) {
	llmCallsTotal.WithLabelValues(class, task, status).Inc()
	llmDurationSeconds.WithLabelValues(class, task).Observe(d.Seconds())
}

// RecordVerdict records a critique verdict.
func RecordVerdict(platform, verdict, outcome string) {
	critiqueVerdictsTotal.WithLabelValues(platform, verdict, outcome).Inc()
}
