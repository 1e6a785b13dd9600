package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExecutionsTotal counts process invocations by language and outcome kind.
	ExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_executions_total",
			Help: "Total number of compile and run process invocations",
		},
		[]string{"language", "step", "kind"},
	)

	// ExecutionDuration tracks the wall-clock duration of process invocations in seconds.
	ExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sentinel_execution_duration_seconds",
			Help:    "Duration of compile and run process invocations in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"language", "step"},
	)

	// VerdictsTotal counts terminal submission verdicts.
	VerdictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_verdicts_total",
			Help: "Total number of judged submissions by terminal status",
		},
		[]string{"language", "status"},
	)

	// JudgeDuration tracks end-to-end judging time per submission.
	JudgeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sentinel_judge_duration_seconds",
			Help:    "Duration of a full submission evaluation in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"language"},
	)

	// WorkersActive tracks the number of currently active workers.
	WorkersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sentinel_workers_active",
			Help: "Number of currently active worker goroutines",
		},
	)

	// AdmissionInFlight tracks granted slots per admission controller.
	AdmissionInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sentinel_admission_in_flight",
			Help: "Number of granted admission slots",
		},
		[]string{"controller"},
	)

	// AdmissionWaiting tracks queued callers per admission controller.
	AdmissionWaiting = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sentinel_admission_waiting",
			Help: "Number of callers waiting for an admission slot",
		},
		[]string{"controller"},
	)

	// ToolchainFaults counts configuration faults (missing compiler or interpreter).
	ToolchainFaults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_toolchain_faults_total",
			Help: "Total number of executions that failed because a toolchain binary was missing",
		},
		[]string{"language"},
	)

	// WorkspaceCleanupFailures counts workspaces that could not be fully removed.
	WorkspaceCleanupFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sentinel_workspace_cleanup_failures_total",
			Help: "Total number of workspace destroy attempts that left files behind",
		},
	)

	// StatisticsFailures counts best-effort statistics updates that failed.
	StatisticsFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sentinel_statistics_failures_total",
			Help: "Total number of failed problem or contest statistics updates",
		},
	)
)
