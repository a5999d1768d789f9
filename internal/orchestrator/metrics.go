package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for a workflow.
//
// Metrics:
//   - taskpri_clarified_total{outcome} - tasks clarified, by outcome
//   - taskpri_prioritized_total{quadrant} - tasks given a quadrant
//   - taskpri_task_failures_total{phase} - per-task failures
//   - taskpri_workflow_duration_seconds - histogram of Run durations
//   - taskpri_tasks{status} - tasks in the store after a run
type Metrics struct {
	registry *prometheus.Registry

	ClarifiedTotal   *prometheus.CounterVec
	PrioritizedTotal *prometheus.CounterVec
	FailuresTotal    *prometheus.CounterVec
	RunDuration      prometheus.Histogram
	Tasks            *prometheus.GaugeVec
}

// NewMetrics creates the workflow metrics in a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		ClarifiedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskpri_clarified_total",
				Help: "Total number of tasks clarified",
			},
			[]string{"outcome"},
		),
		PrioritizedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskpri_prioritized_total",
				Help: "Total number of tasks assigned an Eisenhower quadrant",
			},
			[]string{"quadrant"},
		),
		FailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskpri_task_failures_total",
				Help: "Total number of per-task failures",
			},
			[]string{"phase"}, // "clarify" or "prioritize"
		),
		RunDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "taskpri_workflow_duration_seconds",
				Help:    "Duration of workflow runs in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
			},
		),
		Tasks: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "taskpri_tasks",
				Help: "Number of tasks in the store by status",
			},
			[]string{"status"},
		),
	}
}

// Registry returns the registry holding the metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the metrics to path in the textfile collector format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
