package task

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the task manager.
//
// Metrics:
//   - allocation_runs_total{algorithm,status} - Finished runs per terminal status
//   - allocation_run_duration_seconds{algorithm} - Wall time of every run
//   - allocation_placements_total{algorithm,result} - Outcomes of completed or cancelled runs
//   - allocation_tasks_running - Runs currently executing
type Metrics struct {
	RunsTotal       *prometheus.CounterVec
	RunDuration     *prometheus.HistogramVec
	PlacementsTotal *prometheus.CounterVec
	TasksRunning    prometheus.Gauge
}

// NewMetrics registers the collectors on registerer. A nil registerer creates unregistered collectors.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "allocation_runs_total",
				Help: "Total number of finished allocation runs",
			},
			[]string{"algorithm", "status"},
		),
		RunDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "allocation_run_duration_seconds",
				Help:    "Duration of allocation runs in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 16), // 10ms to ~5.5min
			},
			[]string{"algorithm"},
		),
		PlacementsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "allocation_placements_total",
				Help: "Total number of resident outcomes by result",
			},
			[]string{"algorithm", "result"}, // "success" or "failure"
		),
		TasksRunning: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "allocation_tasks_running",
				Help: "Number of allocation runs currently executing",
			},
		),
	}
}
