// ============================================================================
// Task-pool Metrics - Prometheus Monitoring
// ============================================================================
//
// Package: internal/metrics
// File: metrics.go
// Purpose: Collect and expose task-pool metrics for Prometheus monitoring
//
// Metric Categories:
//
//   1. Counters - Cumulative, monotonically increasing:
//      - tasks_submitted_total: Total tasks accepted onto the queue
//      - tasks_completed_total: Total tasks whose Execute returned cleanly
//      - tasks_failed_total: Total tasks whose Execute errored or panicked
//      - controller_expansions_total: Times the controller grew the roster
//
//   2. Performance (Histogram):
//      - task_duration_seconds: Execute wall-clock time, labeled by
//        task kind (e.g. "compute_primes", "sort_big_vec") — the
//        command verb only, never the argument-bearing description,
//        to keep the label's cardinality bounded
//
//   3. Status (Gauge) - roster occupancy as of the last SetWorkerCounts
//      call (the pool makes that call once, at startup):
//      - workers_active: roster size
//      - workers_running: workers inside Execute
//      - workers_waiting: workers blocked on re-entrant sub-task completion
//
// Each Collector carries its own prometheus.Registry rather than
// registering against the global default: the server only ever
// constructs one Collector per process, but tests construct many
// short-lived pools in one binary, and registering the same metric
// names against the global DefaultRegisterer twice panics.
//
// HTTP Endpoint:
//   Exposed via /metrics, scraped by Prometheus. Default port: 9090.
//
// ============================================================================

package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector collects Prometheus metrics for the task pool.
type Collector struct {
	registry *prometheus.Registry

	tasksSubmitted prometheus.Counter
	tasksCompleted prometheus.Counter
	tasksFailed    prometheus.Counter
	expansions     prometheus.Counter

	taskDuration *prometheus.HistogramVec

	workersActive  prometheus.Gauge
	workersRunning prometheus.Gauge
	workersWaiting prometheus.Gauge
}

// NewCollector builds a Collector registered against its own registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		tasksSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskpool_tasks_submitted_total",
			Help: "Total number of tasks accepted onto the submission queue",
		}),
		tasksCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskpool_tasks_completed_total",
			Help: "Total number of tasks whose Execute returned without error",
		}),
		tasksFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskpool_tasks_failed_total",
			Help: "Total number of tasks whose Execute errored or panicked",
		}),
		expansions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskpool_controller_expansions_total",
			Help: "Total number of times the controller grew the worker roster",
		}),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taskpool_task_duration_seconds",
			Help:    "Task Execute wall-clock duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		workersActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taskpool_workers_active",
			Help: "Current worker roster size",
		}),
		workersRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taskpool_workers_running",
			Help: "Workers currently executing a task",
		}),
		workersWaiting: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taskpool_workers_waiting",
			Help: "Workers blocked on re-entrant sub-task completion",
		}),
	}

	c.registry.MustRegister(
		c.tasksSubmitted,
		c.tasksCompleted,
		c.tasksFailed,
		c.expansions,
		c.taskDuration,
		c.workersActive,
		c.workersRunning,
		c.workersWaiting,
	)

	return c
}

// ObserveSubmitted records a task entering the queue.
func (c *Collector) ObserveSubmitted() {
	c.tasksSubmitted.Inc()
}

// ObserveCompleted records a successful Execute and its duration, under
// the task's kind (its command verb, e.g. "compute_primes") rather than
// its full argument-bearing description, to keep label cardinality
// bounded.
func (c *Collector) ObserveCompleted(kind string, d time.Duration) {
	c.tasksCompleted.Inc()
	c.taskDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// ObserveFailed records an Execute that returned an error or panicked.
func (c *Collector) ObserveFailed(kind string) {
	c.tasksFailed.Inc()
}

// ObserveExpansion records the controller growing the roster.
func (c *Collector) ObserveExpansion() {
	c.expansions.Inc()
}

// SetWorkerCounts updates the roster occupancy gauges.
func (c *Collector) SetWorkerCounts(active, running, waiting int) {
	c.workersActive.Set(float64(active))
	c.workersRunning.Set(float64(running))
	c.workersWaiting.Set(float64(waiting))
}

// StartServer starts the Prometheus metrics HTTP server on the given
// port, serving c's registry.
func (c *Collector) StartServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
	addr := fmt.Sprintf(":%d", port)
	return http.ListenAndServe(addr, mux)
}
