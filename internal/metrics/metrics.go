package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/itinerum/tripbreaker-backend/internal/tripbreaker"
)

// Collector holds the service's Prometheus metrics. A nil *Collector is valid
// and records nothing.
type Collector struct {
	reg *prometheus.Registry

	EngineRuns     prometheus.Counter
	FixesInput     prometheus.Counter
	FixesAccepted  prometheus.Counter
	TripsAssembled prometheus.Counter
	TripsEmitted   prometheus.Counter
	EngineDuration prometheus.Histogram

	ExportTasks   *prometheus.CounterVec // status label: completed|failed
	ExportUsers   *prometheus.CounterVec // result label: processed|failed
	ActiveExports prometheus.Gauge
}

// NewCollector creates a collector on its own registry
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		EngineRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tripbreaker_runs_total",
			Help: "Total trip detection runs.",
		}),
		FixesInput: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tripbreaker_fixes_input_total",
			Help: "Total fixes handed to the engine.",
		}),
		FixesAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tripbreaker_fixes_accepted_total",
			Help: "Total fixes kept by the coordinate filter.",
		}),
		TripsAssembled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tripbreaker_trips_assembled_total",
			Help: "Total trips assembled before cold start trimming.",
		}),
		TripsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tripbreaker_trips_emitted_total",
			Help: "Total trips emitted.",
		}),
		EngineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tripbreaker_run_duration_seconds",
			Help:    "Duration of one trip detection run.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		ExportTasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripbreaker_export_tasks_total",
			Help: "Export tasks by final status.",
		}, []string{"status"}),
		ExportUsers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripbreaker_export_users_total",
			Help: "Users handled by exports.",
		}, []string{"result"}),
		ActiveExports: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tripbreaker_active_exports",
			Help: "Number of export tasks currently running.",
		}),
	}

	reg.MustRegister(
		c.EngineRuns, c.FixesInput, c.FixesAccepted,
		c.TripsAssembled, c.TripsEmitted, c.EngineDuration,
		c.ExportTasks, c.ExportUsers, c.ActiveExports,
	)

	return c
}

// ObserveRun records the counts and duration of one engine run
func (c *Collector) ObserveRun(stats tripbreaker.Stats, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.EngineRuns.Inc()
	c.FixesInput.Add(float64(stats.InputFixes))
	c.FixesAccepted.Add(float64(stats.AcceptedFixes))
	c.TripsAssembled.Add(float64(stats.AssembledTrips))
	c.TripsEmitted.Add(float64(stats.EmittedTrips))
	c.EngineDuration.Observe(elapsed.Seconds())
}

// ExportStarted marks an export as running
func (c *Collector) ExportStarted() {
	if c == nil {
		return
	}
	c.ActiveExports.Inc()
}

// ExportFinished records the final status of an export
func (c *Collector) ExportFinished(status string) {
	if c == nil {
		return
	}
	c.ActiveExports.Dec()
	c.ExportTasks.WithLabelValues(status).Inc()
}

// ExportUser records the outcome of one user within an export
func (c *Collector) ExportUser(failed bool) {
	if c == nil {
		return
	}
	result := "processed"
	if failed {
		result = "failed"
	}
	c.ExportUsers.WithLabelValues(result).Inc()
}

// Handler exposes the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }
