// Package metrics exposes solve counters and timings in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a registry with the solve metrics. Each server or CLI
// process creates one.
type Collector struct {
	registry *prometheus.Registry

	solves      *prometheus.CounterVec
	evaluations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	activeJobs  prometheus.Gauge
}

// NewCollector registers the solve metrics on a fresh registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		solves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nagplug",
				Name:      "solves_total",
				Help:      "Total number of finished solves.",
			},
			[]string{"solver", "outcome"},
		),
		evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nagplug",
				Name:      "evaluations_total",
				Help:      "Total number of cost function evaluations seen by observers.",
			},
			[]string{"solver"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "nagplug",
				Name:      "solve_duration_seconds",
				Help:      "Wall time of a single solve.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~16s
			},
			[]string{"solver"},
		),
		activeJobs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "nagplug",
				Subsystem: "server",
				Name:      "active_jobs",
				Help:      "Jobs currently running.",
			},
		),
	}
	c.registry.MustRegister(
		c.solves,
		c.evaluations,
		c.duration,
		c.activeJobs,
		prometheus.NewGoCollector(),
	)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns an HTTP handler exposing the registered metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordSolve counts one finished solve.
func (c *Collector) RecordSolve(solver, outcome string, d time.Duration) {
	c.solves.WithLabelValues(solver, outcome).Inc()
	c.duration.WithLabelValues(solver).Observe(d.Seconds())
}

// AddEvaluations adds n cost function evaluations.
func (c *Collector) AddEvaluations(solver string, n int) {
	if n <= 0 {
		return
	}
	c.evaluations.WithLabelValues(solver).Add(float64(n))
}

// JobStarted and JobFinished track running server jobs.
func (c *Collector) JobStarted()  { c.activeJobs.Inc() }
func (c *Collector) JobFinished() { c.activeJobs.Dec() }
