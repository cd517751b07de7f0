// Package metrics wraps the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "mma_currency"

// Record stages counted by SyncRecords.
const (
	StageFetchedRecent   = "fetched_recent"
	StageFetchedBackfill = "fetched_backfill"
	StageSaved           = "saved"
	StageFailed          = "failed"
)

// Collector holds the service registry and the rate sync collectors.
type Collector struct {
	registry *prometheus.Registry

	syncCycles          *prometheus.CounterVec
	syncRecords         *prometheus.CounterVec
	syncDuration        prometheus.Histogram
	consecutiveFailures prometheus.Gauge
	lastSuccess         prometheus.Gauge
}

// NewCollector creates a collector on its own registry, with the Go runtime
// and process collectors registered alongside.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	c := &Collector{registry: prometheus.NewRegistry()}

	c.syncCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "cycles_total",
			Help:      "Finished rate sync cycles by outcome",
		},
		[]string{"outcome"},
	)

	c.syncRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "records_total",
			Help:      "Rate records handled by the sync, by stage",
		},
		[]string{"stage"},
	)

	c.syncDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of a rate sync cycle",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	c.consecutiveFailures = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "consecutive_failures",
			Help:      "Cycles in a row that could not fetch the recent feed",
		},
	)

	c.lastSuccess = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last cycle that fetched the recent feed",
		},
	)

	c.registry.MustRegister(
		c.syncCycles,
		c.syncRecords,
		c.syncDuration,
		c.consecutiveFailures,
		c.lastSuccess,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// RecordSyncCycle records a finished cycle. failed marks a cycle that could not
// fetch the recent feed; any other outcome resets the failure streak.
func (c *Collector) RecordSyncCycle(outcome string, duration time.Duration, failed bool, finishedAt time.Time) {
	c.syncCycles.WithLabelValues(outcome).Inc()
	c.syncDuration.Observe(duration.Seconds())
	if failed {
		c.consecutiveFailures.Inc()
		return
	}
	c.consecutiveFailures.Set(0)
	c.lastSuccess.Set(float64(finishedAt.Unix()))
}

// RecordInterruptedSyncCycle records a cycle cut short by shutdown. It neither
// extends nor resets the failure streak.
func (c *Collector) RecordInterruptedSyncCycle(duration time.Duration) {
	c.syncCycles.WithLabelValues("cancelled").Inc()
	c.syncDuration.Observe(duration.Seconds())
}

// AddSyncRecords adds n to the record counter of stage.
func (c *Collector) AddSyncRecords(stage string, n int) {
	if n <= 0 {
		return
	}
	c.syncRecords.WithLabelValues(stage).Add(float64(n))
}
