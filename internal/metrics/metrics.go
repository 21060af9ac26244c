// Package metrics exposes Prometheus instruments for the validation pipeline.
// All recording methods are safe on a nil *Metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "linkhealth"

// Metrics holds the pipeline instruments.
type Metrics struct {
	// Probe metrics
	ProbesTotal   *prometheus.CounterVec
	ProbeDuration prometheus.Histogram

	// Archive metrics
	ArchiveLookups *prometheus.CounterVec

	// Cache metrics
	CacheLookups *prometheus.CounterVec

	// Queue metrics
	QueueDepth prometheus.Gauge
	QueueWait  prometheus.Histogram

	// Feed metrics
	FeedChecks     *prometheus.CounterVec
	FeedValidRatio *prometheus.GaugeVec

	// Run metrics
	Runs        *prometheus.CounterVec
	RunDuration prometheus.Histogram
}

// New registers every instrument with reg. Pass prometheus.NewRegistry() in
// tests to avoid duplicate registration panics on the default registry.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	m := &Metrics{}
	initProbeMetrics(f, m)
	initCacheMetrics(f, m)
	initQueueMetrics(f, m)
	initFeedMetrics(f, m)
	return m
}

func initProbeMetrics(f promauto.Factory, m *Metrics) {
	m.ProbesTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "probes_total",
		Help:      "Link probes executed, by outcome",
	}, []string{"outcome"})

	m.ProbeDuration = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "probe_duration_seconds",
		Help:      "Wall time of a single link probe",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	m.ArchiveLookups = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "archive_lookups_total",
		Help:      "Archive snapshot lookups, by result",
	}, []string{"result"})
}

func initCacheMetrics(f promauto.Factory, m *Metrics) {
	m.CacheLookups = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Validation cache lookups, by tier and result",
	}, []string{"tier", "result"})
}

func initQueueMetrics(f promauto.Factory, m *Metrics) {
	m.QueueDepth = f.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Probe tasks waiting for the worker",
	})

	m.QueueWait = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "queue_wait_seconds",
		Help:      "Time a probe task waited before execution",
		Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 120},
	})
}

func initFeedMetrics(f promauto.Factory, m *Metrics) {
	m.FeedChecks = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_checks_total",
		Help:      "Feed health checks, by resulting status",
	}, []string{"status"})

	m.FeedValidRatio = f.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "feed_valid_ratio",
		Help:      "Share of valid items in the last check of a feed",
	}, []string{"feed_id"})

	m.Runs = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "aggregation_runs_total",
		Help:      "Aggregation runs, by result",
	}, []string{"result"})

	m.RunDuration = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "aggregation_run_duration_seconds",
		Help:      "Wall time of a full aggregation run",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})
}

// RecordProbe counts one executed probe.
func (m *Metrics) RecordProbe(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.ProbesTotal.WithLabelValues(outcome).Inc()
	m.ProbeDuration.Observe(d.Seconds())
}

// RecordArchiveLookup counts a snapshot lookup as "found" or "missing".
func (m *Metrics) RecordArchiveLookup(found bool) {
	if m == nil {
		return
	}
	result := "missing"
	if found {
		result = "found"
	}
	m.ArchiveLookups.WithLabelValues(result).Inc()
}

// RecordCacheLookup counts a lookup against tier ("memory" or "redis").
func (m *Metrics) RecordCacheLookup(tier string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(tier, result).Inc()
}

// SetQueueDepth reports the number of waiting tasks.
func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}

// ObserveQueueWait records how long a task sat in the queue.
func (m *Metrics) ObserveQueueWait(d time.Duration) {
	if m == nil {
		return
	}
	m.QueueWait.Observe(d.Seconds())
}

// RecordFeedCheck counts a feed check and its valid ratio.
func (m *Metrics) RecordFeedCheck(feedID, status string, valid, total int) {
	if m == nil {
		return
	}
	m.FeedChecks.WithLabelValues(status).Inc()
	ratio := 0.0
	if total > 0 {
		ratio = float64(valid) / float64(total)
	}
	m.FeedValidRatio.WithLabelValues(feedID).Set(ratio)
}

// RecordRun counts a finished aggregation run.
func (m *Metrics) RecordRun(failed bool, d time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if failed {
		result = "partial_failure"
	}
	m.Runs.WithLabelValues(result).Inc()
	m.RunDuration.Observe(d.Seconds())
}
