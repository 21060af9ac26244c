package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/north-cloud/link-health/internal/metrics"
)

func TestNilMetricsAreNoops(t *testing.T) {
	t.Parallel()

	var m *metrics.Metrics

	// Should not panic
	m.RecordProbe("reachable", time.Second)
	m.RecordArchiveLookup(true)
	m.RecordCacheLookup("memory", false)
	m.SetQueueDepth(3)
	m.ObserveQueueWait(time.Millisecond)
	m.RecordFeedCheck("f1", "healthy", 9, 10)
	m.RecordRun(false, time.Second)
}

func TestRecorders(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())

	m.RecordProbe("reachable", 120*time.Millisecond)
	m.RecordProbe("reachable", 80*time.Millisecond)
	m.RecordProbe("dead_with_fallback", time.Second)
	m.RecordCacheLookup("memory", true)
	m.RecordCacheLookup("redis", false)
	m.RecordArchiveLookup(false)
	m.SetQueueDepth(4)
	m.RecordFeedCheck("f1", "warning", 7, 10)
	m.RecordFeedCheck("f2", "offline", 0, 0)
	m.RecordRun(true, 3*time.Second)

	assert.InDelta(t, 2, testutil.ToFloat64(m.ProbesTotal.WithLabelValues("reachable")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ProbesTotal.WithLabelValues("dead_with_fallback")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.CacheLookups.WithLabelValues("memory", "hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.CacheLookups.WithLabelValues("redis", "miss")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ArchiveLookups.WithLabelValues("missing")), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(m.QueueDepth), 0)
	assert.InDelta(t, 0.7, testutil.ToFloat64(m.FeedValidRatio.WithLabelValues("f1")), 1e-9)
	assert.InDelta(t, 0, testutil.ToFloat64(m.FeedValidRatio.WithLabelValues("f2")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Runs.WithLabelValues("partial_failure")), 0)
}

func TestNewTwiceOnSeparateRegistries(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		metrics.New(prometheus.NewRegistry())
		metrics.New(prometheus.NewRegistry())
	})
}
