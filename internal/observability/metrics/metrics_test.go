package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("endpoint", "/api/batches"),
		attribute.String("batch_id", "123"),
		attribute.String("test_type", "AFLATOXIN"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	for _, attr := range attrs {
		if attr.Key == "batch_id" {
			t.Fatalf("expected batch_id to be dropped")
		}
	}
}

func TestTraceMetricsCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewTraceMetrics(registry, Config{ServiceName: "ayurtrace", Environment: "test"})

	m.IncStatusTransition("COLLECTED", "IN_TRANSIT")
	m.IncStatusTransition("COLLECTED", "IN_TRANSIT")
	m.IncQualityResult("PESTICIDE_RESIDUE", "FAILED", true)
	m.IncRecall("CRITICAL")
	m.IncQRScan()
	m.ObserveLockWait(-time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.statusTransitions.WithLabelValues("COLLECTED", "IN_TRANSIT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.qualityResults.WithLabelValues("PESTICIDE_RESIDUE", "FAILED", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recalls.WithLabelValues("CRITICAL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.qrScans))
}

func TestNilTraceMetricsIsSafe(t *testing.T) {
	var m *TraceMetrics
	m.IncStatusTransition("A", "B")
	m.IncQRScan()
	m.ObserveLockWait(time.Millisecond)
}

func TestLockWaitHistogramClampsNegative(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewTraceMetrics(registry, Config{ServiceName: "ayurtrace", Environment: "test"})

	m.ObserveLockWait(-time.Second)
	m.ObserveLockWait(20 * time.Millisecond)

	h := gatherHistogram(t, registry, "ayurtrace_batch_lock_wait_seconds")
	assert.EqualValues(t, 2, h.GetSampleCount())
	assert.InDelta(t, 0.02, h.GetSampleSum(), 1e-9)
	require.NotEmpty(t, h.GetBucket())
	assert.EqualValues(t, 1, h.GetBucket()[0].GetCumulativeCount())
}

func gatherHistogram(t *testing.T, g prometheus.Gatherer, name string) *dto.Histogram {
	t.Helper()
	families, err := g.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name && len(f.GetMetric()) == 1 {
			return f.GetMetric()[0].GetHistogram()
		}
	}
	t.Fatalf("metric %s not gathered", name)
	return nil
}
