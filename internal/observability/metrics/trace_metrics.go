package metrics

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TraceMetrics captures supply-chain lifecycle signals scraped from /metrics.
type TraceMetrics struct {
	statusTransitions *prometheus.CounterVec
	processingSteps   *prometheus.CounterVec
	qualityResults    *prometheus.CounterVec
	recalls           *prometheus.CounterVec
	cascadeErrors     *prometheus.CounterVec
	qrScans           prometheus.Counter
	bundlesPublished  prometheus.Counter
	lockWait          prometheus.Observer
}

var (
	traceMetricsOnce sync.Once
	traceMetrics     *TraceMetrics
)

// Trace returns the singleton metrics registered on the default registerer.
func Trace(cfg Config) *TraceMetrics {
	traceMetricsOnce.Do(func() {
		traceMetrics = newTraceMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return traceMetrics
}

// NewTraceMetrics builds metrics on a dedicated registerer, for tests.
func NewTraceMetrics(registerer prometheus.Registerer, cfg Config) *TraceMetrics {
	return newTraceMetrics(registerer, cfg)
}

func newTraceMetrics(registerer prometheus.Registerer, cfg Config) *TraceMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "ayurtrace"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	m := &TraceMetrics{
		statusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "ayurtrace_batch_status_transitions_total",
			Help:        "Batch status transitions by source and target status.",
			ConstLabels: constLabels,
		}, []string{"from", "to"}),
		processingSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "ayurtrace_processing_steps_total",
			Help:        "Processing steps appended to batches by step type.",
			ConstLabels: constLabels,
		}, []string{"step_type"}),
		qualityResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "ayurtrace_quality_results_total",
			Help:        "Validated quality test outcomes.",
			ConstLabels: constLabels,
		}, []string{"test_type", "result", "critical"}),
		recalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "ayurtrace_recalls_total",
			Help:        "Batch recalls by severity.",
			ConstLabels: constLabels,
		}, []string{"severity"}),
		cascadeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "ayurtrace_recall_cascade_errors_total",
			Help:        "Recall cascades interrupted by stage.",
			ConstLabels: constLabels,
		}, []string{"stage"}),
		qrScans: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "ayurtrace_qr_scans_total",
			Help:        "Consumer QR code scans.",
			ConstLabels: constLabels,
		}),
		bundlesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "ayurtrace_provenance_bundles_published_total",
			Help:        "Provenance bundles rendered and uploaded.",
			ConstLabels: constLabels,
		}),
	}
	lockWait := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "ayurtrace_batch_lock_wait_seconds",
		Help:        "Time spent waiting for the per-batch mutation lock.",
		ConstLabels: constLabels,
		Buckets:     []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})
	m.lockWait = lockWait

	registerer.MustRegister(
		m.statusTransitions,
		m.processingSteps,
		m.qualityResults,
		m.recalls,
		m.cascadeErrors,
		m.qrScans,
		m.bundlesPublished,
		lockWait,
	)
	return m
}

func (m *TraceMetrics) IncStatusTransition(from, to string) {
	if m == nil {
		return
	}
	m.statusTransitions.WithLabelValues(from, to).Inc()
}

func (m *TraceMetrics) IncProcessingStep(stepType string) {
	if m == nil {
		return
	}
	m.processingSteps.WithLabelValues(stepType).Inc()
}

func (m *TraceMetrics) IncQualityResult(testType, result string, critical bool) {
	if m == nil {
		return
	}
	m.qualityResults.WithLabelValues(testType, result, strconv.FormatBool(critical)).Inc()
}

func (m *TraceMetrics) IncRecall(severity string) {
	if m == nil {
		return
	}
	m.recalls.WithLabelValues(severity).Inc()
}

func (m *TraceMetrics) IncRecallCascadeError(stage string) {
	if m == nil {
		return
	}
	m.cascadeErrors.WithLabelValues(stage).Inc()
}

func (m *TraceMetrics) IncQRScan() {
	if m == nil {
		return
	}
	m.qrScans.Inc()
}

func (m *TraceMetrics) IncBundlePublished() {
	if m == nil {
		return
	}
	m.bundlesPublished.Inc()
}

// ObserveLockWait records how long a mutation waited for its batch lock.
func (m *TraceMetrics) ObserveLockWait(d time.Duration) {
	if m == nil {
		return
	}
	if d < 0 {
		d = 0
	}
	m.lockWait.Observe(d.Seconds())
}
