// Package metrics provides Prometheus metrics for epiclock scoring runs.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcomes used as the "outcome" label.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

const modelLabel = "model"

// Manager owns the metrics of one process. Record methods are safe on a nil
// or disabled Manager and do nothing there.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	registry         *prometheus.Registry

	readingsTotal  prometheus.Counter
	valuesMasked   prometheus.Counter
	probesMatched  *prometheus.CounterVec
	tableSize      *prometheus.GaugeVec
	reportedAge    *prometheus.GaugeVec
	scoringLatency prometheus.Histogram
	runs           *prometheus.CounterVec
	lastRunUnix    prometheus.Gauge

	// Cohort runs
	queueDepth    prometheus.Gauge
	activeWorkers prometheus.Gauge
	jobLatency    prometheus.Histogram
}

// NewManager creates a metrics manager on its own registry unless one is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "epiclock",
		subsystem:        "scoring",
		histogramBuckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		enabled:          true,
		customLabels:     make(map[string]string),
	}

	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.readingsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "readings_total",
		Help:        "Subject rows consumed by scoring passes",
		ConstLabels: m.customLabels,
	})

	m.valuesMasked = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "values_masked_total",
		Help:        "Subject values that were empty or unparseable and counted as zero",
		ConstLabels: m.customLabels,
	})

	m.probesMatched = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "probes_matched_total",
		Help:        "Readings whose probe carried a weight in the model",
		ConstLabels: m.customLabels,
	}, []string{modelLabel})

	m.tableSize = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "coefficients",
		Help:        "Number of probe weights in the model table, intercept excluded",
		ConstLabels: m.customLabels,
	}, []string{modelLabel})

	m.reportedAge = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "age_years",
		Help:        "Age reported by the model for the last subject",
		ConstLabels: m.customLabels,
	}, []string{modelLabel})

	m.scoringLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "pass_duration_seconds",
		Help:        "Duration of a full scoring pass",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	})

	m.runs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "runs_total",
		Help:        "Scoring runs by outcome",
		ConstLabels: m.customLabels,
	}, []string{"outcome"})

	m.lastRunUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "last_run_timestamp_seconds",
		Help:        "Unix time at which the last run finished",
		ConstLabels: m.customLabels,
	})

	m.queueDepth = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "queue",
		Name:        "depth",
		Help:        "Subject files waiting for a worker",
		ConstLabels: m.customLabels,
	})

	m.activeWorkers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "worker",
		Name:        "active",
		Help:        "Workers currently running",
		ConstLabels: m.customLabels,
	})

	m.jobLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "worker",
		Name:        "job_duration_seconds",
		Help:        "Time a worker spent on one subject file",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) active() bool {
	return m != nil && m.enabled
}

// RecordReadings adds n consumed subject rows.
func (m *Manager) RecordReadings(n int) {
	if !m.active() {
		return
	}
	m.readingsTotal.Add(float64(n))
}

// RecordMasked adds n values that fell back to zero.
func (m *Manager) RecordMasked(n int) {
	if !m.active() {
		return
	}
	m.valuesMasked.Add(float64(n))
}

// RecordMatched adds n matched probes for a model.
func (m *Manager) RecordMatched(model string, n int) {
	if !m.active() {
		return
	}
	m.probesMatched.WithLabelValues(model).Add(float64(n))
}

// SetTableSize records the number of probe weights of a model.
func (m *Manager) SetTableSize(model string, n int) {
	if !m.active() {
		return
	}
	m.tableSize.WithLabelValues(model).Set(float64(n))
}

// SetAge records the age a model reported.
func (m *Manager) SetAge(model string, age float32) {
	if !m.active() {
		return
	}
	m.reportedAge.WithLabelValues(model).Set(float64(age))
}

// ObservePass records the duration of a scoring pass.
func (m *Manager) ObservePass(d time.Duration) {
	if !m.active() {
		return
	}
	m.scoringLatency.Observe(d.Seconds())
}

// RecordRun counts a finished run with the given outcome.
func (m *Manager) RecordRun(outcome string, at time.Time) {
	if !m.active() {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.lastRunUnix.Set(float64(at.Unix()))
}

// SetQueueDepth records the number of queued subject files.
func (m *Manager) SetQueueDepth(n int) {
	if !m.active() {
		return
	}
	m.queueDepth.Set(float64(n))
}

// AddActiveWorkers adjusts the running worker count by delta.
func (m *Manager) AddActiveWorkers(delta int) {
	if !m.active() {
		return
	}
	m.activeWorkers.Add(float64(delta))
}

// ObserveJob records how long one subject file took.
func (m *Manager) ObserveJob(d time.Duration) {
	if !m.active() {
		return
	}
	m.jobLatency.Observe(d.Seconds())
}

// Registry returns the registry the manager's collectors live on.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes every collected metric to path in the Prometheus text
// format, in the layout expected by the node exporter textfile collector.
func (m *Manager) WriteTextfile(path string) error {
	if m == nil {
		return fmt.Errorf("%w: nil manager", ErrWriteFailed)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}
