// Package metrics holds the Prometheus instruments for the syllabus pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Extraction outcomes
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Materialization results
const (
	ResultCreated   = "created"
	ResultDuplicate = "duplicate"
	ResultFailed    = "failed"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	extractions        *prometheus.CounterVec
	confidence         prometheus.Histogram
	extractionDuration prometheus.Histogram
	datesMaterialized  *prometheus.CounterVec
	queueDepth         prometheus.Gauge
}

// New creates the instruments and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		extractions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "syllabus_extractions_total",
				Help: "Syllabus extraction runs by outcome",
			},
			[]string{"status"},
		),
		confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "syllabus_extraction_confidence",
			Help:    "Confidence score of completed extractions",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		}),
		extractionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "syllabus_extraction_duration_seconds",
			Help:    "Wall time of a syllabus extraction run",
			Buckets: prometheus.DefBuckets,
		}),
		datesMaterialized: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "syllabus_dates_materialized_total",
				Help: "Important dates handled by materialization, by result",
			},
			[]string{"result"},
		),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "syllabus_queue_depth",
			Help: "Jobs waiting in the processing queue",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.extractions, m.confidence, m.extractionDuration, m.datesMaterialized, m.queueDepth)
	}
	return m
}

func (m *Metrics) ExtractionCompleted(confidence float64, took time.Duration) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(StatusCompleted).Inc()
	m.confidence.Observe(confidence)
	m.extractionDuration.Observe(took.Seconds())
}

func (m *Metrics) ExtractionFailed(took time.Duration) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(StatusFailed).Inc()
	m.extractionDuration.Observe(took.Seconds())
}

func (m *Metrics) DatesMaterialized(created, duplicates, failed int) {
	if m == nil {
		return
	}
	m.datesMaterialized.WithLabelValues(ResultCreated).Add(float64(created))
	m.datesMaterialized.WithLabelValues(ResultDuplicate).Add(float64(duplicates))
	m.datesMaterialized.WithLabelValues(ResultFailed).Add(float64(failed))
}

func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}
