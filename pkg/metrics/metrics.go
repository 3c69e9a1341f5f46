// Package metrics defines the Prometheus collectors recorded by a pipeline
// run and an HTTP server for scraping them while the run is in progress.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Record kinds for StageRecords.
const (
	KindIn  = "in"
	KindOut = "out"
)

// Metrics holds the pipeline's collectors.
type Metrics struct {
	StageDuration  *prometheus.HistogramVec
	StageRecords   *prometheus.GaugeVec
	RunsTotal      *prometheus.CounterVec
	VocabularySize prometheus.Gauge
	MatrixNonZero  prometheus.Gauge
	ExportTotal    *prometheus.CounterVec
	ExportDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg. Passing
// prometheus.DefaultRegisterer exposes them through the default gatherer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pipeline_stage_duration_seconds",
				Help:    "Wall time spent in each pipeline stage.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
			},
			[]string{"stage"},
		),
		StageRecords: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pipeline_stage_records",
				Help: "Records entering (kind=in) and leaving (kind=out) each stage in the last run.",
			},
			[]string{"stage", "kind"},
		),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_runs_total",
				Help: "Pipeline runs by outcome (ok or the failing error kind).",
			},
			[]string{"status"},
		),
		VocabularySize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pipeline_vocabulary_size",
				Help: "Number of terms retained by vocabulary selection in the last run.",
			},
		),
		MatrixNonZero: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pipeline_matrix_nonzero",
				Help: "Stored cells of the document-term matrix in the last run.",
			},
		),
		ExportTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_export_total",
				Help: "Sink exports by sink and status.",
			},
			[]string{"sink", "status"},
		),
		ExportDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pipeline_export_duration_seconds",
				Help:    "Time to export one run to a sink, retries included.",
				Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 2.5, 10, 30},
			},
			[]string{"sink"},
		),
	}

	reg.MustRegister(
		m.StageDuration,
		m.StageRecords,
		m.RunsTotal,
		m.VocabularySize,
		m.MatrixNonZero,
		m.ExportTotal,
		m.ExportDuration,
	)

	return m
}

// ObserveStage records one stage's duration and record counts.
func (m *Metrics) ObserveStage(stage string, elapsed time.Duration, in, out int) {
	m.StageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
	m.StageRecords.WithLabelValues(stage, KindIn).Set(float64(in))
	m.StageRecords.WithLabelValues(stage, KindOut).Set(float64(out))
}

// ObserveExport records one sink export.
func (m *Metrics) ObserveExport(sink string, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ExportTotal.WithLabelValues(sink, status).Inc()
	m.ExportDuration.WithLabelValues(sink).Observe(elapsed.Seconds())
}
