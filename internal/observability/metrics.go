package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// analysis pipeline.
type Metrics struct {
	RecordsLoaded      prometheus.Gauge
	EventTypes         prometheus.Gauge
	OutlierCorrections prometheus.Gauge
	ReferenceYear      prometheus.Gauge

	AnalysisRuns     prometheus.Counter
	AnalysisFailures prometheus.Counter
	AnalysisDuration prometheus.Histogram
	ReportsPublished prometheus.Counter
	PipelineReady    prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RecordsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "storm_impact",
			Name:      "records_loaded",
			Help:      "Records parsed from the storm events file in the most recent run.",
		}),
		EventTypes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "storm_impact",
			Name:      "event_types",
			Help:      "Distinct event-type labels discovered in the most recent run.",
		}),
		OutlierCorrections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "storm_impact",
			Name:      "outlier_corrections",
			Help:      "Known-outlier damage corrections applied in the most recent run.",
		}),
		ReferenceYear: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "storm_impact",
			Name:      "reference_year",
			Help:      "Calendar year damage figures are adjusted to.",
		}),
		AnalysisRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_impact",
			Name:      "analysis_runs_total",
			Help:      "Total analysis passes attempted.",
		}),
		AnalysisFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_impact",
			Name:      "analysis_failures_total",
			Help:      "Total analysis passes that ended in an error.",
		}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storm_impact",
			Name:      "analysis_duration_seconds",
			Help:      "Duration of a complete load-adjust-aggregate pass.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		ReportsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_impact",
			Name:      "reports_published_total",
			Help:      "Total reports handed to the Kafka publisher.",
		}),
		PipelineReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "storm_impact",
			Name:      "pipeline_ready",
			Help:      "1 when a report is available to serve, 0 before.",
		}),
	}

	prometheus.MustRegister(
		m.RecordsLoaded,
		m.EventTypes,
		m.OutlierCorrections,
		m.ReferenceYear,
		m.AnalysisRuns,
		m.AnalysisFailures,
		m.AnalysisDuration,
		m.ReportsPublished,
		m.PipelineReady,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RecordsLoaded:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "storm_impact", Name: "records_loaded"}),
		EventTypes:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "storm_impact", Name: "event_types"}),
		OutlierCorrections: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "storm_impact", Name: "outlier_corrections"}),
		ReferenceYear:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "storm_impact", Name: "reference_year"}),
		AnalysisRuns:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "storm_impact", Name: "analysis_runs_total"}),
		AnalysisFailures:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "storm_impact", Name: "analysis_failures_total"}),
		AnalysisDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "storm_impact", Name: "analysis_duration_seconds"}),
		ReportsPublished:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "storm_impact", Name: "reports_published_total"}),
		PipelineReady:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "storm_impact", Name: "pipeline_ready"}),
	}
}
