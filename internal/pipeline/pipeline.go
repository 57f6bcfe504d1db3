package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-impact-analysis/internal/analysis"
	"github.com/couchcryptid/storm-impact-analysis/internal/cpi"
	"github.com/couchcryptid/storm-impact-analysis/internal/domain"
	"github.com/couchcryptid/storm-impact-analysis/internal/observability"
)

// RecordSource supplies the raw storm event records for one analysis run.
type RecordSource interface {
	Records(ctx context.Context) ([]domain.RawRecord, error)
}

// CPISource supplies the year → consumer price index table.
type CPISource interface {
	Table(ctx context.Context) (cpi.Table, error)
}

// ReportPublisher hands a finished report to downstream consumers.
type ReportPublisher interface {
	PublishReport(ctx context.Context, report *analysis.Report) error
}

// Pipeline orchestrates one load-adjust-aggregate pass and keeps the finished
// report resident for the HTTP adapter.
type Pipeline struct {
	source    RecordSource
	cpiSource CPISource
	publisher ReportPublisher // nil when publishing is disabled
	logger    *slog.Logger
	metrics   *observability.Metrics
	workers   int

	report atomic.Pointer[analysis.Report]
}

// New creates a Pipeline with the given stages and observability.
func New(source RecordSource, cpiSource CPISource, publisher ReportPublisher, logger *slog.Logger, metrics *observability.Metrics, workers int) *Pipeline {
	return &Pipeline{
		source:    source,
		cpiSource: cpiSource,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		workers:   workers,
	}
}

// CheckReadiness returns nil once a finished report is available to serve,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if p.report.Load() == nil {
		return errors.New("analysis has not completed yet")
	}
	return nil
}

// Report returns the most recent report, or nil before the first run
// completes.
func (p *Pipeline) Report() *analysis.Report {
	return p.report.Load()
}

// Run executes one complete analysis pass: load, normalize, correct known
// outliers, adjust for inflation, aggregate, and optionally publish. The
// report stays resident after Run returns.
func (p *Pipeline) Run(ctx context.Context) error {
	start := time.Now()
	p.metrics.AnalysisRuns.Inc()

	report, err := p.analyze(ctx)
	if err != nil {
		p.metrics.AnalysisFailures.Inc()
		return err
	}

	p.report.Store(report)
	p.metrics.PipelineReady.Set(1)
	p.metrics.AnalysisDuration.Observe(time.Since(start).Seconds())

	p.logger.Info("analysis complete",
		"records", report.RecordCount,
		"event_types", report.EventTypeCount,
		"reference_year", report.ReferenceYear,
		"corrected_records", report.CorrectedRecords,
		"duration", time.Since(start),
	)

	if p.publisher != nil {
		if err := p.publisher.PublishReport(ctx, report); err != nil {
			return fmt.Errorf("publish report: %w", err)
		}
		p.metrics.ReportsPublished.Inc()
		p.logger.Info("report published", "reference_year", report.ReferenceYear)
	}

	return nil
}

// analyze runs the load and computation stages. The context is consulted
// between stages; the in-memory stages themselves are uninterruptible.
func (p *Pipeline) analyze(ctx context.Context) (*analysis.Report, error) {
	records, err := p.source.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("no records in storm events file")
	}
	p.metrics.RecordsLoaded.Set(float64(len(records)))
	p.logger.Info("records loaded", "count", len(records))

	table, err := p.cpiSource.Table(ctx)
	if err != nil {
		return nil, fmt.Errorf("load cpi table: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	normalized := domain.NormalizeAll(records)
	corrected := domain.CorrectKnownOutliers(normalized)
	p.metrics.OutlierCorrections.Set(float64(corrected))
	if corrected > 0 {
		p.logger.Info("known outliers corrected", "count", corrected)
	}

	firstYear, lastYear := domain.YearSpan(records)
	if err := table.Covers(firstYear, lastYear); err != nil {
		return nil, fmt.Errorf("cpi coverage for %d-%d: %w", firstYear, lastYear, err)
	}

	adjuster, err := domain.NewAdjuster(table, lastYear)
	if err != nil {
		return nil, err
	}
	p.metrics.ReferenceYear.Set(float64(lastYear))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	adjusted, err := adjuster.AdjustAll(normalized)
	if err != nil {
		return nil, fmt.Errorf("inflation adjustment: %w", err)
	}

	freq := analysis.BuildFrequency(records)
	report := analysis.BuildReport(adjusted, freq, lastYear, corrected, p.workers)
	p.metrics.EventTypes.Set(float64(report.EventTypeCount))

	return report, nil
}
