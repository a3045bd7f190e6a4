package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"consolidator/internal/config"
	"consolidator/internal/dataprocessing"
	apperrors "consolidator/internal/errors"
	"consolidator/internal/exporter"
	"consolidator/internal/infrastructure"
	"consolidator/internal/shipment"
)

// Sources reported on spans and metrics
const (
	SourceJSON = "json"
	SourceCSV  = "csv"
	SourceXLSX = "xlsx"
)

// AnalysisInput is one analysis request in domain terms.
type AnalysisInput struct {
	Records     []shipment.ShipmentRecord
	Filter      shipment.Filter
	Granularity shipment.Granularity
	// Source labels where the records came from. Empty means SourceJSON.
	Source string
}

// UploadParams are the analysis parameters sent alongside an uploaded file.
type UploadParams struct {
	Filter      shipment.Filter
	Granularity shipment.Granularity
}

// AnalysisService runs shipment analyses for the HTTP and CLI front ends.
type AnalysisService struct {
	analyzer    *shipment.Analyzer
	parser      *dataprocessing.Parser
	tracer      trace.Tracer
	metrics     *infrastructure.AnalysisMetrics
	granularity shipment.Granularity
	maxRecords  int
	timeout     time.Duration
	logger      *slog.Logger
}

// AnalysisOption configures an AnalysisService
type AnalysisOption func(*AnalysisService)

// WithTracer sets the tracer used for analysis spans.
func WithTracer(tracer trace.Tracer) AnalysisOption {
	return func(s *AnalysisService) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithMetrics sets the instruments analysis runs are recorded on.
func WithMetrics(metrics *infrastructure.AnalysisMetrics) AnalysisOption {
	return func(s *AnalysisService) {
		s.metrics = metrics
	}
}

// NewAnalysisService creates the analysis service. Without WithTracer spans
// go to the global tracer provider.
func NewAnalysisService(cfg config.AnalysisConfig, logger *slog.Logger, opts ...AnalysisOption) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("service", "analysis"))

	s := &AnalysisService{
		analyzer:    shipment.NewAnalyzer(logger),
		parser:      dataprocessing.NewParser(logger, dataprocessing.WithMaxRecords(cfg.MaxRecords)),
		tracer:      otel.Tracer(infrastructure.MeterName),
		granularity: cfg.Granularity(),
		maxRecords:  cfg.MaxRecords,
		timeout:     cfg.Timeout,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	logger.Info("AnalysisService initialized",
		slog.String("default_granularity", string(s.granularity)),
		slog.Int("max_records", s.maxRecords),
		slog.Duration("timeout", s.timeout))
	return s
}

// Analyze filters the records and runs the full analysis. An empty
// granularity uses the configured default.
func (s *AnalysisService) Analyze(ctx context.Context, in AnalysisInput) (*shipment.Report, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	source := in.Source
	if source == "" {
		source = SourceJSON
	}
	granularity := in.Granularity
	if granularity == "" {
		granularity = s.granularity
	}

	ctx, span := s.tracer.Start(ctx, "analysis.run",
		trace.WithAttributes(
			attribute.String("analysis.source", source),
			attribute.String("analysis.granularity", string(granularity)),
			attribute.Int("analysis.input_records", len(in.Records)),
			attribute.StringSlice("analysis.origins", in.Filter.Origins),
			attribute.StringSlice("analysis.destinations", in.Filter.Destinations),
		))
	defer span.End()

	logger := infrastructure.LoggerFromContext(ctx).With(slog.String("service", "analysis"))
	start := time.Now()

	if s.maxRecords > 0 && len(in.Records) > s.maxRecords {
		err := apperrors.NewAppValidationError(
			fmt.Sprintf("request has %d shipment records, limit is %d", len(in.Records), s.maxRecords),
			ErrTooManyInputs)
		s.finish(ctx, source, granularity, nil, err, time.Since(start))
		return nil, err
	}

	report, err := s.analyzer.Analyze(ctx, in.Records, shipment.Options{
		Filter:      in.Filter,
		Granularity: granularity,
	})
	duration := time.Since(start)
	s.finish(ctx, source, granularity, report, err, duration)
	if err != nil {
		logger.WarnContext(ctx, "analysis failed",
			slog.String("source", source),
			slog.Int("input_records", len(in.Records)),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("analyze shipments: %w", err)
	}

	span.SetAttributes(
		attribute.Int("analysis.analyzed_records", report.AnalyzedRecords),
		attribute.Int("analysis.consolidation_lanes", report.Lanes.Metrics.ConsolidationLanes),
		attribute.Int("analysis.coload_lanes", report.Lanes.Metrics.CoLoadLanes),
	)
	logger.InfoContext(ctx, "analysis completed",
		slog.String("source", source),
		slog.String("granularity", string(granularity)),
		slog.Int("input_records", report.InputRecords),
		slog.Int("analyzed_records", report.AnalyzedRecords),
		slog.Int("consolidation_lanes", report.Lanes.Metrics.ConsolidationLanes),
		slog.Int("coload_lanes", report.Lanes.Metrics.CoLoadLanes),
		slog.Float64("volume_impact_cbm", report.Lanes.Metrics.VolumeImpactCBM),
		slog.Duration("duration", duration))
	return report, nil
}

// AnalyzeUpload parses an uploaded CSV or XLSX file, chosen by the file name
// extension, and analyzes its records.
func (s *AnalysisService) AnalyzeUpload(ctx context.Context, filename string, r io.Reader, params UploadParams) (*shipment.Report, error) {
	ctx, span := s.tracer.Start(ctx, "analysis.parse",
		trace.WithAttributes(attribute.String("analysis.filename", filename)))
	records, err := s.parser.Parse(filename, r)
	if err != nil {
		err = classifyParseError(filename, err)
		infrastructure.RecordError(ctx, err)
		span.End()
		return nil, err
	}
	span.SetAttributes(attribute.Int("analysis.parsed_records", len(records)))
	span.End()

	return s.Analyze(ctx, AnalysisInput{
		Records:     records,
		Filter:      params.Filter,
		Granularity: params.Granularity,
		Source:      sourceFromFilename(filename),
	})
}

// WriteWorkbook streams report as an XLSX workbook.
func (s *AnalysisService) WriteWorkbook(ctx context.Context, report *shipment.Report, w io.Writer) error {
	if report == nil {
		return ErrNilReport
	}
	ctx, span := s.tracer.Start(ctx, "analysis.export")
	defer span.End()

	if err := exporter.WriteWorkbook(report, w); err != nil {
		infrastructure.RecordError(ctx, err)
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// finish records metrics and span status for one run
func (s *AnalysisService) finish(ctx context.Context, source string, g shipment.Granularity, report *shipment.Report, err error, duration time.Duration) {
	outcome := infrastructure.AnalysisOutcome{
		Source:      source,
		Granularity: string(g),
		Err:         err,
	}
	if report != nil {
		outcome.Records = report.AnalyzedRecords
		outcome.Consolidation = report.Lanes.Metrics.ConsolidationLanes
		outcome.CoLoad = report.Lanes.Metrics.CoLoadLanes
	}
	if err != nil {
		infrastructure.RecordError(ctx, err)
	}
	s.metrics.RecordAnalysis(ctx, outcome, duration)
}

func sourceFromFilename(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}
