package shipment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Options are the per-request analysis parameters.
type Options struct {
	Filter      Filter      `json:"filter"`
	Granularity Granularity `json:"granularity"`
}

// Report is the complete set of aggregate tables for one request.
type Report struct {
	GeneratedAt     time.Time        `json:"generated_at"`
	Granularity     Granularity      `json:"granularity"`
	Filter          Filter           `json:"filter"`
	InputRecords    int              `json:"input_records"`
	AnalyzedRecords int              `json:"analyzed_records"`
	Lanes           LaneAnalysis     `json:"lanes"`
	Movements       MovementAnalysis `json:"movements"`
	Transit         TransitAnalysis  `json:"transit"`
}

// Analyzer runs dataset preparation and the three analyzers for a request.
type Analyzer struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewAnalyzer creates an analyzer. A nil logger uses slog.Default().
func NewAnalyzer(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		logger: logger.With(slog.String("component", "shipment_analyzer")),
		now:    time.Now,
	}
}

// Analyze filters and prepares records, then runs the lane, movement and
// transit analyzers concurrently over the prepared dataset. Either every
// table is produced or an error is returned.
func (a *Analyzer) Analyze(ctx context.Context, records []ShipmentRecord, opts Options) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	granularity := opts.Granularity
	if granularity == "" {
		granularity = GranularityWeek
	}

	filtered := opts.Filter.Apply(records)
	a.logger.DebugContext(ctx, "filtered shipment records",
		slog.Int("input_records", len(records)),
		slog.Int("filtered_records", len(filtered)),
		slog.Any("origins", opts.Filter.Origins),
		slog.Any("destinations", opts.Filter.Destinations))

	ds, err := Prepare(filtered, granularity)
	if err != nil {
		a.logger.WarnContext(ctx, "dataset preparation failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("prepare dataset: %w", err)
	}

	report := &Report{
		GeneratedAt:     a.now().UTC(),
		Granularity:     granularity,
		Filter:          opts.Filter,
		InputRecords:    len(records),
		AnalyzedRecords: ds.Len(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		report.Lanes = AnalyzeLanes(ds)
		return gctx.Err()
	})
	g.Go(func() error {
		report.Movements = AnalyzeMovements(ds)
		return gctx.Err()
	})
	g.Go(func() error {
		report.Transit = AnalyzeTransit(ds)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analyze shipments: %w", err)
	}

	a.logger.InfoContext(ctx, "shipment analysis completed",
		slog.Int("records", ds.Len()),
		slog.String("granularity", string(granularity)),
		slog.Int("consolidation_lanes", report.Lanes.Metrics.ConsolidationLanes),
		slog.Int("coload_lanes", report.Lanes.Metrics.CoLoadLanes),
		slog.Int("negative_transit_records", report.Transit.Metrics.NegativeRecords),
		slog.Duration("duration", time.Since(start)))

	return report, nil
}
