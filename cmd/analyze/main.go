// Command analyze runs the consolidation analysis over a CSV or XLSX
// shipment export and writes the report tables as CSV files. When -in names a
// directory the most recently modified export in it is analyzed.
//
// Usage:
//
//	analyze -in shipments.xlsx -pol CNSHA,SGSIN -pod NLRTM -granularity Month -out reports -xlsx
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"consolidator/internal/config"
	"consolidator/internal/exporter"
	"consolidator/internal/files"
	"consolidator/internal/infrastructure"
	"consolidator/internal/services"
	"consolidator/internal/shipment"
)

// WorkbookName is the file written next to the CSV tables with -xlsx
const WorkbookName = "consolidation_report.xlsx"

type options struct {
	in           string
	origins      []string
	destinations []string
	granularity  shipment.Granularity
	outDir       string
	workbook     bool
	logLevel     string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		slog.Error("Analysis failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func parseFlags(args []string, output io.Writer) (*options, error) {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(output)

	in := fs.String("in", "", "shipment export to analyze (.csv or .xlsx), or a directory of exports")
	pol := fs.String("pol", "", "comma-separated origin ports to keep (default all)")
	pod := fs.String("pod", "", "comma-separated destination ports to keep (default all)")
	granularity := fs.String("granularity", "", "lane bucket: Week, Month, Quarter or Year (default from config)")
	outDir := fs.String("out", config.DefaultOutputDir, "output directory for CSV tables")
	workbook := fs.Bool("xlsx", false, "also write "+WorkbookName)
	logLevel := fs.String("log-level", "", "override log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *in == "" {
		fs.Usage()
		return nil, errors.New("-in is required")
	}

	opts := &options{
		in:           *in,
		origins:      splitList(*pol),
		destinations: splitList(*pod),
		outDir:       *outDir,
		workbook:     *workbook,
		logLevel:     *logLevel,
	}
	if *granularity != "" {
		g, err := shipment.ParseGranularity(*granularity)
		if err != nil {
			return nil, err
		}
		opts.granularity = g
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", slog.String("error", err.Error()))
		cfg = config.Default()
	}
	level := cfg.Logging.Level
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	logger := infrastructure.NewLogger(stderr, level, cfg.Logging.Format)

	logger.Info("Starting consolidation analysis",
		slog.String("input", opts.in),
		slog.Any("origins", opts.origins),
		slog.Any("destinations", opts.destinations),
		slog.String("output_dir", opts.outDir))

	input, err := files.NewDiscovery("").ResolveInput(opts.in)
	if err != nil {
		return err
	}
	validator := files.NewValidator(logger)
	if err := validator.ValidateFile(input.Path); err != nil {
		return err
	}
	if err := validator.ValidateOutputDirectory(opts.outDir); err != nil {
		return err
	}

	f, err := os.Open(input.Path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	logger.Info("Reading shipment export",
		slog.String("file", input.Path),
		slog.Int64("size", input.Size))

	svc := services.NewAnalysisService(cfg.Analysis, logger)
	report, err := svc.AnalyzeUpload(ctx, input.Name, f, services.UploadParams{
		Filter:      shipment.Filter{Origins: opts.origins, Destinations: opts.destinations},
		Granularity: opts.granularity,
	})
	if err != nil {
		return err
	}

	exp := exporter.NewReportExporter(opts.outDir, logger)
	written, err := exp.ExportCSV(report, ".")
	if err != nil {
		return fmt.Errorf("export tables: %w", err)
	}
	if opts.workbook {
		if err := exp.ExportWorkbook(report, WorkbookName); err != nil {
			return fmt.Errorf("export workbook: %w", err)
		}
		written = append(written, WorkbookName)
	}

	logSummary(logger, report)
	logger.Info("Analysis complete",
		slog.String("output_dir", opts.outDir),
		slog.Int("files", len(written)))
	return nil
}

// logSummary logs the headline metrics of report
func logSummary(logger *slog.Logger, report *shipment.Report) {
	attrs := []any{
		slog.String("granularity", string(report.Granularity)),
		slog.Int("input_records", report.InputRecords),
		slog.Int("analyzed_records", report.AnalyzedRecords),
		slog.Int("consolidation_lanes", report.Lanes.Metrics.ConsolidationLanes),
		slog.Int("coload_lanes", report.Lanes.Metrics.CoLoadLanes),
		slog.Float64("volume_impact_cbm", report.Lanes.Metrics.VolumeImpactCBM),
		slog.Int("potential_20ft", report.Lanes.SizingMetrics.Potential20ft),
		slog.Int("potential_40ft", report.Lanes.SizingMetrics.Potential40ft),
		slog.Int("transit_shipments", report.Transit.Metrics.Shipments),
	}
	if m := report.Movements.Metrics.GatewayPct; m.Valid {
		attrs = append(attrs, slog.Float64("gateway_pct", m.Value))
	}
	if m := report.Movements.Metrics.CFSPct; m.Valid {
		attrs = append(attrs, slog.Float64("cfs_pct", m.Value))
	}
	if m := report.Transit.Metrics.Mean; m.Valid {
		attrs = append(attrs, slog.Float64("transit_mean_days", m.Value))
	}
	logger.Info("Analysis summary", attrs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
