package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"consolidator/internal/config"
	"consolidator/internal/shipment"
)

// Table is one output table of a report. Cells hold string, int, float64,
// bool, time.Time, shipment.NullFloat or shipment.NullInt values.
type Table struct {
	// Name is the file stem of the CSV export.
	Name string
	// Sheet is the worksheet title in the workbook export.
	Sheet   string
	Headers []string
	Rows    [][]interface{}
}

// Tables flattens a report into its output tables, summary first.
func Tables(r *shipment.Report) []Table {
	return []Table{
		summaryTable(r),
		laneSummaryTable(r.Lanes.Summaries),
		opportunityTable("consolidation_opportunities", "Consolidation", r.Lanes.Consolidation),
		opportunityTable("coload_opportunities", "Co-load", r.Lanes.CoLoad),
		containerSizingTable(r.Lanes.ContainerSizing),
		shipmentTypeTable(r.Lanes.ByShipmentType),
		movementTable(r.Movements.Distribution),
		monthlyTrendTable(r.Movements.MonthlyTrend),
		transitRoutesTable(r.Transit.Routes),
		transitDistributionTable(r.Transit.Distribution),
	}
}

func summaryTable(r *shipment.Report) Table {
	lanes, sizing := r.Lanes.Metrics, r.Lanes.SizingMetrics
	mv, tr := r.Movements.Metrics, r.Transit.Metrics

	return Table{
		Name:    "summary",
		Sheet:   "Summary",
		Headers: []string{"metric", "value"},
		Rows: [][]interface{}{
			{"generated_at", r.GeneratedAt},
			{"granularity", string(r.Granularity)},
			{"origins", strings.Join(r.Filter.Origins, " ")},
			{"destinations", strings.Join(r.Filter.Destinations, " ")},
			{"input_records", r.InputRecords},
			{"analyzed_records", r.AnalyzedRecords},
			{"consolidation_lanes", lanes.ConsolidationLanes},
			{"coload_lanes", lanes.CoLoadLanes},
			{"volume_impact_cbm", lanes.VolumeImpactCBM},
			{"lcl_total_volume_cbm", sizing.TotalVolumeCBM},
			{"potential_20ft", sizing.Potential20ft},
			{"potential_40ft", sizing.Potential40ft},
			{"movement_total_volume_cbm", mv.TotalVolumeCBM},
			{"gateway_pct", mv.GatewayPct},
			{"cfs_pct", mv.CFSPct},
			{"ambiguous_volume_cbm", mv.AmbiguousVolumeCBM},
			{"unclassified_volume_cbm", mv.UnclassifiedVolumeCBM},
			{"unlabeled_records", mv.UnlabeledRecords},
			{"transit_mean_days", tr.Mean},
			{"transit_min_days", tr.Min},
			{"transit_max_days", tr.Max},
			{"transit_shipments", tr.Shipments},
			{"negative_transit_records", tr.NegativeRecords},
			{"undefined_transit_records", tr.UndefinedRecords},
		},
	}
}

func laneSummaryTable(rows []shipment.LaneSummary) Table {
	t := Table{
		Name:    "lane_summary",
		Sheet:   "Lane Summary",
		Headers: []string{"pol", "pod", "shipment_type", "avg_weekly_volume", "weeks_with_shipments"},
	}
	for _, s := range rows {
		t.Rows = append(t.Rows, []interface{}{s.POL, s.POD, s.ShipmentType, s.AvgWeeklyVolume, s.WeeksWithShipments})
	}
	return t
}

func opportunityTable(name, sheet string, rows []shipment.OpportunityRecord) Table {
	t := Table{
		Name:    name,
		Sheet:   sheet,
		Headers: []string{"pol", "pod", "shipment_type", "avg_weekly_volume", "weeks_with_shipments", "opportunity"},
	}
	for _, o := range rows {
		t.Rows = append(t.Rows, []interface{}{o.POL, o.POD, o.ShipmentType, o.AvgWeeklyVolume, o.WeeksWithShipments, o.Opportunity})
	}
	return t
}

func containerSizingTable(rows []shipment.ContainerSizing) Table {
	t := Table{
		Name:    "container_sizing",
		Sheet:   "Container Sizing",
		Headers: []string{"pol", "pod", "period", "volume_cbm", "opportunity"},
	}
	for _, c := range rows {
		t.Rows = append(t.Rows, []interface{}{c.POL, c.POD, c.PeriodLabel, c.VolumeCBM, c.Opportunity})
	}
	return t
}

func shipmentTypeTable(rows []shipment.TypeVolume) Table {
	t := Table{
		Name:    "shipment_type_volume",
		Sheet:   "Shipment Types",
		Headers: []string{"shipment_type", "volume_cbm", "records"},
	}
	for _, v := range rows {
		t.Rows = append(t.Rows, []interface{}{v.ShipmentType, v.VolumeCBM, v.Records})
	}
	return t
}

func movementTable(rows []shipment.MovementVolume) Table {
	t := Table{
		Name:    "movement_distribution",
		Sheet:   "Movements",
		Headers: []string{"movement", "volume_cbm", "records", "gateway", "cfs"},
	}
	for _, m := range rows {
		t.Rows = append(t.Rows, []interface{}{m.Movement, m.VolumeCBM, m.Records, m.Gateway, m.CFS})
	}
	return t
}

func monthlyTrendTable(rows []shipment.MonthlyVolume) Table {
	t := Table{
		Name:    "monthly_trend",
		Sheet:   "Monthly Trend",
		Headers: []string{"month", "volume_cbm", "records"},
	}
	for _, m := range rows {
		t.Rows = append(t.Rows, []interface{}{m.Month.String(), m.VolumeCBM, m.Records})
	}
	return t
}

func transitRoutesTable(rows []shipment.RouteTransit) Table {
	t := Table{
		Name:    "transit_routes",
		Sheet:   "Transit Routes",
		Headers: []string{"pol", "pod", "mean_days", "min_days", "max_days", "shipments"},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []interface{}{r.POL, r.POD, r.Mean, r.Min, r.Max, r.Shipments})
	}
	return t
}

// transitDistributionTable emits one row per record duration.
func transitDistributionTable(rows []shipment.RouteDistribution) Table {
	t := Table{
		Name:    "transit_distribution",
		Sheet:   "Transit Distribution",
		Headers: []string{"pol", "pod", "transit_days"},
	}
	for _, d := range rows {
		for _, days := range d.TransitDays {
			t.Rows = append(t.Rows, []interface{}{d.POL, d.POD, days})
		}
	}
	return t
}

// ReportExporter writes reports as CSV files and workbooks
type ReportExporter struct {
	csvWriter *CSVWriter
	logger    *slog.Logger
}

// NewReportExporter creates an exporter writing under baseDir
func NewReportExporter(baseDir string, logger *slog.Logger) *ReportExporter {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "report_exporter"))
	return &ReportExporter{
		csvWriter: NewCSVWriter(baseDir, logger),
		logger:    logger,
	}
}

// ExportCSV writes one BOM-prefixed CSV file per table into dir, which is
// resolved against the exporter's base directory. It returns the written
// file names in table order.
func (e *ReportExporter) ExportCSV(report *shipment.Report, dir string) ([]string, error) {
	if report == nil {
		return nil, fmt.Errorf("nil report")
	}

	tables := Tables(report)
	files := make([]string, 0, len(tables))
	for _, t := range tables {
		records := make([][]string, len(t.Rows))
		for i, row := range t.Rows {
			cells := make([]string, len(row))
			for j, v := range row {
				cells[j] = formatCell(v)
			}
			records[i] = cells
		}

		name := t.Name + config.CSVExtension
		if err := e.csvWriter.WriteSimpleCSV(filepath.Join(dir, name), t.Headers, records); err != nil {
			return files, fmt.Errorf("failed to write %s: %w", name, err)
		}
		files = append(files, name)
	}

	e.logger.Info("Report exported",
		slog.String("dir", e.csvWriter.resolvePath(dir)),
		slog.Int("files", len(files)))
	return files, nil
}

// ExportWorkbook writes the report workbook to path, resolved against the
// exporter's base directory.
func (e *ReportExporter) ExportWorkbook(report *shipment.Report, path string) error {
	fullPath := e.csvWriter.resolvePath(path)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create workbook: %w", err)
	}
	if err := WriteWorkbook(report, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close workbook: %w", err)
	}

	e.logger.Info("Workbook exported", slog.String("path", fullPath))
	return nil
}
