// Package exporter writes analysis reports as CSV files and Excel workbooks.
//
// A report is first flattened into Tables: a two-column summary of the
// scalar metrics, followed by the lane, opportunity, container sizing,
// shipment type, movement, monthly trend and transit tables.
//
// CSVWriter: Core CSV writing with header, append and UTF-8 BOM options.
//
// ReportExporter: Writes one CSV file per table into a directory, or the
// whole report as one workbook file.
//
// WriteWorkbook: Streams the workbook, one sheet per table, to any writer.
//
// Example usage:
//
//	exp := exporter.NewReportExporter("reports", logger)
//	files, err := exp.ExportCSV(report, "2024-w05")
//
// Undefined metrics (a percentage of zero volume, transit statistics with no
// transit data) are written as empty cells, never as NaN.
package exporter
