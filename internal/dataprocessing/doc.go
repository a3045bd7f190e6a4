// Package dataprocessing reads shipment exports into shipment records.
//
// Two input formats are supported: CSV text and Excel workbooks. Both are
// expected to carry a header row naming the columns POL, POD, ETS, ETA, ATA,
// Shipment Type, Movement and Volume in cbm. Header matching ignores case
// and surrounding whitespace, a leading byte order mark is dropped, and a few
// common aliases (ETD, Port of Loading, Volume) are accepted. Column order is
// free and unknown columns are ignored.
//
// # Usage
//
//	records, err := dataprocessing.ParseFile("shipments.xlsx")
//	if err != nil {
//	    return err
//	}
//	report, err := shipment.NewAnalyzer(logger).Analyze(ctx, records, shipment.Options{})
//
// A Parser carries a logger and an optional record limit:
//
//	p := dataprocessing.NewParser(logger, dataprocessing.WithMaxRecords(100000))
//	records, err := p.Parse(header.Filename, file)
//
// # Dates
//
// Dates are day-first (DD/MM/YYYY; single-digit day and month are accepted).
// ISO dates are also read. Workbook cells holding an Excel date serial are
// converted. An empty date cell yields the zero time, which the analyzer
// treats as absent.
//
// # Errors
//
// A header without a required column fails with ErrMissingColumn. A cell that
// cannot be converted fails with a *ParseError naming the row (1-based, header
// included) and the column. Parsing stops at the first bad cell; record-level
// validation of the parsed values belongs to the shipment package.
package dataprocessing
