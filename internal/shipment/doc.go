// Package shipment implements the shipment analytics engine used to find
// consolidation and co-loading opportunities on ocean-freight lanes.
//
// # Pipeline
//
// A request runs in two phases:
//
//  1. Prepare validates the filtered records and derives the ISO week, the
//     calendar month, the aggregation bucket and the transit duration of
//     every record. The result is an immutable Dataset.
//  2. AnalyzeLanes, AnalyzeMovements and AnalyzeTransit read the Dataset
//     independently. Analyzer.Analyze runs them concurrently.
//
// # Thresholds
//
// The 18 CBM and 45 CBM thresholds are the practical capacities of a 20ft and
// a 40ft container. A "Carriers LCL" lane averaging at least 18 CBM per period
// is a consolidation candidate; an "LCL" lane averaging below it is a co-load
// candidate.
//
// # Known limitations
//
// Week buckets use the ISO week number without the ISO week-year. A dataset
// that spans a year boundary can therefore merge late-December and
// early-January shipments into one week, and week 1 of two different years
// into one bucket.
//
// Movement categories are substring matches on "Gateway" and "CFS". A label
// can match both or neither; such volume is reported in MovementMetrics rather
// than reassigned.
//
// Usage:
//
//	analyzer := shipment.NewAnalyzer(logger)
//	report, err := analyzer.Analyze(ctx, records, shipment.Options{
//	    Filter:      shipment.Filter{Origins: []string{"CNSHA"}},
//	    Granularity: shipment.GranularityWeek,
//	})
package shipment
