// Package services implements the business logic layer of the consolidation
// analytics service. It sits between the HTTP handlers (and the CLI) and the
// shipment analysis engine.
//
// # Available Services
//
//	- AnalysisService: parses uploads, runs analyses, streams workbooks
//	- HealthService: reports liveness and version
//
// # Observability
//
// Every analysis run opens an "analysis.run" span and records the
// analysis_runs_total, analysis_duration_seconds, analysis_records_total and
// analysis_opportunities_total instruments. Uploads add an "analysis.parse"
// span in front of the run.
//
// # Error Handling
//
// Ingestion failures are returned as *errors.AppError values so handlers can
// map them to problem responses:
//
//	- PARSING for unreadable files, missing columns, bad dates or volumes
//	- UNSUPPORTED for file types other than .csv and .xlsx
//	- VALIDATION for inputs over the configured record limit
//
// Dataset validation failures from the engine keep their
// *shipment.ValidationError type.
package services
