// Package app wires the consolidation analytics HTTP service together and
// manages its lifecycle.
//
// # Initialization Flow
//
//	1. The caller loads configuration and creates the logger
//	2. OpenTelemetry providers and the analysis instruments are created
//	3. AnalysisService and HealthService are constructed
//	4. The chi router is assembled with middleware and handlers
//	5. The HTTP server is configured from ServerConfig
//
// # Routes
//
//	GET  /api/health
//	GET  /metrics                    (when metrics are enabled)
//	POST /api/v1/analysis            JSON records
//	POST /api/v1/analysis/upload     multipart CSV or XLSX
//	POST /api/v1/analysis/export     multipart upload, XLSX response
//
// # Usage
//
//	application, err := app.NewApplication(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
//
// Run returns after SIGINT, SIGTERM or cancellation of ctx, once in-flight
// requests have drained and telemetry has been flushed. The package never
// calls os.Exit.
package app
