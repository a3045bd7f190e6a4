// Package http implements the HTTP handlers of the consolidation analytics
// service. Handlers stay thin: they decode and validate requests, call the
// services layer and render either a JSON report, an XLSX workbook or an
// RFC 7807 problem through errors.ErrorHandler.
//
// Request bodies are validated with go-playground/validator using the DTOs
// in pkg/contracts/api/v1. Dates in JSON requests are DD/MM/YYYY strings.
// Uploads are multipart forms with a "file" part and optional "origins",
// "destinations" (comma-separated) and "granularity" fields.
package http
