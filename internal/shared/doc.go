// Package shared holds helpers used by more than one package.
//
// The testutil subpackage provides a buffered slog handler for log
// assertions and shipment fixtures (records, CSV text and XLSX workbooks)
// shared by the parser, service and HTTP tests. It must not be imported
// from non-test code.
package shared
