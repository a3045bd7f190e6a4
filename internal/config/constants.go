package config

import "time"

// AppVersion is overridden at build time with -ldflags "-X".
var AppVersion = "1.0.0"

// Application constants
const (
	AppName = "consolidator"

	DefaultPort = 8080

	// Rate limiting, requests per second per client
	DefaultRateLimit = 20
	DefaultBurstSize = 40

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// Analysis limits
	DefaultMaxUploadBytes  = 32 << 20
	DefaultMaxRecords      = 500000
	DefaultAnalysisTimeout = 2 * time.Minute
	DefaultOutputDir       = "reports"

	// Input files
	CSVExtension  = ".csv"
	XLSXExtension = ".xlsx"
	ShipmentSheet = "Shipments"
)
