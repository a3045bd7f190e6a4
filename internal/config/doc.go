// Package config loads and validates the consolidator configuration.
//
// # Configuration Sources
//
// Values are resolved in the following order, later sources winning:
//
//  1. Default()
//  2. A YAML file: $CONSOL_CONFIG_FILE, ./config.yaml or ./configs/config.yaml
//  3. Environment variables, after an optional .env file has been loaded
//
// # Environment Variables
//
// Variables are namespaced with CONSOL_ and follow the struct nesting:
//
//	CONSOL_SERVER_PORT=9090
//	CONSOL_LOGGING_LEVEL=debug
//	CONSOL_ANALYSIS_DEFAULT_GRANULARITY=Month
//	CONSOL_ANALYSIS_MAX_UPLOAD_BYTES=67108864
//	CONSOL_RATE_LIMIT_ENABLED=false
//	CONSOL_TELEMETRY_TRACING_ENABLED=true
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Tests and the CLI start from Default(), which always passes Validate.
package config
