// Package files locates and checks the files the analyze command works on.
//
// Discovery finds shipment exports (.csv and .xlsx) in a directory and
// resolves an -in argument that may name either a single export or a
// directory of them, in which case the most recently modified export wins.
//
// Validator checks that an input file is readable and that an output
// directory exists and is writable before any analysis work starts.
//
// Example usage:
//
//	discovery := files.NewDiscovery("/data")
//	input, err := discovery.ResolveInput("exports")
//
//	v := files.NewValidator(logger)
//	if err := v.ValidateOutputDirectory("reports"); err != nil {
//	    return err
//	}
package files
