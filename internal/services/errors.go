package services

import (
	"errors"
	"fmt"
	"path/filepath"

	"consolidator/internal/dataprocessing"
	apperrors "consolidator/internal/errors"
)

// Analysis service errors
var (
	ErrNilReport     = errors.New("no report to export")
	ErrTooManyInputs = errors.New("too many shipment records")
)

// classifyParseError maps ingestion failures onto the AppError taxonomy so
// the HTTP layer can answer with the right status.
func classifyParseError(filename string, err error) error {
	switch {
	case errors.Is(err, dataprocessing.ErrUnsupportedFormat):
		return apperrors.NewUnsupportedError(
			fmt.Sprintf("unsupported file type %q: expected .csv or .xlsx", filepath.Ext(filename)))
	case errors.Is(err, dataprocessing.ErrTooManyRecords):
		return apperrors.NewAppValidationError("file has too many shipment records", err)
	}

	appErr := apperrors.NewParsingError(fmt.Sprintf("failed to parse %s", filename), err)
	var parseErr *dataprocessing.ParseError
	if errors.As(err, &parseErr) {
		appErr.WithContext("row", parseErr.Row).WithContext("column", string(parseErr.Column))
	}
	return appErr
}
