package shipment

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDataset is returned (wrapped) when input records fail validation.
var ErrInvalidDataset = errors.New("invalid shipment dataset")

// maxReportedIssues caps how many record issues a ValidationError lists.
const maxReportedIssues = 20

// RecordIssue describes one invalid field on one input record.
type RecordIssue struct {
	Index   int    `json:"index"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects the record issues found by Prepare.
type ValidationError struct {
	Issues []RecordIssue `json:"issues"`
	Total  int           `json:"total"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, fmt.Sprintf("record %d: %s %s", is.Index, is.Field, is.Message))
	}
	msg := fmt.Sprintf("%d invalid record field(s): %s", e.Total, strings.Join(parts, "; "))
	if e.Total > len(e.Issues) {
		msg += fmt.Sprintf("; and %d more", e.Total-len(e.Issues))
	}
	return msg
}

// Unwrap makes errors.Is(err, ErrInvalidDataset) hold.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidDataset
}

func (e *ValidationError) add(index int, field, message string) {
	e.Total++
	if len(e.Issues) < maxReportedIssues {
		e.Issues = append(e.Issues, RecordIssue{Index: index, Field: field, Message: message})
	}
}
