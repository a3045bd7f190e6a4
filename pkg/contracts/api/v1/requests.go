// Package api contains the HTTP API contract of the consolidation analytics
// service. Version v1 is the current stable API.
package api

// ShipmentRecordRequest is one shipment in a JSON analysis request. Dates are
// day-first strings (DD/MM/YYYY).
type ShipmentRecordRequest struct {
	POL          string   `json:"pol" validate:"required"`
	POD          string   `json:"pod" validate:"required"`
	ETS          string   `json:"ets" validate:"required,ddmmyyyy"`
	ETA          string   `json:"eta,omitempty" validate:"omitempty,ddmmyyyy"`
	ATA          string   `json:"ata,omitempty" validate:"omitempty,ddmmyyyy"`
	ShipmentType string   `json:"shipment_type" validate:"required"`
	Movement     string   `json:"movement,omitempty"`
	VolumeCBM    *float64 `json:"volume_cbm" validate:"required,gte=0"`
}

// AnalysisRequest is the body of POST /api/v1/analysis. An empty record list
// is valid and yields an empty report.
type AnalysisRequest struct {
	Records      []ShipmentRecordRequest `json:"records" validate:"dive"`
	Origins      []string                `json:"origins,omitempty" validate:"omitempty,dive,required"`
	Destinations []string                `json:"destinations,omitempty" validate:"omitempty,dive,required"`
	Granularity  string                  `json:"granularity,omitempty" validate:"omitempty,granularity"`
}

// UploadParams are the form fields accompanying an uploaded shipment file.
// Origins and destinations are comma-separated port codes.
type UploadParams struct {
	Origins      []string `json:"origins,omitempty" validate:"omitempty,dive,required"`
	Destinations []string `json:"destinations,omitempty" validate:"omitempty,dive,required"`
	Granularity  string   `json:"granularity,omitempty" validate:"omitempty,granularity"`
}
