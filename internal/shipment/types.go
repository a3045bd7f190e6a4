package shipment

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Shipment type labels with classification meaning. Any other label is
// carried through unclassified.
const (
	TypeLCL         = "LCL"
	TypeCarriersLCL = "Carriers LCL"
)

// Movement substrings. Matching is containment, not equality, so a label may
// fall in both categories or in neither.
const (
	MovementGateway = "Gateway"
	MovementCFS     = "CFS"
)

// Practical cubic capacity of standard containers, in CBM.
const (
	Container20ftCBM = 18.0
	Container40ftCBM = 45.0

	// ConsolidationThresholdCBM is the average weekly volume at which a lane
	// fills a 20ft container on its own.
	ConsolidationThresholdCBM = Container20ftCBM
)

// Opportunity labels
const (
	OpportunityConsolidation = "Convert to Consolidation"
	OpportunityCoLoad        = "Convert to Co-load"
)

// Container sizing labels
const (
	Sizing40ft    = "40ft Container"
	Sizing20ft    = "20ft Container"
	SizingCombine = "Combine Shipments"
)

// ShipmentRecord is one row of shipment input. A zero time.Time means the
// date was absent in the source.
type ShipmentRecord struct {
	POL          string    `json:"pol"`
	POD          string    `json:"pod"`
	ETS          time.Time `json:"ets"`
	ETA          time.Time `json:"eta"`
	ATA          time.Time `json:"ata"`
	ShipmentType string    `json:"shipment_type"`
	Movement     string    `json:"movement"`
	VolumeCBM    float64   `json:"volume_cbm"`
}

// Lane is an origin-destination port pair.
type Lane struct {
	POL string `json:"pol"`
	POD string `json:"pod"`
}

// String returns "POL-POD"
func (l Lane) String() string {
	return l.POL + "-" + l.POD
}

func (l Lane) less(o Lane) bool {
	if l.POL != o.POL {
		return l.POL < o.POL
	}
	return l.POD < o.POD
}

// Granularity selects the time bucket used for lane volume aggregation.
type Granularity string

const (
	GranularityWeek    Granularity = "Week"
	GranularityMonth   Granularity = "Month"
	GranularityQuarter Granularity = "Quarter"
	GranularityYear    Granularity = "Year"
)

// ParseGranularity parses a granularity name case-insensitively. An empty
// string yields GranularityWeek.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "week":
		return GranularityWeek, nil
	case "month":
		return GranularityMonth, nil
	case "quarter":
		return GranularityQuarter, nil
	case "year":
		return GranularityYear, nil
	default:
		return "", fmt.Errorf("unknown granularity %q: use Week, Month, Quarter or Year", s)
	}
}

// Bucket maps a date to its period for this granularity.
//
// Week buckets carry the ISO week number only (Year is 0), so the last days of
// December and the first days of January may share a bucket across years.
func (g Granularity) Bucket(t time.Time) Period {
	switch g {
	case GranularityMonth:
		return Period{Granularity: g, Year: t.Year(), Index: int(t.Month())}
	case GranularityQuarter:
		return Period{Granularity: g, Year: t.Year(), Index: (int(t.Month())-1)/3 + 1}
	case GranularityYear:
		return Period{Granularity: g, Year: t.Year(), Index: 1}
	default:
		_, week := t.ISOWeek()
		return Period{Granularity: GranularityWeek, Index: week}
	}
}

// Period is a time bucket produced by Granularity.Bucket.
type Period struct {
	Granularity Granularity `json:"granularity"`
	Year        int         `json:"year,omitempty"`
	Index       int         `json:"index"`
}

// Label renders the period for display: "W05", "2024-03", "2024-Q1", "2024".
func (p Period) Label() string {
	switch p.Granularity {
	case GranularityMonth:
		return fmt.Sprintf("%04d-%02d", p.Year, p.Index)
	case GranularityQuarter:
		return fmt.Sprintf("%04d-Q%d", p.Year, p.Index)
	case GranularityYear:
		return fmt.Sprintf("%04d", p.Year)
	default:
		return fmt.Sprintf("W%02d", p.Index)
	}
}

// Before orders periods chronologically.
func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Index < o.Index
}

// YearMonth is a calendar month bucket.
type YearMonth struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// String renders "2024-01"
func (m YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Before orders months chronologically.
func (m YearMonth) Before(o YearMonth) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// MarshalJSON renders the month as "YYYY-MM".
func (m YearMonth) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// NullFloat is a metric that may be undefined, for example a ratio whose
// denominator is zero. Undefined values marshal as JSON null.
type NullFloat struct {
	Value float64
	Valid bool
}

// Float returns a defined NullFloat.
func Float(v float64) NullFloat {
	return NullFloat{Value: v, Valid: true}
}

// MarshalJSON implements json.Marshaler
func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// UnmarshalJSON implements json.Unmarshaler
func (n *NullFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NullFloat{}
		return nil
	}
	if err := json.Unmarshal(data, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// String renders the value with two decimals, or an empty string when undefined.
func (n NullFloat) String() string {
	if !n.Valid {
		return ""
	}
	return fmt.Sprintf("%.2f", n.Value)
}

// NullInt is an integer metric that may be undefined.
type NullInt struct {
	Value int
	Valid bool
}

// Int returns a defined NullInt.
func Int(v int) NullInt {
	return NullInt{Value: v, Valid: true}
}

// MarshalJSON implements json.Marshaler
func (n NullInt) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// UnmarshalJSON implements json.Unmarshaler
func (n *NullInt) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NullInt{}
		return nil
	}
	if err := json.Unmarshal(data, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// String renders the value, or an empty string when undefined.
func (n NullInt) String() string {
	if !n.Valid {
		return ""
	}
	return fmt.Sprintf("%d", n.Value)
}
