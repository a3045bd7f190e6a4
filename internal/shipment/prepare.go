package shipment

import (
	"math"
	"strings"
	"time"
)

// PreparedRecord is a ShipmentRecord with the calendar and transit fields
// derived once by Prepare.
type PreparedRecord struct {
	ShipmentRecord

	// Week is the ISO-8601 week number of ETS, without the ISO year.
	Week int `json:"week"`
	// Month is the calendar month of ETS.
	Month YearMonth `json:"month"`
	// Bucket is the aggregation period of ETS for the dataset granularity.
	Bucket Period `json:"bucket"`
	// TransitDays is ATA minus ETS in whole days. Nil when either date is
	// absent; negative when ATA precedes ETS.
	TransitDays *int `json:"transit_days"`
}

// Lane returns the record's origin-destination pair.
func (r PreparedRecord) Lane() Lane {
	return Lane{POL: r.POL, POD: r.POD}
}

// Dataset is the read-only output of Prepare. Analyzers share one Dataset
// without synchronization.
type Dataset struct {
	records     []PreparedRecord
	granularity Granularity
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// Granularity returns the bucketing used for Bucket.
func (d *Dataset) Granularity() Granularity {
	return d.granularity
}

// Records returns a copy of the prepared records.
func (d *Dataset) Records() []PreparedRecord {
	if d == nil {
		return nil
	}
	out := make([]PreparedRecord, len(d.records))
	copy(out, d.records)
	for i := range out {
		if out[i].TransitDays != nil {
			days := *out[i].TransitDays
			out[i].TransitDays = &days
		}
	}
	return out
}

// each iterates records in input order without copying.
func (d *Dataset) each(fn func(r *PreparedRecord)) {
	if d == nil {
		return
	}
	for i := range d.records {
		fn(&d.records[i])
	}
}

// Prepare validates records and derives Week, Month, Bucket and TransitDays.
// The input slice is not modified. Validation failures are reported together
// as a *ValidationError before anything is derived.
func Prepare(records []ShipmentRecord, g Granularity) (*Dataset, error) {
	if g == "" {
		g = GranularityWeek
	}
	if _, err := ParseGranularity(string(g)); err != nil {
		return nil, err
	}

	if err := validateRecords(records); err != nil {
		return nil, err
	}

	prepared := make([]PreparedRecord, len(records))
	for i, rec := range records {
		_, week := rec.ETS.ISOWeek()
		prepared[i] = PreparedRecord{
			ShipmentRecord: rec,
			Week:           week,
			Month:          MonthOf(rec.ETS),
			Bucket:         g.Bucket(rec.ETS),
			TransitDays:    transitDays(rec.ETS, rec.ATA),
		}
	}

	return &Dataset{records: prepared, granularity: g}, nil
}

func validateRecords(records []ShipmentRecord) error {
	verr := &ValidationError{}
	for i, rec := range records {
		if strings.TrimSpace(rec.POL) == "" {
			verr.add(i, "pol", "is required")
		}
		if strings.TrimSpace(rec.POD) == "" {
			verr.add(i, "pod", "is required")
		}
		if rec.ETS.IsZero() {
			verr.add(i, "ets", "is required")
		}
		if math.IsNaN(rec.VolumeCBM) || math.IsInf(rec.VolumeCBM, 0) {
			verr.add(i, "volume_cbm", "must be a finite number")
		} else if rec.VolumeCBM < 0 {
			verr.add(i, "volume_cbm", "must not be negative")
		}
	}
	if verr.Total > 0 {
		return verr
	}
	return nil
}

// transitDays returns whole calendar days from ets to ata, or nil when
// either is absent. Time of day and location are ignored.
func transitDays(ets, ata time.Time) *int {
	if ets.IsZero() || ata.IsZero() {
		return nil
	}
	from := time.Date(ets.Year(), ets.Month(), ets.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(ata.Year(), ata.Month(), ata.Day(), 0, 0, 0, 0, time.UTC)
	days := int(to.Sub(from) / (24 * time.Hour))
	return &days
}

// Filter restricts records to selected origin and destination ports. An empty
// set places no restriction on that side.
type Filter struct {
	Origins      []string `json:"origins,omitempty"`
	Destinations []string `json:"destinations,omitempty"`
}

// IsEmpty reports whether the filter selects every record.
func (f Filter) IsEmpty() bool {
	return len(f.Origins) == 0 && len(f.Destinations) == 0
}

// Apply returns the records matching the filter in input order. Ports are
// compared without surrounding whitespace on either side. The input slice is
// not modified.
func (f Filter) Apply(records []ShipmentRecord) []ShipmentRecord {
	if f.IsEmpty() {
		out := make([]ShipmentRecord, len(records))
		copy(out, records)
		return out
	}

	origins := toSet(f.Origins)
	destinations := toSet(f.Destinations)

	out := make([]ShipmentRecord, 0, len(records))
	for _, rec := range records {
		if len(origins) > 0 && !origins[strings.TrimSpace(rec.POL)] {
			continue
		}
		if len(destinations) > 0 && !destinations[strings.TrimSpace(rec.POD)] {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			set[v] = true
		}
	}
	return set
}
