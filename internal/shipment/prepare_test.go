package shipment

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func record(pol, pod, shipmentType, movement string, volume float64, ets, ata time.Time) ShipmentRecord {
	return ShipmentRecord{
		POL:          pol,
		POD:          pod,
		ETS:          ets,
		ETA:          ets.AddDate(0, 0, 7),
		ATA:          ata,
		ShipmentType: shipmentType,
		Movement:     movement,
		VolumeCBM:    volume,
	}
}

func mustPrepare(t *testing.T, records []ShipmentRecord, g Granularity) *Dataset {
	t.Helper()
	ds, err := Prepare(records, g)
	require.NoError(t, err)
	return ds
}

// TestPrepare_DerivedFields tests week, month and transit derivation
func TestPrepare_DerivedFields(t *testing.T) {
	records := []ShipmentRecord{
		record("CNSHA", "NLRTM", TypeLCL, "CFS-CFS", 10, date(2024, 1, 1), date(2024, 1, 10)),
		record("CNSHA", "NLRTM", TypeLCL, "CFS-CFS", 5, date(2024, 1, 5), date(2024, 1, 3)),
		record("CNSHA", "NLRTM", TypeLCL, "CFS-CFS", 5, date(2024, 3, 14), time.Time{}),
	}

	ds := mustPrepare(t, records, GranularityWeek)
	require.Equal(t, 3, ds.Len())
	got := ds.Records()

	assert.Equal(t, 1, got[0].Week)
	assert.Equal(t, YearMonth{Year: 2024, Month: time.January}, got[0].Month)
	require.NotNil(t, got[0].TransitDays)
	assert.Equal(t, 9, *got[0].TransitDays)

	require.NotNil(t, got[1].TransitDays)
	assert.Equal(t, -2, *got[1].TransitDays, "negative transit must not be clamped")

	assert.Equal(t, 11, got[2].Week)
	assert.Nil(t, got[2].TransitDays, "missing ATA leaves transit undefined")
}

// TestPrepare_TransitIgnoresTimeOfDay tests that transit is counted in calendar days
func TestPrepare_TransitIgnoresTimeOfDay(t *testing.T) {
	ets := time.Date(2024, 2, 1, 23, 30, 0, 0, time.UTC)
	ata := time.Date(2024, 2, 3, 1, 0, 0, 0, time.UTC)

	ds := mustPrepare(t, []ShipmentRecord{record("A", "B", TypeLCL, "", 1, ets, ata)}, GranularityWeek)
	require.NotNil(t, ds.Records()[0].TransitDays)
	assert.Equal(t, 2, *ds.Records()[0].TransitDays)
}

// TestPrepare_ISOWeekYearBoundary tests that ISO week numbers are not paired with a year
func TestPrepare_ISOWeekYearBoundary(t *testing.T) {
	tests := []struct {
		name string
		ets  time.Time
		week int
	}{
		{"first monday of 2024", date(2024, 1, 1), 1},
		{"last monday of 2024 belongs to 2025-W01", date(2024, 12, 30), 1},
		{"new year 2021 belongs to 2020-W53", date(2021, 1, 1), 53},
		{"sunday closes the week", date(2024, 1, 7), 1},
		{"monday opens the next week", date(2024, 1, 8), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := mustPrepare(t, []ShipmentRecord{record("A", "B", TypeLCL, "", 1, tt.ets, time.Time{})}, GranularityWeek)
			rec := ds.Records()[0]
			assert.Equal(t, tt.week, rec.Week)
			assert.Equal(t, Period{Granularity: GranularityWeek, Index: tt.week}, rec.Bucket)
		})
	}

	t.Run("weeks from different years share a bucket", func(t *testing.T) {
		ds := mustPrepare(t, []ShipmentRecord{
			record("A", "B", TypeLCL, "", 1, date(2024, 1, 1), time.Time{}),
			record("A", "B", TypeLCL, "", 1, date(2024, 12, 30), time.Time{}),
		}, GranularityWeek)
		recs := ds.Records()
		assert.Equal(t, recs[0].Bucket, recs[1].Bucket)
		assert.NotEqual(t, recs[0].Month, recs[1].Month)
	})
}

// TestPrepare_Granularity tests bucket derivation for each granularity
func TestPrepare_Granularity(t *testing.T) {
	ets := date(2024, 8, 15)
	tests := []struct {
		granularity Granularity
		want        Period
		label       string
	}{
		{GranularityWeek, Period{Granularity: GranularityWeek, Index: 33}, "W33"},
		{GranularityMonth, Period{Granularity: GranularityMonth, Year: 2024, Index: 8}, "2024-08"},
		{GranularityQuarter, Period{Granularity: GranularityQuarter, Year: 2024, Index: 3}, "2024-Q3"},
		{GranularityYear, Period{Granularity: GranularityYear, Year: 2024, Index: 1}, "2024"},
	}

	for _, tt := range tests {
		t.Run(string(tt.granularity), func(t *testing.T) {
			ds := mustPrepare(t, []ShipmentRecord{record("A", "B", TypeLCL, "", 1, ets, time.Time{})}, tt.granularity)
			rec := ds.Records()[0]
			assert.Equal(t, tt.want, rec.Bucket)
			assert.Equal(t, tt.label, rec.Bucket.Label())
			assert.Equal(t, 33, rec.Week, "week is derived regardless of granularity")
			assert.Equal(t, tt.granularity, ds.Granularity())
		})
	}

	t.Run("empty granularity defaults to week", func(t *testing.T) {
		ds := mustPrepare(t, nil, "")
		assert.Equal(t, GranularityWeek, ds.Granularity())
	})

	t.Run("unknown granularity fails", func(t *testing.T) {
		_, err := Prepare(nil, Granularity("Fortnight"))
		require.Error(t, err)
	})
}

// TestParseGranularity tests granularity name parsing
func TestParseGranularity(t *testing.T) {
	tests := []struct {
		input   string
		want    Granularity
		wantErr bool
	}{
		{"", GranularityWeek, false},
		{"Week", GranularityWeek, false},
		{"month", GranularityMonth, false},
		{" QUARTER ", GranularityQuarter, false},
		{"Year", GranularityYear, false},
		{"Day", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseGranularity(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestPrepare_Validation tests that invalid records fail before aggregation
func TestPrepare_Validation(t *testing.T) {
	records := []ShipmentRecord{
		record("A", "B", TypeLCL, "", 1, date(2024, 1, 1), time.Time{}),
		record("", "B", TypeLCL, "", 1, date(2024, 1, 1), time.Time{}),
		record("A", " ", TypeLCL, "", 1, time.Time{}, time.Time{}),
		record("A", "B", TypeLCL, "", -3, date(2024, 1, 1), time.Time{}),
		record("A", "B", TypeLCL, "", math.NaN(), date(2024, 1, 1), time.Time{}),
	}

	ds, err := Prepare(records, GranularityWeek)
	require.Error(t, err)
	assert.Nil(t, ds)
	assert.True(t, errors.Is(err, ErrInvalidDataset))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, 5, verr.Total)
	assert.Equal(t, RecordIssue{Index: 1, Field: "pol", Message: "is required"}, verr.Issues[0])
	assert.Contains(t, err.Error(), "record 3: volume_cbm must not be negative")
	assert.Contains(t, err.Error(), "record 4: volume_cbm must be a finite number")
}

// TestValidationError_Truncates tests that long issue lists are capped
func TestValidationError_Truncates(t *testing.T) {
	records := make([]ShipmentRecord, maxReportedIssues+5)
	for i := range records {
		records[i] = record("", "B", TypeLCL, "", 1, date(2024, 1, 1), time.Time{})
	}

	_, err := Prepare(records, GranularityWeek)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Issues, maxReportedIssues)
	assert.Equal(t, maxReportedIssues+5, verr.Total)
	assert.Contains(t, verr.Error(), "and 5 more")
}

// TestPrepare_DoesNotMutateInput tests that the caller's slice is left alone
func TestPrepare_DoesNotMutateInput(t *testing.T) {
	records := []ShipmentRecord{
		record("A", "B", TypeLCL, "Gateway", 4, date(2024, 1, 1), date(2024, 1, 9)),
	}
	before := make([]ShipmentRecord, len(records))
	copy(before, records)

	ds := mustPrepare(t, records, GranularityWeek)
	assert.Equal(t, before, records)

	got := ds.Records()
	got[0].VolumeCBM = 999
	*got[0].TransitDays = 999
	again := ds.Records()
	assert.Equal(t, 4.0, again[0].VolumeCBM)
	assert.Equal(t, 8, *again[0].TransitDays)
}

// TestFilter_Apply tests origin and destination filtering
func TestFilter_Apply(t *testing.T) {
	records := []ShipmentRecord{
		record("CNSHA", "NLRTM", TypeLCL, "", 1, date(2024, 1, 1), time.Time{}),
		record("CNSHA", "DEHAM", TypeLCL, "", 2, date(2024, 1, 1), time.Time{}),
		record("SGSIN", "NLRTM", TypeLCL, "", 3, date(2024, 1, 1), time.Time{}),
	}

	tests := []struct {
		name   string
		filter Filter
		want   []float64
	}{
		{"no filter", Filter{}, []float64{1, 2, 3}},
		{"origin only", Filter{Origins: []string{"CNSHA"}}, []float64{1, 2}},
		{"destination only", Filter{Destinations: []string{"NLRTM"}}, []float64{1, 3}},
		{"both", Filter{Origins: []string{"CNSHA"}, Destinations: []string{"NLRTM"}}, []float64{1}},
		{"no match", Filter{Origins: []string{"USLAX"}}, []float64{}},
		{"blank values ignored", Filter{Origins: []string{" "}}, []float64{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Apply(records)
			volumes := make([]float64, 0, len(got))
			for _, r := range got {
				volumes = append(volumes, r.VolumeCBM)
			}
			assert.Equal(t, tt.want, volumes)
		})
	}
}

func TestFilter_Apply_PaddedPorts(t *testing.T) {
	records := []ShipmentRecord{
		record(" CNSHA ", "NLRTM\t", TypeLCL, "", 1, date(2024, 1, 1), time.Time{}),
		record("SGSIN", "NLRTM", TypeLCL, "", 2, date(2024, 1, 1), time.Time{}),
	}

	got := Filter{Origins: []string{"CNSHA"}, Destinations: []string{" NLRTM"}}.Apply(records)
	require.Len(t, got, 1)
	assert.Equal(t, 1.0, got[0].VolumeCBM)
	assert.Equal(t, " CNSHA ", got[0].POL, "records are returned unchanged")
}

// TestNullValues_JSON tests that undefined metrics marshal as null
func TestNullValues_JSON(t *testing.T) {
	b, err := NullFloat{}.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))

	b, err = Float(12.5).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "12.5", string(b))

	b, err = NullInt{}.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))

	var n NullInt
	require.NoError(t, n.UnmarshalJSON([]byte("-2")))
	assert.Equal(t, Int(-2), n)

	var f NullFloat
	require.NoError(t, f.UnmarshalJSON([]byte("null")))
	assert.False(t, f.Valid)
	assert.Equal(t, "", f.String())
	assert.Equal(t, "3.50", Float(3.5).String())
}
