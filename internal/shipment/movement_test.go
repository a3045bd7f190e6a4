package shipment

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAnalyzeMovements_Percentages tests the gateway and CFS shares
func TestAnalyzeMovements_Percentages(t *testing.T) {
	records := []ShipmentRecord{
		record("A", "B", TypeLCL, "Gateway A", 35, date(2024, 1, 3), time.Time{}),
		record("A", "B", TypeLCL, "Gateway A", 25, date(2024, 1, 9), time.Time{}),
		record("A", "B", TypeLCL, "CFS Hub", 40, date(2024, 2, 1), time.Time{}),
		record("A", "B", TypeCarriersLCL, "Gateway A", 500, date(2024, 2, 1), time.Time{}),
	}
	analysis := AnalyzeMovements(mustPrepare(t, records, GranularityWeek))

	require.Len(t, analysis.Distribution, 2)
	assert.Equal(t, MovementVolume{Movement: "CFS Hub", VolumeCBM: 40, Records: 1, CFS: true}, analysis.Distribution[0])
	assert.Equal(t, MovementVolume{Movement: "Gateway A", VolumeCBM: 60, Records: 2, Gateway: true}, analysis.Distribution[1])

	m := analysis.Metrics
	assert.Equal(t, 100.0, m.TotalVolumeCBM, "non-LCL records are excluded")
	require.True(t, m.GatewayPct.Valid)
	require.True(t, m.CFSPct.Valid)
	assert.InDelta(t, 60.0, m.GatewayPct.Value, 1e-9)
	assert.InDelta(t, 40.0, m.CFSPct.Value, 1e-9)
	assert.Zero(t, m.AmbiguousVolumeCBM)
	assert.Zero(t, m.UnclassifiedVolumeCBM)
}

// TestAnalyzeMovements_OverlappingLabels tests that substring categories are not exclusive
func TestAnalyzeMovements_OverlappingLabels(t *testing.T) {
	records := []ShipmentRecord{
		record("A", "B", TypeLCL, "Gateway-CFS", 50, date(2024, 1, 3), time.Time{}),
		record("A", "B", TypeLCL, "Door-Door", 25, date(2024, 1, 3), time.Time{}),
		record("A", "B", TypeLCL, "CFS-CFS", 25, date(2024, 1, 3), time.Time{}),
	}
	m := AnalyzeMovements(mustPrepare(t, records, GranularityWeek)).Metrics

	assert.InDelta(t, 50.0, m.GatewayPct.Value, 1e-9)
	assert.InDelta(t, 75.0, m.CFSPct.Value, 1e-9)
	assert.Greater(t, m.GatewayPct.Value+m.CFSPct.Value, 100.0)
	assert.Equal(t, 50.0, m.AmbiguousVolumeCBM)
	assert.Equal(t, 25.0, m.UnclassifiedVolumeCBM)
}

// TestAnalyzeMovements_UnlabeledRecords tests that empty labels are counted but not grouped
func TestAnalyzeMovements_UnlabeledRecords(t *testing.T) {
	records := []ShipmentRecord{
		record("A", "B", TypeLCL, "", 10, date(2024, 1, 3), time.Time{}),
		record("A", "B", TypeLCL, "Gateway", 10, date(2024, 1, 3), time.Time{}),
	}
	analysis := AnalyzeMovements(mustPrepare(t, records, GranularityWeek))

	require.Len(t, analysis.Distribution, 1)
	assert.Equal(t, 1, analysis.Metrics.UnlabeledRecords)
	assert.InDelta(t, 100.0, analysis.Metrics.GatewayPct.Value, 1e-9)

	require.Len(t, analysis.MonthlyTrend, 1)
	assert.Equal(t, 20.0, analysis.MonthlyTrend[0].VolumeCBM, "trend keeps unlabeled records")
	assert.Equal(t, 2, analysis.MonthlyTrend[0].Records)
}

// TestAnalyzeMovements_ZeroVolume tests that percentages are undefined without volume
func TestAnalyzeMovements_ZeroVolume(t *testing.T) {
	tests := []struct {
		name    string
		records []ShipmentRecord
	}{
		{"empty dataset", nil},
		{"zero volume", []ShipmentRecord{
			record("A", "B", TypeLCL, "Gateway", 0, date(2024, 1, 3), time.Time{}),
		}},
		{"no LCL records", []ShipmentRecord{
			record("A", "B", TypeCarriersLCL, "Gateway", 10, date(2024, 1, 3), time.Time{}),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := AnalyzeMovements(mustPrepare(t, tt.records, GranularityWeek)).Metrics
			assert.False(t, m.GatewayPct.Valid)
			assert.False(t, m.CFSPct.Valid)

			b, err := json.Marshal(m)
			require.NoError(t, err)
			assert.Contains(t, string(b), `"gateway_pct":null`)
			assert.Contains(t, string(b), `"cfs_pct":null`)
		})
	}
}

// TestAnalyzeMovements_MonthlyTrend tests chronological month ordering
func TestAnalyzeMovements_MonthlyTrend(t *testing.T) {
	records := []ShipmentRecord{
		record("A", "B", TypeLCL, "CFS", 1, date(2024, 2, 10), time.Time{}),
		record("A", "B", TypeLCL, "CFS", 2, date(2023, 12, 31), time.Time{}),
		record("A", "B", TypeLCL, "CFS", 3, date(2024, 1, 1), time.Time{}),
		record("A", "B", TypeLCL, "CFS", 4, date(2024, 2, 28), time.Time{}),
		record("A", "B", TypeCarriersLCL, "CFS", 100, date(2024, 3, 1), time.Time{}),
	}
	trend := AnalyzeMovements(mustPrepare(t, records, GranularityWeek)).MonthlyTrend

	require.Len(t, trend, 3)
	assert.Equal(t, "2023-12", trend[0].Month.String())
	assert.Equal(t, "2024-01", trend[1].Month.String())
	assert.Equal(t, "2024-02", trend[2].Month.String())
	assert.Equal(t, 5.0, trend[2].VolumeCBM)
	assert.Equal(t, 2, trend[2].Records)

	b, err := json.Marshal(trend[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"month":"2023-12","volume_cbm":2,"records":1}`, string(b))
}
