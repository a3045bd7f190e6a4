package shipment

import (
	"sort"
	"strings"
)

// MovementVolume is the LCL volume and record count of one movement label.
type MovementVolume struct {
	Movement  string  `json:"movement"`
	VolumeCBM float64 `json:"volume_cbm"`
	Records   int     `json:"records"`
	Gateway   bool    `json:"gateway"`
	CFS       bool    `json:"cfs"`
}

// MonthlyVolume is the LCL volume and record count of one calendar month.
type MonthlyVolume struct {
	Month     YearMonth `json:"month"`
	VolumeCBM float64   `json:"volume_cbm"`
	Records   int       `json:"records"`
}

// MovementMetrics summarize the movement split. GatewayPct and CFSPct are
// independent ratios of the total; they need not add up to 100 and are
// undefined when the total volume is zero.
type MovementMetrics struct {
	TotalVolumeCBM float64   `json:"total_volume_cbm"`
	GatewayPct     NullFloat `json:"gateway_pct"`
	CFSPct         NullFloat `json:"cfs_pct"`
	// AmbiguousVolumeCBM is volume whose label matches both categories.
	AmbiguousVolumeCBM float64 `json:"ambiguous_volume_cbm"`
	// UnclassifiedVolumeCBM is volume whose label matches neither category.
	UnclassifiedVolumeCBM float64 `json:"unclassified_volume_cbm"`
	// UnlabeledRecords counts LCL records with an empty movement label,
	// which are left out of the distribution.
	UnlabeledRecords int `json:"unlabeled_records"`
}

// MovementAnalysis is the output of AnalyzeMovements.
type MovementAnalysis struct {
	Distribution []MovementVolume `json:"distribution"`
	MonthlyTrend []MonthlyVolume  `json:"monthly_trend"`
	Metrics      MovementMetrics  `json:"metrics"`
}

// IsGateway reports whether a movement label counts as Gateway.
func IsGateway(movement string) bool {
	return strings.Contains(movement, MovementGateway)
}

// IsCFS reports whether a movement label counts as CFS-CFS.
func IsCFS(movement string) bool {
	return strings.Contains(movement, MovementCFS)
}

// AnalyzeMovements splits LCL volume by movement label and by calendar month.
func AnalyzeMovements(ds *Dataset) MovementAnalysis {
	byMovement := make(map[string]*MovementVolume)
	byMonth := make(map[YearMonth]*MonthlyVolume)
	var unlabeled int

	ds.each(func(r *PreparedRecord) {
		if r.ShipmentType != TypeLCL {
			return
		}

		m, ok := byMonth[r.Month]
		if !ok {
			m = &MonthlyVolume{Month: r.Month}
			byMonth[r.Month] = m
		}
		m.VolumeCBM += r.VolumeCBM
		m.Records++

		if r.Movement == "" {
			unlabeled++
			return
		}
		g, ok := byMovement[r.Movement]
		if !ok {
			g = &MovementVolume{
				Movement: r.Movement,
				Gateway:  IsGateway(r.Movement),
				CFS:      IsCFS(r.Movement),
			}
			byMovement[r.Movement] = g
		}
		g.VolumeCBM += r.VolumeCBM
		g.Records++
	})

	analysis := MovementAnalysis{
		Distribution: make([]MovementVolume, 0, len(byMovement)),
		MonthlyTrend: make([]MonthlyVolume, 0, len(byMonth)),
	}
	for _, g := range byMovement {
		analysis.Distribution = append(analysis.Distribution, *g)
	}
	sort.Slice(analysis.Distribution, func(i, j int) bool {
		return analysis.Distribution[i].Movement < analysis.Distribution[j].Movement
	})
	for _, m := range byMonth {
		analysis.MonthlyTrend = append(analysis.MonthlyTrend, *m)
	}
	sort.Slice(analysis.MonthlyTrend, func(i, j int) bool {
		return analysis.MonthlyTrend[i].Month.Before(analysis.MonthlyTrend[j].Month)
	})

	analysis.Metrics = movementMetrics(analysis.Distribution)
	analysis.Metrics.UnlabeledRecords = unlabeled
	return analysis
}

func movementMetrics(distribution []MovementVolume) MovementMetrics {
	var metrics MovementMetrics
	var gateway, cfs float64
	for _, g := range distribution {
		metrics.TotalVolumeCBM += g.VolumeCBM
		if g.Gateway {
			gateway += g.VolumeCBM
		}
		if g.CFS {
			cfs += g.VolumeCBM
		}
		switch {
		case g.Gateway && g.CFS:
			metrics.AmbiguousVolumeCBM += g.VolumeCBM
		case !g.Gateway && !g.CFS:
			metrics.UnclassifiedVolumeCBM += g.VolumeCBM
		}
	}

	if metrics.TotalVolumeCBM > 0 {
		metrics.GatewayPct = Float(gateway / metrics.TotalVolumeCBM * 100)
		metrics.CFSPct = Float(cfs / metrics.TotalVolumeCBM * 100)
	}
	return metrics
}
