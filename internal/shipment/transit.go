package shipment

import (
	"sort"
)

// RouteTransit holds transit statistics for one lane.
type RouteTransit struct {
	POL       string  `json:"pol"`
	POD       string  `json:"pod"`
	Mean      float64 `json:"mean"`
	Min       int     `json:"min"`
	Max       int     `json:"max"`
	Shipments int     `json:"shipments"`
}

// RouteDistribution lists the transit days of every record on a lane, in
// input order.
type RouteDistribution struct {
	POL         string `json:"pol"`
	POD         string `json:"pod"`
	TransitDays []int  `json:"transit_days"`
}

// TransitMetrics are dataset-wide transit statistics. Mean, Min and Max are
// undefined when no record has a transit duration.
type TransitMetrics struct {
	Mean NullFloat `json:"mean"`
	Min  NullInt   `json:"min"`
	Max  NullInt   `json:"max"`
	// Shipments counts records with a transit duration.
	Shipments int `json:"shipments"`
	// NegativeRecords counts records whose ATA precedes ETS.
	NegativeRecords int `json:"negative_records"`
	// UndefinedRecords counts records left out for a missing date.
	UndefinedRecords int `json:"undefined_records"`
}

// TransitAnalysis is the output of AnalyzeTransit.
type TransitAnalysis struct {
	Routes       []RouteTransit      `json:"routes"`
	Distribution []RouteDistribution `json:"distribution"`
	Metrics      TransitMetrics      `json:"metrics"`
}

// AnalyzeTransit computes per-lane and global transit-day statistics.
// Negative durations are kept as they are.
func AnalyzeTransit(ds *Dataset) TransitAnalysis {
	byLane := make(map[Lane][]int)
	var metrics TransitMetrics
	var total int

	ds.each(func(r *PreparedRecord) {
		if r.TransitDays == nil {
			metrics.UndefinedRecords++
			return
		}
		days := *r.TransitDays
		byLane[r.Lane()] = append(byLane[r.Lane()], days)

		if days < 0 {
			metrics.NegativeRecords++
		}
		if metrics.Shipments == 0 || days < metrics.Min.Value {
			metrics.Min = Int(days)
		}
		if metrics.Shipments == 0 || days > metrics.Max.Value {
			metrics.Max = Int(days)
		}
		metrics.Shipments++
		total += days
	})
	if metrics.Shipments > 0 {
		metrics.Mean = Float(float64(total) / float64(metrics.Shipments))
	}

	lanes := make([]Lane, 0, len(byLane))
	for l := range byLane {
		lanes = append(lanes, l)
	}
	sort.Slice(lanes, func(i, j int) bool { return lanes[i].less(lanes[j]) })

	analysis := TransitAnalysis{
		Routes:       make([]RouteTransit, 0, len(lanes)),
		Distribution: make([]RouteDistribution, 0, len(lanes)),
		Metrics:      metrics,
	}
	for _, l := range lanes {
		days := byLane[l]
		analysis.Routes = append(analysis.Routes, routeStats(l, days))
		analysis.Distribution = append(analysis.Distribution, RouteDistribution{
			POL:         l.POL,
			POD:         l.POD,
			TransitDays: days,
		})
	}
	return analysis
}

func routeStats(l Lane, days []int) RouteTransit {
	rt := RouteTransit{POL: l.POL, POD: l.POD, Min: days[0], Max: days[0], Shipments: len(days)}
	sum := 0
	for _, d := range days {
		sum += d
		if d < rt.Min {
			rt.Min = d
		}
		if d > rt.Max {
			rt.Max = d
		}
	}
	rt.Mean = float64(sum) / float64(len(days))
	return rt
}
