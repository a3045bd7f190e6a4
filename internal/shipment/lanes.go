package shipment

import (
	"sort"
)

// laneTypeKey groups records by lane and shipment type.
type laneTypeKey struct {
	Lane         Lane
	ShipmentType string
}

func (k laneTypeKey) less(o laneTypeKey) bool {
	if k.Lane != o.Lane {
		return k.Lane.less(o.Lane)
	}
	return k.ShipmentType < o.ShipmentType
}

// LaneWeekKey groups records by lane, period and shipment type.
type LaneWeekKey struct {
	Lane         Lane
	Period       Period
	ShipmentType string
}

// LaneVolumeAggregate is the summed volume of one LaneWeekKey.
type LaneVolumeAggregate struct {
	Key       LaneWeekKey
	VolumeCBM float64
}

// LaneSummary is the per-period average volume of a lane and shipment type.
type LaneSummary struct {
	POL                string  `json:"pol"`
	POD                string  `json:"pod"`
	ShipmentType       string  `json:"shipment_type"`
	AvgWeeklyVolume    float64 `json:"avg_weekly_volume"`
	WeeksWithShipments int     `json:"weeks_with_shipments"`
}

// OpportunityRecord is a LaneSummary that passed a classification threshold.
type OpportunityRecord struct {
	LaneSummary
	Opportunity string `json:"opportunity"`
}

// ContainerSizing labels the LCL volume of one lane in one period.
type ContainerSizing struct {
	POL         string  `json:"pol"`
	POD         string  `json:"pod"`
	Period      Period  `json:"period"`
	PeriodLabel string  `json:"period_label"`
	VolumeCBM   float64 `json:"volume_cbm"`
	Opportunity string  `json:"opportunity"`
}

// TypeVolume is the total volume and record count of one shipment type.
type TypeVolume struct {
	ShipmentType string  `json:"shipment_type"`
	VolumeCBM    float64 `json:"volume_cbm"`
	Records      int     `json:"records"`
}

// LaneMetrics are the scalar summaries of the opportunity tables.
type LaneMetrics struct {
	ConsolidationLanes int     `json:"consolidation_lanes"`
	CoLoadLanes        int     `json:"coload_lanes"`
	VolumeImpactCBM    float64 `json:"volume_impact_cbm"`
}

// SizingMetrics are the scalar summaries of the container sizing table.
type SizingMetrics struct {
	TotalVolumeCBM float64 `json:"total_volume_cbm"`
	// Potential20ft counts periods at or above the 20ft threshold, which
	// includes the periods counted by Potential40ft.
	Potential20ft int `json:"potential_20ft"`
	Potential40ft int `json:"potential_40ft"`
}

// LaneAnalysis is the output of AnalyzeLanes.
type LaneAnalysis struct {
	Summaries       []LaneSummary       `json:"summaries"`
	Consolidation   []OpportunityRecord `json:"consolidation"`
	CoLoad          []OpportunityRecord `json:"coload"`
	Metrics         LaneMetrics         `json:"metrics"`
	ContainerSizing []ContainerSizing   `json:"container_sizing"`
	SizingMetrics   SizingMetrics       `json:"sizing_metrics"`
	ByShipmentType  []TypeVolume        `json:"by_shipment_type"`
}

// Opportunities returns consolidation then co-load records.
func (a LaneAnalysis) Opportunities() []OpportunityRecord {
	out := make([]OpportunityRecord, 0, len(a.Consolidation)+len(a.CoLoad))
	out = append(out, a.Consolidation...)
	return append(out, a.CoLoad...)
}

// AggregateLaneVolumes sums volume by lane, period and shipment type. The
// result is ordered by lane, shipment type and then period.
func AggregateLaneVolumes(ds *Dataset) []LaneVolumeAggregate {
	sums := make(map[LaneWeekKey]float64)
	ds.each(func(r *PreparedRecord) {
		key := LaneWeekKey{Lane: r.Lane(), Period: r.Bucket, ShipmentType: r.ShipmentType}
		sums[key] += r.VolumeCBM
	})

	out := make([]LaneVolumeAggregate, 0, len(sums))
	for k, v := range sums {
		out = append(out, LaneVolumeAggregate{Key: k, VolumeCBM: v})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Key, out[j].Key
		ka := laneTypeKey{Lane: a.Lane, ShipmentType: a.ShipmentType}
		kb := laneTypeKey{Lane: b.Lane, ShipmentType: b.ShipmentType}
		if ka != kb {
			return ka.less(kb)
		}
		return a.Period.Before(b.Period)
	})
	return out
}

// SummarizeLanes averages weekly aggregates per lane and shipment type.
func SummarizeLanes(aggregates []LaneVolumeAggregate) []LaneSummary {
	type acc struct {
		sum   float64
		weeks int
	}
	groups := make(map[laneTypeKey]*acc)
	for _, agg := range aggregates {
		key := laneTypeKey{Lane: agg.Key.Lane, ShipmentType: agg.Key.ShipmentType}
		g, ok := groups[key]
		if !ok {
			g = &acc{}
			groups[key] = g
		}
		g.sum += agg.VolumeCBM
		g.weeks++
	}

	keys := make([]laneTypeKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })

	out := make([]LaneSummary, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		out = append(out, LaneSummary{
			POL:                k.Lane.POL,
			POD:                k.Lane.POD,
			ShipmentType:       k.ShipmentType,
			AvgWeeklyVolume:    g.sum / float64(g.weeks),
			WeeksWithShipments: g.weeks,
		})
	}
	return out
}

// ClassifyLane returns the opportunity label for a lane summary, or "" when
// the lane stays as it is.
func ClassifyLane(s LaneSummary) string {
	switch {
	case s.ShipmentType == TypeCarriersLCL && s.AvgWeeklyVolume >= ConsolidationThresholdCBM:
		return OpportunityConsolidation
	case s.ShipmentType == TypeLCL && s.AvgWeeklyVolume < ConsolidationThresholdCBM:
		return OpportunityCoLoad
	default:
		return ""
	}
}

// SizeContainer labels a period's LCL volume with the container it fills.
func SizeContainer(volume float64) string {
	switch {
	case volume >= Container40ftCBM:
		return Sizing40ft
	case volume >= Container20ftCBM:
		return Sizing20ft
	default:
		return SizingCombine
	}
}

// AnalyzeLanes classifies lanes into consolidation and co-load opportunities
// and sizes LCL volume per lane and period.
func AnalyzeLanes(ds *Dataset) LaneAnalysis {
	summaries := SummarizeLanes(AggregateLaneVolumes(ds))

	analysis := LaneAnalysis{
		Summaries:     summaries,
		Consolidation: []OpportunityRecord{},
		CoLoad:        []OpportunityRecord{},
	}

	for _, s := range summaries {
		switch label := ClassifyLane(s); label {
		case OpportunityConsolidation:
			analysis.Consolidation = append(analysis.Consolidation, OpportunityRecord{LaneSummary: s, Opportunity: label})
		case OpportunityCoLoad:
			analysis.CoLoad = append(analysis.CoLoad, OpportunityRecord{LaneSummary: s, Opportunity: label})
		}
	}
	sortByVolumeDesc(analysis.Consolidation)
	sortByVolumeDesc(analysis.CoLoad)

	analysis.Metrics = LaneMetrics{
		ConsolidationLanes: len(analysis.Consolidation),
		CoLoadLanes:        len(analysis.CoLoad),
	}
	for _, o := range analysis.Opportunities() {
		analysis.Metrics.VolumeImpactCBM += o.AvgWeeklyVolume
	}

	analysis.ContainerSizing, analysis.SizingMetrics = sizeContainers(ds)
	analysis.ByShipmentType = volumeByType(ds)

	return analysis
}

func sortByVolumeDesc(records []OpportunityRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].AvgWeeklyVolume > records[j].AvgWeeklyVolume
	})
}

type laneBucketKey struct {
	Lane   Lane
	Period Period
}

func sizeContainers(ds *Dataset) ([]ContainerSizing, SizingMetrics) {
	sums := make(map[laneBucketKey]float64)
	ds.each(func(r *PreparedRecord) {
		if r.ShipmentType != TypeLCL {
			return
		}
		sums[laneBucketKey{Lane: r.Lane(), Period: r.Bucket}] += r.VolumeCBM
	})

	keys := make([]laneBucketKey, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Lane != keys[j].Lane {
			return keys[i].Lane.less(keys[j].Lane)
		}
		return keys[i].Period.Before(keys[j].Period)
	})

	var metrics SizingMetrics
	sizing := make([]ContainerSizing, 0, len(keys))
	for _, k := range keys {
		volume := sums[k]
		sizing = append(sizing, ContainerSizing{
			POL:         k.Lane.POL,
			POD:         k.Lane.POD,
			Period:      k.Period,
			PeriodLabel: k.Period.Label(),
			VolumeCBM:   volume,
			Opportunity: SizeContainer(volume),
		})

		metrics.TotalVolumeCBM += volume
		if volume >= Container20ftCBM {
			metrics.Potential20ft++
		}
		if volume >= Container40ftCBM {
			metrics.Potential40ft++
		}
	}
	return sizing, metrics
}

func volumeByType(ds *Dataset) []TypeVolume {
	groups := make(map[string]*TypeVolume)
	ds.each(func(r *PreparedRecord) {
		g, ok := groups[r.ShipmentType]
		if !ok {
			g = &TypeVolume{ShipmentType: r.ShipmentType}
			groups[r.ShipmentType] = g
		}
		g.VolumeCBM += r.VolumeCBM
		g.Records++
	})

	out := make([]TypeVolume, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ShipmentType < out[j].ShipmentType })
	return out
}
