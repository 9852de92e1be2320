package report

import (
	"fmt"
	"sort"
)

// Trend qualifies a latency movement. Throughput metrics carry no trend:
// whether more IOPS is better depends on what changed between the runs,
// but lower latency always is.
type Trend string

const (
	TrendImproved Trend = "improved"
	TrendDeclined Trend = "declined"
	TrendFlat     Trend = "flat"
)

// MetricDelta is one metric's baseline/current pair with its absolute and
// relative movement. DeltaPct is omitted when the baseline is zero rather
// than reported as a misleading 0.
type MetricDelta struct {
	Baseline float64  `json:"baseline"`
	Current  float64  `json:"current"`
	Delta    float64  `json:"delta"`
	DeltaPct *float64 `json:"delta_pct,omitempty"`
}

// LatencyDelta is a metric delta with its trend qualifier.
type LatencyDelta struct {
	MetricDelta
	Trend Trend `json:"trend"`
}

// ComparisonItem is one case's baseline-to-current movement.
type ComparisonItem struct {
	Name      string       `json:"name"`
	ReadIOPS  MetricDelta  `json:"read_iops"`
	WriteIOPS MetricDelta  `json:"write_iops"`
	ReadBW    MetricDelta  `json:"read_bw_MBps"`
	WriteBW   MetricDelta  `json:"write_bw_MBps"`
	ReadLat   LatencyDelta `json:"read_lat_us"`
	WriteLat  LatencyDelta `json:"write_lat_us"`
}

// ComparisonDocument compares two aggregate runs case by case.
type ComparisonDocument struct {
	Baseline string           `json:"baseline"`
	Current  string           `json:"current"`
	P        int              `json:"p"`
	Items    []ComparisonItem `json:"items"`
}

func newMetricDelta(baseline, current float64) MetricDelta {
	d := MetricDelta{Baseline: baseline, Current: current, Delta: current - baseline}
	if baseline != 0 {
		pct := d.Delta / baseline * 100
		d.DeltaPct = &pct
	}
	return d
}

func newLatencyDelta(baseline, current float64) LatencyDelta {
	d := LatencyDelta{MetricDelta: newMetricDelta(baseline, current)}
	switch {
	case d.Delta < 0:
		d.Trend = TrendImproved
	case d.Delta > 0:
		d.Trend = TrendDeclined
	default:
		d.Trend = TrendFlat
	}
	return d
}

// Compare builds the comparison between a baseline and a current aggregate.
// The two runs must describe the same fleet shape: comparing aggregates
// with different parallelism or host counts is an error, since summed IOPS
// across different fleet sizes are not commensurable. Cases present in only
// one run are excluded.
func Compare(baseline, current *AggregateDocument, baselineName, currentName string) (*ComparisonDocument, error) {
	if baseline.Meta.P != current.Meta.P || baseline.Meta.HostCount != current.Meta.HostCount {
		return nil, fmt.Errorf("fleet shape mismatch: baseline p=%d hosts=%d, current p=%d hosts=%d",
			baseline.Meta.P, baseline.Meta.HostCount,
			current.Meta.P, current.Meta.HostCount)
	}

	baseByName := map[string]AggregateCase{}
	for _, c := range baseline.Cases {
		baseByName[c.Name] = c
	}

	doc := &ComparisonDocument{
		Baseline: baselineName,
		Current:  currentName,
		P:        current.Meta.P,
	}
	for _, cur := range current.Cases {
		base, ok := baseByName[cur.Name]
		if !ok {
			continue
		}
		doc.Items = append(doc.Items, ComparisonItem{
			Name:      cur.Name,
			ReadIOPS:  newMetricDelta(base.Read.IOPS, cur.Read.IOPS),
			WriteIOPS: newMetricDelta(base.Write.IOPS, cur.Write.IOPS),
			ReadBW:    newMetricDelta(base.Read.BW, cur.Read.BW),
			WriteBW:   newMetricDelta(base.Write.BW, cur.Write.BW),
			ReadLat:   newLatencyDelta(base.Read.Lat, cur.Read.Lat),
			WriteLat:  newLatencyDelta(base.Write.Lat, cur.Write.Lat),
		})
	}
	sort.Slice(doc.Items, func(i, j int) bool { return doc.Items[i].Name < doc.Items[j].Name })
	return doc, nil
}

// CompareFiles compares two aggregate report files.
func CompareFiles(baselinePath, currentPath string) (*ComparisonDocument, error) {
	baseline, err := ReadAggregate(baselinePath)
	if err != nil {
		return nil, err
	}
	current, err := ReadAggregate(currentPath)
	if err != nil {
		return nil, err
	}
	return Compare(baseline, current, baselinePath, currentPath)
}
