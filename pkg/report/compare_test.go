package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func aggDoc(p, hosts int, cases ...AggregateCase) *AggregateDocument {
	return &AggregateDocument{
		Meta:  AggregateMeta{P: p, HostCount: hosts},
		Cases: cases,
	}
}

func TestCompareDeltas(t *testing.T) {
	baseline := aggDoc(2, 2, AggregateCase{
		Name: "c",
		Read: AggregateDirection{IOPS: 1000, BW: 100, Lat: 100},
	})
	current := aggDoc(2, 2, AggregateCase{
		Name: "c",
		Read: AggregateDirection{IOPS: 1200, BW: 110, Lat: 80},
	})

	doc, err := Compare(baseline, current, "base", "cur")
	require.NoError(t, err)
	require.Len(t, doc.Items, 1)
	require.Equal(t, 2, doc.P)

	item := doc.Items[0]
	require.Equal(t, 200.0, item.ReadIOPS.Delta)
	require.NotNil(t, item.ReadIOPS.DeltaPct)
	require.InDelta(t, 20.0, *item.ReadIOPS.DeltaPct, 0.001)

	// Lower latency is an improvement; throughput deltas carry no trend.
	require.Equal(t, -20.0, item.ReadLat.Delta)
	require.Equal(t, TrendImproved, item.ReadLat.Trend)
}

func TestCompareLatencyTrends(t *testing.T) {
	baseline := aggDoc(1, 1, AggregateCase{Name: "c", Read: AggregateDirection{Lat: 100}, Write: AggregateDirection{Lat: 50}})
	current := aggDoc(1, 1, AggregateCase{Name: "c", Read: AggregateDirection{Lat: 130}, Write: AggregateDirection{Lat: 50}})

	doc, err := Compare(baseline, current, "base", "cur")
	require.NoError(t, err)
	require.Equal(t, TrendDeclined, doc.Items[0].ReadLat.Trend)
	require.Equal(t, TrendFlat, doc.Items[0].WriteLat.Trend)

	// The persisted artifact carries the literal trend word.
	enc, err := json.Marshal(doc.Items[0].ReadLat)
	require.NoError(t, err)
	require.Contains(t, string(enc), `"trend":"declined"`)
}

func TestCompareOmitsPctAtZeroBaseline(t *testing.T) {
	baseline := aggDoc(1, 1, AggregateCase{Name: "c"})
	current := aggDoc(1, 1, AggregateCase{Name: "c", Read: AggregateDirection{IOPS: 500}})

	doc, err := Compare(baseline, current, "base", "cur")
	require.NoError(t, err)

	item := doc.Items[0]
	require.Equal(t, 500.0, item.ReadIOPS.Delta)
	// A zero baseline has no meaningful relative change.
	require.Nil(t, item.ReadIOPS.DeltaPct)
}

func TestCompareExcludesUnmatchedCases(t *testing.T) {
	baseline := aggDoc(1, 1,
		AggregateCase{Name: "both"},
		AggregateCase{Name: "only-baseline"},
	)
	current := aggDoc(1, 1,
		AggregateCase{Name: "both"},
		AggregateCase{Name: "only-current"},
	)

	doc, err := Compare(baseline, current, "base", "cur")
	require.NoError(t, err)
	require.Len(t, doc.Items, 1)
	require.Equal(t, "both", doc.Items[0].Name)
}

func TestCompareShapeMismatchFatal(t *testing.T) {
	_, err := Compare(aggDoc(2, 2), aggDoc(3, 3), "base", "cur")
	require.Error(t, err)
	require.Contains(t, err.Error(), "fleet shape mismatch")

	// Same p but different host counts is a mismatch too.
	_, err = Compare(aggDoc(2, 2), aggDoc(2, 1), "base", "cur")
	require.Error(t, err)
}
