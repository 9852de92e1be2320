package report

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"fiodistbench/pkg/fio"

	"github.com/stretchr/testify/require"
)

func TestCaseFromResult(t *testing.T) {
	c := CaseFromResult(fio.ExecutionResult{
		Name:           "fio_randrw_4k_qd8_j4_rw50",
		ReadIOPS:       1000,
		WriteIOPS:      1000,
		ReadMBps:       4,
		WriteMBps:      4,
		ReadLatencyUs:  250,
		WriteLatencyUs: 300,
	})
	require.Equal(t, 1000.0, c.Read.IOPS)
	require.NotNil(t, c.Read.Lat)
	require.Equal(t, 250.0, *c.Read.Lat)
	require.Equal(t, 300.0, *c.Write.Lat)
}

func TestCaseFromResultOmitsZeroLatency(t *testing.T) {
	c := CaseFromResult(fio.ExecutionResult{Name: "c", ReadIOPS: 100})
	require.Nil(t, c.Read.Lat)
	require.Nil(t, c.Write.Lat)

	enc, err := json.Marshal(c)
	require.NoError(t, err)
	require.NotContains(t, string(enc), "lat_us")
	require.Contains(t, string(enc), "bw_MBps")
}

func TestNewDocumentDropsFailures(t *testing.T) {
	doc := NewDocument("host1", "20260827-1200", []fio.ExecutionResult{
		{Name: "ok", ReadIOPS: 10},
		{Name: "bad", Error: "timed out"},
	})
	require.Len(t, doc.Cases, 1)
	require.Contains(t, doc.Cases, "ok")
	require.Equal(t, "host1", doc.Host)
	require.Equal(t, "20260827-1200", doc.Stamp)
}

func TestDocumentRoundTrip(t *testing.T) {
	doc := NewDocument("host1", "20260827-1200", []fio.ExecutionResult{
		{Name: "c", ReadIOPS: 10, ReadLatencyUs: 5},
	})
	path := filepath.Join(t.TempDir(), "sub", "report.json")
	require.NoError(t, doc.WriteFile(path))

	got, err := ReadDocument(path)
	require.NoError(t, err)
	require.Equal(t, doc.Cases, got.Cases)
}
