package fiobench

import (
	"testing"

	"fiodistbench/pkg/fio"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetricsObserve(t *testing.T) {
	m := newLazyMetrics(prometheus.NewRegistry()).Register()

	m.Observe(fio.ExecutionResult{ReadIOPS: 1000, Duration: 3})
	m.Observe(fio.ExecutionResult{WriteIOPS: 500, Fallback: true, Duration: 5})
	m.Observe(fio.ExecutionResult{Error: "timed out after 1m3s", Fallback: true, Duration: 126})

	require.Equal(t, 2.0, testutil.ToFloat64(m.ScenariosOk))
	require.Equal(t, 1.0, testutil.ToFloat64(m.ScenariosErr))
	// Both fallback attempts count, whether or not the retry rescued the run.
	require.Equal(t, 2.0, testutil.ToFloat64(m.Fallbacks))
}

func TestMetricsRegisterOnce(t *testing.T) {
	lazy := newLazyMetrics(prometheus.NewRegistry())
	first := lazy.Register()
	require.Same(t, first, lazy.Register())
}
