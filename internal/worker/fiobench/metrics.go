package fiobench

import (
	"sync"

	"fiodistbench/pkg/fio"
	"fiodistbench/pkg/stats"

	"github.com/prometheus/client_golang/prometheus"
)

type fioMetrics struct {
	ScenariosOk  prometheus.Counter
	ScenariosErr prometheus.Counter
	Fallbacks    prometheus.Counter

	ReadIOPS  prometheus.Histogram
	WriteIOPS prometheus.Histogram
	ReadLat   prometheus.Histogram
	WriteLat  prometheus.Histogram
	Duration  prometheus.Histogram
}

func (m *fioMetrics) RegisterMetrics(r prometheus.Registerer) {
	name := func(n string) string { return "fiobench_" + n }
	iopsBuckets := stats.ExpBuckets(1, 2, 2_000_000)
	latBuckets := stats.ExpBuckets(1, 2, 10_000_000) // microseconds

	m.ScenariosOk = prometheus.NewCounter(prometheus.CounterOpts{
		Name: name("scenarios_ok_total"),
		Help: "Scenarios completed successfully",
	})
	r.MustRegister(m.ScenariosOk)

	m.ScenariosErr = prometheus.NewCounter(prometheus.CounterOpts{
		Name: name("scenarios_failed_total"),
		Help: "Scenarios that failed",
	})
	r.MustRegister(m.ScenariosErr)

	m.Fallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: name("fallback_retries_total"),
		Help: "Scenarios retried with the fallback engine after a timeout",
	})
	r.MustRegister(m.Fallbacks)

	m.ReadIOPS = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    name("read_iops"),
		Help:    "Read IOPS per scenario",
		Buckets: iopsBuckets,
	})
	r.MustRegister(m.ReadIOPS)

	m.WriteIOPS = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    name("write_iops"),
		Help:    "Write IOPS per scenario",
		Buckets: iopsBuckets,
	})
	r.MustRegister(m.WriteIOPS)

	m.ReadLat = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    name("read_latency_us"),
		Help:    "Mean read latency per scenario in microseconds",
		Buckets: latBuckets,
	})
	r.MustRegister(m.ReadLat)

	m.WriteLat = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    name("write_latency_us"),
		Help:    "Mean write latency per scenario in microseconds",
		Buckets: latBuckets,
	})
	r.MustRegister(m.WriteLat)

	m.Duration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    name("scenario_duration_seconds"),
		Help:    "Wall time per scenario including fallback retries",
		Buckets: stats.ExpBuckets(0.5, 2, 600),
	})
	r.MustRegister(m.Duration)
}

func (m *fioMetrics) Observe(r fio.ExecutionResult) {
	m.Duration.Observe(r.Duration)
	if r.Fallback {
		m.Fallbacks.Inc()
	}
	if r.Failed() {
		m.ScenariosErr.Inc()
		return
	}
	m.ScenariosOk.Inc()
	m.ReadIOPS.Observe(r.ReadIOPS)
	m.WriteIOPS.Observe(r.WriteIOPS)
	if r.ReadLatencyUs > 0 {
		m.ReadLat.Observe(r.ReadLatencyUs)
	}
	if r.WriteLatencyUs > 0 {
		m.WriteLat.Observe(r.WriteLatencyUs)
	}
}

// lazyMetrics registers the metric group on first use so an agent that
// never runs a fio task keeps its registry clean.
type lazyMetrics struct {
	init      sync.Once
	singleton *fioMetrics
	registrar prometheus.Registerer
}

func newLazyMetrics(r prometheus.Registerer) *lazyMetrics {
	return &lazyMetrics{singleton: new(fioMetrics), registrar: r}
}

func (m *lazyMetrics) Register() *fioMetrics {
	m.init.Do(func() {
		if m.registrar != nil {
			m.singleton.RegisterMetrics(m.registrar)
		}
	})
	return m.singleton
}
