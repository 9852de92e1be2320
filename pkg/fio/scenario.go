package fio

import "fmt"

// TestKind is the fio rw mode addressed by a scenario.
type TestKind string

const (
	KindRandRead  TestKind = "randread"
	KindRandWrite TestKind = "randwrite"
	KindRandRW    TestKind = "randrw"
	KindSeqRead   TestKind = "read"
	KindSeqWrite  TestKind = "write"
)

// Reads reports whether the kind issues read I/O.
func (k TestKind) Reads() bool {
	return k == KindRandRead || k == KindRandRW || k == KindSeqRead
}

// KindForReadMix maps a read percentage onto the rw mode: 0 is a pure random
// write, 100 a pure random read, anything in between a mixed workload.
func KindForReadMix(readPercent int) TestKind {
	switch readPercent {
	case 0:
		return KindRandWrite
	case 100:
		return KindRandRead
	default:
		return KindRandRW
	}
}

// CoreNamePrefix tags explicitly authored scenarios so reporting can separate
// them from the swept matrix.
const CoreNamePrefix = "core-"

// Scenario is one fully specified benchmark configuration.
type Scenario struct {
	Name        string
	Kind        TestKind
	BlockSize   string
	QueueDepth  int
	NumJobs     int
	ReadPercent int
	Core        bool
}

// CaseName returns the stable case name used to key results across hosts and
// runs. Core scenarios keep their authored name under the core- prefix.
func (s Scenario) CaseName() string {
	if s.Name != "" {
		return s.Name
	}
	name := fmt.Sprintf("fio_%s_%s_qd%d_j%d", s.Kind, s.BlockSize, s.QueueDepth, s.NumJobs)
	if s.Kind == KindRandRW {
		name += fmt.Sprintf("_rw%d", s.ReadPercent)
	}
	return name
}

// BackingFile returns the test file name for the scenario. The name is
// derived from the scenario parameters so scenarios sharing a combination
// reuse the same file and distinct combinations never collide.
func (s Scenario) BackingFile() string {
	return fmt.Sprintf("fio_test_%s_%d_%d_%d", s.BlockSize, s.QueueDepth, s.NumJobs, s.ReadPercent)
}

// QuickScenarios is the curated list of representative scenarios used in
// quick mode instead of the exhaustive sweep.
func QuickScenarios() []Scenario {
	configs := []struct {
		bs   string
		qd   int
		jobs int
		mix  int
	}{
		{"4k", 1, 1, 0},
		{"4k", 1, 1, 100},
		{"4k", 1, 1, 50},
		{"4k", 32, 4, 0},
		{"4k", 32, 4, 100},
		{"64k", 8, 1, 0},
		{"64k", 8, 1, 100},
		{"64k", 8, 1, 50},
		{"1m", 4, 1, 0},
		{"1m", 4, 1, 100},
	}

	scenarios := make([]Scenario, 0, len(configs))
	for _, c := range configs {
		scenarios = append(scenarios, Scenario{
			Kind:        KindForReadMix(c.mix),
			BlockSize:   c.bs,
			QueueDepth:  c.qd,
			NumJobs:     c.jobs,
			ReadPercent: c.mix,
		})
	}
	return scenarios
}
