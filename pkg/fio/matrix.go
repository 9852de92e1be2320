package fio

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultProductCeiling bounds queue_depth * numjobs for every generated
// scenario. Larger products exhaust the submission queues of most virtio and
// network-attached disks and produce numbers that measure the resulting
// starvation instead of the device.
const DefaultProductCeiling = 256

// Axes describes the swept parameter space. The queue-depth axis carries a
// dependent mapping to the numjobs values permitted at that depth instead of
// being a flat cross product.
type Axes struct {
	BlockSizes     []string      `yaml:"block_sizes" json:"block_sizes"`
	QueueDepths    []int         `yaml:"queue_depths" json:"queue_depths"`
	DepthJobs      map[int][]int `yaml:"depth_jobs" json:"depth_jobs"`
	ReadMixes      []int         `yaml:"read_mixes" json:"read_mixes"`
	ProductCeiling int           `yaml:"product_ceiling" json:"product_ceiling"`
}

// DefaultAxes returns the authoritative sweep: low queue depths pair with few
// jobs, high depths with more, and every pairing stays at or under the
// product ceiling.
func DefaultAxes() Axes {
	return Axes{
		BlockSizes:  []string{"4k", "8k", "16k", "32k", "64k", "128k", "1m", "4m"},
		QueueDepths: []int{1, 2, 4, 8, 16, 32, 64},
		DepthJobs: map[int][]int{
			1:  {1, 4},
			2:  {1, 4},
			4:  {1, 4},
			8:  {4, 8},
			16: {4, 8},
			32: {4, 8},
			64: {2, 4},
		},
		ReadMixes:      []int{0, 25, 50, 75, 100},
		ProductCeiling: DefaultProductCeiling,
	}
}

func (a Axes) ceiling() int {
	if a.ProductCeiling > 0 {
		return a.ProductCeiling
	}
	return DefaultProductCeiling
}

// Count computes the matrix size from the axes. The dependent depth->jobs
// mapping makes this a sum over queue depths, not a flat product.
func (a Axes) Count() int {
	n := 0
	for _, qd := range a.QueueDepths {
		n += len(a.DepthJobs[qd]) * len(a.BlockSizes) * len(a.ReadMixes)
	}
	return n
}

// Validate checks the axes for completeness and for ceiling violations. A
// queue depth without a jobs mapping and any depth*jobs product above the
// ceiling are both configuration defects.
func (a Axes) Validate() error {
	var errs []error
	if len(a.BlockSizes) == 0 {
		errs = append(errs, errors.New("no block sizes configured"))
	}
	if len(a.ReadMixes) == 0 {
		errs = append(errs, errors.New("no read mixes configured"))
	}
	for _, mix := range a.ReadMixes {
		if mix < 0 || mix > 100 {
			errs = append(errs, fmt.Errorf("read mix %d out of range [0,100]", mix))
		}
	}
	for _, qd := range a.QueueDepths {
		jobs, ok := a.DepthJobs[qd]
		if !ok || len(jobs) == 0 {
			errs = append(errs, fmt.Errorf("queue depth %d has no numjobs mapping", qd))
			continue
		}
		for _, j := range jobs {
			if qd*j > a.ceiling() {
				errs = append(errs, fmt.Errorf("queue depth %d x numjobs %d = %d exceeds ceiling %d",
					qd, j, qd*j, a.ceiling()))
			}
		}
	}
	return errors.Join(errs...)
}

// Generate enumerates the full ordered scenario list: core scenarios first,
// then the nested sweep over block size, queue depth, the jobs permitted at
// that depth, and read mix.
func (a Axes) Generate(core []Scenario) []Scenario {
	scenarios := make([]Scenario, 0, len(core)+a.Count())
	scenarios = append(scenarios, NormalizeCore(core)...)

	for _, bs := range a.BlockSizes {
		for _, qd := range a.QueueDepths {
			for _, jobs := range a.DepthJobs[qd] {
				for _, mix := range a.ReadMixes {
					scenarios = append(scenarios, Scenario{
						Kind:        KindForReadMix(mix),
						BlockSize:   bs,
						QueueDepth:  qd,
						NumJobs:     jobs,
						ReadPercent: mix,
					})
				}
			}
		}
	}
	return scenarios
}

// NormalizeCore marks scenarios as core and enforces the core- name prefix
// so swept and authored cases never collide.
func NormalizeCore(core []Scenario) []Scenario {
	out := make([]Scenario, 0, len(core))
	for _, s := range core {
		s.Core = true
		if s.Name == "" {
			s.Name = s.CaseName()
		}
		if !strings.HasPrefix(s.Name, CoreNamePrefix) {
			s.Name = CoreNamePrefix + s.Name
		}
		out = append(out, s)
	}
	return out
}

// ValidateScenarios is the standalone validation pass over a generated
// matrix: it reports every scenario whose depth*jobs product exceeds the
// ceiling. Violations are configuration defects, not runtime errors.
func ValidateScenarios(scenarios []Scenario, ceiling int) error {
	if ceiling <= 0 {
		ceiling = DefaultProductCeiling
	}
	var errs []error
	for _, s := range scenarios {
		if s.QueueDepth*s.NumJobs > ceiling {
			errs = append(errs, fmt.Errorf("%s: queue depth %d x numjobs %d exceeds ceiling %d",
				s.CaseName(), s.QueueDepth, s.NumJobs, ceiling))
		}
	}
	return errors.Join(errs...)
}
