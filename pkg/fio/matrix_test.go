package fio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultAxesValid(t *testing.T) {
	axes := DefaultAxes()
	require.NoError(t, axes.Validate())

	// Every queue depth must have a jobs mapping and every pairing must
	// respect the product ceiling.
	for _, qd := range axes.QueueDepths {
		jobs, ok := axes.DepthJobs[qd]
		require.True(t, ok, "queue depth %d has no mapping", qd)
		require.NotEmpty(t, jobs)
		for _, j := range jobs {
			require.LessOrEqual(t, qd*j, DefaultProductCeiling, "qd=%d jobs=%d", qd, j)
		}
	}
}

func TestMatrixCountMatchesGenerate(t *testing.T) {
	axes := DefaultAxes()
	scenarios := axes.Generate(nil)
	require.Len(t, scenarios, axes.Count())

	// The count is the sum over depths of |jobs| * |bs| * |mixes|, not a
	// flat product.
	expected := 0
	for _, qd := range axes.QueueDepths {
		expected += len(axes.DepthJobs[qd]) * len(axes.BlockSizes) * len(axes.ReadMixes)
	}
	require.Equal(t, expected, axes.Count())
}

func TestGeneratedScenariosWithinCeiling(t *testing.T) {
	axes := DefaultAxes()
	require.NoError(t, ValidateScenarios(axes.Generate(nil), axes.ProductCeiling))
}

func TestValidateRejectsCeilingViolation(t *testing.T) {
	axes := Axes{
		BlockSizes:  []string{"4k"},
		QueueDepths: []int{32},
		DepthJobs:   map[int][]int{32: {16}}, // 512 > 256
		ReadMixes:   []int{100},
	}
	err := axes.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "exceeds ceiling")
}

func TestValidateRejectsMissingMapping(t *testing.T) {
	axes := Axes{
		BlockSizes:  []string{"4k"},
		QueueDepths: []int{1, 8},
		DepthJobs:   map[int][]int{1: {1}},
		ReadMixes:   []int{0},
	}
	err := axes.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "queue depth 8 has no numjobs mapping")
}

func TestKindForReadMix(t *testing.T) {
	require.Equal(t, KindRandWrite, KindForReadMix(0))
	require.Equal(t, KindRandRead, KindForReadMix(100))
	require.Equal(t, KindRandRW, KindForReadMix(25))
	require.Equal(t, KindRandRW, KindForReadMix(50))
	require.Equal(t, KindRandRW, KindForReadMix(75))
}

func TestCaseName(t *testing.T) {
	s := Scenario{Kind: KindRandRead, BlockSize: "4k", QueueDepth: 8, NumJobs: 4, ReadPercent: 100}
	require.Equal(t, "fio_randread_4k_qd8_j4", s.CaseName())

	// Mixed workloads carry the read percentage.
	s = Scenario{Kind: KindRandRW, BlockSize: "64k", QueueDepth: 2, NumJobs: 1, ReadPercent: 75}
	require.Equal(t, "fio_randrw_64k_qd2_j1_rw75", s.CaseName())
}

func TestGenerateCorePrefix(t *testing.T) {
	core := []Scenario{
		{Name: "boot-volume", Kind: KindRandRead, BlockSize: "4k", QueueDepth: 1, NumJobs: 1, ReadPercent: 100},
		{Kind: KindRandWrite, BlockSize: "8k", QueueDepth: 2, NumJobs: 1, ReadPercent: 0},
	}
	axes := Axes{
		BlockSizes:  []string{"4k"},
		QueueDepths: []int{1},
		DepthJobs:   map[int][]int{1: {1}},
		ReadMixes:   []int{0},
	}

	scenarios := axes.Generate(core)
	require.Len(t, scenarios, 3)
	require.Equal(t, "core-boot-volume", scenarios[0].Name)
	require.Equal(t, "core-fio_randwrite_8k_qd2_j1", scenarios[1].Name)
	require.True(t, scenarios[0].Core)
	require.False(t, scenarios[2].Core)
}

func TestQuickScenariosWithinCeiling(t *testing.T) {
	scenarios := QuickScenarios()
	require.NotEmpty(t, scenarios)
	require.NoError(t, ValidateScenarios(scenarios, DefaultProductCeiling))
}
