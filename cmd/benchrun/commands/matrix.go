package commands

import (
	"fmt"
	"strings"
	"time"

	"fiodistbench/api/benchagentapi"
	"fiodistbench/internal/worker/fiobench"
	"fiodistbench/pkg/fio"

	"github.com/spf13/cobra"
)

func matrixCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "matrix",
		Short: "Inspect the benchmark scenario matrix",
	}
	cmd.AddCommand(matrixInfoCmd())
	cmd.AddCommand(matrixDumpCmd())
	cmd.AddCommand(matrixVerifyCmd())
	return cmd
}

// loadAxes reads the matrix section from the main config, falling back to
// the built-in sweep when the section is absent.
func loadAxes() (fio.Axes, error) {
	axes, ok := readOptionalConfig[fio.Axes]("matrix")
	if !ok {
		return fio.DefaultAxes(), nil
	}
	def := fio.DefaultAxes()
	if len(axes.BlockSizes) == 0 {
		axes.BlockSizes = def.BlockSizes
	}
	if len(axes.QueueDepths) == 0 {
		axes.QueueDepths = def.QueueDepths
	}
	if len(axes.DepthJobs) == 0 {
		axes.DepthJobs = def.DepthJobs
	}
	if len(axes.ReadMixes) == 0 {
		axes.ReadMixes = def.ReadMixes
	}
	return axes, axes.Validate()
}

// sweepRequest builds the matrix request a run sends to the bench: the
// configured axes plus any core scenarios. A configured matrix that fails
// validation is an error, never silently replaced by the default sweep.
// Quick mode skips the axes entirely.
func sweepRequest(quick bool) (benchagentapi.FioMatrixConfig, error) {
	req := benchagentapi.FioMatrixConfig{
		Quick: &quick,
		Core:  loadCoreScenarios(),
	}
	if quick {
		return req, nil
	}
	axes, err := loadAxes()
	if err != nil {
		return req, err
	}
	req.BlockSizes = axes.BlockSizes
	req.QueueDepths = axes.QueueDepths
	req.DepthJobs = axes.DepthJobs
	req.ReadMixes = axes.ReadMixes
	return req, nil
}

func loadCoreScenarios() []benchagentapi.FioCoreScenario {
	core, ok := readOptionalConfig[[]benchagentapi.FioCoreScenario]("core_scenarios.fio")
	if !ok {
		return nil
	}
	return core
}

func matrixInfoCmd() *cobra.Command {
	var runtime time.Duration
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Print matrix axis cardinalities, scenario count and runtime estimate",
		RunE: func(cmd *cobra.Command, args []string) error {
			axes, err := loadAxes()
			if err != nil {
				return err
			}

			count := axes.Count()
			core := loadCoreScenarios()

			fmt.Printf("block sizes:  %d (%s)\n", len(axes.BlockSizes), strings.Join(axes.BlockSizes, " "))
			fmt.Printf("queue depths: %d\n", len(axes.QueueDepths))
			for _, qd := range axes.QueueDepths {
				fmt.Printf("  qd %-3d -> numjobs %v\n", qd, axes.DepthJobs[qd])
			}
			fmt.Printf("read mixes:   %d %v\n", len(axes.ReadMixes), axes.ReadMixes)
			fmt.Printf("core:         %d\n", len(core))
			fmt.Printf("total:        %d scenarios\n", count+len(core))

			// Per-scenario wall time runs past --runtime: fio lays out files
			// and syncs at exit.
			perScenario := runtime + 2*time.Second
			fmt.Printf("estimated runtime: %s at %s per scenario\n",
				(time.Duration(count+len(core)) * perScenario).Round(time.Minute), runtime)
			return nil
		},
	}
	cmd.Flags().DurationVar(&runtime, "runtime", fiobench.DefaultRuntime, "Assumed per-scenario runtime for the estimate")
	return cmd
}

func matrixDumpCmd() *cobra.Command {
	var runtime time.Duration
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the numbered fio command for every scenario",
		RunE: func(cmd *cobra.Command, args []string) error {
			scenarios, err := resolveScenarios()
			if err != nil {
				return err
			}

			policy := fio.PolicyFor(fio.ProbeFilesystem(workdir))
			for i, s := range scenarios {
				argv := fio.Command(s, policy, runtime, "")
				fmt.Printf("%4d  %-40s %s\n", i+1, s.CaseName(), strings.Join(argv, " "))
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&runtime, "runtime", fiobench.DefaultRuntime, "Per-scenario runtime used in the printed commands")
	return cmd
}

func matrixVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Validate the matrix against the queue-depth x numjobs ceiling",
		RunE: func(cmd *cobra.Command, args []string) error {
			axes, err := loadAxes()
			if err != nil {
				return err
			}
			scenarios, err := resolveScenarios()
			if err != nil {
				return err
			}
			if err := fio.ValidateScenarios(scenarios, axes.ProductCeiling); err != nil {
				return err
			}
			fmt.Printf("ok: %d scenario(s) within ceiling\n", len(scenarios))
			return nil
		},
	}
}

// resolveScenarios builds the full ordered scenario list from the main
// config: core scenarios first, then the swept matrix.
func resolveScenarios() ([]fio.Scenario, error) {
	axes, err := loadAxes()
	if err != nil {
		return nil, err
	}
	req := benchagentapi.FioMatrixConfig{
		BlockSizes:  axes.BlockSizes,
		QueueDepths: axes.QueueDepths,
		DepthJobs:   axes.DepthJobs,
		ReadMixes:   axes.ReadMixes,
		Core:        loadCoreScenarios(),
	}
	return fiobench.ScenariosFromConfig(req)
}
