package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fiodistbench/internal/worker"
	"fiodistbench/internal/worker/fiobench"
	"fiodistbench/pkg/fleet"
	"fiodistbench/pkg/timeutil"

	"github.com/spf13/cobra"
)

func runCmd() *cobra.Command {
	var (
		dataDir   string
		fileSize  string
		runtime   time.Duration
		stamp     string
		quick     bool
		cleanup   bool
		waitStart bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the benchmark matrix on this host",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if waitStart {
				if err := waitForClusterStart(ctx); err != nil {
					return err
				}
			}
			if stamp == "" {
				stamp = timeutil.Stamp(time.Now())
			}

			cfg := worker.Config{DataDir: dataDir, Runtime: runtime, FileSize: fileSize}
			if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
				return fmt.Errorf("create data dir: %w", err)
			}

			bench, err := fiobench.New(cfg)
			if err != nil {
				return err
			}

			req, err := sweepRequest(quick)
			if err != nil {
				return err
			}
			req.Stamp = stamp

			scenarios, err := fiobench.ScenariosFromConfig(req)
			if err != nil {
				return err
			}
			if err := bench.Prepare(ctx, scenarios); err != nil {
				return err
			}

			summary, err := bench.RunMatrix(ctx, scenarios, runtime, stamp, nil)
			if err != nil && ctx.Err() == nil {
				return err
			}

			fmt.Printf("stamp %s: %d total, %d ok, %d failed in %s\n",
				summary.Stamp, summary.Total, summary.Succeeded, summary.Failed, summary.Duration)
			fmt.Printf("report: %s\n", summary.ReportPath)
			for _, f := range summary.Failures {
				fmt.Printf("failed: %s: %s\n", f.Name, f.Error)
			}

			if cleanup {
				if err := bench.Cleanup(context.Background()); err != nil {
					return fmt.Errorf("cleanup: %w", err)
				}
			}
			return ctx.Err()
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", ".", "Directory for backing files and the report")
	cmd.Flags().StringVar(&fileSize, "file-size", "1G", "Backing file size")
	cmd.Flags().DurationVar(&runtime, "runtime", fiobench.DefaultRuntime, "Per-scenario runtime")
	cmd.Flags().StringVar(&stamp, "stamp", "", "Run stamp (defaults to the current UTC minute)")
	cmd.Flags().BoolVar(&quick, "quick", false, "Run the curated quick set instead of the full sweep")
	cmd.Flags().BoolVar(&cleanup, "cleanup", false, "Remove backing files after the run")
	cmd.Flags().BoolVar(&waitStart, "wait-start", false, "Sleep until the cluster start time from the main config")
	return cmd
}

// waitForClusterStart sleeps until the fleet's shared start time. Used when
// a host is started manually instead of through dispatch.
func waitForClusterStart(ctx context.Context) error {
	cluster, err := readConfigFile[fleet.Config]("cluster")
	if err != nil {
		return fmt.Errorf("read cluster config: %w", err)
	}
	start, err := cluster.StartTime()
	if err != nil {
		return err
	}
	if d := time.Until(start); d > 0 {
		log.Printf("waiting %s until start time %s", d.Round(time.Second), cluster.StartTimeUTC)
		return timeutil.Sleep(ctx, d)
	}
	return nil
}

func cleanupCmd() *cobra.Command {
	var dataDir string
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove benchmark backing files from the data directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := worker.Config{DataDir: dataDir}
			bench, err := fiobench.New(cfg)
			if err != nil {
				return err
			}
			return bench.Cleanup(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&dataDir, "data-dir", ".", "Directory holding the backing files")
	return cmd
}
