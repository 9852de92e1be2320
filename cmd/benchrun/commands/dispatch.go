package commands

import (
	"fmt"
	"path"

	"fiodistbench/pkg/fleet"

	"github.com/spf13/cobra"
)

func dispatchCmd() *cobra.Command {
	var (
		runCommand string
		quick      bool
	)

	cmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Schedule a synchronized benchmark run on every fleet host",
		RunE: func(cmd *cobra.Command, args []string) error {
			cluster, err := readConfigFile[fleet.Config]("cluster")
			if err != nil {
				return fmt.Errorf("read cluster config: %w", err)
			}
			stamp, err := cluster.Stamp()
			if err != nil {
				return err
			}

			if runCommand == "" {
				runCommand = fmt.Sprintf("./benchrun run --stamp %s", stamp)
				if quick {
					runCommand += " --quick"
				}
			}

			transport := fleet.NewSSHTransport()
			if err := fleet.Dispatch(cmd.Context(), &cluster, transport, runCommand); err != nil {
				return err
			}
			fmt.Printf("scheduled %q on %d host(s) for %s (stamp %s)\n",
				runCommand, len(cluster.Hosts), cluster.StartTimeUTC, stamp)
			return nil
		},
	}
	cmd.Flags().StringVar(&runCommand, "command", "", "Benchmark command to schedule (defaults to a full benchrun run)")
	cmd.Flags().BoolVar(&quick, "quick", false, "Schedule the quick set instead of the full sweep")
	return cmd
}

func collectCmd() *cobra.Command {
	var (
		outDir       string
		remoteReport string
		aggregate    bool
	)

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Fetch every host's report into the centralized report tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			cluster, err := readConfigFile[fleet.Config]("cluster")
			if err != nil {
				return fmt.Errorf("read cluster config: %w", err)
			}

			remote := remoteReport
			if !path.IsAbs(remote) {
				remote = path.Join(cluster.RemoteWorkdir, remote)
			}

			transport := fleet.NewSSHTransport()
			paths, err := fleet.Collect(cmd.Context(), &cluster, transport, outDir, remote)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Println(p)
			}
			if len(paths) < len(cluster.Hosts) {
				fmt.Printf("warning: collected %d of %d host report(s)\n", len(paths), len(cluster.Hosts))
			}

			if !aggregate {
				return nil
			}
			stamp, err := cluster.Stamp()
			if err != nil {
				return err
			}
			return writeAggregate(paths, aggregatePath(outDir, stamp), cluster.P)
		},
	}
	cmd.Flags().StringVar(&outDir, "out", ".", "Local output root for the centralized report tree")
	cmd.Flags().StringVar(&remoteReport, "remote-report", "report.json", "Report path on the remote hosts, relative to the remote workdir")
	cmd.Flags().BoolVar(&aggregate, "aggregate", false, "Aggregate the collected reports immediately")
	return cmd
}
