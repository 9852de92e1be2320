package commands

import (
	"fmt"
	"path/filepath"
	"sort"

	"fiodistbench/pkg/report"

	"github.com/spf13/cobra"
)

func aggregateCmd() *cobra.Command {
	var (
		out      string
		clusterP int
	)

	cmd := &cobra.Command{
		Use:   "aggregate <report.json> [<report.json> ...]",
		Short: "Aggregate per-host reports into one cross-host report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := args
			sort.Strings(paths)
			return writeAggregate(paths, out, clusterP)
		},
	}
	cmd.Flags().StringVar(&out, "out", "aggregate.json", "Output file")
	cmd.Flags().IntVar(&clusterP, "p", 0, "Declared fleet parallelism (defaults to the number of usable reports)")
	return cmd
}

func writeAggregate(paths []string, out string, clusterP int) error {
	doc, err := report.AggregateFiles(paths)
	if err != nil {
		return err
	}
	if clusterP > 0 {
		doc.Meta.P = clusterP
	}
	if err := doc.WriteFile(out); err != nil {
		return err
	}
	fmt.Printf("aggregated %d report(s), %d case(s) -> %s\n", doc.Meta.HostCount, len(doc.Cases), out)
	if doc.Meta.HostCount != doc.Meta.P && doc.Meta.P > 0 {
		fmt.Printf("warning: %d of %d host(s) reported\n", doc.Meta.HostCount, doc.Meta.P)
	}
	return nil
}

func aggregatePath(outDir, stamp string) string {
	return filepath.Join(outDir, "reports", "centralized", stamp, "aggregate.json")
}
