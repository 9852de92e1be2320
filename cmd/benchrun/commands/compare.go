package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"fiodistbench/pkg/report"

	"github.com/spf13/cobra"
)

func compareCmd() *cobra.Command {
	var (
		out      string
		asJSON   bool
		latOnly  bool
		declined bool
	)

	cmd := &cobra.Command{
		Use:   "compare <baseline.json> <current.json>",
		Short: "Compare two aggregate reports case by case",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := report.CompareFiles(args[0], args[1])
			if err != nil {
				return err
			}

			if out != "" {
				enc, err := json.MarshalIndent(doc, "", "  ")
				if err != nil {
					return err
				}
				if err := os.WriteFile(out, enc, 0o644); err != nil {
					return err
				}
			}
			if asJSON {
				enc, _ := json.MarshalIndent(doc, "", "  ")
				fmt.Println(string(enc))
				return nil
			}

			for _, item := range doc.Items {
				if declined &&
					item.ReadLat.Trend != report.TrendDeclined &&
					item.WriteLat.Trend != report.TrendDeclined {
					continue
				}

				fmt.Println(item.Name)
				if !latOnly {
					printDelta("  read iops ", item.ReadIOPS)
					printDelta("  write iops", item.WriteIOPS)
					printDelta("  read MB/s ", item.ReadBW)
					printDelta("  write MB/s", item.WriteBW)
				}
				printLatDelta("  read lat  ", item.ReadLat)
				printLatDelta("  write lat ", item.WriteLat)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Also write the comparison document to this file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the comparison document as JSON")
	cmd.Flags().BoolVar(&latOnly, "latency-only", false, "Only print latency rows")
	cmd.Flags().BoolVar(&declined, "declined-only", false, "Only print cases with a declined latency trend")
	return cmd
}

func printDelta(label string, d report.MetricDelta) {
	if d.DeltaPct != nil {
		fmt.Printf("%s %12.1f -> %12.1f  %+.1f%%\n", label, d.Baseline, d.Current, *d.DeltaPct)
		return
	}
	fmt.Printf("%s %12.1f -> %12.1f\n", label, d.Baseline, d.Current)
}

func printLatDelta(label string, d report.LatencyDelta) {
	if d.DeltaPct != nil {
		fmt.Printf("%s %12.1f -> %12.1f  %+.1f%% (%s)\n", label, d.Baseline, d.Current, *d.DeltaPct, d.Trend)
		return
	}
	fmt.Printf("%s %12.1f -> %12.1f  (%s)\n", label, d.Baseline, d.Current, d.Trend)
}
