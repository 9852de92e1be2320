package main

import (
	"flag"
	"fmt"
	"log"

	"fiodistbench/pkg/report"
	"fiodistbench/pkg/stats"
)

type HostSummary struct {
	File      string  `json:"file"`
	Cases     int     `json:"cases"`
	ReadIOPS  float64 `json:"readIOPS"`
	WriteIOPS float64 `json:"writeIOPS"`
	ReadMBps  float64 `json:"readMBps"`
	WriteMBps float64 `json:"writeMBps"`
}

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatal("At least one report filename is required as a positional argument.")
	}

	var allSummaries []HostSummary
	for _, filename := range flag.Args() {
		summary, err := fileSummary(filename)
		if err != nil {
			log.Fatalf("Failed to get file summary for %s: %v", filename, err)
		}

		allSummaries = append(allSummaries, summary)
	}

	fmt.Println("\nSummary Table:")
	header := fmt.Sprintf("%-40s %-8s %-15s %-15s %-15s %-15s", "file", "cases", "readIOPS", "writeIOPS", "readMBps", "writeMBps")
	sep := fmt.Sprintf("%-40s %-8s %-15s %-15s %-15s %-15s",
		"----------------------------------------", "--------",
		"---------------", "---------------", "---------------", "---------------")
	fmt.Println(header)
	fmt.Println(sep)

	for _, s := range allSummaries {
		fmt.Printf("%-40s %-8d %-15.1f %-15.1f %-15.2f %-15.2f\n",
			s.File, s.Cases, s.ReadIOPS, s.WriteIOPS, s.ReadMBps, s.WriteMBps)
	}
	fmt.Println(sep)

	fmt.Printf("%-49s %-15.1f %-15.1f %-15.2f %-15.2f\n", "Averages",
		stats.SliceAverageFunc(allSummaries, func(s HostSummary) float64 { return s.ReadIOPS }),
		stats.SliceAverageFunc(allSummaries, func(s HostSummary) float64 { return s.WriteIOPS }),
		stats.SliceAverageFunc(allSummaries, func(s HostSummary) float64 { return s.ReadMBps }),
		stats.SliceAverageFunc(allSummaries, func(s HostSummary) float64 { return s.WriteMBps }))

	fmt.Printf("%-49s %-15.1f %-15.1f %-15.2f %-15.2f\n", "Medians",
		stats.SlicesMedianOf(allSummaries, func(s HostSummary) float64 { return s.ReadIOPS }),
		stats.SlicesMedianOf(allSummaries, func(s HostSummary) float64 { return s.WriteIOPS }),
		stats.SlicesMedianOf(allSummaries, func(s HostSummary) float64 { return s.ReadMBps }),
		stats.SlicesMedianOf(allSummaries, func(s HostSummary) float64 { return s.WriteMBps }))
}

func fileSummary(filename string) (HostSummary, error) {
	doc, err := report.ReadDocument(filename)
	if err != nil {
		return HostSummary{}, err
	}

	summary := HostSummary{File: filename, Cases: len(doc.Cases)}
	for _, c := range doc.Cases {
		summary.ReadIOPS += c.Read.IOPS
		summary.WriteIOPS += c.Write.IOPS
		summary.ReadMBps += c.Read.BW
		summary.WriteMBps += c.Write.BW
	}
	return summary, nil
}
