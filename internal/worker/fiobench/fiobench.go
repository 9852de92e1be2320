// Package fiobench implements the fio matrix benchmark as a worker task
// factory: Prepare materializes backing files, Run executes the scenario
// matrix sequentially, Cleanup removes the backing files.
package fiobench

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"fiodistbench/api/benchagentapi"
	"fiodistbench/internal/worker"
	"fiodistbench/pkg/ctxutil"
	"fiodistbench/pkg/fio"
	"fiodistbench/pkg/report"
	"fiodistbench/pkg/stats"
)

// DefaultRuntime is the per-scenario runtime used when neither the worker
// config nor the task request sets one.
const DefaultRuntime = 3 * time.Second

// ReportFileName is the per-host report written into the data directory
// after a run. Collectors fetch it by this fixed name.
const ReportFileName = "report.json"

type Bench struct {
	cfg worker.Config
}

func New(cfg worker.Config) (Bench, error) {
	if cfg.DataDir == "" {
		return Bench{}, fmt.Errorf("no data directory configured")
	}
	return Bench{cfg: cfg}, nil
}

func (b *Bench) Ping(ctx context.Context) (bool, error) {
	if err := b.cfg.CheckDataDir(); err != nil {
		return false, err
	}
	return true, nil
}

// ScenariosFromConfig resolves the request into the ordered scenario list.
// Quick mode replaces the sweep with the curated quick set; core scenarios
// are prepended either way.
func ScenariosFromConfig(req benchagentapi.FioMatrixConfig) ([]fio.Scenario, error) {
	core, err := coreScenarios(req.Core)
	if err != nil {
		return nil, err
	}

	if benchagentapi.GetOptValue(req.Quick, false) {
		scenarios := append(fio.NormalizeCore(core), fio.QuickScenarios()...)
		return scenarios, fio.ValidateScenarios(scenarios, 0)
	}

	axes := fio.DefaultAxes()
	if len(req.BlockSizes) > 0 {
		axes.BlockSizes = req.BlockSizes
	}
	if len(req.QueueDepths) > 0 {
		axes.QueueDepths = req.QueueDepths
	}
	if len(req.DepthJobs) > 0 {
		axes.DepthJobs = req.DepthJobs
	}
	if len(req.ReadMixes) > 0 {
		axes.ReadMixes = req.ReadMixes
	}
	if err := axes.Validate(); err != nil {
		return nil, fmt.Errorf("matrix axes: %w", err)
	}
	return axes.Generate(core), nil
}

func coreScenarios(in []benchagentapi.FioCoreScenario) ([]fio.Scenario, error) {
	scenarios := make([]fio.Scenario, 0, len(in))
	for _, c := range in {
		kind := fio.TestKind(c.RW)
		switch kind {
		case fio.KindRandRead, fio.KindRandWrite, fio.KindRandRW, fio.KindSeqRead, fio.KindSeqWrite:
		default:
			return nil, fmt.Errorf("core scenario %q: unknown rw mode %q", c.Name, c.RW)
		}
		scenarios = append(scenarios, fio.Scenario{
			Name:        c.Name,
			Kind:        kind,
			BlockSize:   c.BS,
			QueueDepth:  c.IODepth,
			NumJobs:     c.NumJobs,
			ReadPercent: c.RWMixRead,
			Core:        true,
		})
	}
	return scenarios, nil
}

func (b *Bench) runtimeFor(req benchagentapi.FioMatrixConfig) time.Duration {
	if req.Runtime != nil && req.Runtime.Duration > 0 {
		return req.Runtime.Duration
	}
	if b.cfg.Runtime > 0 {
		return b.cfg.Runtime
	}
	return DefaultRuntime
}

// Prepare materializes every backing file the scenario list needs, so the
// timed run does not pay fio's layout cost.
func (b *Bench) Prepare(ctx context.Context, scenarios []fio.Scenario) error {
	ctx, cancel := ctxutil.WithFuncContext(ctx, func() {
		log.Printf("fio prepare: stop signal received")
	})
	defer cancel()

	for _, s := range scenarios {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fio.EnsureBackingFile(b.cfg.DataDir, s, b.cfg.FileSize); err != nil {
			return fmt.Errorf("prepare %s: %w", s.CaseName(), err)
		}
	}
	return nil
}

// RunMatrix executes the scenarios strictly in order and writes the host
// report. Scenario failures are recorded and the run continues; a canceled
// context stops the sweep but still flushes the results gathered so far.
func (b *Bench) RunMatrix(
	ctx context.Context, scenarios []fio.Scenario, runtime time.Duration, stamp string,
	observe func(fio.ExecutionResult),
) (benchagentapi.FioRunReport, error) {
	ctx, cancel := ctxutil.WithFuncContext(ctx, func() {
		log.Printf("fio run: stop signal received")
	})
	defer cancel()

	exec := fio.NewExecutor(b.cfg.DataDir, runtime)
	exec.FileSize = b.cfg.FileSize
	log.Printf("Running %d scenario(s), engine %s, runtime %s", len(scenarios), exec.Policy.Engine, runtime)

	start := time.Now()
	results := make([]fio.ExecutionResult, 0, len(scenarios))
	for i, s := range scenarios {
		if ctx.Err() != nil {
			log.Printf("fio run: stopping after %d/%d scenario(s)", i, len(scenarios))
			break
		}

		log.Printf("[%d/%d] %s", i+1, len(scenarios), s.CaseName())
		res := exec.Run(ctx, s)
		if res.Failed() {
			log.Printf("[%d/%d] %s failed: %s", i+1, len(scenarios), res.Name, res.Error)
		}
		results = append(results, res)
		if observe != nil {
			observe(res)
		}
	}

	summary := benchagentapi.FioRunReport{
		Stamp:    stamp,
		Total:    len(scenarios),
		Duration: benchagentapi.Duration{Duration: time.Since(start)},
	}
	for _, r := range results {
		if r.Failed() {
			summary.Failed++
			summary.Failures = append(summary.Failures, benchagentapi.FioFailure{Name: r.Name, Error: r.Error})
		} else {
			summary.Succeeded++
		}
	}

	host, _ := os.Hostname()
	doc := report.NewDocument(host, stamp, results)
	path := filepath.Join(b.cfg.DataDir, ReportFileName)
	if err := doc.WriteFile(path); err != nil {
		return summary, fmt.Errorf("write report: %w", err)
	}
	summary.ReportPath = path

	logSummary(results)
	return summary, ctx.Err()
}

// Cleanup removes every backing file in the data directory.
func (b *Bench) Cleanup(ctx context.Context) error {
	return fio.CleanupBackingFiles(b.cfg.DataDir)
}

func logSummary(results []fio.ExecutionResult) {
	ok := make([]fio.ExecutionResult, 0, len(results))
	for _, r := range results {
		if !r.Failed() {
			ok = append(ok, r)
		}
	}
	if len(ok) == 0 {
		return
	}

	read := stats.DistMetricStatsFrom(ok, func(r fio.ExecutionResult) float64 { return r.ReadIOPS })
	write := stats.DistMetricStatsFrom(ok, func(r fio.ExecutionResult) float64 { return r.WriteIOPS })
	log.Printf("Summary: %d ok, read IOPS min/avg/max %.0f/%.0f/%.0f, write IOPS min/avg/max %.0f/%.0f/%.0f",
		len(ok), read.Min, read.Avg, read.Max, write.Min, write.Avg, write.Max)
}
