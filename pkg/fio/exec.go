package fio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strings"
	"time"
)

// DefaultGrace is the slack added on top of a scenario's nominal runtime
// before the process is considered hung. fio's layout pass and file sync at
// exit can legitimately run well past --runtime.
const DefaultGrace = 60 * time.Second

type runFunc func(ctx context.Context, dir string, argv []string) (stdout, stderr []byte, err error)

// Executor runs scenarios in a working directory under a fixed policy. The
// policy is probed once at construction; a per-scenario fallback to the
// conservative policy happens only after a timeout.
type Executor struct {
	WorkDir  string
	Runtime  time.Duration
	Grace    time.Duration
	FileSize string
	Policy   ExecutionPolicy

	run runFunc
}

// NewExecutor builds an executor for workDir, probing the directory's
// filesystem to pick the execution policy.
func NewExecutor(workDir string, runtime time.Duration) *Executor {
	kind := PolicyFor(ProbeFilesystem(workDir))
	return &Executor{
		WorkDir: workDir,
		Runtime: runtime,
		Grace:   DefaultGrace,
		Policy:  kind,
		run:     runCommand,
	}
}

// Run executes one scenario and always returns a result: failures are
// recorded in the result's Error field rather than surfaced as a Go error.
// A timed-out primary attempt is retried exactly once with the fallback
// policy; any other failure is final.
func (e *Executor) Run(ctx context.Context, s Scenario) ExecutionResult {
	res := newResult(s)

	if err := EnsureBackingFile(e.WorkDir, s, e.FileSize); err != nil {
		res.Error = err.Error()
		return res
	}

	out, timedOut, err := e.attempt(ctx, s, e.Policy, &res)
	if err != nil && timedOut {
		log.Printf("fio: %s timed out under %s, retrying with fallback engine", res.Name, e.Policy.Engine)
		res.Fallback = true
		out, _, err = e.attempt(ctx, s, FallbackPolicy(), &res)
	}
	if err != nil {
		res.Error = err.Error()
		return res
	}

	ParseOutput(out, &res)
	return res
}

func (e *Executor) attempt(ctx context.Context, s Scenario, policy ExecutionPolicy, res *ExecutionResult) (out []byte, timedOut bool, err error) {
	argv := Command(s, policy, e.Runtime, e.FileSize)
	res.Command = strings.Join(argv, " ")

	grace := e.Grace
	if grace <= 0 {
		grace = DefaultGrace
	}
	runCtx, cancel := context.WithTimeout(ctx, e.Runtime+grace)
	defer cancel()

	start := time.Now()
	stdout, stderr, err := e.run(runCtx, e.WorkDir, argv)
	res.Duration = time.Since(start).Seconds()

	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, true, fmt.Errorf("timed out after %s", e.Runtime+grace)
		}
		if msg := strings.TrimSpace(string(stderr)); msg != "" {
			return nil, false, fmt.Errorf("fio failed: %s", firstLine(msg))
		}
		return nil, false, fmt.Errorf("fio failed: %w", err)
	}
	return stdout, false, nil
}

func runCommand(ctx context.Context, dir string, argv []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
