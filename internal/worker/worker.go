package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fiodistbench/api/benchagentapi"
)

type Config struct {
	// DataDir is where backing files and reports live.
	DataDir string
	// Runtime is the default per-scenario runtime when the task config
	// leaves it unset.
	Runtime time.Duration
	// FileSize is the backing file size in fio notation.
	FileSize string
}

// CheckDataDir verifies the data directory exists and is writable. It backs
// the agent's health probe the same way a database ping would for a
// database-backed worker.
func (cfg *Config) CheckDataDir() error {
	if cfg.DataDir == "" {
		return fmt.Errorf("no data directory configured")
	}
	probe := filepath.Join(cfg.DataDir, ".benchagent-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("data dir %s not writable: %w", cfg.DataDir, err)
	}
	return os.Remove(probe)
}

type Task struct {
	Name       benchagentapi.TaskName
	Task       func(context.Context) (any, error)
	CheckReady func(context.Context) (bool, error)
}

func (t *Task) IsReady(ctx context.Context) (bool, error) {
	if t.CheckReady == nil {
		return true, nil
	}
	return t.CheckReady(ctx)
}

type TaskFactory[Config any] interface {
	Prepare(config Config) (Task, error)
	Cleanup() (Task, error)
	Run(config Config) (Task, error)
}
