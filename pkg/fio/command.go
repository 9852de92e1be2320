package fio

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultFileSize is the fixed working-set size for every scenario. Large
// enough that reads are not served entirely from the drive cache, small
// enough to lay out once and reuse across the sweep.
const DefaultFileSize = "1G"

// Command synthesizes the fio invocation for one scenario under the given
// policy.
func Command(s Scenario, policy ExecutionPolicy, runtime time.Duration, fileSize string) []string {
	if fileSize == "" {
		fileSize = DefaultFileSize
	}

	direct := "0"
	if policy.UseDirect(s.Kind) {
		direct = "1"
	}

	argv := []string{
		"fio",
		"--name=test",
		"--filename=" + s.BackingFile(),
		"--rw=" + string(s.Kind),
		"--bs=" + s.BlockSize,
		"--iodepth=" + strconv.Itoa(s.QueueDepth),
		"--numjobs=" + strconv.Itoa(s.NumJobs),
		fmt.Sprintf("--runtime=%d", int(runtime.Seconds())),
		"--time_based",
		"--direct=" + direct,
		"--ioengine=" + policy.Engine,
		"--group_reporting",
		"--output-format=json",
		"--size=" + fileSize,
	}
	if s.Kind == KindRandRW {
		argv = append(argv, fmt.Sprintf("--rwmixread=%d", s.ReadPercent))
	}
	return argv
}

// EnsureBackingFile materializes the scenario's test file in dir if it is
// not already present at full size. The file is extended sparsely; fio's
// own layout pass fills it on first use.
func EnsureBackingFile(dir string, s Scenario, fileSize string) error {
	if fileSize == "" {
		fileSize = DefaultFileSize
	}
	size, err := ParseSize(fileSize)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, s.BackingFile())
	if st, err := os.Stat(path); err == nil && st.Size() >= size {
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create backing file: %w", err)
	}
	defer f.Close()

	if err := f.Truncate(size); err != nil {
		return fmt.Errorf("size backing file %s: %w", path, err)
	}
	return nil
}

// CleanupBackingFiles removes every materialized test file in dir. Invoked
// explicitly after a full matrix run, never per scenario.
func CleanupBackingFiles(dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "fio_test_*"))
	if err != nil {
		return err
	}
	var errs []error
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("cleanup backing files: %w", errs[0])
	}
	return nil
}

// ParseSize converts a fio-style size string (4k, 64M, 1G) to bytes.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}

	mult := int64(1)
	switch s[len(s)-1] {
	case 'k', 'K':
		mult = 1 << 10
		s = s[:len(s)-1]
	case 'm', 'M':
		mult = 1 << 20
		s = s[:len(s)-1]
	case 'g', 'G':
		mult = 1 << 30
		s = s[:len(s)-1]
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse size %q: %w", s, err)
	}
	return n * mult, nil
}
