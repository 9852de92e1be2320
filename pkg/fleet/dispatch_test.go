package fleet

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	mu      sync.Mutex
	execs   map[string]string
	fetches map[string]int
	// failUntil makes FetchFile fail the first n attempts per host.
	failUntil int
	failHosts map[string]bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		execs:     map[string]string{},
		fetches:   map[string]int{},
		failHosts: map[string]bool{},
	}
}

func (f *fakeTransport) Exec(ctx context.Context, host Host, command string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failHosts[host.Host] {
		return nil, fmt.Errorf("connection refused")
	}
	f.execs[host.Host] = command
	return []byte("scheduled in 42 s"), nil
}

func (f *fakeTransport) FetchFile(ctx context.Context, host Host, remotePath, localPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches[host.Host]++
	if f.failHosts[host.Host] {
		return errors.New("no such file")
	}
	if f.fetches[host.Host] <= f.failUntil {
		return errors.New("report not ready")
	}
	return os.WriteFile(localPath, []byte(`{"cases":{}}`), 0o644)
}

func futureConfig() Config {
	cfg := validConfig()
	cfg.StartTimeUTC = time.Now().UTC().Add(time.Hour).Format("2006-01-02 15:04")
	return cfg
}

func TestDispatchReachesEveryHost(t *testing.T) {
	cfg := futureConfig()
	tr := newFakeTransport()

	require.NoError(t, Dispatch(context.Background(), &cfg, tr, "./benchrun run"))
	require.Len(t, tr.execs, 2)
	for _, cmd := range tr.execs {
		require.Contains(t, cmd, "cd /opt/bench;")
		require.Contains(t, cmd, "./benchrun run")
	}
}

func TestDispatchRejectsPastStartTime(t *testing.T) {
	cfg := validConfig() // 2026-08-27 14:30 is in the past for a live run
	cfg.StartTimeUTC = "2020-01-01 00:00"
	err := Dispatch(context.Background(), &cfg, newFakeTransport(), "x")
	require.ErrorContains(t, err, "in the past")
}

func TestDispatchFailsOnUnreachableHost(t *testing.T) {
	cfg := futureConfig()
	tr := newFakeTransport()
	tr.failHosts["10.0.0.2"] = true

	err := Dispatch(context.Background(), &cfg, tr, "x")
	require.ErrorContains(t, err, "10.0.0.2")
}

func fastRetries(t *testing.T) {
	t.Helper()
	old := collectRetryInterval
	collectRetryInterval = time.Millisecond
	t.Cleanup(func() { collectRetryInterval = old })
}

func TestCollectRetriesAndSkipsMissing(t *testing.T) {
	fastRetries(t)
	cfg := futureConfig()
	out := t.TempDir()

	tr := newFakeTransport()
	tr.failUntil = 1 // first fetch per host fails, retry succeeds
	tr.failHosts["10.0.0.2"] = true

	paths, err := Collect(context.Background(), &cfg, tr, out, "/opt/bench/report.json")
	require.NoError(t, err)
	require.Len(t, paths, 1)

	stamp, err := cfg.Stamp()
	require.NoError(t, err)
	want := filepath.Join(out, "reports", "centralized", stamp, "raw", "10.0.0.1.json")
	require.Equal(t, want, paths[0])
	require.FileExists(t, want)
	require.GreaterOrEqual(t, tr.fetches["10.0.0.1"], 2)
}

func TestCollectAllMissing(t *testing.T) {
	fastRetries(t)
	cfg := futureConfig()
	tr := newFakeTransport()
	tr.failHosts["10.0.0.1"] = true
	tr.failHosts["10.0.0.2"] = true

	_, err := Collect(context.Background(), &cfg, tr, t.TempDir(), "/opt/bench/report.json")
	require.ErrorContains(t, err, "no reports collected")
}
