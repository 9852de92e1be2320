package fio

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testScenario() Scenario {
	return Scenario{Kind: KindRandRead, BlockSize: "4k", QueueDepth: 8, NumJobs: 4, ReadPercent: 100}
}

func newTestExecutor(t *testing.T, run runFunc) *Executor {
	t.Helper()
	return &Executor{
		WorkDir:  t.TempDir(),
		Runtime:  10 * time.Millisecond,
		Grace:    20 * time.Millisecond,
		FileSize: "4k",
		Policy:   PolicyFor(FSLocal),
		run:      run,
	}
}

func TestRunSuccess(t *testing.T) {
	var gotArgv []string
	e := newTestExecutor(t, func(ctx context.Context, dir string, argv []string) ([]byte, []byte, error) {
		gotArgv = argv
		return []byte(jsonOutput), nil, nil
	})

	res := e.Run(context.Background(), testScenario())
	require.False(t, res.Failed())
	require.False(t, res.Fallback)
	require.Equal(t, 1000.5, res.ReadIOPS)
	require.Contains(t, res.Command, "--ioengine=libaio")
	require.Contains(t, res.Command, "--direct=1")
	require.Equal(t, "fio", gotArgv[0])
}

func TestRunTimeoutFallsBackOnce(t *testing.T) {
	attempts := 0
	e := newTestExecutor(t, func(ctx context.Context, dir string, argv []string) ([]byte, []byte, error) {
		attempts++
		if attempts == 1 {
			<-ctx.Done()
			return nil, nil, ctx.Err()
		}
		return []byte(jsonOutput), nil, nil
	})

	res := e.Run(context.Background(), testScenario())
	require.Equal(t, 2, attempts)
	require.False(t, res.Failed())
	require.True(t, res.Fallback)
	require.Equal(t, 1000.5, res.ReadIOPS)
	// The recorded command is the fallback invocation.
	require.Contains(t, res.Command, "--ioengine=psync")
	require.Contains(t, res.Command, "--direct=0")
}

func TestRunTimeoutTwiceFails(t *testing.T) {
	attempts := 0
	e := newTestExecutor(t, func(ctx context.Context, dir string, argv []string) ([]byte, []byte, error) {
		attempts++
		<-ctx.Done()
		return nil, nil, ctx.Err()
	})

	res := e.Run(context.Background(), testScenario())
	require.Equal(t, 2, attempts)
	require.True(t, res.Failed())
	require.Contains(t, res.Error, "timed out")
	require.Zero(t, res.ReadIOPS)
	require.Zero(t, res.ThroughputMBps)
}

func TestRunExitErrorNoRetry(t *testing.T) {
	attempts := 0
	e := newTestExecutor(t, func(ctx context.Context, dir string, argv []string) ([]byte, []byte, error) {
		attempts++
		return nil, []byte("fio: unrecognized option\nmore detail"), errors.New("exit status 1")
	})

	res := e.Run(context.Background(), testScenario())
	require.Equal(t, 1, attempts, "a non-timeout failure must not be retried")
	require.True(t, res.Failed())
	require.Contains(t, res.Error, "unrecognized option")
	require.NotContains(t, res.Error, "more detail")
}

func TestRunCanceledContextIsNotATimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	e := newTestExecutor(t, func(ctx context.Context, dir string, argv []string) ([]byte, []byte, error) {
		attempts++
		cancel()
		<-ctx.Done()
		return nil, nil, ctx.Err()
	})

	res := e.Run(ctx, testScenario())
	require.Equal(t, 1, attempts, "cancellation must not trigger the fallback")
	require.True(t, res.Failed())
}

func TestRunMissingWorkDir(t *testing.T) {
	e := &Executor{
		WorkDir:  "/nonexistent/benchdir",
		Runtime:  time.Second,
		FileSize: "4k",
		Policy:   PolicyFor(FSLocal),
		run: func(ctx context.Context, dir string, argv []string) ([]byte, []byte, error) {
			t.Fatal("must not execute without a backing file")
			return nil, nil, nil
		},
	}
	res := e.Run(context.Background(), testScenario())
	require.True(t, res.Failed())
}

func TestCommandSynthesis(t *testing.T) {
	s := Scenario{Kind: KindRandRW, BlockSize: "64k", QueueDepth: 16, NumJobs: 4, ReadPercent: 25}
	argv := Command(s, PolicyFor(FSLocal), 3*time.Second, "")
	cmd := strings.Join(argv, " ")

	require.Contains(t, cmd, "--rw=randrw")
	require.Contains(t, cmd, "--bs=64k")
	require.Contains(t, cmd, "--iodepth=16")
	require.Contains(t, cmd, "--numjobs=4")
	require.Contains(t, cmd, "--runtime=3")
	require.Contains(t, cmd, "--rwmixread=25")
	require.Contains(t, cmd, "--size=1G")
	require.Contains(t, cmd, "--output-format=json")
	require.Contains(t, cmd, "--group_reporting")
	require.Contains(t, cmd, "--time_based")
}

func TestCommandOmitsMixForPureKinds(t *testing.T) {
	s := Scenario{Kind: KindRandRead, BlockSize: "4k", QueueDepth: 1, NumJobs: 1, ReadPercent: 100}
	cmd := strings.Join(Command(s, PolicyFor(FSLocal), time.Second, ""), " ")
	require.NotContains(t, cmd, "--rwmixread")
}
