package runner

import (
	"context"
	"net/http"
	"testing"
	"time"

	"fiodistbench/api/benchagentapi"
	"fiodistbench/internal/worker"

	"github.com/stretchr/testify/require"
)

func startRunner(t *testing.T) (*Runner, context.Context) {
	t.Helper()
	r := New(worker.Config{DataDir: t.TempDir()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return r, ctx
}

func submit(t *testing.T, r *Runner, task worker.Task) error {
	t.Helper()
	select {
	case r.ch <- task:
		return castNotNil[error](<-r.chRet)
	case <-time.After(time.Second):
		t.Fatal("runner did not accept the task")
		return nil
	}
}

func TestRunnerRejectsTaskWhileBusy(t *testing.T) {
	r, ctx := startRunner(t)

	started := make(chan struct{})
	release := make(chan struct{})
	err := submit(t, r, worker.Task{Name: "long", Task: func(ctx context.Context) (any, error) {
		close(started)
		<-release
		return "done", nil
	}})
	require.NoError(t, err)
	<-started

	err = submit(t, r, worker.Task{Name: "second", Task: func(ctx context.Context) (any, error) {
		t.Error("a rejected task must never run")
		return nil, nil
	}})
	var statusErr *benchagentapi.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusConflict, statusErr.StatusCode())

	// The rejected submission must not displace the active task.
	status := r.Status(ctx)
	require.Equal(t, benchagentapi.StatusBusy, status.Code)
	require.Equal(t, benchagentapi.TaskName("long"), status.Task)

	close(release)
	require.Eventually(t, func() bool {
		return r.Status(ctx).Code == benchagentapi.StatusIdle
	}, 2*time.Second, 10*time.Millisecond)

	status = r.Status(ctx)
	require.Equal(t, benchagentapi.TaskName("long"), status.Task)
	require.NotNil(t, status.Last)
	require.Equal(t, "done", status.Last.Value)
}

func TestRunnerRunsTasksBackToBack(t *testing.T) {
	r, ctx := startRunner(t)

	err := submit(t, r, worker.Task{Name: "first", Task: func(ctx context.Context) (any, error) {
		return 1, nil
	}})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return r.Status(ctx).Code == benchagentapi.StatusIdle
	}, 2*time.Second, 10*time.Millisecond)

	err = submit(t, r, worker.Task{Name: "second", Task: func(ctx context.Context) (any, error) {
		return 2, nil
	}})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		status := r.Status(ctx)
		return status.Code == benchagentapi.StatusIdle && status.Task == "second"
	}, 2*time.Second, 10*time.Millisecond)
}
