package agentclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"fiodistbench/api/benchagentapi"

	"github.com/stretchr/testify/require"
)

func TestValidateStatus(t *testing.T) {
	validate := ValidateStatus(benchagentapi.TaskFioRun, false)

	t.Run("busy maps to ErrBusy", func(t *testing.T) {
		err := validate(benchagentapi.APIWorkerStatus{
			Code: benchagentapi.StatusBusy,
			Task: benchagentapi.TaskFioRun,
		})
		require.ErrorIs(t, err, ErrBusy)
	})

	t.Run("no task yet", func(t *testing.T) {
		require.Error(t, validate(benchagentapi.APIWorkerStatus{Code: benchagentapi.StatusIdle}))
	})

	t.Run("wrong task", func(t *testing.T) {
		err := validate(benchagentapi.APIWorkerStatus{
			Code: benchagentapi.StatusIdle,
			Task: benchagentapi.TaskFioCleanup,
			Last: &benchagentapi.Result[any]{},
		})
		require.ErrorContains(t, err, "last task is")
	})

	t.Run("finished ok", func(t *testing.T) {
		require.NoError(t, validate(benchagentapi.APIWorkerStatus{
			Code: benchagentapi.StatusIdle,
			Task: benchagentapi.TaskFioRun,
			Last: &benchagentapi.Result[any]{},
		}))
	})

	t.Run("task error surfaces unless allowed", func(t *testing.T) {
		status := benchagentapi.APIWorkerStatus{
			Code: benchagentapi.StatusIdle,
			Task: benchagentapi.TaskFioRun,
			Last: &benchagentapi.Result[any]{Error: errors.New("boom")},
		}
		require.Error(t, validate(status))
		require.NoError(t, ValidateStatus(benchagentapi.TaskFioRun, true)(status))
	})
}

func TestClientStatusAndMetrics(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":"Idle","task":"fio/run"}`))
	})
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("# TYPE fiobench_scenarios_ok_total counter\nfiobench_scenarios_ok_total 42\n"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	status, err := c.Status(context.Background())
	require.NoError(t, err)
	require.Equal(t, benchagentapi.StatusIdle, status.Code)
	require.Equal(t, benchagentapi.TaskFioRun, status.Task)

	families, err := c.Metrics(context.Background())
	require.NoError(t, err)
	require.Contains(t, families, "fiobench_scenarios_ok_total")
	require.Equal(t, 42.0, families["fiobench_scenarios_ok_total"].GetMetric()[0].GetCounter().GetValue())
}

func TestClientPostErrorSurfacesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"worker is busy"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)
	err = c.RunFio(context.Background(), benchagentapi.FioMatrixConfig{})
	require.ErrorContains(t, err, "worker is busy")
}
