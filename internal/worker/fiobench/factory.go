package fiobench

import (
	"context"

	"fiodistbench/api/benchagentapi"
	"fiodistbench/internal/worker"
	"fiodistbench/pkg/fio"

	"github.com/prometheus/client_golang/prometheus"
)

type Factory struct {
	cfg     worker.Config
	metrics *lazyMetrics
}

func NewFactory(cfg worker.Config) *Factory {
	return &Factory{cfg: cfg}
}

func (f *Factory) WithMetrics(r prometheus.Registerer) *Factory {
	f.metrics = newLazyMetrics(r)
	return f
}

func (f *Factory) Prepare(req benchagentapi.FioMatrixConfig) (cmd worker.Task, err error) {
	scenarios, err := ScenariosFromConfig(req)
	if err != nil {
		return cmd, err
	}

	bench, err := New(f.cfg)
	if err != nil {
		return cmd, err
	}
	return worker.Task{
		Name:       benchagentapi.TaskFioPrepare,
		CheckReady: bench.Ping,
		Task: func(ctx context.Context) (any, error) {
			return nil, bench.Prepare(ctx, scenarios)
		},
	}, nil
}

func (f *Factory) Cleanup() (cmd worker.Task, err error) {
	bench, err := New(f.cfg)
	if err != nil {
		return cmd, err
	}
	return worker.Task{
		Name: benchagentapi.TaskFioCleanup,
		Task: func(ctx context.Context) (any, error) {
			return nil, bench.Cleanup(ctx)
		},
	}, nil
}

func (f *Factory) Run(req benchagentapi.FioMatrixConfig) (cmd worker.Task, err error) {
	scenarios, err := ScenariosFromConfig(req)
	if err != nil {
		return cmd, err
	}

	bench, err := New(f.cfg)
	if err != nil {
		return cmd, err
	}
	runtime := bench.runtimeFor(req)

	return worker.Task{
		Name:       benchagentapi.TaskFioRun,
		CheckReady: bench.Ping,
		Task: func(ctx context.Context) (any, error) {
			var observe func(fio.ExecutionResult)
			if f.metrics != nil {
				observe = f.metrics.Register().Observe
			}
			return bench.RunMatrix(ctx, scenarios, runtime, req.Stamp, observe)
		},
	}, nil
}
