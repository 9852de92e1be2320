package agentclient

import (
	"context"
	"errors"
	"iter"
	"slices"
	"sync"

	"fiodistbench/api/benchagentapi"

	"golang.org/x/sync/errgroup"
)

// Multi fans one operation out to a set of agents in parallel.
type Multi struct {
	clients []*Client
}

// NewMulti builds clients for each agent URL.
func NewMulti(urls []string) (*Multi, error) {
	clients := make([]*Client, 0, len(urls))
	for _, u := range urls {
		c, err := New(u)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return &Multi{clients: clients}, nil
}

func (m *Multi) Clients() []*Client { return m.clients }

// Each runs fn against every agent in parallel and joins the failures.
func (m *Multi) Each(ctx context.Context, fn func(context.Context, *Client) error) error {
	return eachParallel(slices.Values(m.clients)).Do(ctx, fn)
}

// Statuses collects every agent's worker status, keyed by agent URL.
func (m *Multi) Statuses(ctx context.Context) (map[string]benchagentapi.APIWorkerStatus, error) {
	var mu sync.Mutex
	out := make(map[string]benchagentapi.APIWorkerStatus, len(m.clients))

	err := m.Each(ctx, func(ctx context.Context, c *Client) error {
		status, err := c.Status(ctx)
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		out[c.URL()] = status
		return nil
	})
	return out, err
}

type parallelExec[T any] struct {
	iter   iter.Seq[T]
	active int
}

func (e parallelExec[T]) Do(ctx context.Context, fn func(context.Context, T) error) error {
	var errs []error
	var mu sync.Mutex
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(e.active)

	for item := range e.iter {
		eg.Go(func() error {
			err := fn(ctx, item)
			if err != nil {
				mu.Lock()
				defer mu.Unlock()
				errs = append(errs, err)
			}
			return err
		})
	}

	eg.Wait()
	return errors.Join(errs...)
}

func eachParallel[T any](iter iter.Seq[T]) parallelExec[T] {
	return parallelExec[T]{iter: iter, active: -1}
}
