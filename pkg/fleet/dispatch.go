package fleet

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/errgroup"
)

var collectRetryInterval = 5 * time.Second

// Dispatch schedules runCommand on every fleet host for the shared start
// time. All hosts are contacted in parallel; one unreachable host fails
// the dispatch, since a partial fleet would produce an aggregate with the
// wrong p.
func Dispatch(ctx context.Context, cfg *Config, t Transport, runCommand string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("fleet config: %w", err)
	}
	start, err := cfg.StartTime()
	if err != nil {
		return err
	}
	if time.Until(start) <= 0 {
		return fmt.Errorf("start time %s is in the past", cfg.StartTimeUTC)
	}

	stamp, _ := cfg.Stamp()
	logFile := fmt.Sprintf("run-%s.log", stamp)
	remote := BuildRemoteCommand(cfg.RemoteWorkdir, runCommand, start, logFile)

	eg, ctx := errgroup.WithContext(ctx)
	for _, host := range cfg.Hosts {
		eg.Go(func() error {
			out, err := t.Exec(ctx, host, remote)
			if err != nil {
				return fmt.Errorf("dispatch to %s: %w", host.Host, err)
			}
			log.Printf("dispatch %s: %s", host.Host, strings.TrimSpace(string(out)))
			return nil
		})
	}
	return eg.Wait()
}

// Collect pulls every host's report file into
// <outDir>/reports/centralized/<stamp>/raw/<host>.json and returns the
// local paths. Each fetch is retried with exponential backoff, since hosts
// finish their runs at slightly different times. A host whose report never
// appears is logged and skipped; the returned paths cover the hosts that
// delivered.
func Collect(ctx context.Context, cfg *Config, t Transport, outDir, remoteReport string) ([]string, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("fleet config: %w", err)
	}
	stamp, err := cfg.Stamp()
	if err != nil {
		return nil, err
	}

	rawDir := filepath.Join(outDir, "reports", "centralized", stamp, "raw")
	if err := os.MkdirAll(rawDir, 0o755); err != nil {
		return nil, err
	}

	paths := make([]string, len(cfg.Hosts))
	eg, ctx := errgroup.WithContext(ctx)
	for i, host := range cfg.Hosts {
		eg.Go(func() error {
			local := filepath.Join(rawDir, host.Host+".json")

			operation := func() (any, error) {
				if err := ctx.Err(); err != nil {
					return nil, backoff.Permanent(err)
				}
				return nil, t.FetchFile(ctx, host, remoteReport, local)
			}

			expBackoff := backoff.NewExponentialBackOff()
			expBackoff.InitialInterval = collectRetryInterval
			expBackoff.MaxInterval = 1 * time.Minute

			_, err := backoff.Retry(ctx, operation, backoff.WithBackOff(expBackoff), backoff.WithMaxTries(8))
			if err != nil {
				log.Printf("collect %s: giving up: %v", host.Host, err)
				return nil
			}
			log.Printf("collect %s: fetched %s", host.Host, local)
			paths[i] = local
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var got []string
	for _, p := range paths {
		if p != "" {
			got = append(got, p)
		}
	}
	if len(got) == 0 {
		return nil, fmt.Errorf("no reports collected from %d host(s)", len(cfg.Hosts))
	}
	return got, nil
}
