package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"fiodistbench/api/benchagentapi"
	"fiodistbench/pkg/agentclient"

	"github.com/spf13/cobra"
)

func agentCmd() *cobra.Command {
	var urls []string

	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Operate benchagent instances over HTTP",
	}
	cmd.PersistentFlags().StringSliceVar(&urls, "url", nil, "Agent base URLs (defaults to the agents section of the main config)")

	newMulti := func() (*agentclient.Multi, error) {
		agents := urls
		if len(agents) == 0 {
			cfgAgents, ok := readOptionalConfig[[]string]("agents")
			if !ok || len(cfgAgents) == 0 {
				return nil, fmt.Errorf("no agents configured: pass --url or add an agents section to the main config")
			}
			agents = cfgAgents
		}
		return agentclient.NewMulti(agents)
	}

	cmd.AddCommand(agentStatusCmd(newMulti))
	cmd.AddCommand(agentRunCmd(newMulti))
	cmd.AddCommand(agentStopCmd(newMulti))
	cmd.AddCommand(agentMetricsCmd(newMulti))
	return cmd
}

type multiFactory func() (*agentclient.Multi, error)

func agentStatusCmd(newMulti multiFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print every agent's worker status",
		RunE: func(cmd *cobra.Command, args []string) error {
			multi, err := newMulti()
			if err != nil {
				return err
			}
			statuses, err := multi.Statuses(cmd.Context())
			for url, status := range statuses {
				enc, _ := json.MarshalIndent(status, "", "  ")
				fmt.Printf("%s:\n%s\n", url, enc)
			}
			return err
		},
	}
}

func agentRunCmd(newMulti multiFactory) *cobra.Command {
	var (
		quick   bool
		runtime time.Duration
		stamp   string
		wait    bool
		poll    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the fio matrix on every agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			multi, err := newMulti()
			if err != nil {
				return err
			}

			req, err := sweepRequest(quick)
			if err != nil {
				return err
			}
			req.Stamp = stamp
			if runtime > 0 {
				req.Runtime = &benchagentapi.Duration{Duration: runtime}
			}

			err = multi.Each(cmd.Context(), func(ctx context.Context, c *agentclient.Client) error {
				return c.RunFio(ctx, req)
			})
			if err != nil {
				return err
			}
			fmt.Printf("started on %d agent(s)\n", len(multi.Clients()))

			if !wait {
				return nil
			}
			return multi.Each(cmd.Context(), func(ctx context.Context, c *agentclient.Client) error {
				status, err := c.WaitIdle(ctx, benchagentapi.TaskFioRun, poll)
				if err != nil {
					return fmt.Errorf("%s: %w", c.URL(), err)
				}
				enc, _ := json.Marshal(status.Last)
				fmt.Printf("%s: %s\n", c.URL(), enc)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&quick, "quick", false, "Run the curated quick set instead of the full sweep")
	cmd.Flags().DurationVar(&runtime, "runtime", 0, "Per-scenario runtime override")
	cmd.Flags().StringVar(&stamp, "stamp", "", "Run stamp forwarded to the agents")
	cmd.Flags().BoolVar(&wait, "wait", false, "Block until every agent finishes and print the results")
	cmd.Flags().DurationVar(&poll, "poll", 10*time.Second, "Status poll interval while waiting")
	return cmd
}

func agentStopCmd(newMulti multiFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Cancel the active task on every agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			multi, err := newMulti()
			if err != nil {
				return err
			}
			return multi.Each(cmd.Context(), func(ctx context.Context, c *agentclient.Client) error {
				return c.Stop(ctx)
			})
		},
	}
}

func agentMetricsCmd(newMulti multiFactory) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Fetch and print agent metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			multi, err := newMulti()
			if err != nil {
				return err
			}
			return multi.Each(cmd.Context(), func(ctx context.Context, c *agentclient.Client) error {
				families, err := c.Metrics(ctx)
				if err != nil {
					return fmt.Errorf("%s: %w", c.URL(), err)
				}

				names := make([]string, 0, len(families))
				for name := range families {
					names = append(names, name)
				}
				sort.Strings(names)

				for _, name := range names {
					if filter != "" && !strings.HasPrefix(name, filter) {
						continue
					}
					fmt.Printf("%s: %s\n", c.URL(), families[name].String())
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "Only print metric families with this name prefix")
	return cmd
}
