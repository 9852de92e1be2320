// Package agentclient is the HTTP client for benchagent instances. It
// mirrors the agent's route tree and adds fleet-wide fan-out over a set of
// agents.
package agentclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"fiodistbench/api/benchagentapi"
	"fiodistbench/pkg/timeutil"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

var ErrBusy = errors.New("worker is busy")

type Client struct {
	base   *url.URL
	client *http.Client
}

// New builds a client for one agent base URL, e.g. http://host:8080.
func New(baseURL string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse agent url %q: %w", baseURL, err)
	}
	return &Client{
		base:   u,
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (c *Client) URL() string { return c.base.String() }

func (c *Client) Status(ctx context.Context) (status benchagentapi.APIWorkerStatus, err error) {
	err = c.getJSON(ctx, &status, "status")
	return status, err
}

func (c *Client) Healthz(ctx context.Context) (code benchagentapi.StatusCode, err error) {
	err = c.getJSON(ctx, &code, "healthz")
	return code, err
}

func (c *Client) Stop(ctx context.Context) error {
	return c.post(ctx, nil, "work", "stop")
}

func (c *Client) PrepareFio(ctx context.Context, cfg benchagentapi.FioMatrixConfig) error {
	return c.post(ctx, cfg, "work", "fio", "prepare")
}

func (c *Client) RunFio(ctx context.Context, cfg benchagentapi.FioMatrixConfig) error {
	return c.post(ctx, cfg, "work", "fio", "run")
}

func (c *Client) CleanupFio(ctx context.Context) error {
	return c.post(ctx, nil, "work", "fio", "cleanup")
}

// Metrics fetches and decodes the agent's prometheus text exposition.
func (c *Client) Metrics(ctx context.Context) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.JoinPath("metrics").String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get metrics: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metrics request failed: %s", resp.Status)
	}
	return PromDecoder(resp.Body)
}

func PromDecoder(body io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	metricFamilies, err := parser.TextToMetricFamilies(body)
	return metricFamilies, err
}

// WaitIdle polls the agent until the running task finishes and returns its
// final status. The task name guards against reading a stale result from an
// earlier task.
func (c *Client) WaitIdle(ctx context.Context, task benchagentapi.TaskName, poll time.Duration) (benchagentapi.APIWorkerStatus, error) {
	validate := ValidateStatus(task, true)

	status, err := c.Status(ctx)
	if err == nil {
		if err = validate(status); err == nil {
			return status, nil
		}
	}

	for range timeutil.IterTick(ctx, poll) {
		status, err = c.Status(ctx)
		if err != nil {
			return status, err
		}
		if err := validate(status); err != nil {
			if errors.Is(err, ErrBusy) {
				continue
			}
			return status, err
		}
		return status, nil
	}
	return status, ctx.Err()
}

func (c *Client) getJSON(ctx context.Context, out any, path ...string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.JoinPath(path...).String(), nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", req.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed (%s): %s", resp.Status, respBody)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) post(ctx context.Context, body any, path ...string) error {
	var bodyReader io.Reader
	if body != nil {
		rawBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(rawBody)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base.JoinPath(path...).String(), bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", req.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("post request failed (%s): %s", resp.Status, respBody)
	}
	return nil
}

// ValidateStatus checks a worker status for a finished run of the given
// task, translating a busy worker into ErrBusy so pollers can keep waiting.
func ValidateStatus(opName benchagentapi.TaskName, allowError bool) func(benchagentapi.APIWorkerStatus) error {
	return func(status benchagentapi.APIWorkerStatus) error {
		if status.Task == "" {
			return errors.New("no benchmark task results found")
		}
		if status.Code == benchagentapi.StatusBusy {
			return ErrBusy
		}
		if status.Task != opName {
			return fmt.Errorf("no %s status found, last task is %s", opName, status.Task)
		}
		if status.Last == nil {
			return fmt.Errorf("%v finished without results", opName)
		}
		if status.Last.Error != nil && !allowError {
			return fmt.Errorf("op %v: last task failed: %s", opName, status.Last.Error)
		}
		return nil
	}
}
