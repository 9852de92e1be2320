// Package fleet describes the benchmark cluster and schedules synchronized
// runs across it. Hosts never talk to each other; the only coordination is
// a shared UTC start time every host sleeps until.
package fleet

import (
	"errors"
	"fmt"
	"time"

	"fiodistbench/pkg/timeutil"
)

// Auth selects how a host is reached: an SSH private key file or a
// password handed to sshpass.
type Auth struct {
	Type  string `yaml:"type" json:"type"`
	Value string `yaml:"value" json:"value"`
}

const (
	AuthKey      = "key"
	AuthPassword = "password"
)

// Host is one benchmark target.
type Host struct {
	Host string `yaml:"host" json:"host"`
	User string `yaml:"user" json:"user"`
	Auth Auth   `yaml:"auth" json:"auth"`
}

// Addr returns the user@host form used by ssh and scp.
func (h Host) Addr() string {
	if h.User == "" {
		return h.Host
	}
	return h.User + "@" + h.Host
}

// Config is the cluster descriptor. P records the intended parallelism of
// the run and is carried into aggregate metadata; it normally equals the
// host count but is declared explicitly so a partial fleet is detectable.
type Config struct {
	P             int    `yaml:"p" json:"p"`
	RemoteWorkdir string `yaml:"remote_workdir" json:"remote_workdir"`
	StartTimeUTC  string `yaml:"start_time_utc" json:"start_time_utc"`
	Hosts         []Host `yaml:"vms" json:"vms"`
}

// Validate checks the descriptor for the fields every fleet operation
// needs.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Hosts) == 0 {
		errs = append(errs, errors.New("no hosts configured"))
	}
	if c.P <= 0 {
		errs = append(errs, fmt.Errorf("p must be positive, got %d", c.P))
	}
	if c.RemoteWorkdir == "" {
		errs = append(errs, errors.New("remote_workdir is required"))
	}
	for i, h := range c.Hosts {
		if h.Host == "" {
			errs = append(errs, fmt.Errorf("host %d has no address", i))
		}
		switch h.Auth.Type {
		case AuthKey, AuthPassword:
		default:
			errs = append(errs, fmt.Errorf("host %s: unknown auth type %q", h.Host, h.Auth.Type))
		}
	}
	if _, err := c.StartTime(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// StartTime parses the configured shared start time.
func (c *Config) StartTime() (time.Time, error) {
	if c.StartTimeUTC == "" {
		return time.Time{}, errors.New("start_time_utc is required")
	}
	t, err := timeutil.ParseStartTime(c.StartTimeUTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse start_time_utc %q: %w", c.StartTimeUTC, err)
	}
	return t, nil
}

// Stamp derives the run stamp all hosts in this fleet run share.
func (c *Config) Stamp() (string, error) {
	t, err := c.StartTime()
	if err != nil {
		return "", err
	}
	return timeutil.Stamp(t), nil
}
