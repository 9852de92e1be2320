package fleet

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		P:             2,
		RemoteWorkdir: "/opt/bench",
		StartTimeUTC:  "2026-08-27 14:30",
		Hosts: []Host{
			{Host: "10.0.0.1", User: "bench", Auth: Auth{Type: AuthKey, Value: "/keys/id_ed25519"}},
			{Host: "10.0.0.2", User: "bench", Auth: Auth{Type: AuthPassword, Value: "secret"}},
		},
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())

	t.Run("no hosts", func(t *testing.T) {
		cfg := validConfig()
		cfg.Hosts = nil
		require.Error(t, cfg.Validate())
	})

	t.Run("bad auth type", func(t *testing.T) {
		cfg := validConfig()
		cfg.Hosts[0].Auth.Type = "kerberos"
		require.ErrorContains(t, cfg.Validate(), "unknown auth type")
	})

	t.Run("bad start time", func(t *testing.T) {
		cfg := validConfig()
		cfg.StartTimeUTC = "tomorrow at noon"
		require.Error(t, cfg.Validate())
	})
}

func TestConfigStamp(t *testing.T) {
	cfg := validConfig()
	stamp, err := cfg.Stamp()
	require.NoError(t, err)
	require.Equal(t, "20260827-1430", stamp)

	start, err := cfg.StartTime()
	require.NoError(t, err)
	require.Equal(t, time.UTC, start.Location())
}

func TestHostAddr(t *testing.T) {
	require.Equal(t, "bench@10.0.0.1", Host{Host: "10.0.0.1", User: "bench"}.Addr())
	require.Equal(t, "10.0.0.1", Host{Host: "10.0.0.1"}.Addr())
}

func TestBuildRemoteCommand(t *testing.T) {
	start := time.Date(2026, 8, 27, 14, 30, 0, 0, time.UTC)
	cmd := BuildRemoteCommand("/opt/bench", "./benchrun run --stamp 20260827-1430", start, "run-20260827-1430.log")

	require.True(t, strings.HasPrefix(cmd, "bash -lc '"), cmd)
	require.Contains(t, cmd, "cd /opt/bench;")
	// The sleep offset is computed against the remote clock.
	require.Contains(t, cmd, `date -u -d "2026-08-27 14:30:00" +%s`)
	require.Contains(t, cmd, "sleep $D")
	require.Contains(t, cmd, "./benchrun run --stamp 20260827-1430")
	require.Contains(t, cmd, ">run-20260827-1430.log 2>&1 &")
}

func TestSSHTransportArgs(t *testing.T) {
	tr := NewSSHTransport()

	keyHost := Host{Host: "10.0.0.1", User: "bench", Auth: Auth{Type: AuthKey, Value: "/keys/id"}}
	opts := tr.sshOptions(keyHost)
	require.Contains(t, opts, "-i")
	require.Contains(t, opts, "/keys/id")
	require.Contains(t, opts, "StrictHostKeyChecking=no")

	passHost := Host{Host: "10.0.0.2", Auth: Auth{Type: AuthPassword, Value: "secret"}}
	argv := wrap(passHost, []string{"ssh", "x"})
	require.Equal(t, []string{"sshpass", "-p", "secret", "ssh", "x"}, argv)

	require.Equal(t, []string{"ssh", "x"}, wrap(keyHost, []string{"ssh", "x"}))
}
