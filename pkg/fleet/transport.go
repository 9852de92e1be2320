package fleet

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Transport moves commands and files between the orchestrator and fleet
// hosts.
type Transport interface {
	// Exec runs a shell command on the host and returns its combined output.
	Exec(ctx context.Context, host Host, command string) ([]byte, error)
	// FetchFile copies a remote file to a local path.
	FetchFile(ctx context.Context, host Host, remotePath, localPath string) error
}

// SSHTransport drives the system ssh and scp binaries. Key auth passes the
// identity file; password auth wraps the call in sshpass.
type SSHTransport struct {
	// ConnectTimeout bounds the TCP/auth handshake, not the remote command.
	ConnectTimeout time.Duration
}

func NewSSHTransport() *SSHTransport {
	return &SSHTransport{ConnectTimeout: 15 * time.Second}
}

func (t *SSHTransport) sshOptions(host Host) []string {
	opts := []string{
		"-o", "StrictHostKeyChecking=no",
		"-o", fmt.Sprintf("ConnectTimeout=%d", int(t.ConnectTimeout.Seconds())),
	}
	if host.Auth.Type == AuthKey {
		opts = append(opts, "-i", host.Auth.Value, "-o", "BatchMode=yes")
	}
	return opts
}

// wrap prefixes the argv with sshpass for password-auth hosts.
func wrap(host Host, argv []string) []string {
	if host.Auth.Type == AuthPassword {
		return append([]string{"sshpass", "-p", host.Auth.Value}, argv...)
	}
	return argv
}

func (t *SSHTransport) Exec(ctx context.Context, host Host, command string) ([]byte, error) {
	argv := wrap(host, append(append([]string{"ssh"}, t.sshOptions(host)...), host.Addr(), command))

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return out.Bytes(), fmt.Errorf("ssh %s: %w: %s", host.Host, err, firstLine(out.String()))
	}
	return out.Bytes(), nil
}

func (t *SSHTransport) FetchFile(ctx context.Context, host Host, remotePath, localPath string) error {
	argv := wrap(host, append(append([]string{"scp"}, t.sshOptions(host)...),
		host.Addr()+":"+remotePath, localPath))

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("scp %s:%s: %w: %s", host.Host, remotePath, err, firstLine(out.String()))
	}
	return nil
}

// BuildRemoteCommand wraps a benchmark command in the scheduling shell
// snippet run on every host: change into the workdir, compute the seconds
// until the shared start time, then launch the command in the background
// after sleeping that long. The epoch arithmetic happens on the remote
// host so local clock skew does not shift the start.
func BuildRemoteCommand(workdir, command string, start time.Time, logFile string) string {
	startArg := start.UTC().Format("2006-01-02 15:04:05")
	return fmt.Sprintf(
		`bash -lc 'cd %s; T=$(date -u -d "%s" +%%s); D=$((T-$(date -u +%%s))); if [ $D -lt 0 ]; then D=0; fi; nohup sh -c "sleep $D; %s" >%s 2>&1 & echo scheduled in $D s'`,
		workdir, startArg, command, logFile)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
