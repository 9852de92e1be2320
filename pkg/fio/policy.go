package fio

// FilesystemKind classifies the working directory's filesystem for engine
// selection.
type FilesystemKind string

const (
	FSLocal   FilesystemKind = "local"
	FSNetwork FilesystemKind = "network"
	FSUnknown FilesystemKind = "unknown"
)

// ExecutionPolicy is the engine/mode selection passed into command
// synthesis. It is computed once per executor from the probed filesystem
// kind rather than re-derived per scenario.
type ExecutionPolicy struct {
	Engine string
	// DirectIO is the default O_DIRECT setting for the engine.
	DirectIO bool
	// BufferedReads disables direct I/O for read-containing kinds. Network
	// filesystems serve direct reads through a slow synchronous RPC path, so
	// the page cache is the representative configuration there.
	BufferedReads bool
}

// UseDirect resolves the direct I/O flag for one test kind under this
// policy.
func (p ExecutionPolicy) UseDirect(kind TestKind) bool {
	if p.BufferedReads && kind.Reads() {
		return false
	}
	return p.DirectIO
}

// PolicyFor selects the execution policy for a filesystem kind. Network
// filesystems get the universally supported synchronous engine; everything
// else runs asynchronous direct I/O.
func PolicyFor(kind FilesystemKind) ExecutionPolicy {
	if kind == FSNetwork {
		return ExecutionPolicy{Engine: "psync", DirectIO: true, BufferedReads: true}
	}
	return ExecutionPolicy{Engine: "libaio", DirectIO: true}
}

// FallbackPolicy is the conservative substitution used after a timeout:
// synchronous engine, no direct I/O anywhere.
func FallbackPolicy() ExecutionPolicy {
	return ExecutionPolicy{Engine: "psync", DirectIO: false}
}
