package fio

// ExecutionResult is the outcome of running one scenario. A populated Error
// marks an execution failure; zero metrics without an error are a valid
// result (a pure-write scenario reports no read IOPS by construction).
type ExecutionResult struct {
	Name        string   `json:"name"`
	Kind        TestKind `json:"kind"`
	BlockSize   string   `json:"block_size"`
	QueueDepth  int      `json:"queue_depth"`
	NumJobs     int      `json:"numjobs"`
	ReadPercent int      `json:"rwmix_read"`
	Core        bool     `json:"core,omitempty"`

	// Command is the literal invocation used, kept for reproducibility.
	Command  string  `json:"command"`
	Duration float64 `json:"duration_seconds"`
	// Fallback marks a run that timed out under the primary policy and was
	// retried with the conservative one.
	Fallback bool `json:"fallback,omitempty"`

	ReadIOPS       float64 `json:"read_iops"`
	WriteIOPS      float64 `json:"write_iops"`
	ReadMBps       float64 `json:"read_mbps"`
	WriteMBps      float64 `json:"write_mbps"`
	ReadLatencyUs  float64 `json:"read_latency_us"`
	WriteLatencyUs float64 `json:"write_latency_us"`
	ThroughputMBps float64 `json:"throughput_mbps"`

	Error string `json:"error_message,omitempty"`
}

// Failed reports whether the scenario's execution failed. Parse degradation
// never sets Error; only process failures do.
func (r *ExecutionResult) Failed() bool {
	return r.Error != ""
}

func newResult(s Scenario) ExecutionResult {
	return ExecutionResult{
		Name:        s.CaseName(),
		Kind:        s.Kind,
		BlockSize:   s.BlockSize,
		QueueDepth:  s.QueueDepth,
		NumJobs:     s.NumJobs,
		ReadPercent: s.ReadPercent,
		Core:        s.Core,
	}
}
