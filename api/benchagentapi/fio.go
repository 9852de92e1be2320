package benchagentapi

// FioMatrixConfig is the request payload for the fio matrix tasks. Empty axis
// fields fall back to the agent's built-in defaults, so an orchestrator only
// needs to send the sections it wants to override.
type FioMatrixConfig struct {
	Runtime     *Duration         `json:"runtime,omitempty" yaml:"runtime"`
	Quick       *bool             `json:"quick,omitempty" yaml:"quick"`
	Stamp       string            `json:"stamp,omitempty" yaml:"stamp"`
	BlockSizes  []string          `json:"block_sizes,omitempty" yaml:"block_sizes"`
	QueueDepths []int             `json:"queue_depths,omitempty" yaml:"queue_depths"`
	DepthJobs   map[int][]int     `json:"depth_jobs,omitempty" yaml:"depth_jobs"`
	ReadMixes   []int             `json:"read_mixes,omitempty" yaml:"read_mixes"`
	Core        []FioCoreScenario `json:"core,omitempty" yaml:"core"`
}

// FioCoreScenario is an explicitly authored scenario that is prepended to
// every run, outside the swept matrix. Field names follow the fio options
// they map onto.
type FioCoreScenario struct {
	Name      string `json:"name" yaml:"name"`
	RW        string `json:"rw" yaml:"rw"`
	BS        string `json:"bs" yaml:"bs"`
	IODepth   int    `json:"iodepth" yaml:"iodepth"`
	NumJobs   int    `json:"numjobs" yaml:"numjobs"`
	RWMixRead int    `json:"rwmixread" yaml:"rwmixread"`
}

type FioRunReport struct {
	Stamp      string       `json:"stamp"`
	Total      int          `json:"total"`
	Succeeded  int          `json:"succeeded"`
	Failed     int          `json:"failed"`
	Duration   Duration     `json:"duration"`
	ReportPath string       `json:"report_path,omitempty"`
	Failures   []FioFailure `json:"failures,omitempty"`
}

type FioFailure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}
