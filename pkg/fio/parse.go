package fio

import (
	"encoding/json"
	"log"
	"strconv"
	"strings"
)

// fioJobOutput mirrors the subset of fio's JSON output we consume: the first
// job's read/write sub-records with IOPS, bandwidth (KB/s) and mean latency
// (ns).
type fioJobOutput struct {
	Jobs []struct {
		Read  *fioDirStats `json:"read"`
		Write *fioDirStats `json:"write"`
	} `json:"jobs"`
}

type fioDirStats struct {
	IOPS      float64 `json:"iops"`
	Bandwidth float64 `json:"bw"`
	LatNs     struct {
		Mean float64 `json:"mean"`
	} `json:"lat_ns"`
}

// ParseOutput populates the metric fields of res from raw fio output. The
// structured JSON form is preferred; if it is malformed or yields no usable
// IOPS the line-oriented text form is scanned instead. Parsing never fails
// the result: anything unusable leaves the metrics at zero and logs a
// warning.
func ParseOutput(out []byte, res *ExecutionResult) {
	if !parseJSONOutput(out, res) || (res.ReadIOPS == 0 && res.WriteIOPS == 0) {
		parseTextOutput(out, res)
	}
	res.ThroughputMBps = res.ReadMBps + res.WriteMBps
}

func parseJSONOutput(out []byte, res *ExecutionResult) bool {
	var doc fioJobOutput
	if err := json.Unmarshal(out, &doc); err != nil {
		log.Printf("fio: JSON output unusable, falling back to text parse: %v", err)
		return false
	}
	if len(doc.Jobs) == 0 {
		return false
	}

	job := doc.Jobs[0]
	if r := job.Read; r != nil {
		res.ReadIOPS = r.IOPS
		res.ReadMBps = r.Bandwidth / 1024 // fio reports KB/s
		res.ReadLatencyUs = r.LatNs.Mean / 1000
	}
	if w := job.Write; w != nil {
		res.WriteIOPS = w.IOPS
		res.WriteMBps = w.Bandwidth / 1024
		res.WriteLatencyUs = w.LatNs.Mean / 1000
	}
	return true
}

func parseTextOutput(out []byte, res *ExecutionResult) {
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)

		switch {
		case strings.Contains(line, "read:") && strings.Contains(line, "IOPS="):
			parseTextLine(line, &res.ReadIOPS, &res.ReadMBps)
		case strings.Contains(line, "write:") && strings.Contains(line, "IOPS="):
			parseTextLine(line, &res.WriteIOPS, &res.WriteMBps)
		}
	}
}

func parseTextLine(line string, iops, mbps *float64) {
	for _, part := range strings.Split(line, ",") {
		part = strings.TrimSpace(part)

		if v, ok := cutField(part, "IOPS="); ok {
			f, err := strconv.ParseFloat(strings.TrimSuffix(v, "k"), 64)
			if err != nil {
				log.Printf("fio: unparseable IOPS token %q", part)
				continue
			}
			if strings.HasSuffix(v, "k") {
				f *= 1000
			}
			*iops = f
		}

		if v, ok := cutField(part, "BW="); ok {
			f, ok := parseBandwidth(v)
			if !ok {
				log.Printf("fio: unparseable BW token %q", part)
				continue
			}
			*mbps = f
		}
	}
}

// cutField extracts the value of a key=value token that may be embedded
// mid-part (fio writes "BW=10.0MiB/s (10.5MB/s, ...)").
func cutField(part, key string) (string, bool) {
	idx := strings.Index(part, key)
	if idx < 0 {
		return "", false
	}
	v := part[idx+len(key):]
	if end := strings.IndexByte(v, ' '); end >= 0 {
		v = v[:end]
	}
	return strings.TrimSpace(v), true
}

// parseBandwidth converts a fio bandwidth token to MB/s based on its unit
// suffix.
func parseBandwidth(v string) (float64, bool) {
	scale := 1.0
	switch {
	case strings.HasSuffix(v, "KiB/s"):
		v = strings.TrimSuffix(v, "KiB/s")
		scale = 1.0 / 1024
	case strings.HasSuffix(v, "MiB/s"):
		v = strings.TrimSuffix(v, "MiB/s")
	case strings.HasSuffix(v, "GiB/s"):
		v = strings.TrimSuffix(v, "GiB/s")
		scale = 1024
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return f * scale, true
}
