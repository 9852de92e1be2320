// Package report defines the per-host benchmark report document and the
// cross-host aggregation and comparison built on top of it.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"fiodistbench/pkg/fio"
)

// Direction holds one I/O direction's metrics for a case. Latency is
// optional: it is present only when the host's parser produced one, so
// aggregation can average over the hosts that actually reported it.
type Direction struct {
	IOPS float64  `json:"iops"`
	BW   float64  `json:"bw_MBps"`
	Lat  *float64 `json:"lat_us,omitempty"`
}

// Case is one named benchmark case in a host report.
type Case struct {
	Name  string    `json:"name"`
	Read  Direction `json:"read"`
	Write Direction `json:"write"`
}

// Document is the per-host report file: every case the host executed
// successfully, keyed by case name.
type Document struct {
	Host  string          `json:"host,omitempty"`
	Stamp string          `json:"stamp,omitempty"`
	Cases map[string]Case `json:"cases"`
}

// CaseFromResult converts a successful execution result into its report
// case. Failed results carry no usable metrics and must not be converted.
func CaseFromResult(r fio.ExecutionResult) Case {
	c := Case{
		Name:  r.Name,
		Read:  Direction{IOPS: r.ReadIOPS, BW: r.ReadMBps},
		Write: Direction{IOPS: r.WriteIOPS, BW: r.WriteMBps},
	}
	if r.ReadLatencyUs > 0 {
		lat := r.ReadLatencyUs
		c.Read.Lat = &lat
	}
	if r.WriteLatencyUs > 0 {
		lat := r.WriteLatencyUs
		c.Write.Lat = &lat
	}
	return c
}

// NewDocument builds a host report from execution results, keeping only the
// cases that succeeded.
func NewDocument(host, stamp string, results []fio.ExecutionResult) *Document {
	doc := &Document{Host: host, Stamp: stamp, Cases: map[string]Case{}}
	for _, r := range results {
		if r.Failed() {
			continue
		}
		doc.Cases[r.Name] = CaseFromResult(r)
	}
	return doc
}

// WriteFile writes the document as indented JSON, creating parent
// directories as needed.
func (d *Document) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	buf, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

// ReadDocument loads a host report from disk.
func ReadDocument(path string) (*Document, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(buf, &doc); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", path, err)
	}
	if doc.Cases == nil {
		return nil, fmt.Errorf("report %s has no cases", path)
	}
	return &doc, nil
}
