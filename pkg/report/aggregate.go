package report

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/xid"
)

// AggregateDirection is the fleet-wide rollup for one I/O direction: IOPS
// and bandwidth summed across hosts, latency averaged over the hosts that
// reported one. Latency is always emitted; zero means no host reported it.
type AggregateDirection struct {
	IOPS float64 `json:"iops"`
	BW   float64 `json:"bw_MBps"`
	Lat  float64 `json:"lat_us"`
}

// AggregateCase is one case rolled up across the fleet. HostCount records
// how many host reports contained the case, which may be fewer than the
// fleet size when a scenario failed on some hosts.
type AggregateCase struct {
	Name      string             `json:"name"`
	HostCount int                `json:"host_count"`
	Read      AggregateDirection `json:"read"`
	Write     AggregateDirection `json:"write"`
}

// AggregateMeta identifies an aggregation run.
type AggregateMeta struct {
	P         int      `json:"p"`
	HostCount int      `json:"host_count"`
	Timestamp string   `json:"timestamp"`
	RunID     string   `json:"run_id"`
	Sources   []string `json:"sources,omitempty"`
}

// AggregateDocument is the cross-host aggregate report.
type AggregateDocument struct {
	Meta  AggregateMeta   `json:"meta"`
	Cases []AggregateCase `json:"cases"`
}

// Aggregate rolls up host report documents into one aggregate document.
// The case list is sorted by name so aggregates diff cleanly across runs.
func Aggregate(docs []*Document, sources []string) *AggregateDocument {
	type accum struct {
		count    int
		read     AggregateDirection
		write    AggregateDirection
		readLats int
		writeLat int
	}
	byName := map[string]*accum{}

	for _, doc := range docs {
		for name, c := range doc.Cases {
			a := byName[name]
			if a == nil {
				a = &accum{}
				byName[name] = a
			}
			a.count++
			a.read.IOPS += c.Read.IOPS
			a.read.BW += c.Read.BW
			a.write.IOPS += c.Write.IOPS
			a.write.BW += c.Write.BW
			if c.Read.Lat != nil {
				a.read.Lat += *c.Read.Lat
				a.readLats++
			}
			if c.Write.Lat != nil {
				a.write.Lat += *c.Write.Lat
				a.writeLat++
			}
		}
	}

	cases := make([]AggregateCase, 0, len(byName))
	for name, a := range byName {
		if a.readLats > 0 {
			a.read.Lat /= float64(a.readLats)
		}
		if a.writeLat > 0 {
			a.write.Lat /= float64(a.writeLat)
		}
		cases = append(cases, AggregateCase{
			Name:      name,
			HostCount: a.count,
			Read:      a.read,
			Write:     a.write,
		})
	}
	sort.Slice(cases, func(i, j int) bool { return cases[i].Name < cases[j].Name })

	return &AggregateDocument{
		Meta: AggregateMeta{
			P:         len(docs),
			HostCount: len(docs),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			RunID:     xid.New().String(),
			Sources:   sources,
		},
		Cases: cases,
	}
}

// WriteFile writes the aggregate as indented JSON.
func (d *AggregateDocument) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	buf, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

// ReadAggregate loads an aggregate document from disk.
func ReadAggregate(path string) (*AggregateDocument, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc AggregateDocument
	if err := json.Unmarshal(buf, &doc); err != nil {
		return nil, fmt.Errorf("parse aggregate %s: %w", path, err)
	}
	return &doc, nil
}

// AggregateFiles reads host report files and aggregates the ones that
// parse. A malformed or unreadable report is logged and skipped rather
// than failing the whole aggregation; the meta's p reflects the reports
// actually included. Zero usable reports still produce a valid, empty
// aggregate with a host count of zero.
func AggregateFiles(paths []string) (*AggregateDocument, error) {
	var (
		docs    []*Document
		sources []string
	)
	for _, path := range paths {
		doc, err := ReadDocument(path)
		if err != nil {
			log.Printf("aggregate: skipping %s: %v", path, err)
			continue
		}
		docs = append(docs, doc)
		sources = append(sources, path)
	}
	return Aggregate(docs, sources), nil
}
