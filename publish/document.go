package publish

import (
	"time"

	"github.com/arloliu/keysplit/partition"
)

// WorkerPlan is the document stored for one worker.
type WorkerPlan struct {
	PlanID      string                `json:"planId"`
	Version     int64                 `json:"version"`
	Worker      string                `json:"worker"`
	PublishedAt time.Time             `json:"publishedAt"`
	Partitions  []PartitionDescriptor `json:"partitions"`
}

// PartitionDescriptor describes one keyspace partition by its element ranges.
type PartitionDescriptor struct {
	Index       int              `json:"index"`
	Total       int              `json:"total"`
	Fingerprint uint64           `json:"fingerprint"`
	Dimensions  []DimensionRange `json:"dimensions"`
	Dependent   []DimensionRange `json:"dependent,omitempty"`
}

// DimensionRange lists the element ids of one dimension partition. The first
// OverlapBefore and last OverlapAfter ids are overlap, the rest is the core range.
type DimensionRange struct {
	Dimension     string   `json:"dimension"`
	Elements      []string `json:"elements"`
	OverlapBefore int      `json:"overlapBefore,omitempty"`
	OverlapAfter  int      `json:"overlapAfter,omitempty"`
}

// Core returns the element ids without overlap.
func (r DimensionRange) Core() []string {
	return r.Elements[r.OverlapBefore : len(r.Elements)-r.OverlapAfter]
}

// Describe converts a keyspace partition into its wire descriptor.
func Describe(p *partition.KeyspacePartition) PartitionDescriptor {
	d := PartitionDescriptor{
		Index:       p.Index(),
		Total:       p.Total(),
		Fingerprint: p.Fingerprint(0),
	}

	for _, dp := range p.Partitions() {
		d.Dimensions = append(d.Dimensions, describeRange(dp))
	}
	for _, dp := range p.DependentPartitions() {
		d.Dependent = append(d.Dependent, describeRange(dp))
	}

	return d
}

func describeRange(dp *partition.DimensionPartition) DimensionRange {
	elems := dp.Elements()
	ids := make([]string, len(elems))
	for i, e := range elems {
		ids[i] = e.ID()
	}

	return DimensionRange{
		Dimension:     dp.Dimension().Name(),
		Elements:      ids,
		OverlapBefore: len(dp.OverlapBefore()),
		OverlapAfter:  len(dp.OverlapAfter()),
	}
}
