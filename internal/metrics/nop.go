// Package metrics provides types.MetricsCollector implementations.
package metrics

import "github.com/arloliu/keysplit/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. It is the default collector of every component.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
//
// Returns:
//   - *NopMetrics: A new no-op metrics collector instance
//
// Example:
//
//	planner, _ := keysplit.NewPlanner(&cfg, keysplit.WithMetrics(metrics.NewNop()))
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// PlannerMetrics implementation

// RecordSolve discards the solver run metric.
func (n *NopMetrics) RecordSolve(_ /* duration */ float64, _ /* success */ bool) {}

// RecordPartitionsGenerated discards the partition count metric.
func (n *NopMetrics) RecordPartitionsGenerated(_ /* count */ int) {}

// DiffMetrics implementation

// RecordDiffDuration discards the diff latency metric.
func (n *NopMetrics) RecordDiffDuration(_ /* duration */ float64) {}

// RecordDiffKeys discards the per-category key count.
func (n *NopMetrics) RecordDiffKeys(_ /* facet */, _ /* category */ string, _ /* count */ int) {}

// PublishMetrics implementation

// RecordPlanPublished discards the publish metric.
func (n *NopMetrics) RecordPlanPublished(_ /* partitions */ int, _ /* version */ int64) {}
