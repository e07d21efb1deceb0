package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking and must be thread-safe: planning passes
// and diffs may run concurrently in the same process.
//
// This interface composes smaller, domain-focused interfaces so that each component
// only depends on the metrics it records.
type MetricsCollector interface {
	PlannerMetrics
	DiffMetrics
	PublishMetrics
}

// PlannerMetrics defines metrics for partition-count solving and partition generation.
type PlannerMetrics interface {
	// RecordSolve records one partition-count solver run.
	//
	// Parameters:
	//   - duration: Time taken in seconds
	//   - success: false when the solver reported a constraint violation
	RecordSolve(duration float64, success bool)

	// RecordPartitionsGenerated records the number of keyspace partitions produced by one pass.
	RecordPartitionsGenerated(count int)
}

// DiffMetrics defines metrics for dataset diffing.
type DiffMetrics interface {
	// RecordDiffDuration records the time taken by one diff computation in seconds.
	RecordDiffDuration(duration float64)

	// RecordDiffKeys records how many keys of a facet landed in a category.
	//
	// Parameters:
	//   - facet: "files" or "metadata"
	//   - category: "same", "only_in_1", "only_in_2" or "different"
	//   - count: Number of keys
	RecordDiffKeys(facet, category string, count int)
}

// PublishMetrics defines metrics for plan hand-off.
type PublishMetrics interface {
	// RecordPlanPublished records a published plan version and the number of partitions it carries.
	RecordPlanPublished(partitions int, version int64)
}
