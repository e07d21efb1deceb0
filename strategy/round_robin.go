package strategy

import "github.com/arloliu/keysplit/partition"

// RoundRobin implements simple round-robin partition assignment.
type RoundRobin struct{}

var _ AssignmentStrategy = (*RoundRobin)(nil)

// NewRoundRobin creates a new round-robin strategy.
//
// Partitions are dealt to workers in partition order, so worker i receives
// partitions i, i+n, i+2n and so on. Assignment is predictable but moves most
// partitions whenever the worker set changes.
//
// Returns:
//   - *RoundRobin: Initialized round-robin strategy
//
// Example:
//
//	assignments, err := strategy.NewRoundRobin().Assign(workers, partitions)
func NewRoundRobin() *RoundRobin {
	return &RoundRobin{}
}

// Assign deals partitions to workers in round-robin order.
//
// Parameters:
//   - workers: List of worker IDs (e.g., ["worker-0", "worker-1"])
//   - partitions: List of partitions to assign
//
// Returns:
//   - map[string][]*partition.KeyspacePartition: Map from workerID to assigned partitions
//   - error: ErrNoWorkers if no workers are given
func (rr *RoundRobin) Assign(workers []string, partitions []*partition.KeyspacePartition) (map[string][]*partition.KeyspacePartition, error) {
	if len(workers) == 0 {
		return nil, ErrNoWorkers
	}

	assignments := emptyAssignments(workers)
	for i, p := range partitions {
		worker := workers[i%len(workers)]
		assignments[worker] = append(assignments[worker], p)
	}

	return assignments, nil
}
