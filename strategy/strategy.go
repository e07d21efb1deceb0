package strategy

import "github.com/arloliu/keysplit/partition"

// AssignmentStrategy distributes keyspace partitions across workers.
//
// Implementations should be deterministic (same input, same output) and
// stateless. Every worker in the input must appear in the result, with an
// empty slice when it receives nothing.
type AssignmentStrategy interface {
	// Assign calculates partition assignments for the given workers.
	//
	// Parameters:
	//   - workers: List of worker IDs to assign partitions to
	//   - partitions: Partitions produced by a KeyspacePartitioner
	//
	// Returns:
	//   - map[string][]*partition.KeyspacePartition: Map from workerID to assigned partitions
	//   - error: ErrNoWorkers when workers is empty
	Assign(workers []string, partitions []*partition.KeyspacePartition) (map[string][]*partition.KeyspacePartition, error)
}

func emptyAssignments(workers []string) map[string][]*partition.KeyspacePartition {
	assignments := make(map[string][]*partition.KeyspacePartition, len(workers))
	for _, w := range workers {
		assignments[w] = []*partition.KeyspacePartition{}
	}

	return assignments
}
