package strategy

import (
	"errors"

	"github.com/arloliu/keysplit/internal/hash"
	"github.com/arloliu/keysplit/partition"
)

// ConsistentHash implements consistent hashing with virtual nodes.
type ConsistentHash struct {
	virtualNodes int
	hashSeed     uint64
}

var _ AssignmentStrategy = (*ConsistentHash)(nil)

// ConsistentHashOption configures a ConsistentHash strategy.
type ConsistentHashOption func(*ConsistentHash)

// NewConsistentHash creates a new consistent hash strategy.
//
// Each partition is placed on the ring by its fingerprint, so a partition with
// the same element ranges lands on the same worker across plans as long as
// that worker stays in the set.
//
// Parameters:
//   - opts: Optional configuration (WithVirtualNodes, WithHashSeed)
//
// Returns:
//   - *ConsistentHash: Initialized consistent hash strategy
//
// Example:
//
//	s := strategy.NewConsistentHash(strategy.WithVirtualNodes(300))
//	assignments, err := s.Assign(workers, partitions)
func NewConsistentHash(opts ...ConsistentHashOption) *ConsistentHash {
	ch := &ConsistentHash{
		virtualNodes: defaultVirtualNodes,
	}

	for _, opt := range opts {
		opt(ch)
	}

	if ch.virtualNodes < 1 {
		ch.virtualNodes = 1
	}

	return ch
}

// WithVirtualNodes sets the number of virtual nodes per worker.
//
// Higher values provide better distribution but increase memory usage.
// Recommended range: 100-300 (default: 150).
func WithVirtualNodes(nodes int) ConsistentHashOption {
	return func(ch *ConsistentHash) {
		ch.virtualNodes = nodes
	}
}

// WithHashSeed sets a custom hash seed for both the ring and partition fingerprints.
func WithHashSeed(seed uint64) ConsistentHashOption {
	return func(ch *ConsistentHash) {
		ch.hashSeed = seed
	}
}

// Assign calculates partition assignments using consistent hashing.
//
// The algorithm:
//  1. Build hash ring with virtual nodes for each worker
//  2. Fingerprint each partition from its dimension ranges
//  3. Assign the partition to the nearest clockwise virtual node
//
// Parameters:
//   - workers: List of worker IDs (e.g., ["worker-0", "worker-1"])
//   - partitions: List of partitions to assign
//
// Returns:
//   - map[string][]*partition.KeyspacePartition: Map from workerID to assigned partitions
//   - error: ErrNoWorkers if no workers are given
func (ch *ConsistentHash) Assign(workers []string, partitions []*partition.KeyspacePartition) (map[string][]*partition.KeyspacePartition, error) {
	if len(workers) == 0 {
		return nil, ErrNoWorkers
	}

	ring := hash.NewRing(workers, ch.virtualNodes, ch.hashSeed)
	assignments := emptyAssignments(workers)

	for _, p := range partitions {
		worker := ring.GetNodeForHash(p.Fingerprint(ch.hashSeed))
		if worker == "" {
			return nil, errors.New("consistent hash returned empty worker")
		}
		assignments[worker] = append(assignments[worker], p)
	}

	return assignments, nil
}
