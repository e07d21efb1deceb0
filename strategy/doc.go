// Package strategy distributes keyspace partitions across workers.
//
// A plan usually has more partitions than workers. The strategies decide which
// worker processes which partition:
//
//   - WeightedConsistentHash: Consistent hashing with extreme partition handling and soft load caps
//   - ConsistentHash: Standard consistent hashing with virtual nodes
//   - RoundRobin: Simple round-robin distribution
//
// # Strategy Selection Guide
//
// WeightedConsistentHash:
//   - Use when partitions cover very different numbers of element combinations
//   - Weighs partitions with ElementWeight unless WithWeightFunc is given
//   - Handles extreme partitions (2x+ average weight) via round-robin
//
// ConsistentHash:
//   - Use when partitions are of similar size
//   - Keeps a partition on the same worker across plans while the worker stays
//
// RoundRobin:
//   - Guarantees even partition counts
//   - No affinity between plans
//
// Custom strategies can be implemented by satisfying the AssignmentStrategy interface.
package strategy
