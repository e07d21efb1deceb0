package strategy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func allStrategies() map[string]AssignmentStrategy {
	return map[string]AssignmentStrategy{
		"ConsistentHash":         NewConsistentHash(),
		"RoundRobin":             NewRoundRobin(),
		"WeightedConsistentHash": NewWeightedConsistentHash(),
	}
}

func TestAssignmentStrategy_NoWorkers(t *testing.T) {
	parts := gridPartitions(t, 4, 1, 2, 1)

	for name, s := range allStrategies() {
		t.Run(name, func(t *testing.T) {
			_, err := s.Assign(nil, parts)
			require.ErrorIs(t, err, ErrNoWorkers)
		})
	}
}

func TestAssignmentStrategy_ZeroPartitions(t *testing.T) {
	workers := []string{"worker-0", "worker-1"}

	for name, s := range allStrategies() {
		t.Run(name, func(t *testing.T) {
			assignments, err := s.Assign(workers, nil)
			require.NoError(t, err)
			require.Len(t, assignments, len(workers))
			for _, w := range workers {
				require.Empty(t, assignments[w])
			}
		})
	}
}

func TestAssignmentStrategy_SingleWorker_GetsAllPartitions(t *testing.T) {
	parts := gridPartitions(t, 6, 2, 3, 1)

	for name, s := range allStrategies() {
		t.Run(name, func(t *testing.T) {
			assignments, err := s.Assign([]string{"worker-0"}, parts)
			require.NoError(t, err)
			require.Len(t, assignments, 1)
			require.Len(t, assignments["worker-0"], 3)
		})
	}
}

func TestAssignmentStrategy_MoreWorkersThanPartitions(t *testing.T) {
	parts := gridPartitions(t, 2, 1, 2, 1)
	workers := generateWorkers(5)

	for name, s := range allStrategies() {
		t.Run(name, func(t *testing.T) {
			assignments, err := s.Assign(workers, parts)
			require.NoError(t, err)
			require.Len(t, assignments, len(workers), "every worker appears in the result")
			require.Equal(t, len(parts), totalAssigned(assignments))
		})
	}
}

func TestAssignmentStrategy_AllPartitionsAssignedExactlyOnce(t *testing.T) {
	parts := gridPartitions(t, 20, 5, 10, 5)
	workers := generateWorkers(4)

	for name, s := range allStrategies() {
		t.Run(name, func(t *testing.T) {
			assignments, err := s.Assign(workers, parts)
			require.NoError(t, err)

			seen := make(map[int]string, len(parts))
			for w, assigned := range assignments {
				for _, p := range assigned {
					prev, dup := seen[p.Index()]
					require.False(t, dup, "partition %s on %s and %s", p, prev, w)
					seen[p.Index()] = w
				}
			}
			require.Len(t, seen, len(parts))
		})
	}
}

func TestAssignmentStrategy_Deterministic(t *testing.T) {
	parts := gridPartitions(t, 12, 3, 6, 3)
	workers := generateWorkers(3)

	for name, s := range allStrategies() {
		t.Run(name, func(t *testing.T) {
			first, err := s.Assign(workers, parts)
			require.NoError(t, err)
			second, err := s.Assign(workers, parts)
			require.NoError(t, err)
			require.Equal(t, first, second)
		})
	}
}
