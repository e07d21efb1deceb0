package hash

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zeebo/xxh3"
)

func TestNew(t *testing.T) {
	workers := []string{"worker-0", "worker-1", "worker-2"}
	ring := NewRing(workers, 100, 0)

	require.NotNil(t, ring)
	require.Equal(t, 300, ring.Size()) // 3 workers * 100 virtual nodes
	require.ElementsMatch(t, workers, ring.Workers())
	require.Equal(t, uint64(0), ring.Seed())
}

func TestNew_DeduplicatesWorkers(t *testing.T) {
	ring := NewRing([]string{"worker-0", "worker-1", "worker-0"}, 10, 0)

	require.Equal(t, []string{"worker-0", "worker-1"}, ring.Workers())
	require.Equal(t, 20, ring.Size())
}

func TestRing_GetNode(t *testing.T) {
	t.Run("assigns keys consistently", func(t *testing.T) {
		workers := []string{"worker-0", "worker-1"}
		ring := NewRing(workers, 150, 0)

		for _, key := range []string{"frame[f1..f2]", "another-key", "xyz"} {
			worker1 := ring.GetNode(key)
			worker2 := ring.GetNode(key)

			require.Equal(t, worker1, worker2, "key %s not consistent", key)
			require.Contains(t, workers, worker1)
		}
	})

	t.Run("distributes keys across workers", func(t *testing.T) {
		workers := []string{"worker-0", "worker-1", "worker-2"}
		ring := NewRing(workers, 150, 0)

		counts := make(map[string]int)
		for i := range 1000 {
			counts[ring.GetNode(fmt.Sprintf("partition-%d", i))]++
		}

		// Each worker should get roughly 1/3 of keys (allow 20% variance)
		expectedPerWorker := 1000 / len(workers)
		tolerance := expectedPerWorker * 20 / 100

		for _, worker := range workers {
			count := counts[worker]
			require.GreaterOrEqual(t, count, expectedPerWorker-tolerance, "worker %s under-assigned", worker)
			require.LessOrEqual(t, count, expectedPerWorker+tolerance, "worker %s over-assigned", worker)
		}
	})

	t.Run("returns empty string for empty ring", func(t *testing.T) {
		ring := NewRing([]string{}, 150, 0)
		require.Empty(t, ring.GetNode("any-key"))
		require.Empty(t, ring.GetNodeForHash(42))
		require.Equal(t, -1, ring.GetNodeIndexForHash(42))
	})
}

func TestRing_GetNodeForHash(t *testing.T) {
	workers := []string{"worker-0", "worker-1", "worker-2"}
	ring := NewRing(workers, 150, 7)

	t.Run("matches string lookup with the same hash", func(t *testing.T) {
		for i := range 50 {
			key := fmt.Sprintf("p-%d", i)
			require.Equal(t, ring.GetNode(key), ring.GetNodeForHash(xxh3.HashStringSeed(key, 7)))
		}
	})

	t.Run("index agrees with worker id", func(t *testing.T) {
		for i := range 100 {
			h := xxh3.HashString(fmt.Sprintf("h-%d", i))
			idx := ring.GetNodeIndexForHash(h)
			require.Equal(t, workers[idx], ring.GetNodeForHash(h))
		}
	})

	t.Run("wraps past the last virtual node", func(t *testing.T) {
		require.Contains(t, workers, ring.GetNodeForHash(^uint64(0)))
		require.Equal(t, ring.nodes[0].workerID, ring.GetNodeForHash(ring.nodes[len(ring.nodes)-1].hash+1))
	})
}

func TestRing_CacheAffinity(t *testing.T) {
	hashes := make([]uint64, 1000)
	for i := range hashes {
		hashes[i] = xxh3.HashString(fmt.Sprintf("p-%d", i))
	}

	t.Run("maintains cache affinity when worker added", func(t *testing.T) {
		ring1 := NewRing([]string{"worker-0", "worker-1"}, 150, 12345)
		ring2 := NewRing([]string{"worker-0", "worker-1", "worker-2"}, 150, 12345)

		sameWorker := 0
		for _, h := range hashes {
			if ring1.GetNodeForHash(h) == ring2.GetNodeForHash(h) {
				sameWorker++
			}
		}

		// Theoretical minimum is 66.7% since only 1/3 needs to move
		affinityPercent := (sameWorker * 100) / len(hashes)
		require.GreaterOrEqual(t, affinityPercent, 45,
			"Cache affinity %d%% is too low (expected >= 45%%)", affinityPercent)

		t.Logf("Cache affinity when adding worker: %d%% (%d/%d)", affinityPercent, sameWorker, len(hashes))
	})

	t.Run("keeps partitions of surviving workers when worker removed", func(t *testing.T) {
		ring1 := NewRing([]string{"worker-0", "worker-1", "worker-2"}, 150, 12345)
		ring2 := NewRing([]string{"worker-0", "worker-1"}, 150, 12345)

		for _, h := range hashes {
			oldWorker := ring1.GetNodeForHash(h)
			if oldWorker == "worker-2" {
				continue
			}
			require.Equal(t, oldWorker, ring2.GetNodeForHash(h))
		}
	})
}

func TestRing_DifferentSeeds(t *testing.T) {
	workers := []string{"worker-0", "worker-1", "worker-2"}

	ring1 := NewRing(workers, 150, 0)
	ring2 := NewRing(workers, 150, 12345)
	ring3 := NewRing(workers, 150, 12345)

	differentCount := 0
	for i := range 100 {
		key := fmt.Sprintf("partition-%d", i)

		worker1 := ring1.GetNode(key)
		worker2 := ring2.GetNode(key)
		worker3 := ring3.GetNode(key)

		require.Equal(t, worker2, worker3, "Same seed should produce same assignment")
		if worker1 != worker2 {
			differentCount++
		}
	}

	// Allow for some chance collisions
	require.GreaterOrEqual(t, differentCount, 30,
		"Different seeds should produce different distributions")
}
