// Package hash provides the consistent hash ring used to place partitions on workers.
package hash

import (
	"encoding/binary"
	"slices"

	"github.com/zeebo/xxh3"
)

// Ring implements a consistent hash ring with virtual nodes.
//
// The ring maps partition fingerprints to workers, which keeps assignments
// stable when workers join or leave: only partitions next to the changed
// virtual nodes move.
type Ring struct {
	// nodes contains all virtual nodes on the ring, sorted by hash
	nodes []virtualNode

	// workers holds the unique list of workers present on the ring
	workers []string

	// seed for hash function (0 means no seed)
	seed uint64
}

// virtualNode represents a virtual node on the hash ring.
type virtualNode struct {
	hash      uint64 // Position on the ring
	workerID  string // Worker owning this virtual node
	workerIdx int    // Index of the worker in workers slice
}

// NewRing creates a new consistent hash ring.
//
// Parameters:
//   - workers: List of worker IDs to place on the ring; duplicates are ignored
//   - virtualNodesPerWorker: Number of virtual nodes per worker (higher = better distribution)
//   - seed: Seed for hash function (0 for the unseeded hash)
//
// Returns:
//   - *Ring: Initialized hash ring
//
// Example:
//
//	ring := hash.NewRing([]string{"worker-0", "worker-1"}, 150, 0)
//	workerID := ring.GetNodeForHash(p.Fingerprint(0))
func NewRing(workers []string, virtualNodesPerWorker int, seed uint64) *Ring {
	ring := &Ring{
		nodes: make([]virtualNode, 0, len(workers)*max(virtualNodesPerWorker, 0)),
		seed:  seed,
	}

	seen := make(map[string]struct{}, len(workers))
	ring.workers = make([]string, 0, len(workers))
	for _, w := range workers {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		ring.workers = append(ring.workers, w)
	}

	for i, workerID := range ring.workers {
		ring.addWorker(workerID, i, virtualNodesPerWorker)
	}

	slices.SortFunc(ring.nodes, func(a, b virtualNode) int {
		switch {
		case a.hash < b.hash:
			return -1
		case a.hash > b.hash:
			return 1
		default:
			return 0
		}
	})

	return ring
}

// Seed returns the ring's hash seed.
func (r *Ring) Seed() uint64 {
	return r.seed
}

// GetNode finds the worker responsible for a string key.
//
// Returns:
//   - string: Worker ID, or "" if the ring is empty
func (r *Ring) GetNode(key string) string {
	if len(r.nodes) == 0 {
		return ""
	}

	return r.nodes[r.search(r.hash(key))].workerID
}

// GetNodeForHash finds the worker responsible for a precomputed hash, such as
// a partition fingerprint.
//
// Uses binary search to find the first virtual node whose hash is >= h,
// wrapping around to the first node past the end of the ring.
//
// Returns:
//   - string: Worker ID, or "" if the ring is empty
func (r *Ring) GetNodeForHash(h uint64) string {
	if len(r.nodes) == 0 {
		return ""
	}

	return r.nodes[r.search(h)].workerID
}

// GetNodeIndexForHash returns the index into Workers of the worker responsible
// for h, or -1 if the ring is empty.
func (r *Ring) GetNodeIndexForHash(h uint64) int {
	if len(r.nodes) == 0 {
		return -1
	}

	return r.nodes[r.search(h)].workerIdx
}

// Workers returns the list of unique workers on the ring.
func (r *Ring) Workers() []string {
	return append([]string(nil), r.workers...)
}

// Size returns the total number of virtual nodes on the ring.
func (r *Ring) Size() int {
	return len(r.nodes)
}

// addWorker adds virtual nodes for a worker to the ring.
func (r *Ring) addWorker(workerID string, workerIdx int, virtualNodes int) {
	for i := range virtualNodes {
		// Fold workerID, then the vnode index, using the previous hash as seed.
		h := r.hash(workerID)

		var ib [8]byte
		binary.LittleEndian.PutUint64(ib[:], uint64(i)) //nolint:gosec
		h = xxh3.HashSeed(ib[:], h)

		r.nodes = append(r.nodes, virtualNode{
			hash:      h,
			workerID:  workerID,
			workerIdx: workerIdx,
		})
	}
}

func (r *Ring) hash(key string) uint64 {
	if r.seed != 0 {
		return xxh3.HashStringSeed(key, r.seed)
	}

	return xxh3.HashString(key)
}

// search returns the index of the first node >= target, wrapping to 0.
func (r *Ring) search(target uint64) int {
	idx, _ := slices.BinarySearchFunc(r.nodes, target, func(node virtualNode, t uint64) int {
		switch {
		case node.hash < t:
			return -1
		case node.hash > t:
			return 1
		default:
			return 0
		}
	})
	if idx >= len(r.nodes) {
		idx = 0
	}

	return idx
}
