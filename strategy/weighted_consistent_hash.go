package strategy

import (
	"cmp"
	"slices"
	"strings"

	"github.com/arloliu/keysplit/internal/hash"
	"github.com/arloliu/keysplit/internal/logger"
	"github.com/arloliu/keysplit/partition"
	"github.com/arloliu/keysplit/types"
)

const (
	defaultVirtualNodes      = 150
	defaultOverloadThreshold = 1.3
	defaultExtremeThreshold  = 2.0
	defaultWeight            = int64(1)

	minOverloadThreshold = 1.15
	minExtremeThreshold  = 1.5
)

// WeightFunc reports the processing cost of a partition. Non-positive results
// are replaced by the strategy's default weight.
type WeightFunc func(p *partition.KeyspacePartition) int64

// ElementWeight weighs a partition by the number of element combinations it
// covers: the product of the range lengths of its independent dimensions,
// overlap included.
func ElementWeight(p *partition.KeyspacePartition) int64 {
	parts := p.Partitions()
	if len(parts) == 0 {
		return 0
	}

	w := int64(1)
	for _, dp := range parts {
		w *= int64(dp.Len())
	}

	return w
}

// WeightedConsistentHash assigns partitions by consistent hashing while
// keeping per-worker load close to the average. Partitions much heavier than
// the rest are spread round-robin first.
type WeightedConsistentHash struct {
	virtualNodes      int
	hashSeed          uint64
	overloadThreshold float64
	extremeThreshold  float64
	defaultWeight     int64
	weightFunc        WeightFunc
	logger            types.Logger
}

var _ AssignmentStrategy = (*WeightedConsistentHash)(nil)

// WeightedConsistentHashOption configures a WeightedConsistentHash strategy.
type WeightedConsistentHashOption func(*WeightedConsistentHash)

// NewWeightedConsistentHash creates a weighted consistent hash strategy.
// Out-of-range options are clamped with a warning.
//
// Parameters:
//   - opts: WithWeightedVirtualNodes, WithWeightedHashSeed, WithOverloadThreshold,
//     WithExtremeThreshold, WithDefaultWeight, WithWeightFunc, WithWeightedLogger
func NewWeightedConsistentHash(opts ...WeightedConsistentHashOption) *WeightedConsistentHash {
	wch := &WeightedConsistentHash{
		virtualNodes:      defaultVirtualNodes,
		overloadThreshold: defaultOverloadThreshold,
		extremeThreshold:  defaultExtremeThreshold,
		defaultWeight:     defaultWeight,
		weightFunc:        ElementWeight,
		logger:            logger.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(wch)
		}
	}
	wch.clamp()

	return wch
}

// WithWeightedVirtualNodes sets the number of virtual nodes per worker.
func WithWeightedVirtualNodes(nodes int) WeightedConsistentHashOption {
	return func(wch *WeightedConsistentHash) {
		wch.virtualNodes = nodes
	}
}

// WithWeightedHashSeed sets a custom hash seed for consistent hashing.
func WithWeightedHashSeed(seed uint64) WeightedConsistentHashOption {
	return func(wch *WeightedConsistentHash) {
		wch.hashSeed = seed
	}
}

// WithOverloadThreshold sets the maximum allowed load variance per worker.
func WithOverloadThreshold(threshold float64) WeightedConsistentHashOption {
	return func(wch *WeightedConsistentHash) {
		wch.overloadThreshold = threshold
	}
}

// WithExtremeThreshold sets the multiplier used to classify extreme partitions.
func WithExtremeThreshold(threshold float64) WeightedConsistentHashOption {
	return func(wch *WeightedConsistentHash) {
		wch.extremeThreshold = threshold
	}
}

// WithDefaultWeight sets the weight applied when a partition weighs zero.
func WithDefaultWeight(weight int64) WeightedConsistentHashOption {
	return func(wch *WeightedConsistentHash) {
		wch.defaultWeight = weight
	}
}

// WithWeightFunc replaces ElementWeight as the partition cost model.
func WithWeightFunc(fn WeightFunc) WeightedConsistentHashOption {
	return func(wch *WeightedConsistentHash) {
		wch.weightFunc = fn
	}
}

// WithWeightedLogger sets the logger used for configuration warnings and debug diagnostics.
func WithWeightedLogger(l types.Logger) WeightedConsistentHashOption {
	return func(wch *WeightedConsistentHash) {
		wch.logger = l
	}
}

// Assign distributes partitions across workers.
//
// When every partition weighs the same the result equals ConsistentHash.
// Otherwise partitions heavier than extremeThreshold times the mean partition
// weight go round-robin, heaviest first. The rest follow the hash ring unless
// the owner would pass overloadThreshold times the mean worker load, in which
// case the partition moves to the least loaded worker.
//
// Returns:
//   - map[string][]*partition.KeyspacePartition: worker ID to its partitions
//   - error: ErrNoWorkers if workers is empty
//
// Example:
//
//	s := strategy.NewWeightedConsistentHash(strategy.WithOverloadThreshold(1.3))
//	assignments, err := s.Assign([]string{"w0", "w1"}, plan.Partitions())
func (wch *WeightedConsistentHash) Assign(workers []string, partitions []*partition.KeyspacePartition) (map[string][]*partition.KeyspacePartition, error) {
	if len(workers) == 0 {
		return nil, ErrNoWorkers
	}

	lb := newLoadBalancer(workers)
	if len(partitions) == 0 {
		return lb.assignments, nil
	}

	weighted, total, uniform := wch.weigh(partitions)
	ring := hash.NewRing(lb.workers, wch.virtualNodes, wch.hashSeed)

	if uniform {
		for _, wp := range weighted {
			worker := ring.GetNodeForHash(wp.partition.Fingerprint(wch.hashSeed))
			if worker == "" {
				return nil, ErrNoWorkers
			}
			lb.place(worker, wp)
		}

		return lb.assignments, nil
	}

	mean := float64(total) / float64(len(partitions))
	heavyCutoff := mean * wch.extremeThreshold
	loadCap := float64(total) / float64(len(lb.workers)) * wch.overloadThreshold

	var heavy []weightedPartition
	overflow := 0
	for _, wp := range weighted {
		if float64(wp.weight) > heavyCutoff {
			heavy = append(heavy, wp)
		}
	}
	if len(heavy) > 0 {
		slices.SortFunc(heavy, func(a, b weightedPartition) int {
			if c := cmp.Compare(b.weight, a.weight); c != 0 {
				return c
			}

			return strings.Compare(a.partition.String(), b.partition.String())
		})
		for i, wp := range heavy {
			lb.place(lb.workers[i%len(lb.workers)], wp)
		}
		wch.logger.Debug("weighted consistent hash detected extreme partitions",
			"extreme_partitions", len(heavy),
			"total_partitions", len(partitions),
			"extreme_threshold", heavyCutoff,
		)
	}

	for _, wp := range weighted {
		if float64(wp.weight) > heavyCutoff {
			continue
		}
		worker := ring.GetNodeForHash(wp.partition.Fingerprint(wch.hashSeed))
		if worker == "" {
			return nil, ErrNoWorkers
		}
		if lb.exceeds(worker, wp.weight, loadCap) {
			worker = lb.lightest()
			if lb.exceeds(worker, wp.weight, loadCap) {
				overflow++
			}
		}
		lb.place(worker, wp)
	}

	if overflow > 0 {
		wch.logger.Debug("weighted consistent hash exceeded soft cap",
			"overflow_count", overflow,
			"max_worker_weight", loadCap,
			"total_weight", total,
		)
	}

	return lb.assignments, nil
}

type weightedPartition struct {
	partition *partition.KeyspacePartition
	weight    int64
}

// weigh applies the weight function in partition order and reports whether
// every partition came out with the same weight.
func (wch *WeightedConsistentHash) weigh(partitions []*partition.KeyspacePartition) ([]weightedPartition, int64, bool) {
	out := make([]weightedPartition, len(partitions))
	var total int64
	uniform := true
	for i, p := range partitions {
		w := wch.weightFunc(p)
		if w <= 0 {
			w = wch.defaultWeight
		}
		out[i] = weightedPartition{partition: p, weight: w}
		total += w
		uniform = uniform && w == out[0].weight
	}

	return out, total, uniform
}

func (wch *WeightedConsistentHash) clamp() {
	if wch.logger == nil {
		wch.logger = logger.NewNop()
	}
	if wch.weightFunc == nil {
		wch.weightFunc = ElementWeight
	}
	if wch.virtualNodes < 1 {
		wch.logger.Warn("virtual nodes must be positive; clamping to 1", "provided", wch.virtualNodes, "using", 1)
		wch.virtualNodes = 1
	}
	if wch.overloadThreshold < minOverloadThreshold {
		wch.logger.Warn("overload threshold too low; clamping to minimum", "provided", wch.overloadThreshold, "using", minOverloadThreshold)
		wch.overloadThreshold = minOverloadThreshold
	}
	if wch.extremeThreshold < minExtremeThreshold {
		wch.logger.Warn("extreme threshold too low; clamping to minimum", "provided", wch.extremeThreshold, "using", minExtremeThreshold)
		wch.extremeThreshold = minExtremeThreshold
	}
	if wch.defaultWeight < 1 {
		wch.logger.Warn("default weight must be positive; clamping to 1", "provided", wch.defaultWeight, "using", 1)
		wch.defaultWeight = 1
	}
}

// loadBalancer tracks the accumulated weight per worker during one Assign.
type loadBalancer struct {
	workers     []string
	assignments map[string][]*partition.KeyspacePartition
	load        map[string]int64
}

func newLoadBalancer(workers []string) *loadBalancer {
	sorted := slices.Compact(slices.Sorted(slices.Values(workers)))

	return &loadBalancer{
		workers:     sorted,
		assignments: emptyAssignments(sorted),
		load:        make(map[string]int64, len(sorted)),
	}
}

func (lb *loadBalancer) place(worker string, wp weightedPartition) {
	lb.assignments[worker] = append(lb.assignments[worker], wp.partition)
	lb.load[worker] += wp.weight
}

func (lb *loadBalancer) exceeds(worker string, weight int64, limit float64) bool {
	return float64(lb.load[worker]+weight) > limit
}

// lightest returns the least loaded worker, the lowest ID on ties.
func (lb *loadBalancer) lightest() string {
	best := lb.workers[0]
	for _, w := range lb.workers[1:] {
		if lb.load[w] < lb.load[best] {
			best = w
		}
	}

	return best
}
