package partition

import (
	"fmt"
	"sync"
	"time"

	"github.com/arloliu/keysplit/types"
)

// DimensionOption configures one dimension registered with a Partitioner.
type DimensionOption func(*dimensionSpec)

// WithMaxPartitions caps the number of partitions for a dimension.
//
// Without it the cap is the dimension's element count. A cap above the element
// count is lowered to the element count.
func WithMaxPartitions(n int) DimensionOption {
	return func(d *dimensionSpec) {
		d.max = n
		d.hasMax = true
	}
}

type dimensionSpec struct {
	name   string
	size   int
	min    int
	max    int
	hasMax bool
}

// effectiveMax is the largest usable count: the configured cap, never above size.
func (d dimensionSpec) effectiveMax() int {
	if d.hasMax {
		return min(d.max, d.size)
	}

	return d.size
}

// Partitioner computes how many partitions each dimension is split into.
//
// The product of all counts must fall into [overallMin, overallMax] and each
// count into its dimension's [min, min(max, size)] range. Within the feasible
// region the solver keeps elements-per-partition comparable across dimensions,
// so larger dimensions receive more partitions.
//
// Registration is safe for concurrent use. ComputePartitions must not race with
// registration.
type Partitioner struct {
	overallMin int
	overallMax int

	mu    sync.Mutex
	dims  []dimensionSpec
	index map[string]int

	logger  types.Logger
	metrics types.PlannerMetrics
}

// NewPartitioner creates a solver for the inclusive overall range [overallMin, overallMax].
//
// Bounds are validated by ComputePartitions, so that every constraint problem is
// reported in one place before any partitioning work starts.
//
// Example:
//
//	p := partition.NewPartitioner(1, 20, partition.WithLogger(logger))
//	_ = p.AddDimension("frame", 32, 1)
//	_ = p.AddDimension("tile", 10, 1)
//	_ = p.AddDimension("band", 5, 1)
//	counts, err := p.ComputePartitions() // map[band:1 frame:10 tile:2]
func NewPartitioner(overallMin, overallMax int, opts ...Option) *Partitioner {
	o := applyOptions(opts)

	return &Partitioner{
		overallMin: overallMin,
		overallMax: overallMax,
		index:      make(map[string]int),
		logger:     o.logger,
		metrics:    o.metrics,
	}
}

// AddDimension registers a dimension with its element count and minimum partition count.
//
// Parameters:
//   - name: Dimension name, unique within the partitioner
//   - size: Number of elements in the dimension
//   - minCount: Lower bound for the dimension's partition count
//   - opts: Optional bounds such as WithMaxPartitions
//
// Returns:
//   - error: ErrDuplicateRegistration if name is already registered, ErrInvalidConfig for an empty name
func (p *Partitioner) AddDimension(name string, size, minCount int, opts ...DimensionOption) error {
	if name == "" {
		return fmt.Errorf("%w: dimension name must not be empty", types.ErrInvalidConfig)
	}

	d := dimensionSpec{name: name, size: size, min: minCount}
	for _, opt := range opts {
		opt(&d)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.index[name]; ok {
		return fmt.Errorf("%w: dimension %q", types.ErrDuplicateRegistration, name)
	}
	p.index[name] = len(p.dims)
	p.dims = append(p.dims, d)

	return nil
}

// ComputePartitions solves for the per-dimension partition counts.
//
// Allocation starts every dimension at its minimum and repeatedly grants one more
// partition to the dimension with the most elements per partition, as long as
// its cap and overallMax allow it. Ties go to the dimension registered first.
// If the greedy allocation ends below overallMin, an exhaustive search looks for
// any feasible allocation, preferring the smallest largest-ratio.
//
// Returns:
//   - map[string]int: Partition count per dimension name
//   - error: *types.ConstraintError (wrapping ErrConstraintViolation) when the bounds are infeasible
func (p *Partitioner) ComputePartitions() (map[string]int, error) {
	start := time.Now()

	p.mu.Lock()
	dims := append([]dimensionSpec(nil), p.dims...)
	p.mu.Unlock()

	counts, err := p.solve(dims)
	p.metrics.RecordSolve(time.Since(start).Seconds(), err == nil)
	if err != nil {
		p.logger.Warn("partition count solve failed", "error", err)
		return nil, err
	}

	result := make(map[string]int, len(dims))
	for i, d := range dims {
		result[d.name] = counts[i]
	}
	p.logger.Info("partition counts computed",
		"counts", result,
		"total", product(counts),
		"overall_min", p.overallMin,
		"overall_max", p.overallMax,
	)

	return result, nil
}

func (p *Partitioner) solve(dims []dimensionSpec) ([]int, error) {
	if err := p.validate(dims); err != nil {
		return nil, err
	}

	counts := make([]int, len(dims))
	for i, d := range dims {
		counts[i] = d.min
	}
	prod := product(counts)

	rounds := 0
	for {
		best := -1
		for i, d := range dims {
			next := counts[i] + 1
			if next > d.effectiveMax() || prod/counts[i]*next > p.overallMax {
				continue
			}
			if best < 0 || ratioGreater(d.size, counts[i], dims[best].size, counts[best]) {
				best = i
			}
		}
		if best < 0 {
			break
		}
		prod = prod / counts[best] * (counts[best] + 1)
		counts[best]++
		rounds++
	}
	p.logger.Debug("greedy allocation finished", "rounds", rounds, "product", prod)

	if prod >= p.overallMin {
		return counts, nil
	}

	p.logger.Debug("greedy allocation below overall min, searching", "product", prod, "overall_min", p.overallMin)
	if found := p.search(dims); found != nil {
		return found, nil
	}

	return nil, &types.ConstraintError{
		Bound:  "min",
		Value:  p.overallMin,
		Limit:  p.overallMax,
		Reason: "has no allocation within max",
	}
}

// validate reports the first bound that makes the problem infeasible on its face.
func (p *Partitioner) validate(dims []dimensionSpec) error {
	if p.overallMin < 1 {
		return &types.ConstraintError{Bound: "min", Value: p.overallMin, Limit: 1, Reason: "is below"}
	}
	if p.overallMin > p.overallMax {
		return &types.ConstraintError{Bound: "min", Value: p.overallMin, Limit: p.overallMax, Reason: "exceeds max"}
	}

	for _, d := range dims {
		switch {
		case d.size < 1:
			return &types.ConstraintError{Dimension: d.name, Bound: "size", Value: d.size, Limit: 1, Reason: "is below"}
		case d.min < 1:
			return &types.ConstraintError{Dimension: d.name, Bound: "min", Value: d.min, Limit: 1, Reason: "is below"}
		case d.hasMax && d.min > d.max:
			return &types.ConstraintError{Dimension: d.name, Bound: "min", Value: d.min, Limit: d.max, Reason: "exceeds max"}
		case d.min > p.overallMax:
			return &types.ConstraintError{Dimension: d.name, Bound: "min", Value: d.min, Limit: p.overallMax, Reason: "exceeds overall max"}
		case d.min > d.size:
			return &types.ConstraintError{Dimension: d.name, Bound: "min", Value: d.min, Limit: d.size, Reason: "exceeds element count"}
		}
	}

	mins := make([]int, len(dims))
	maxes := make([]int, len(dims))
	for i, d := range dims {
		mins[i] = d.min
		maxes[i] = d.effectiveMax()
	}

	if minProd := boundedProduct(mins, p.overallMax); minProd > p.overallMax {
		return &types.ConstraintError{Bound: "min product", Value: minProd, Limit: p.overallMax, Reason: "exceeds max"}
	}

	if maxProd := boundedProduct(maxes, p.overallMin); maxProd < p.overallMin {
		if len(dims) == 1 {
			return &types.ConstraintError{
				Dimension: dims[0].name,
				Bound:     "max",
				Value:     maxProd,
				Limit:     p.overallMin,
				Reason:    "is below overall min",
			}
		}

		return &types.ConstraintError{Bound: "max product", Value: maxProd, Limit: p.overallMin, Reason: "is below min"}
	}

	return nil
}

// search enumerates every allocation whose product lies in the overall range.
//
// Candidates are ranked by their largest elements-per-partition ratio (smaller
// wins), then by product (larger wins). Counts are tried from high to low, so
// among equal candidates the one favoring earlier dimensions is kept.
func (p *Partitioner) search(dims []dimensionSpec) []int {
	var best []int
	current := make([]int, len(dims))

	// suffixMin and suffixMax hold the smallest and largest products reachable
	// by dims[i:], saturated just past the overall bounds.
	suffixMin := make([]int, len(dims)+1)
	suffixMax := make([]int, len(dims)+1)
	suffixMin[len(dims)], suffixMax[len(dims)] = 1, 1
	for i := len(dims) - 1; i >= 0; i-- {
		suffixMin[i] = min(suffixMin[i+1]*dims[i].min, p.overallMax+1)
		suffixMax[i] = min(suffixMax[i+1]*dims[i].effectiveMax(), p.overallMin)
	}

	var walk func(i, prod int)
	walk = func(i, prod int) {
		if i == len(dims) {
			if prod < p.overallMin {
				return
			}
			if best == nil || betterAllocation(dims, current, best) {
				best = append(best[:0], current...)
			}

			return
		}

		hi := min(dims[i].effectiveMax(), p.overallMax/(prod*suffixMin[i+1]))
		for c := hi; c >= dims[i].min; c-- {
			if prod*c*suffixMax[i+1] < p.overallMin {
				break
			}
			current[i] = c
			walk(i+1, prod*c)
		}
	}
	walk(0, 1)

	return best
}

// betterAllocation reports whether a ranks strictly ahead of b.
func betterAllocation(dims []dimensionSpec, a, b []int) bool {
	an, ad := maxRatio(dims, a)
	bn, bd := maxRatio(dims, b)
	if c := compareRatio(an, ad, bn, bd); c != 0 {
		return c < 0
	}

	return product(a) > product(b)
}

func maxRatio(dims []dimensionSpec, counts []int) (num, den int) {
	num, den = 0, 1
	for i, d := range dims {
		if compareRatio(d.size, counts[i], num, den) > 0 {
			num, den = d.size, counts[i]
		}
	}

	return num, den
}

// compareRatio compares an/ad with bn/bd without division.
func compareRatio(an, ad, bn, bd int) int {
	l := int64(an) * int64(bd)
	r := int64(bn) * int64(ad)

	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	default:
		return 0
	}
}

func ratioGreater(an, ad, bn, bd int) bool {
	return compareRatio(an, ad, bn, bd) > 0
}

func product(vals []int) int {
	p := 1
	for _, v := range vals {
		p *= v
	}

	return p
}

// boundedProduct multiplies vals but stops as soon as the running product
// exceeds limit, so huge dimensions cannot overflow.
func boundedProduct(vals []int, limit int) int {
	p := 1
	for _, v := range vals {
		p *= v
		if p > limit {
			return p
		}
	}

	return p
}
