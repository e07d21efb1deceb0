package partition

import (
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/arloliu/keysplit/internal/combin"
	"github.com/arloliu/keysplit/keys"
	"github.com/arloliu/keysplit/types"
)

// DimensionConfig describes how one independent dimension is split.
type DimensionConfig struct {
	// Count is the number of partitions, usually taken from Partitioner.ComputePartitions.
	Count int
	// OverlapBefore is the number of preceding elements each partition also covers.
	OverlapBefore int
	// OverlapAfter is the number of following elements each partition also covers.
	OverlapAfter int
	// ChunkSize is the size of the contiguous element groups that are never split
	// across partitions. Zero means 1.
	ChunkSize int
}

// KeyspacePartitioner splits a keyspace into KeyspacePartitions.
//
// Independent dimensions are registered with AddDimension and split into
// DimensionConfig.Count contiguous groups each. The partitions are the cartesian
// product of those groups, combined in dimension-name order with the last
// dimension advancing fastest. Dependent dimensions are registered with
// AddDependentDimension; they are never split and only constrain CompleteFilter
// and ExtraDimensionsFilter.
//
// Registration is safe for concurrent use. The keyspace must be fully
// accumulated before Iterator or Partition is called.
type KeyspacePartitioner struct {
	ks *keys.Keyspace

	mu          sync.Mutex
	independent map[keys.Dimension]DimensionConfig
	dependent   map[keys.Dimension]struct{}

	logger  types.Logger
	metrics types.PlannerMetrics
}

// NewKeyspacePartitioner creates a partitioner over ks.
func NewKeyspacePartitioner(ks *keys.Keyspace, opts ...Option) *KeyspacePartitioner {
	o := applyOptions(opts)

	return &KeyspacePartitioner{
		ks:          ks,
		independent: make(map[keys.Dimension]DimensionConfig),
		dependent:   make(map[keys.Dimension]struct{}),
		logger:      o.logger,
		metrics:     o.metrics,
	}
}

// AddDimension registers dim as an independent dimension.
//
// Parameters:
//   - dim: Dimension present in the keyspace
//   - cfg: Count, overlap and chunk size
//
// Returns:
//   - error: ErrUnknownDimension if dim has no elements in the keyspace,
//     ErrDuplicateRegistration if dim is already registered,
//     ErrInvalidConfig for a count below 1 or negative overlap or chunk size
func (kp *KeyspacePartitioner) AddDimension(dim keys.Dimension, cfg DimensionConfig) error {
	switch {
	case cfg.Count < 1:
		return fmt.Errorf("%w: dimension %q count %d must be at least 1", types.ErrInvalidConfig, dim, cfg.Count)
	case cfg.OverlapBefore < 0 || cfg.OverlapAfter < 0:
		return fmt.Errorf("%w: dimension %q overlap must not be negative", types.ErrInvalidConfig, dim)
	case cfg.ChunkSize < 0:
		return fmt.Errorf("%w: dimension %q chunk size must not be negative", types.ErrInvalidConfig, dim)
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = 1
	}

	if !kp.ks.HasDimension(dim) {
		return fmt.Errorf("%w: %q not in keyspace", types.ErrUnknownDimension, dim)
	}

	kp.mu.Lock()
	defer kp.mu.Unlock()

	if err := kp.checkUnregistered(dim); err != nil {
		return err
	}
	kp.independent[dim] = cfg

	return nil
}

// AddDependentDimension registers dim as a dependent dimension.
//
// If the keyspace holds elements for dim, partitions constrain it to the full
// observed range; otherwise partitions know the dimension but accept any element.
//
// Returns:
//   - error: ErrDuplicateRegistration if dim is already registered
func (kp *KeyspacePartitioner) AddDependentDimension(dim keys.Dimension) error {
	kp.mu.Lock()
	defer kp.mu.Unlock()

	if err := kp.checkUnregistered(dim); err != nil {
		return err
	}
	kp.dependent[dim] = struct{}{}

	return nil
}

func (kp *KeyspacePartitioner) checkUnregistered(dim keys.Dimension) error {
	if _, ok := kp.independent[dim]; ok {
		return fmt.Errorf("%w: %q already registered as independent dimension", types.ErrDuplicateRegistration, dim)
	}
	if _, ok := kp.dependent[dim]; ok {
		return fmt.Errorf("%w: %q already registered as dependent dimension", types.ErrDuplicateRegistration, dim)
	}

	return nil
}

// Iterator returns a lazy iterator over the partitions.
//
// Per-dimension splits are computed up front; keyspace partitions are built one
// at a time as the iterator advances.
func (kp *KeyspacePartitioner) Iterator() (*Iterator, error) {
	kp.mu.Lock()
	independent := make(map[keys.Dimension]DimensionConfig, len(kp.independent))
	for d, c := range kp.independent {
		independent[d] = c
	}
	dependentDims := make([]keys.Dimension, 0, len(kp.dependent))
	for d := range kp.dependent {
		dependentDims = append(dependentDims, d)
	}
	kp.mu.Unlock()

	dims := make([]keys.Dimension, 0, len(independent))
	for d := range independent {
		dims = append(dims, d)
	}
	slices.SortFunc(dims, keys.Dimension.Compare)
	slices.SortFunc(dependentDims, keys.Dimension.Compare)

	splits := make([][]*DimensionPartition, len(dims))
	sizes := make([]int, len(dims))
	for i, d := range dims {
		parts, err := kp.splitDimension(d, independent[d])
		if err != nil {
			return nil, err
		}
		splits[i] = parts
		sizes[i] = len(parts)
	}

	var dependent []*DimensionPartition
	var unconstrained []keys.Dimension
	for _, d := range dependentDims {
		if !kp.ks.HasDimension(d) {
			unconstrained = append(unconstrained, d)
			continue
		}
		elems, err := kp.ks.Elements(d)
		if err != nil {
			return nil, err
		}
		dp, err := NewDimensionPartition(d, elems)
		if err != nil {
			return nil, err
		}
		dependent = append(dependent, dp)
	}

	return &Iterator{
		splits:        splits,
		dependent:     dependent,
		unconstrained: unconstrained,
		product:       combin.NewProduct(sizes),
	}, nil
}

// splitDimension chunks the dimension's elements, splits the chunks into
// balanced contiguous groups and widens every group by the configured overlap.
func (kp *KeyspacePartitioner) splitDimension(dim keys.Dimension, cfg DimensionConfig) ([]*DimensionPartition, error) {
	elems, err := kp.ks.Elements(dim)
	if err != nil {
		return nil, err
	}

	chunks := combin.Chunk(elems, cfg.ChunkSize)
	count := cfg.Count
	if count > len(chunks) {
		kp.logger.Warn("partition count exceeds chunk count, clamping",
			"dimension", dim,
			"count", count,
			"chunks", len(chunks),
		)
		count = len(chunks)
	}

	groups := combin.Split(chunks, count)
	parts := make([]*DimensionPartition, len(groups))
	coreStart := 0
	for i, group := range groups {
		coreLen := 0
		for _, c := range group {
			coreLen += len(c)
		}
		coreEnd := coreStart + coreLen

		start := max(0, coreStart-cfg.OverlapBefore)
		end := min(len(elems), coreEnd+cfg.OverlapAfter)

		p, err := newDimensionPartition(dim, elems[start:end:end], coreStart-start, coreEnd-start, i, len(groups))
		if err != nil {
			return nil, err
		}
		parts[i] = p
		coreStart = coreEnd
	}

	kp.logger.Debug("dimension split",
		"dimension", dim,
		"elements", len(elems),
		"partitions", len(parts),
		"chunk_size", cfg.ChunkSize,
		"overlap_before", cfg.OverlapBefore,
		"overlap_after", cfg.OverlapAfter,
	)

	return parts, nil
}

// Partition generates every partition.
//
// The result is never empty: a keyspace without independent dimensions yields a
// single partition that covers everything.
func (kp *KeyspacePartitioner) Partition() ([]*KeyspacePartition, error) {
	it, err := kp.Iterator()
	if err != nil {
		return nil, err
	}

	out := make([]*KeyspacePartition, 0, it.Len())
	for it.Next() {
		out = append(out, it.Partition())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}

	kp.metrics.RecordPartitionsGenerated(len(out))
	kp.logger.Info("keyspace partitioned", "partitions", len(out))

	return out, nil
}

// All returns a range-over-func sequence of the partitions.
//
// A setup or construction error is yielded once, with a nil partition, and ends
// the sequence.
//
// Example:
//
//	for p, err := range kp.All() {
//	    if err != nil {
//	        return err
//	    }
//	    submit(p)
//	}
func (kp *KeyspacePartitioner) All() iter.Seq2[*KeyspacePartition, error] {
	return func(yield func(*KeyspacePartition, error) bool) {
		it, err := kp.Iterator()
		if err != nil {
			yield(nil, err)
			return
		}

		for it.Next() {
			if !yield(it.Partition(), nil) {
				return
			}
		}
		if err := it.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// Iterator enumerates KeyspacePartitions lazily.
//
// It is restartable with Reset and is not safe for concurrent use.
type Iterator struct {
	splits        [][]*DimensionPartition
	dependent     []*DimensionPartition
	unconstrained []keys.Dimension
	product       *combin.Product

	index   int
	current *KeyspacePartition
	err     error
}

// Next builds the next partition and reports whether there is one.
func (it *Iterator) Next() bool {
	if it.err != nil || !it.product.Next() {
		it.current = nil
		return false
	}

	indices := it.product.Indices()
	independent := make([]*DimensionPartition, len(indices))
	for dim, idx := range indices {
		independent[dim] = it.splits[dim][idx]
	}

	p, err := newKeyspacePartition(it.index, it.product.Len(), independent, it.dependent, it.unconstrained)
	if err != nil {
		it.err = err
		it.current = nil

		return false
	}
	it.current = p
	it.index++

	return true
}

// Partition returns the partition built by the last successful Next.
func (it *Iterator) Partition() *KeyspacePartition {
	return it.current
}

// Err returns the error that stopped iteration, if any.
func (it *Iterator) Err() error {
	return it.err
}

// Len returns the total number of partitions.
func (it *Iterator) Len() int {
	return it.product.Len()
}

// Reset rewinds the iterator to the first partition.
func (it *Iterator) Reset() {
	it.product.Reset()
	it.index = 0
	it.current = nil
	it.err = nil
}
