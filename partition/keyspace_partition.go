package partition

import (
	"fmt"
	"slices"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/arloliu/keysplit/keys"
	"github.com/arloliu/keysplit/types"
)

// KeyspacePartition is one work unit: exactly one DimensionPartition per
// independent dimension, plus the ranges allowed for dependent dimensions.
//
// A KeyspacePartition is immutable. It exposes three filters over keys:
//   - IndependentFilter checks independent dimensions only and ignores any other dimension
//   - CompleteFilter also checks dependent dimensions and rejects dimensions it does not know
//   - ExtraDimensionsFilter is CompleteFilter that tolerates unknown dimensions
//
// All three accept keys that lack some of the partition's dimensions.
type KeyspacePartition struct {
	index       int
	total       int
	independent []*DimensionPartition
	dependent   []*DimensionPartition
	// unconstrained dependent dimensions are known but have no element range.
	unconstrained []keys.Dimension

	independentFilter *keys.KeyFilter
	completeFilter    *keys.KeyFilter
	extraFilter       *keys.KeyFilter
}

func newKeyspacePartition(index, total int, independent, dependent []*DimensionPartition, unconstrained []keys.Dimension) (*KeyspacePartition, error) {
	kp := &KeyspacePartition{
		index:         index,
		total:         total,
		independent:   independent,
		dependent:     dependent,
		unconstrained: unconstrained,
	}

	var err error
	if kp.independentFilter, err = kp.buildFilter(keys.FilterPolicy{AllowUnknown: true, AllowMissing: true}, false); err != nil {
		return nil, err
	}
	if kp.completeFilter, err = kp.buildFilter(keys.FilterPolicy{AllowUnknown: false, AllowMissing: true}, true); err != nil {
		return nil, err
	}
	if kp.extraFilter, err = kp.buildFilter(keys.FilterPolicy{AllowUnknown: true, AllowMissing: true}, true); err != nil {
		return nil, err
	}

	return kp, nil
}

func (kp *KeyspacePartition) buildFilter(policy keys.FilterPolicy, withDependent bool) (*keys.KeyFilter, error) {
	kf := keys.NewKeyFilter(policy)
	for _, p := range kp.independent {
		if err := kf.AddFilter(p.Filter()); err != nil {
			return nil, err
		}
	}
	if !withDependent {
		return kf, nil
	}

	for _, p := range kp.dependent {
		if err := kf.AddFilter(p.Filter()); err != nil {
			return nil, err
		}
	}
	for _, d := range kp.unconstrained {
		if err := kf.AllowDimension(d); err != nil {
			return nil, err
		}
	}

	return kf, nil
}

// Index returns the position of the partition in generation order.
func (kp *KeyspacePartition) Index() int {
	return kp.index
}

// Total returns the number of partitions generated alongside this one.
func (kp *KeyspacePartition) Total() int {
	return kp.total
}

// Partitions returns the independent dimension partitions, sorted by dimension.
func (kp *KeyspacePartition) Partitions() []*DimensionPartition {
	return slices.Clone(kp.independent)
}

// Partition returns the independent partition of dim.
func (kp *KeyspacePartition) Partition(dim keys.Dimension) (*DimensionPartition, bool) {
	for _, p := range kp.independent {
		if p.dim == dim {
			return p, true
		}
	}

	return nil, false
}

// DependentPartitions returns the dependent dimension partitions, sorted by dimension.
func (kp *KeyspacePartition) DependentPartitions() []*DimensionPartition {
	return slices.Clone(kp.dependent)
}

// WithDependent returns a copy of the partition that constrains a dependent
// dimension to dp. An existing range for the same dimension is replaced.
//
// Returns:
//   - *KeyspacePartition: The new partition; the receiver is unchanged
//   - error: ErrDuplicateRegistration if dp's dimension is an independent dimension
func (kp *KeyspacePartition) WithDependent(dp *DimensionPartition) (*KeyspacePartition, error) {
	if _, ok := kp.Partition(dp.dim); ok {
		return nil, fmt.Errorf("%w: %q is an independent dimension", types.ErrDuplicateRegistration, dp.dim)
	}

	dependent := make([]*DimensionPartition, 0, len(kp.dependent)+1)
	for _, p := range kp.dependent {
		if p.dim != dp.dim {
			dependent = append(dependent, p)
		}
	}
	dependent = append(dependent, dp)
	slices.SortFunc(dependent, func(a, b *DimensionPartition) int {
		return a.dim.Compare(b.dim)
	})

	unconstrained := slices.DeleteFunc(slices.Clone(kp.unconstrained), func(d keys.Dimension) bool {
		return d == dp.dim
	})

	return newKeyspacePartition(kp.index, kp.total, kp.independent, dependent, unconstrained)
}

// IndependentFilter accepts keys whose independent-dimension elements are all in range.
func (kp *KeyspacePartition) IndependentFilter() *keys.KeyFilter {
	return kp.independentFilter
}

// CompleteFilter accepts keys whose independent and dependent elements are all in
// range and which carry no dimension unknown to the partition.
func (kp *KeyspacePartition) CompleteFilter() *keys.KeyFilter {
	return kp.completeFilter
}

// ExtraDimensionsFilter is like CompleteFilter but accepts keys carrying
// dimensions unknown to the partition.
func (kp *KeyspacePartition) ExtraDimensionsFilter() *keys.KeyFilter {
	return kp.extraFilter
}

// Fingerprint hashes the partition's dimension ranges with xxh3.
//
// Two partitions covering the same elements on the same dimensions have equal
// fingerprints regardless of their index, which makes the fingerprint a stable
// identity for assignment across planning passes.
func (kp *KeyspacePartition) Fingerprint(seed uint64) uint64 {
	h := seed
	fold := func(parts []*DimensionPartition) {
		for _, p := range parts {
			h = xxh3.HashStringSeed(string(p.dim), h)
			for _, e := range p.elements {
				h = xxh3.HashStringSeed(e.ID(), h)
			}
		}
	}
	fold(kp.independent)
	h = xxh3.HashStringSeed("|", h)
	fold(kp.dependent)

	return h
}

// String renders the partition as "3/8 frame[frame5..frame6] tile[t1..t4]".
func (kp *KeyspacePartition) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d/%d", kp.index, kp.total)
	for _, p := range kp.independent {
		sb.WriteByte(' ')
		sb.WriteString(p.String())
	}
	for _, p := range kp.dependent {
		sb.WriteString(" ~")
		sb.WriteString(p.String())
	}

	return sb.String()
}
