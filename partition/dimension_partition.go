package partition

import (
	"fmt"
	"slices"

	"github.com/arloliu/keysplit/keys"
)

// DimensionPartition is a contiguous run of one dimension's sorted elements.
//
// The run consists of the core elements the partition owns plus optional overlap
// borrowed from its neighbors. The derived element filter accepts the whole run,
// overlap included.
type DimensionPartition struct {
	dim       keys.Dimension
	elements  []keys.Element
	coreStart int
	coreEnd   int
	filter    *keys.ElementFilter
	index     int
	total     int
}

// NewDimensionPartition creates a partition owning all of elements, without overlap.
//
// Dependent dimensions use it to describe the full range they may take.
//
// Returns:
//   - *DimensionPartition: Partition with index 0 of 1
//   - error: ErrDimensionMismatch if an element belongs to another dimension
func NewDimensionPartition(dim keys.Dimension, elements []keys.Element) (*DimensionPartition, error) {
	elems := slices.Clone(elements)

	return newDimensionPartition(dim, elems, 0, len(elems), 0, 1)
}

func newDimensionPartition(dim keys.Dimension, elements []keys.Element, coreStart, coreEnd, index, total int) (*DimensionPartition, error) {
	filter, err := keys.NewElementFilter(dim, elements...)
	if err != nil {
		return nil, err
	}

	return &DimensionPartition{
		dim:       dim,
		elements:  elements,
		coreStart: coreStart,
		coreEnd:   coreEnd,
		filter:    filter,
		index:     index,
		total:     total,
	}, nil
}

// Dimension returns the partitioned dimension.
func (p *DimensionPartition) Dimension() keys.Dimension {
	return p.dim
}

// Elements returns every element in the partition, overlap included, in order.
func (p *DimensionPartition) Elements() []keys.Element {
	return slices.Clone(p.elements)
}

// CoreElements returns the elements the partition owns, without overlap.
func (p *DimensionPartition) CoreElements() []keys.Element {
	return slices.Clone(p.elements[p.coreStart:p.coreEnd])
}

// OverlapBefore returns the elements borrowed from the preceding partition.
func (p *DimensionPartition) OverlapBefore() []keys.Element {
	return slices.Clone(p.elements[:p.coreStart])
}

// OverlapAfter returns the elements borrowed from the following partition.
func (p *DimensionPartition) OverlapAfter() []keys.Element {
	return slices.Clone(p.elements[p.coreEnd:])
}

// Len returns the number of elements, overlap included.
func (p *DimensionPartition) Len() int {
	return len(p.elements)
}

// Filter returns the element filter for the partition.
func (p *DimensionPartition) Filter() *keys.ElementFilter {
	return p.filter
}

// Index returns the position of the partition along its dimension.
func (p *DimensionPartition) Index() int {
	return p.index
}

// Total returns the number of partitions of the dimension.
func (p *DimensionPartition) Total() int {
	return p.total
}

// String renders the partition as "frame[frame3..frame4]".
func (p *DimensionPartition) String() string {
	if len(p.elements) == 0 {
		return string(p.dim) + "[]"
	}

	first, last := p.elements[0].ID(), p.elements[len(p.elements)-1].ID()
	if first == last {
		return fmt.Sprintf("%s[%s]", p.dim, first)
	}

	return fmt.Sprintf("%s[%s..%s]", p.dim, first, last)
}
