package keys

import (
	"fmt"
	"strings"

	"github.com/arloliu/keysplit/types"
)

// Dimension is an immutable named axis of the key space.
//
// Equality and ordering are by name.
type Dimension string

// Name returns the dimension name.
func (d Dimension) Name() string {
	return string(d)
}

// Compare orders dimensions by name.
//
// Returns:
//   - int: -1 if d < o, 0 if equal, +1 if d > o
func (d Dimension) Compare(o Dimension) int {
	return strings.Compare(string(d), string(o))
}

// Element is one concrete value along a Dimension.
//
// The zero Element has an empty identifier and an empty dimension.
type Element struct {
	id  string
	dim Dimension
}

// NewElement creates an element with the given identifier in dim.
func NewElement(id string, dim Dimension) Element {
	return Element{id: id, dim: dim}
}

// ID returns the element identifier.
func (e Element) ID() string {
	return e.id
}

// Dimension returns the owning dimension.
func (e Element) Dimension() Dimension {
	return e.dim
}

// Compare orders two elements of the same dimension by identifier.
//
// Returns:
//   - int: -1 if e < o, 0 if equal, +1 if e > o
//   - error: ErrDimensionMismatch when the elements belong to different dimensions
func (e Element) Compare(o Element) (int, error) {
	if e.dim != o.dim {
		return 0, fmt.Errorf("%w: cannot compare %q element with %q element", types.ErrDimensionMismatch, e.dim, o.dim)
	}

	return strings.Compare(e.id, o.id), nil
}

// String returns "dimension=id".
func (e Element) String() string {
	return string(e.dim) + "=" + e.id
}

// compareIDs orders elements known to share a dimension.
func compareIDs(a, b Element) int {
	return strings.Compare(a.id, b.id)
}
