package keys

import (
	"encoding/binary"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/arloliu/keysplit/types"
)

// Key identifies one unit of data as a combination of at most one Element per Dimension.
//
// Two representations exist: a single-element key and a general key. Both are
// immutable and expose the same contract, so callers never need to know which
// one they hold.
type Key interface {
	// Dimensions returns the dimensions present in the key, sorted by name.
	Dimensions() []Dimension

	// Element returns the element for dim, if the key carries one.
	Element(dim Dimension) (Element, bool)

	// Elements returns all elements sorted by dimension name.
	Elements() []Element

	// Len returns the number of elements.
	Len() int

	// String returns a human-readable form, e.g. "[frame=f1 tile=t3]".
	String() string
}

// NewKey builds a key from elements.
//
// A single element yields the compact single-element representation. Zero
// elements yield the empty key.
//
// Returns:
//   - Key: The constructed key
//   - error: ErrDuplicateDimension if two elements share a dimension
func NewKey(elements ...Element) (Key, error) {
	if len(elements) == 1 {
		return singleKey{elem: elements[0]}, nil
	}

	elems := slices.Clone(elements)
	slices.SortFunc(elems, func(a, b Element) int {
		return a.dim.Compare(b.dim)
	})

	for i := 1; i < len(elems); i++ {
		if elems[i-1].dim == elems[i].dim {
			return nil, fmt.Errorf("%w: %q appears in both %s and %s",
				types.ErrDuplicateDimension, elems[i].dim, elems[i-1], elems[i])
		}
	}

	return multiKey{elems: elems}, nil
}

// MustKey is like NewKey but panics on error. Intended for tests and literals.
func MustKey(elements ...Element) Key {
	k, err := NewKey(elements...)
	if err != nil {
		panic(err)
	}

	return k
}

// singleKey is the single-element representation.
type singleKey struct {
	elem Element
}

func (k singleKey) Dimensions() []Dimension {
	return []Dimension{k.elem.dim}
}

func (k singleKey) Element(dim Dimension) (Element, bool) {
	if dim == k.elem.dim {
		return k.elem, true
	}

	return Element{}, false
}

func (k singleKey) Elements() []Element {
	return []Element{k.elem}
}

func (k singleKey) Len() int {
	return 1
}

func (k singleKey) String() string {
	return "[" + k.elem.String() + "]"
}

// multiKey is the general representation; elems are sorted by dimension.
type multiKey struct {
	elems []Element
}

func (k multiKey) Dimensions() []Dimension {
	dims := make([]Dimension, len(k.elems))
	for i, e := range k.elems {
		dims[i] = e.dim
	}

	return dims
}

func (k multiKey) Element(dim Dimension) (Element, bool) {
	idx, found := slices.BinarySearchFunc(k.elems, dim, func(e Element, d Dimension) int {
		return e.dim.Compare(d)
	})
	if !found {
		return Element{}, false
	}

	return k.elems[idx], true
}

func (k multiKey) Elements() []Element {
	return slices.Clone(k.elems)
}

func (k multiKey) Len() int {
	return len(k.elems)
}

func (k multiKey) String() string {
	parts := make([]string, len(k.elems))
	for i, e := range k.elems {
		parts[i] = e.String()
	}

	return "[" + strings.Join(parts, " ") + "]"
}

// CompareKeys imposes the total order on keys.
//
// Ordering rules:
//   - Compare the sorted dimension name lists lexicographically; a shorter list
//     that is a prefix of the other sorts first
//   - If the dimension lists are equal, compare element identifiers dimension by
//     dimension and return the first difference
//
// Returns:
//   - int: -1 if a < b, 0 if equal, +1 if a > b
func CompareKeys(a, b Key) int {
	ae, be := a.Elements(), b.Elements()

	n := min(len(ae), len(be))
	for i := range n {
		if c := ae[i].dim.Compare(be[i].dim); c != 0 {
			return c
		}
	}
	if len(ae) != len(be) {
		if len(ae) < len(be) {
			return -1
		}

		return 1
	}

	for i := range ae {
		if c := compareIDs(ae[i], be[i]); c != 0 {
			return c
		}
	}

	return 0
}

// EqualKeys reports whether a and b carry exactly the same elements.
func EqualKeys(a, b Key) bool {
	return a.Len() == b.Len() && CompareKeys(a, b) == 0
}

// SortKeys sorts keys in place by CompareKeys.
func SortKeys(ks []Key) {
	slices.SortFunc(ks, CompareKeys)
}

// ID returns a canonical identity string for k.
//
// Each dimension name and element identifier is length-prefixed, so two keys
// have the same ID if and only if they are equal. IDs are suitable as map keys.
func ID(k Key) string {
	var sb strings.Builder
	for _, e := range k.Elements() {
		sb.WriteString(strconv.Itoa(len(e.dim)))
		sb.WriteByte(':')
		sb.WriteString(string(e.dim))
		sb.WriteString(strconv.Itoa(len(e.id)))
		sb.WriteByte(':')
		sb.WriteString(e.id)
	}

	return sb.String()
}

// Hash folds every dimension name and element identifier of k into one xxh3
// 64-bit hash. Earlier values become the seed for later ones, so no joined
// string is built.
//
// Parameters:
//   - k: Key to hash
//   - seed: Initial seed (0 for the unseeded hash)
//
// Returns:
//   - uint64: Stable fingerprint of the key
func Hash(k Key, seed uint64) uint64 {
	h := seed
	var lb [8]byte
	for _, e := range k.Elements() {
		h = xxh3.HashStringSeed(string(e.dim), h)
		h = xxh3.HashStringSeed(e.id, h)
	}
	binary.LittleEndian.PutUint64(lb[:], uint64(k.Len())) //nolint:gosec

	return xxh3.HashSeed(lb[:], h)
}
