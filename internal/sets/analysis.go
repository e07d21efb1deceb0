// Package sets computes the overlap between two keyed collections.
package sets

// Analysis is the partition of two collections by key into the items present in
// both, only in the left, and only in the right.
//
// Both holds pairs so callers can compare the two sides of a shared key.
type Analysis[T any] struct {
	Both      []Pair[T]
	OnlyLeft  []T
	OnlyRight []T
}

// Pair holds the left and right items sharing one key.
type Pair[T any] struct {
	Left  T
	Right T
}

// Compute partitions left and right by keyOf.
//
// Output order follows input order: Both and OnlyLeft in left order, OnlyRight
// in right order. When a side holds repeated keys, the first occurrence wins.
//
// Parameters:
//   - left: First collection
//   - right: Second collection
//   - keyOf: Extracts the identity of an item
//
// Returns:
//   - Analysis[T]: Disjoint classification covering every distinct key
func Compute[T any, K comparable](left, right []T, keyOf func(T) K) Analysis[T] {
	rightIdx := make(map[K]int, len(right))
	for i, item := range right {
		k := keyOf(item)
		if _, ok := rightIdx[k]; !ok {
			rightIdx[k] = i
		}
	}

	var a Analysis[T]
	seenLeft := make(map[K]struct{}, len(left))
	for _, item := range left {
		k := keyOf(item)
		if _, dup := seenLeft[k]; dup {
			continue
		}
		seenLeft[k] = struct{}{}

		if i, ok := rightIdx[k]; ok {
			a.Both = append(a.Both, Pair[T]{Left: item, Right: right[i]})
		} else {
			a.OnlyLeft = append(a.OnlyLeft, item)
		}
	}

	for i, item := range right {
		k := keyOf(item)
		if rightIdx[k] != i {
			continue
		}
		if _, ok := seenLeft[k]; !ok {
			a.OnlyRight = append(a.OnlyRight, item)
		}
	}

	return a
}

// Empty reports whether the analysis classified nothing.
func (a Analysis[T]) Empty() bool {
	return len(a.Both) == 0 && len(a.OnlyLeft) == 0 && len(a.OnlyRight) == 0
}
