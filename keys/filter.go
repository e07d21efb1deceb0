package keys

import (
	"fmt"
	"slices"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arloliu/keysplit/types"
)

// Filter is a predicate over whole keys.
//
// Datasets are sliced with filters; KeyFilter, KeySet and FilterFunc implement it.
type Filter interface {
	Accept(k Key) bool
}

// FilterFunc adapts an ordinary function to Filter.
type FilterFunc func(k Key) bool

// Accept calls f(k).
func (f FilterFunc) Accept(k Key) bool {
	return f(k)
}

// ElementFilter is a membership predicate over the elements of one dimension.
//
// The dimension is checked once, when the filter is built; Accept trusts that
// callers only pass elements of that dimension.
type ElementFilter struct {
	dim      Dimension
	elements []Element
	members  map[string]struct{}
}

// NewElementFilter builds a filter accepting exactly the given elements of dim.
//
// Returns:
//   - *ElementFilter: The filter; elements are deduplicated and sorted
//   - error: ErrDimensionMismatch if an element belongs to another dimension
func NewElementFilter(dim Dimension, elements ...Element) (*ElementFilter, error) {
	members := make(map[string]struct{}, len(elements))
	sorted := make([]Element, 0, len(elements))
	for _, e := range elements {
		if e.dim != dim {
			return nil, fmt.Errorf("%w: element %s in filter for %q", types.ErrDimensionMismatch, e, dim)
		}
		if _, dup := members[e.id]; dup {
			continue
		}
		members[e.id] = struct{}{}
		sorted = append(sorted, e)
	}
	slices.SortFunc(sorted, compareIDs)

	return &ElementFilter{dim: dim, elements: sorted, members: members}, nil
}

// Dimension returns the filtered dimension.
func (f *ElementFilter) Dimension() Dimension {
	return f.dim
}

// Accept reports whether e is a member.
func (f *ElementFilter) Accept(e Element) bool {
	_, ok := f.members[e.id]
	return ok
}

// Elements returns the members sorted by identifier.
func (f *ElementFilter) Elements() []Element {
	return slices.Clone(f.elements)
}

// Len returns the number of members.
func (f *ElementFilter) Len() int {
	return len(f.elements)
}

// FilterPolicy controls how a KeyFilter treats dimensions it has no opinion on.
type FilterPolicy struct {
	// AllowUnknown accepts keys carrying dimensions the filter has not registered.
	AllowUnknown bool
	// AllowMissing accepts keys lacking dimensions the filter has registered.
	AllowMissing bool
}

// KeyFilter composes per-dimension element filters into a predicate over keys.
//
// A key is accepted when:
//   - every element on a registered dimension passes that dimension's filter
//     (dimensions registered with AllowDimension accept any element)
//   - elements on unregistered dimensions are allowed by AllowUnknown
//   - registered dimensions absent from the key are allowed by AllowMissing
//
// Registration is safe for concurrent use; Accept must not race with registration.
type KeyFilter struct {
	policy  FilterPolicy
	filters *xsync.Map[Dimension, *ElementFilter]
}

// NewKeyFilter creates a filter with no registered dimensions.
func NewKeyFilter(policy FilterPolicy) *KeyFilter {
	return &KeyFilter{
		policy:  policy,
		filters: xsync.NewMap[Dimension, *ElementFilter](),
	}
}

// AddFilter registers f for its dimension.
//
// Returns:
//   - error: ErrDuplicateRegistration if the dimension is already registered
func (kf *KeyFilter) AddFilter(f *ElementFilter) error {
	if f == nil {
		return fmt.Errorf("%w: nil element filter", types.ErrInvalidConfig)
	}

	return kf.register(f.dim, f)
}

// AllowDimension registers dim as known without constraining its elements.
//
// Returns:
//   - error: ErrDuplicateRegistration if the dimension is already registered
func (kf *KeyFilter) AllowDimension(dim Dimension) error {
	return kf.register(dim, nil)
}

func (kf *KeyFilter) register(dim Dimension, f *ElementFilter) error {
	if _, loaded := kf.filters.LoadOrStore(dim, f); loaded {
		return fmt.Errorf("%w: filter for dimension %q", types.ErrDuplicateRegistration, dim)
	}

	return nil
}

// Policy returns the filter policy.
func (kf *KeyFilter) Policy() FilterPolicy {
	return kf.policy
}

// Dimensions returns the registered dimensions sorted by name.
func (kf *KeyFilter) Dimensions() []Dimension {
	dims := make([]Dimension, 0, kf.filters.Size())
	kf.filters.Range(func(d Dimension, _ *ElementFilter) bool {
		dims = append(dims, d)
		return true
	})
	slices.SortFunc(dims, Dimension.Compare)

	return dims
}

// ElementFilter returns the filter registered for dim.
//
// Returns:
//   - *ElementFilter: The filter, nil for dimensions registered with AllowDimension
//   - error: ErrUnknownDimension if dim is not registered
func (kf *KeyFilter) ElementFilter(dim Dimension) (*ElementFilter, error) {
	f, ok := kf.filters.Load(dim)
	if !ok {
		return nil, fmt.Errorf("%w: %q not in filter", types.ErrUnknownDimension, dim)
	}

	return f, nil
}

// Accept implements Filter.
func (kf *KeyFilter) Accept(k Key) bool {
	present := 0
	for _, e := range k.Elements() {
		f, ok := kf.filters.Load(e.dim)
		if !ok {
			if !kf.policy.AllowUnknown {
				return false
			}

			continue
		}
		present++
		if f != nil && !f.Accept(e) {
			return false
		}
	}

	if !kf.policy.AllowMissing && present < kf.filters.Size() {
		return false
	}

	return true
}
