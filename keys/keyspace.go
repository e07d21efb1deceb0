package keys

import (
	"fmt"
	"slices"
	"sync"

	"github.com/google/btree"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arloliu/keysplit/types"
)

// btreeDegree is the branching factor of the per-dimension element trees.
const btreeDegree = 16

// Keyspace maps each Dimension to the sorted, deduplicated set of Elements
// observed for it across a corpus of keys.
//
// A Keyspace only grows. AddKey and AddKeys are safe to call concurrently from
// several producers, for example one per dataset being scanned. Reads are safe
// at any time but only describe a stable snapshot once accumulation is done.
type Keyspace struct {
	dims *xsync.Map[Dimension, *elementSet]
}

// elementSet is the ordered element-id set of one dimension.
type elementSet struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[string]
}

func newElementSet() *elementSet {
	return &elementSet{
		tree: btree.NewG[string](btreeDegree, func(a, b string) bool { return a < b }),
	}
}

func (s *elementSet) add(id string) {
	s.mu.Lock()
	s.tree.ReplaceOrInsert(id)
	s.mu.Unlock()
}

func (s *elementSet) ids() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, s.tree.Len())
	s.tree.Ascend(func(id string) bool {
		out = append(out, id)
		return true
	})

	return out
}

func (s *elementSet) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tree.Len()
}

// NewKeyspace creates an empty keyspace.
func NewKeyspace() *Keyspace {
	return &Keyspace{dims: xsync.NewMap[Dimension, *elementSet]()}
}

// KeyspaceOf builds a keyspace from keys.
func KeyspaceOf(keys ...Key) *Keyspace {
	ks := NewKeyspace()
	ks.AddKeys(keys...)

	return ks
}

// AddKey records every element of k. Adding an element twice is a no-op.
func (ks *Keyspace) AddKey(k Key) {
	for _, e := range k.Elements() {
		ks.set(e.dim).add(e.id)
	}
}

// AddKeys records every element of every key.
func (ks *Keyspace) AddKeys(keys ...Key) {
	for _, k := range keys {
		ks.AddKey(k)
	}
}

// AddElements records individual elements.
func (ks *Keyspace) AddElements(elements ...Element) {
	for _, e := range elements {
		ks.set(e.dim).add(e.id)
	}
}

func (ks *Keyspace) set(dim Dimension) *elementSet {
	if s, ok := ks.dims.Load(dim); ok {
		return s
	}
	s, _ := ks.dims.LoadOrStore(dim, newElementSet())

	return s
}

// Dimensions returns the dimensions that have at least one element, sorted by name.
func (ks *Keyspace) Dimensions() []Dimension {
	dims := make([]Dimension, 0, ks.dims.Size())
	ks.dims.Range(func(d Dimension, _ *elementSet) bool {
		dims = append(dims, d)
		return true
	})
	slices.SortFunc(dims, Dimension.Compare)

	return dims
}

// HasDimension reports whether any element of dim has been added.
func (ks *Keyspace) HasDimension(dim Dimension) bool {
	_, ok := ks.dims.Load(dim)
	return ok
}

// Elements returns the sorted elements of dim.
//
// Returns:
//   - []Element: Elements ordered by identifier
//   - error: ErrUnknownDimension if no element of dim was ever added
func (ks *Keyspace) Elements(dim Dimension) ([]Element, error) {
	s, ok := ks.dims.Load(dim)
	if !ok {
		return nil, fmt.Errorf("%w: %q not in keyspace", types.ErrUnknownDimension, dim)
	}

	ids := s.ids()
	elems := make([]Element, len(ids))
	for i, id := range ids {
		elems[i] = Element{id: id, dim: dim}
	}

	return elems, nil
}

// Size returns the number of distinct elements of dim.
func (ks *Keyspace) Size(dim Dimension) (int, error) {
	s, ok := ks.dims.Load(dim)
	if !ok {
		return 0, fmt.Errorf("%w: %q not in keyspace", types.ErrUnknownDimension, dim)
	}

	return s.len(), nil
}

// Equal reports whether both keyspaces hold the same elements for the same dimensions.
func (ks *Keyspace) Equal(o *Keyspace) bool {
	if ks == o {
		return true
	}
	if o == nil || ks.dims.Size() != o.dims.Size() {
		return false
	}

	equal := true
	ks.dims.Range(func(d Dimension, s *elementSet) bool {
		other, ok := o.dims.Load(d)
		if !ok || !slices.Equal(s.ids(), other.ids()) {
			equal = false
			return false
		}

		return true
	})

	return equal
}

// String renders the keyspace as "{dim:[a b] dim2:[c]}".
func (ks *Keyspace) String() string {
	out := "{"
	for i, d := range ks.Dimensions() {
		if i > 0 {
			out += " "
		}
		s, _ := ks.dims.Load(d)
		out += fmt.Sprintf("%s:%v", d, s.ids())
	}

	return out + "}"
}
