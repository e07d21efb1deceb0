package keys

import (
	"github.com/puzpuzpuz/xsync/v4"
)

// KeySet is a set of keys and the basic key-membership Filter.
//
// Insertion is safe for concurrent use.
type KeySet struct {
	m *xsync.Map[string, Key]
}

// NewKeySet creates a set holding keys.
func NewKeySet(keys ...Key) *KeySet {
	s := &KeySet{m: xsync.NewMap[string, Key]()}
	s.Add(keys...)

	return s
}

// Add inserts keys; duplicates are ignored.
func (s *KeySet) Add(keys ...Key) {
	for _, k := range keys {
		s.m.LoadOrStore(ID(k), k)
	}
}

// Contains reports whether k is in the set.
func (s *KeySet) Contains(k Key) bool {
	_, ok := s.m.Load(ID(k))
	return ok
}

// Accept implements Filter.
func (s *KeySet) Accept(k Key) bool {
	return s.Contains(k)
}

// Len returns the number of keys.
func (s *KeySet) Len() int {
	return s.m.Size()
}

// Keys returns the members in key order.
func (s *KeySet) Keys() []Key {
	out := make([]Key, 0, s.m.Size())
	s.m.Range(func(_ string, k Key) bool {
		out = append(out, k)
		return true
	})
	SortKeys(out)

	return out
}

// Keyspace builds the keyspace of the members.
func (s *KeySet) Keyspace() *Keyspace {
	ks := NewKeyspace()
	s.m.Range(func(_ string, k Key) bool {
		ks.AddKey(k)
		return true
	})

	return ks
}
