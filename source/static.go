package source

import (
	"context"
	"slices"
	"sync"

	"github.com/arloliu/keysplit/keys"
)

// Static implements a key source with a fixed list of keys.
type Static struct {
	mu   sync.RWMutex
	keys []keys.Key
}

var _ KeySource = (*Static)(nil)

// NewStatic creates a new static key source.
//
// Useful for testing and for corpora that are known up front.
//
// Parameters:
//   - ks: Fixed list of keys
//
// Returns:
//   - *Static: Initialized static source
//
// Example:
//
//	src := source.NewStatic([]keys.Key{
//	    keys.MustKey(keys.NewElement("frame1", "frame"), keys.NewElement("t1", "tile")),
//	    keys.MustKey(keys.NewElement("frame2", "frame"), keys.NewElement("t1", "tile")),
//	})
//	err := source.Collect(ctx, ks, src)
func NewStatic(ks []keys.Key) *Static {
	return &Static{
		keys: slices.Clone(ks),
	}
}

// ListKeys returns a copy of the key list.
//
// Returns:
//   - []keys.Key: The fixed list of keys
//   - error: Always nil (never fails)
func (s *Static) ListKeys(_ context.Context) ([]keys.Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.keys), nil
}

// Update replaces the key list.
//
// Parameters:
//   - ks: New list of keys
func (s *Static) Update(ks []keys.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.keys = slices.Clone(ks)
}
