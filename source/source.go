package source

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/arloliu/keysplit/dataset"
	"github.com/arloliu/keysplit/keys"
)

// KeySource lists the keys of some corpus.
//
// Implementations must be safe for concurrent use.
type KeySource interface {
	// ListKeys returns the keys of the corpus.
	//
	// Parameters:
	//   - ctx: Context for cancellation
	//
	// Returns:
	//   - []keys.Key: Keys in any order
	//   - error: Listing error
	ListKeys(ctx context.Context) ([]keys.Key, error)
}

// DatasetSource lists every key of a dataset, from both facets.
type DatasetSource struct {
	ds *dataset.Dataset
}

var _ KeySource = (*DatasetSource)(nil)

// NewDatasetSource creates a source over ds.
func NewDatasetSource(ds *dataset.Dataset) *DatasetSource {
	return &DatasetSource{ds: ds}
}

// ListKeys returns the dataset's keys in key order.
func (s *DatasetSource) ListKeys(ctx context.Context) ([]keys.Key, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return s.ds.AllKeys(), nil
}

// Collect lists every source concurrently and adds all keys to ks.
//
// The first failing source cancels the others. Keys of sources that finished
// before the failure may already be in ks.
//
// Parameters:
//   - ctx: Context for cancellation
//   - ks: Keyspace to accumulate into
//   - sources: Sources to scan
//
// Returns:
//   - error: First listing error, wrapped with the source position
//
// Example:
//
//	ks := keys.NewKeyspace()
//	err := source.Collect(ctx, ks, source.NewDatasetSource(inputA), source.NewDatasetSource(inputB))
func Collect(ctx context.Context, ks *keys.Keyspace, sources ...KeySource) error {
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			listed, err := src.ListKeys(gctx)
			if err != nil {
				return fmt.Errorf("source %d: %w", i, err)
			}
			ks.AddKeys(listed...)

			return nil
		})
	}

	return g.Wait()
}
