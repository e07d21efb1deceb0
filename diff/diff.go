package diff

import (
	"fmt"
	"sync"
	"time"

	"github.com/arloliu/keysplit/dataset"
	"github.com/arloliu/keysplit/internal/logger"
	"github.com/arloliu/keysplit/internal/metrics"
	"github.com/arloliu/keysplit/internal/sets"
	"github.com/arloliu/keysplit/keys"
	"github.com/arloliu/keysplit/types"
)

// Category labels used for metrics.
const (
	categorySame      = "same"
	categoryOnlyIn1   = "only_in_1"
	categoryOnlyIn2   = "only_in_2"
	categoryDifferent = "different"
)

// DatasetDiff computes the difference between two datasets.
//
// The diff is computed once, on the first call to ComputeDiff; later calls
// return the same Result. Both datasets must be fully loaded before the first
// call and must not change afterwards.
type DatasetDiff struct {
	ds1 *dataset.Dataset
	ds2 *dataset.Dataset

	logger  types.Logger
	metrics types.DiffMetrics

	once   sync.Once
	result *Result
	err    error
}

// New creates a diff of ds1 against ds2.
func New(ds1, ds2 *dataset.Dataset, opts ...Option) *DatasetDiff {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.NewNop()
	}
	if o.metrics == nil {
		o.metrics = metrics.NewNop()
	}

	return &DatasetDiff{
		ds1:     ds1,
		ds2:     ds2,
		logger:  o.logger,
		metrics: o.metrics,
	}
}

// ComputeDiff classifies every key of both datasets.
//
// Returns:
//   - *Result: The immutable diff result
//   - error: Non-nil if file content could not be read for comparison
func (d *DatasetDiff) ComputeDiff() (*Result, error) {
	d.once.Do(func() {
		start := time.Now()
		d.result, d.err = d.compute()
		d.metrics.RecordDiffDuration(time.Since(start).Seconds())
	})

	return d.result, d.err
}

// facetBuckets holds the key sets of one facet.
type facetBuckets struct {
	same      *keys.KeySet
	onlyIn1   *keys.KeySet
	onlyIn2   *keys.KeySet
	different *keys.KeySet
}

func newFacetBuckets() facetBuckets {
	return facetBuckets{
		same:      keys.NewKeySet(),
		onlyIn1:   keys.NewKeySet(),
		onlyIn2:   keys.NewKeySet(),
		different: keys.NewKeySet(),
	}
}

func (b facetBuckets) summary() FacetSummary {
	return FacetSummary{
		Same:      b.same.Len(),
		OnlyIn1:   b.onlyIn1.Len(),
		OnlyIn2:   b.onlyIn2.Len(),
		Different: b.different.Len(),
	}
}

func (d *DatasetDiff) compute() (*Result, error) {
	files, err := d.diffFiles()
	if err != nil {
		return nil, err
	}
	meta := d.diffMetadata()

	same1F := d.ds1.SliceFiles(files.same)
	only1F := d.ds1.SliceFiles(files.onlyIn1)
	only2F := d.ds2.SliceFiles(files.onlyIn2)
	diff1F := d.ds1.SliceFiles(files.different)
	diff2F := d.ds2.SliceFiles(files.different)

	same1M := d.ds1.SliceMetadata(meta.same)
	only1M := d.ds1.SliceMetadata(meta.onlyIn1)
	only2M := d.ds2.SliceMetadata(meta.onlyIn2)
	diff1M := d.ds1.SliceMetadata(meta.different)
	diff2M := d.ds2.SliceMetadata(meta.different)

	r := &Result{
		same:    dataset.Union("same", same1F, same1M),
		onlyIn1: dataset.Union("only_in_"+d.ds1.Name(), only1F, only1M),
		onlyIn2: dataset.Union("only_in_"+d.ds2.Name(), only2F, only2M),
		diffIn1: dataset.Union("different_in_"+d.ds1.Name(), diff1F, diff1M),
		diffIn2: dataset.Union("different_in_"+d.ds2.Name(), diff2F, diff2M),
		summary: Summary{Files: files.summary(), Metadata: meta.summary()},
	}

	d.record(dataset.FacetFiles, r.summary.Files)
	d.record(dataset.FacetMetadata, r.summary.Metadata)
	d.logger.Info("dataset diff computed",
		"dataset1", d.ds1.Name(),
		"dataset2", d.ds2.Name(),
		"different", r.Different(),
		"files", r.summary.Files,
		"metadata", r.summary.Metadata,
	)

	return r, nil
}

func (d *DatasetDiff) diffFiles() (facetBuckets, error) {
	keyOf := func(e dataset.FileEntry) string { return keys.ID(e.Key) }
	a := sets.Compute(d.ds1.Files(), d.ds2.Files(), keyOf)

	b := newFacetBuckets()
	for _, e := range a.OnlyLeft {
		b.onlyIn1.Add(e.Key)
	}
	for _, e := range a.OnlyRight {
		b.onlyIn2.Add(e.Key)
	}
	for _, p := range a.Both {
		eq, err := dataset.FilesEqual(p.Left.File, p.Right.File)
		if err != nil {
			return facetBuckets{}, fmt.Errorf("compare file %s: %w", p.Left.Key, err)
		}
		if eq {
			b.same.Add(p.Left.Key)
		} else {
			b.different.Add(p.Left.Key)
		}
	}

	return b, nil
}

func (d *DatasetDiff) diffMetadata() facetBuckets {
	keyOf := func(e dataset.MetadataEntry) string { return keys.ID(e.Key) }
	a := sets.Compute(d.ds1.MetadataEntries(), d.ds2.MetadataEntries(), keyOf)

	b := newFacetBuckets()
	for _, e := range a.OnlyLeft {
		b.onlyIn1.Add(e.Key)
	}
	for _, e := range a.OnlyRight {
		b.onlyIn2.Add(e.Key)
	}
	for _, p := range a.Both {
		if dataset.MetadataEqual(p.Left.Metadata, p.Right.Metadata) {
			b.same.Add(p.Left.Key)
		} else {
			b.different.Add(p.Left.Key)
		}
	}

	return b
}

func (d *DatasetDiff) record(facet dataset.Facet, s FacetSummary) {
	d.metrics.RecordDiffKeys(string(facet), categorySame, s.Same)
	d.metrics.RecordDiffKeys(string(facet), categoryOnlyIn1, s.OnlyIn1)
	d.metrics.RecordDiffKeys(string(facet), categoryOnlyIn2, s.OnlyIn2)
	d.metrics.RecordDiffKeys(string(facet), categoryDifferent, s.Different)
}
