package diff

import "github.com/arloliu/keysplit/dataset"

// FacetSummary counts the keys of one facet per category.
type FacetSummary struct {
	Same      int
	OnlyIn1   int
	OnlyIn2   int
	Different int
}

// Summary counts the keys of both facets per category.
type Summary struct {
	Files    FacetSummary
	Metadata FacetSummary
}

// Result is the immutable outcome of a DatasetDiff.
//
// Each accessor returns a dataset holding the files and metadata of its
// category; a key may appear in different categories for its two facets.
type Result struct {
	same    *dataset.Dataset
	onlyIn1 *dataset.Dataset
	onlyIn2 *dataset.Dataset
	diffIn1 *dataset.Dataset
	diffIn2 *dataset.Dataset
	summary Summary
}

// Same returns the entries that are equal in both datasets, as stored in dataset 1.
func (r *Result) Same() *dataset.Dataset {
	return r.same
}

// OnlyInDataset1 returns the entries missing from dataset 2.
func (r *Result) OnlyInDataset1() *dataset.Dataset {
	return r.onlyIn1
}

// OnlyInDataset2 returns the entries missing from dataset 1.
func (r *Result) OnlyInDataset2() *dataset.Dataset {
	return r.onlyIn2
}

// DifferentInDataset1 returns dataset 1's version of the entries that differ.
func (r *Result) DifferentInDataset1() *dataset.Dataset {
	return r.diffIn1
}

// DifferentInDataset2 returns dataset 2's version of the entries that differ.
func (r *Result) DifferentInDataset2() *dataset.Dataset {
	return r.diffIn2
}

// Different reports whether the datasets differ in any facet.
func (r *Result) Different() bool {
	return !r.onlyIn1.IsEmpty() || !r.onlyIn2.IsEmpty() || !r.diffIn1.IsEmpty() || !r.diffIn2.IsEmpty()
}

// Summary returns the per-facet key counts.
func (r *Result) Summary() Summary {
	return r.summary
}
