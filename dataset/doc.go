// Package dataset holds keyed collections of files and metadata.
//
// A Dataset has two facets that are keyed independently: files, whose content is
// loaded lazily from a ContentSource, and metadata, a small closed tree of
// values. Datasets are sliced with keys.Filter, for example a partition filter
// or a keys.KeySet, and recombined with Union.
package dataset
