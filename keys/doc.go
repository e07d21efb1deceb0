// Package keys implements the multi-dimensional key model.
//
// A Dimension is a named axis, an Element is one value along a dimension, and a
// Key combines at most one Element per Dimension. Keys have a stable total order
// (see CompareKeys) that every deterministic output in this module relies on.
//
// A Keyspace accumulates, per dimension, the sorted set of all elements observed
// across a corpus of keys. ElementFilter and KeyFilter turn element subsets into
// predicates over whole keys, and KeySet is the plain membership filter.
//
// Keyspace, KeyFilter registration and KeySet insertion are safe for concurrent
// use. Reads that assume a stable snapshot must start after accumulation ends.
package keys
