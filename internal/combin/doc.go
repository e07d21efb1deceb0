// Package combin provides the sequence helpers used by the keyspace partitioner:
// fixed-size chunking, balanced contiguous splitting, and a lazy cartesian
// product over index ranges.
package combin
