// Package partition turns a keyspace into bounded, self-describing work units.
//
// Planning happens in two steps:
//
//  1. Partitioner decides how many partitions each dimension is split into,
//     given per-dimension bounds and an overall range for the product of all
//     counts.
//  2. KeyspacePartitioner splits every independent dimension into that many
//     contiguous element groups (optionally chunked and overlapped) and
//     enumerates the cartesian product of the groups as KeyspacePartitions.
//
// Each KeyspacePartition owns its filters, so partitions can be handed to
// independent workers and used to slice datasets without further coordination.
//
// Example:
//
//	p := partition.NewPartitioner(1, 20)
//	_ = p.AddDimension("frame", 32, 1)
//	_ = p.AddDimension("tile", 10, 1)
//	counts, err := p.ComputePartitions()
//	if err != nil {
//	    return err
//	}
//
//	kp := partition.NewKeyspacePartitioner(ks)
//	_ = kp.AddDimension("frame", partition.DimensionConfig{Count: counts["frame"], OverlapBefore: 1, OverlapAfter: 1})
//	_ = kp.AddDimension("tile", partition.DimensionConfig{Count: counts["tile"]})
//	parts, err := kp.Partition()
package partition
