// Package keysplit splits a multi-dimensional keyspace into overlapping work
// partitions and compares keyed datasets.
//
// Keys are tuples of elements, one element per dimension (for example a
// frame and a tile). A Planner gathers the keyspace, decides how many
// partitions each dimension is split into, and produces the cartesian product
// of the per-dimension ranges. Each resulting KeyspacePartition carries filters
// that select its keys from any dataset.
//
// # Quick Start
//
//	cfg, err := keysplit.LoadConfig("keysplit.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	planner, err := keysplit.NewPlanner(&cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ks := keys.NewKeyspace()
//	ks.AddKeys(corpus...)
//
//	plan, err := planner.Plan(ks)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, p := range plan.Partitions {
//	    work := input.Slice(p.CompleteFilter())
//	    // process work
//	}
//
// # Packages
//
//   - keys: elements, keys, keyspaces and filters
//   - partition: partition-count solver and keyspace partitioner
//   - dataset, diff: keyed file/metadata collections and their comparison
//   - source: concurrent keyspace collection
//   - strategy, publish: assigning partitions to workers and handing plans off through NATS KV
//
// See cmd/keysplit for a command-line front end.
package keysplit
