// Package source provides key sources that feed a keyspace.
//
// The package includes:
//
//   - Static: Fixed list of keys
//   - DatasetSource: Every key of a dataset
//   - YAML: Keys listed in a YAML document
//
// Collect scans any number of sources concurrently into one keysplit keyspace.
// Custom sources can be implemented by satisfying the KeySource interface.
package source
