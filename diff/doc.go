// Package diff compares two datasets key by key.
//
// Files and metadata are compared independently. Every key of a facet lands in
// exactly one of three buckets: present in both datasets with equal values
// (same), present in only one dataset, or present in both with different values.
// The facet results are then merged into five datasets: same, only in dataset 1,
// only in dataset 2, and the differing entries as seen from each side.
//
// Example:
//
//	result, err := diff.New(expected, actual).ComputeDiff()
//	if err != nil {
//	    return err
//	}
//	if result.Different() {
//	    log.Printf("mismatch: %+v", result.Summary())
//	}
package diff
