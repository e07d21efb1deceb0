// Package publish hands partition plans to workers through a NATS JetStream KV bucket.
//
// Each worker's share of a plan is stored as one JSON document under
// "<prefix>.<worker>". Every Publish bumps a version that stays monotonic
// across publisher restarts (see DiscoverHighestVersion), and documents of
// workers that are no longer part of the plan are deleted so they cannot pick
// up stale work.
//
// Workers follow their own document with a Watcher, which reports the
// partitions added and removed by each new version.
package publish
