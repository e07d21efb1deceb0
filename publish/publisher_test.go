package publish

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/keysplit/keys"
	"github.com/arloliu/keysplit/partition"
	splittest "github.com/arloliu/keysplit/testing"
	"github.com/arloliu/keysplit/types"
)

type recordingMetrics struct {
	partitions []int
	versions   []int64
}

func (m *recordingMetrics) RecordPlanPublished(partitions int, version int64) {
	m.partitions = append(m.partitions, partitions)
	m.versions = append(m.versions, version)
}

// framePartitions splits frames f0..f(n-1) into count partitions with one element of overlap after.
func framePartitions(t *testing.T, n, count int) []*partition.KeyspacePartition {
	t.Helper()

	ks := keys.NewKeyspace()
	for i := range n {
		ks.AddElements(keys.NewElement(fmt.Sprintf("f%d", i), "frame"))
	}
	ks.AddElements(keys.NewElement("t1", "tile"))

	kp := partition.NewKeyspacePartitioner(ks)
	require.NoError(t, kp.AddDimension("frame", partition.DimensionConfig{Count: count, OverlapAfter: 1}))
	require.NoError(t, kp.AddDependentDimension("tile"))

	parts, err := kp.Partition()
	require.NoError(t, err)

	return parts
}

func TestDescribe(t *testing.T) {
	parts := framePartitions(t, 6, 3)

	d := Describe(parts[0])
	require.Equal(t, 0, d.Index)
	require.Equal(t, 3, d.Total)
	require.Equal(t, parts[0].Fingerprint(0), d.Fingerprint)
	require.Equal(t, []DimensionRange{{
		Dimension:    "frame",
		Elements:     []string{"f0", "f1", "f2"},
		OverlapAfter: 1,
	}}, d.Dimensions)
	require.Equal(t, []string{"f0", "f1"}, d.Dimensions[0].Core())
	require.Equal(t, []DimensionRange{{Dimension: "tile", Elements: []string{"t1"}}}, d.Dependent)

	last := Describe(parts[2])
	require.Equal(t, []string{"f4", "f5"}, last.Dimensions[0].Elements, "overlap is clamped at the end")
	require.Equal(t, []string{"f4", "f5"}, last.Dimensions[0].Core())
}

func TestPlanPublisher_Publish(t *testing.T) {
	_, nc := splittest.StartEmbeddedNATS(t)
	ctx := t.Context()
	parts := framePartitions(t, 6, 3)

	t.Run("writes one document per worker", func(t *testing.T) {
		kv := splittest.CreateJetStreamKV(t, nc, "plans-publish")
		rec := &recordingMetrics{}
		fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		pub := NewPlanPublisher(kv, "", WithMetrics(rec), WithClock(func() time.Time { return fixed }),
			WithLogger(splittest.NewTestLogger(t)))

		version, err := pub.Publish(ctx, "plan-1", map[string][]*partition.KeyspacePartition{
			"worker-0": {parts[0], parts[2]},
			"worker-1": {parts[1]},
			"worker-2": {},
		})
		require.NoError(t, err)
		require.Equal(t, int64(1), version)
		require.Equal(t, int64(1), pub.CurrentVersion())
		require.Equal(t, fixed, pub.LastPublishTime())
		require.Equal(t, []int{3}, rec.partitions)
		require.Equal(t, []int64{1}, rec.versions)

		doc, err := pub.Load(ctx, "worker-0")
		require.NoError(t, err)
		require.Equal(t, "plan-1", doc.PlanID)
		require.Equal(t, int64(1), doc.Version)
		require.Equal(t, "worker-0", doc.Worker)
		require.Equal(t, fixed, doc.PublishedAt)
		require.Len(t, doc.Partitions, 2)
		require.Equal(t, 2, doc.Partitions[1].Index)

		empty, err := pub.Load(ctx, "worker-2")
		require.NoError(t, err)
		require.Empty(t, empty.Partitions)

		entry, err := kv.Get(ctx, DefaultPrefix+".worker-1")
		require.NoError(t, err)
		require.Contains(t, string(entry.Value()), `"planId":"plan-1"`)
	})

	t.Run("removes documents of departed workers", func(t *testing.T) {
		kv := splittest.CreateJetStreamKV(t, nc, "plans-stale")
		pub := NewPlanPublisher(kv, "plan")

		_, err := kv.Put(ctx, "heartbeat.worker-1", []byte("alive"))
		require.NoError(t, err)

		_, err = pub.Publish(ctx, "a", map[string][]*partition.KeyspacePartition{
			"worker-0": {parts[0]},
			"worker-1": {parts[1], parts[2]},
		})
		require.NoError(t, err)

		version, err := pub.Publish(ctx, "b", map[string][]*partition.KeyspacePartition{
			"worker-0": parts,
		})
		require.NoError(t, err)
		require.Equal(t, int64(2), version)

		_, err = pub.Load(ctx, "worker-1")
		require.ErrorIs(t, err, types.ErrNoKeysFound)

		doc, err := pub.Load(ctx, "worker-0")
		require.NoError(t, err)
		require.Equal(t, "b", doc.PlanID)
		require.Len(t, doc.Partitions, 3)

		_, err = kv.Get(ctx, "heartbeat.worker-1")
		require.NoError(t, err, "keys outside the prefix are untouched")
	})

	t.Run("no workers", func(t *testing.T) {
		kv := splittest.CreateJetStreamKV(t, nc, "plans-empty")
		pub := NewPlanPublisher(kv, "plan")

		_, err := pub.Publish(ctx, "a", nil)
		require.ErrorIs(t, err, types.ErrNoWorkersAvailable)
		require.Equal(t, int64(0), pub.CurrentVersion())
	})
}

func TestPlanPublisher_DiscoverHighestVersion(t *testing.T) {
	_, nc := splittest.StartEmbeddedNATS(t)
	ctx := t.Context()
	kv := splittest.CreateJetStreamKV(t, nc, "plans-discover")
	parts := framePartitions(t, 4, 2)

	t.Run("empty bucket", func(t *testing.T) {
		pub := NewPlanPublisher(kv, "plan")
		require.NoError(t, pub.DiscoverHighestVersion(ctx))
		require.Equal(t, int64(0), pub.CurrentVersion())
	})

	first := NewPlanPublisher(kv, "plan")
	for range 3 {
		_, err := first.Publish(ctx, "p", map[string][]*partition.KeyspacePartition{"worker-0": parts})
		require.NoError(t, err)
	}

	_, err := kv.Put(ctx, "plan.garbage", []byte("not json"))
	require.NoError(t, err)

	t.Run("resumes after the highest version", func(t *testing.T) {
		second := NewPlanPublisher(kv, "plan")
		require.NoError(t, second.DiscoverHighestVersion(ctx))
		require.Equal(t, int64(3), second.CurrentVersion())

		version, err := second.Publish(ctx, "q", map[string][]*partition.KeyspacePartition{"worker-0": parts})
		require.NoError(t, err)
		require.Equal(t, int64(4), version)
	})

	t.Run("other prefixes are ignored", func(t *testing.T) {
		other := NewPlanPublisher(kv, "other")
		require.NoError(t, other.DiscoverHighestVersion(ctx))
		require.Equal(t, int64(0), other.CurrentVersion())
	})
}

func TestPlanPublisher_CleanupAll(t *testing.T) {
	_, nc := splittest.StartEmbeddedNATS(t)
	ctx := t.Context()
	kv := splittest.CreateJetStreamKV(t, nc, "plans-cleanup")
	parts := framePartitions(t, 4, 2)

	pub := NewPlanPublisher(kv, "plan")
	_, err := pub.Publish(ctx, "p", map[string][]*partition.KeyspacePartition{
		"worker-0": {parts[0]},
		"worker-1": {parts[1]},
	})
	require.NoError(t, err)

	require.NoError(t, pub.CleanupAll(ctx))
	for _, w := range []string{"worker-0", "worker-1"} {
		_, err := pub.Load(ctx, w)
		require.ErrorIs(t, err, types.ErrNoKeysFound)
	}

	// Versions keep increasing after a cleanup.
	version, err := pub.Publish(ctx, "p", map[string][]*partition.KeyspacePartition{"worker-0": parts})
	require.NoError(t, err)
	require.Equal(t, int64(2), version)
}
