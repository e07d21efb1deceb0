package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/keysplit/internal/logger"
	"github.com/arloliu/keysplit/internal/metrics"
	"github.com/arloliu/keysplit/partition"
	"github.com/arloliu/keysplit/types"
)

// DefaultPrefix is the key prefix used when none is given.
const DefaultPrefix = "plan"

// PlanPublisher writes per-worker plan documents to a KV bucket.
//
// Publish and CleanupAll are serialized; CurrentVersion may be called concurrently.
type PlanPublisher struct {
	kv        jetstream.KeyValue
	prefix    string
	keyPrefix string // cached "prefix."

	mu             sync.Mutex
	currentVersion int64
	lastPublish    time.Time

	logger  types.Logger
	metrics types.PublishMetrics
	now     func() time.Time
}

// NewPlanPublisher creates a new plan publisher.
//
// Parameters:
//   - kv: NATS KV bucket for plans
//   - prefix: Prefix for plan keys (DefaultPrefix when empty)
//   - opts: WithLogger, WithMetrics, WithClock
//
// Returns:
//   - *PlanPublisher: A new publisher instance
//
// Example:
//
//	kv, _ := kvutil.EnsureKVBucketWithRetry(ctx, js, kvutil.PlanBucketConfig("keysplit-plans"), 3)
//	pub := publish.NewPlanPublisher(kv, "plan", publish.WithLogger(log))
//	if err := pub.DiscoverHighestVersion(ctx); err != nil {
//	    return err
//	}
//	version, err := pub.Publish(ctx, plan.ID.String(), assignments)
func NewPlanPublisher(kv jetstream.KeyValue, prefix string, opts ...Option) *PlanPublisher {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	p := &PlanPublisher{
		kv:        kv,
		prefix:    prefix,
		keyPrefix: prefix + ".",
		logger:    logger.NewNop(),
		metrics:   metrics.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// DiscoverHighestVersion scans the bucket for the highest published version.
//
// Call it once before the first Publish so versions keep increasing across
// publisher restarts. Unreadable or malformed documents are skipped.
//
// Returns:
//   - error: Nil on success, error on KV access failure
func (p *PlanPublisher) DiscoverHighestVersion(ctx context.Context) error {
	planKeys, err := p.listPlanKeys(ctx)
	if err != nil {
		return err
	}

	highest := int64(0)
	for _, key := range planKeys {
		entry, err := p.kv.Get(ctx, key)
		if err != nil {
			p.logger.Debug("failed to read plan key", "key", key, "error", err)
			continue
		}

		var doc WorkerPlan
		if err := json.Unmarshal(entry.Value(), &doc); err != nil {
			p.logger.Debug("failed to unmarshal plan", "key", key, "error", err)
			continue
		}

		highest = max(highest, doc.Version)
	}

	p.mu.Lock()
	p.currentVersion = max(p.currentVersion, highest)
	p.mu.Unlock()

	if highest > 0 {
		p.logger.Info("discovered existing plans", "highest_version", highest, "checked_keys", len(planKeys))
	} else {
		p.logger.Debug("no existing plans found", "checked_keys", len(planKeys))
	}

	return nil
}

// Publish writes one document per worker in assignments under a new version.
//
// Workers with an empty slice still get a document, which tells them the plan
// has nothing for them. Documents of workers missing from assignments are
// deleted first; a failed cleanup is logged and does not stop the publish.
//
// Parameters:
//   - ctx: Context for cancellation
//   - planID: Identifier of the plan the assignments belong to
//   - assignments: Worker ID to assigned partitions, as returned by a strategy
//
// Returns:
//   - int64: The published version
//   - error: ErrNoWorkersAvailable for empty assignments, ErrPublishFailed on marshal or KV failure
func (p *PlanPublisher) Publish(
	ctx context.Context,
	planID string,
	assignments map[string][]*partition.KeyspacePartition,
) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(assignments) == 0 {
		return 0, types.ErrNoWorkersAvailable
	}

	version := p.currentVersion + 1
	publishedAt := p.now().UTC()

	if err := p.cleanupStale(ctx, assignments); err != nil {
		p.logger.Warn("stale plan cleanup failed, continuing with publish", "error", err)
	}

	total := 0
	for _, worker := range slices.Sorted(maps.Keys(assignments)) {
		parts := assignments[worker]
		doc := WorkerPlan{
			PlanID:      planID,
			Version:     version,
			Worker:      worker,
			PublishedAt: publishedAt,
			Partitions:  make([]PartitionDescriptor, len(parts)),
		}
		for i, part := range parts {
			doc.Partitions[i] = Describe(part)
		}

		data, err := json.Marshal(doc)
		if err != nil {
			return 0, fmt.Errorf("%w: marshal plan for worker %s: %w", types.ErrPublishFailed, worker, err)
		}

		key := p.keyPrefix + worker
		p.logger.Debug("publishing plan", "key", key, "partitions", len(parts), "version", version)
		if _, err := p.kv.Put(ctx, key, data); err != nil {
			return 0, fmt.Errorf("%w: worker %s: %w", types.ErrPublishFailed, worker, err)
		}
		total += len(parts)
	}

	p.currentVersion = version
	p.lastPublish = publishedAt
	p.metrics.RecordPlanPublished(total, version)

	p.logger.Info("plan published", "plan_id", planID, "version", version, "workers", len(assignments), "partitions", total)

	return version, nil
}

// Load reads the document published for worker.
//
// Returns:
//   - *WorkerPlan: The worker's current plan
//   - error: ErrNoKeysFound if nothing is published for worker
func (p *PlanPublisher) Load(ctx context.Context, worker string) (*WorkerPlan, error) {
	entry, err := p.kv.Get(ctx, p.keyPrefix+worker)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: worker %s", types.ErrNoKeysFound, worker)
		}

		return nil, fmt.Errorf("failed to read plan for worker %s: %w", worker, err)
	}

	var doc WorkerPlan
	if err := json.Unmarshal(entry.Value(), &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan for worker %s: %w", worker, err)
	}

	return &doc, nil
}

// CleanupAll removes every plan document under the prefix.
//
// The version counter is kept, so a later Publish still increases it.
func (p *PlanPublisher) CleanupAll(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.logger.Info("cleaning up all plans from KV", "prefix", p.prefix)

	return p.cleanupStale(ctx, nil)
}

// CurrentVersion returns the last published or discovered version.
func (p *PlanPublisher) CurrentVersion() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.currentVersion
}

// LastPublishTime returns the time of the last successful Publish, or the zero time.
func (p *PlanPublisher) LastPublishTime() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.lastPublish
}

// cleanupStale deletes plan keys of workers not in active; nil active deletes all.
func (p *PlanPublisher) cleanupStale(ctx context.Context, active map[string][]*partition.KeyspacePartition) error {
	planKeys, err := p.listPlanKeys(ctx)
	if err != nil {
		return err
	}

	deleted := 0
	for _, key := range planKeys {
		worker := strings.TrimPrefix(key, p.keyPrefix)
		if _, ok := active[worker]; ok {
			continue
		}

		p.logger.Debug("deleting stale plan", "key", key, "worker_id", worker)
		if err := p.kv.Delete(ctx, key); err != nil {
			p.logger.Warn("failed to delete stale plan", "key", key, "error", err)
			continue
		}
		deleted++
	}

	if deleted > 0 {
		p.logger.Info("cleaned up stale plans", "deleted_count", deleted)
	}

	return nil
}

func (p *PlanPublisher) listPlanKeys(ctx context.Context) ([]string, error) {
	all, err := p.kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to list KV keys: %w", err)
	}

	planKeys := make([]string, 0, len(all))
	for _, key := range all {
		if strings.HasPrefix(key, p.keyPrefix) {
			planKeys = append(planKeys, key)
		}
	}

	return planKeys, nil
}
