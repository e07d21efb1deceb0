package keysplit

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"

	"github.com/arloliu/keysplit/internal/logger"
	"github.com/arloliu/keysplit/internal/metrics"
	"github.com/arloliu/keysplit/keys"
	"github.com/arloliu/keysplit/partition"
	"github.com/arloliu/keysplit/source"
	"github.com/arloliu/keysplit/strategy"
)

// planNamespace scopes plan IDs derived from plan fingerprints.
var planNamespace = uuid.MustParse("6f1c3a52-8d4e-4b7a-9c21-3e5f0a7d9b14")

// Plan is the result of one planning pass.
type Plan struct {
	// ID identifies the plan. Plans with the same partitions share an ID.
	ID uuid.UUID

	// Counts is the number of partitions per independent dimension.
	Counts map[Dimension]int

	// Partitions lists the keyspace partitions in index order.
	Partitions []*KeyspacePartition

	// CreatedAt is when the plan was computed.
	CreatedAt time.Time

	seed uint64
}

// Len returns the number of partitions.
func (p *Plan) Len() int {
	return len(p.Partitions)
}

// Fingerprint folds the fingerprints of all partitions, in order, into one hash.
func (p *Plan) Fingerprint() uint64 {
	return planFingerprint(p.Partitions, p.seed)
}

// Assign distributes the plan's partitions across workers.
//
// Example:
//
//	assignments, err := plan.Assign(strategy.NewConsistentHash(), []string{"worker-0", "worker-1"})
func (p *Plan) Assign(s strategy.AssignmentStrategy, workers []string) (map[string][]*KeyspacePartition, error) {
	return s.Assign(workers, p.Partitions)
}

// Planner turns a keyspace into a Plan according to a Config.
//
// Dimensions present in the keyspace but not configured are partitioned
// independently with DefaultDimension settings. A Planner holds no state
// between passes and is safe for concurrent use.
type Planner struct {
	cfg     Config
	logger  Logger
	metrics MetricsCollector
}

// NewPlanner creates a Planner.
//
// The configuration is completed with SetDefaults and validated; warnings for
// unusual values go to the logger.
//
// Parameters:
//   - cfg: Planner configuration (defaults are applied in place)
//   - opts: WithLogger, WithMetrics
//
// Returns:
//   - *Planner: Ready-to-use planner
//   - error: ErrInvalidConfig for a nil or invalid configuration
func NewPlanner(cfg *Config, opts ...Option) (*Planner, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}

	SetDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &plannerOptions{}
	for _, opt := range opts {
		opt(options)
	}

	metricsCollector := options.metrics
	if metricsCollector == nil {
		metricsCollector = metrics.NewNop()
	}

	loggerInstance := options.logger
	if loggerInstance == nil {
		loggerInstance = logger.NewNop()
	}

	cfg.ValidateWithWarnings(loggerInstance)

	return &Planner{
		cfg:     *cfg,
		logger:  loggerInstance,
		metrics: metricsCollector,
	}, nil
}

// Config returns a copy of the planner configuration.
func (p *Planner) Config() Config {
	return p.cfg
}

// Plan partitions ks.
//
// The steps are:
//  1. Resolve the independent dimensions: configured non-dependent dimensions
//     first, in configuration order, then unconfigured keyspace dimensions by name
//  2. Solve the per-dimension partition counts over the number of chunks per dimension
//  3. Split each dimension and combine the ranges into keyspace partitions
//
// Parameters:
//   - ks: Keyspace to partition
//
// Returns:
//   - *Plan: The computed plan
//   - error: ErrUnknownDimension when a configured independent dimension is
//     missing from ks, *ConstraintError when the bounds are infeasible
func (p *Planner) Plan(ks *Keyspace) (*Plan, error) {
	start := time.Now()

	independent, dependent, err := p.resolveDimensions(ks)
	if err != nil {
		return nil, err
	}

	opts := []partition.Option{partition.WithLogger(p.logger), partition.WithMetrics(p.metrics)}

	solver := partition.NewPartitioner(p.cfg.MinPartitions, p.cfg.MaxPartitions, opts...)
	for _, d := range independent {
		size, err := ks.Size(keys.Dimension(d.Name))
		if err != nil {
			return nil, err
		}

		var dimOpts []partition.DimensionOption
		if d.MaxPartitions > 0 {
			dimOpts = append(dimOpts, partition.WithMaxPartitions(d.MaxPartitions))
		}
		if err := solver.AddDimension(d.Name, chunkCount(size, d.ChunkSize), d.MinPartitions, dimOpts...); err != nil {
			return nil, err
		}
	}

	counts, err := solver.ComputePartitions()
	if err != nil {
		return nil, err
	}

	kp := partition.NewKeyspacePartitioner(ks, opts...)
	for _, d := range independent {
		err := kp.AddDimension(keys.Dimension(d.Name), partition.DimensionConfig{
			Count:         counts[d.Name],
			OverlapBefore: d.OverlapBefore,
			OverlapAfter:  d.OverlapAfter,
			ChunkSize:     d.ChunkSize,
		})
		if err != nil {
			return nil, err
		}
	}
	for _, d := range dependent {
		if err := kp.AddDependentDimension(keys.Dimension(d.Name)); err != nil {
			return nil, err
		}
	}

	parts, err := kp.Partition()
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Counts:     make(map[Dimension]int, len(counts)),
		Partitions: parts,
		CreatedAt:  start,
		seed:       p.cfg.HashSeed,
	}
	for name, c := range counts {
		plan.Counts[keys.Dimension(name)] = c
	}

	var fp [8]byte
	binary.BigEndian.PutUint64(fp[:], plan.Fingerprint())
	plan.ID = uuid.NewSHA1(planNamespace, fp[:])

	p.logger.Info("plan computed",
		"plan_id", plan.ID.String(),
		"partitions", len(parts),
		"independent", len(independent),
		"dependent", len(dependent),
		"duration", time.Since(start),
	)

	return plan, nil
}

// PlanSources collects the keyspace from sources concurrently and plans it.
func (p *Planner) PlanSources(ctx context.Context, sources ...source.KeySource) (*Plan, error) {
	ks := keys.NewKeyspace()
	if err := source.Collect(ctx, ks, sources...); err != nil {
		return nil, fmt.Errorf("failed to collect keyspace: %w", err)
	}

	return p.Plan(ks)
}

func (p *Planner) resolveDimensions(ks *Keyspace) (independent, dependent []DimensionConfig, err error) {
	configured := make(map[string]struct{}, len(p.cfg.Dimensions))
	for _, d := range p.cfg.Dimensions {
		configured[d.Name] = struct{}{}

		if d.Dependent {
			dependent = append(dependent, d)
			continue
		}
		if !ks.HasDimension(keys.Dimension(d.Name)) {
			return nil, nil, fmt.Errorf("%w: configured dimension %q is not in the keyspace", ErrUnknownDimension, d.Name)
		}
		independent = append(independent, d)
	}

	for _, dim := range ks.Dimensions() {
		if _, ok := configured[dim.Name()]; ok {
			continue
		}
		p.logger.Debug("partitioning unconfigured dimension with defaults", "dimension", dim.Name())
		independent = append(independent, DefaultDimension(dim.Name()))
	}

	return independent, dependent, nil
}

func chunkCount(size, chunkSize int) int {
	if chunkSize < 1 {
		chunkSize = 1
	}

	return (size + chunkSize - 1) / chunkSize
}

func planFingerprint(parts []*KeyspacePartition, seed uint64) uint64 {
	h := seed
	var b [8]byte
	for _, part := range parts {
		binary.LittleEndian.PutUint64(b[:], part.Fingerprint(seed))
		h = xxh3.HashSeed(b[:], h)
	}

	return h
}
