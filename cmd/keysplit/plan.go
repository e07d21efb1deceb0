package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/spf13/cobra"

	"github.com/arloliu/keysplit"
	"github.com/arloliu/keysplit/internal/kvutil"
	"github.com/arloliu/keysplit/partition"
	"github.com/arloliu/keysplit/publish"
	"github.com/arloliu/keysplit/source"
	"github.com/arloliu/keysplit/strategy"
	"github.com/arloliu/keysplit/types"
)

// Strategy names accepted by --strategy.
const (
	strategyRoundRobin     = "round-robin"
	strategyConsistentHash = "consistent-hash"
	strategyWeighted       = "weighted"
)

var errNoKeyFiles = errors.New("at least one --keys file is required")

type planFlags struct {
	configPath string
	keyFiles   []string
	workers    []string
	strategy   string
	format     string
	natsURL    string
	bucket     string
	prefix     string
}

// planReport is the JSON rendering of a plan.
type planReport struct {
	PlanID      string                                   `json:"planId"`
	Counts      map[string]int                           `json:"counts"`
	Partitions  []publish.PartitionDescriptor            `json:"partitions,omitempty"`
	Assignments map[string][]publish.PartitionDescriptor `json:"assignments,omitempty"`
	Version     int64                                    `json:"version,omitempty"`
}

func newPlanCmd(c *cli) *cobra.Command {
	f := &planFlags{}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Partition a keyspace and optionally assign and publish the partitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runPlan(cmd, f)
		},
	}

	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "Planner configuration file (YAML)")
	cmd.Flags().StringArrayVarP(&f.keyFiles, "keys", "k", nil, "Key list file (YAML), may be repeated")
	cmd.Flags().StringSliceVarP(&f.workers, "workers", "w", nil, "Worker IDs to assign partitions to")
	cmd.Flags().StringVarP(&f.strategy, "strategy", "s", strategyConsistentHash,
		"Assignment strategy: round-robin|consistent-hash|weighted")
	cmd.Flags().StringVarP(&f.format, "format", "f", "text", "Output format: text|json")
	cmd.Flags().StringVar(&f.natsURL, "nats", "", "NATS server URL; publishes the assignments when set")
	cmd.Flags().StringVar(&f.bucket, "bucket", "", "KV bucket for published plans (default from config)")
	cmd.Flags().StringVar(&f.prefix, "prefix", "", "Key prefix for published plans (default from config)")

	return cmd
}

func (c *cli) runPlan(cmd *cobra.Command, f *planFlags) error {
	if len(f.keyFiles) == 0 {
		return errNoKeyFiles
	}
	if f.natsURL != "" && len(f.workers) == 0 {
		return errors.New("--workers is required with --nats")
	}
	if f.format != "text" && f.format != "json" {
		return fmt.Errorf("unknown format %q", f.format)
	}

	log := c.logger(cmd)

	cfg := keysplit.DefaultConfig()
	if f.configPath != "" {
		var err error
		if cfg, err = keysplit.LoadConfig(f.configPath); err != nil {
			return err
		}
	}
	if f.bucket != "" {
		cfg.Publish.Bucket = f.bucket
	}
	if f.prefix != "" {
		cfg.Publish.Prefix = f.prefix
	}

	planner, err := keysplit.NewPlanner(&cfg, keysplit.WithLogger(log), keysplit.WithMetrics(c.metrics))
	if err != nil {
		return err
	}

	sources := make([]source.KeySource, len(f.keyFiles))
	for i, path := range f.keyFiles {
		sources[i] = source.NewYAMLFile(path)
	}

	plan, err := planner.PlanSources(cmd.Context(), sources...)
	if err != nil {
		return err
	}

	report := planReport{
		PlanID: plan.ID.String(),
		Counts: make(map[string]int, len(plan.Counts)),
	}
	for dim, n := range plan.Counts {
		report.Counts[dim.Name()] = n
	}

	if len(f.workers) == 0 {
		for _, p := range plan.Partitions {
			report.Partitions = append(report.Partitions, publish.Describe(p))
		}

		return writePlan(cmd.OutOrStdout(), f.format, report, plan.Partitions, nil)
	}

	strat, err := newStrategy(f.strategy, cfg.HashSeed, log)
	if err != nil {
		return err
	}

	assignments, err := plan.Assign(strat, f.workers)
	if err != nil {
		return err
	}

	report.Assignments = make(map[string][]publish.PartitionDescriptor, len(assignments))
	for worker, parts := range assignments {
		descs := make([]publish.PartitionDescriptor, len(parts))
		for i, p := range parts {
			descs[i] = publish.Describe(p)
		}
		report.Assignments[worker] = descs
	}

	if f.natsURL != "" {
		version, err := c.publishPlan(cmd.Context(), log, f.natsURL, cfg.Publish, report.PlanID, assignments)
		if err != nil {
			return err
		}
		report.Version = version
	}

	return writePlan(cmd.OutOrStdout(), f.format, report, nil, assignments)
}

func newStrategy(name string, seed uint64, log types.Logger) (strategy.AssignmentStrategy, error) {
	switch name {
	case strategyRoundRobin:
		return strategy.NewRoundRobin(), nil
	case strategyConsistentHash:
		return strategy.NewConsistentHash(strategy.WithHashSeed(seed)), nil
	case strategyWeighted:
		return strategy.NewWeightedConsistentHash(
			strategy.WithWeightedHashSeed(seed),
			strategy.WithWeightedLogger(log),
		), nil
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", types.ErrInvalidConfig, name)
	}
}

func (c *cli) publishPlan(
	ctx context.Context,
	log types.Logger,
	url string,
	cfg keysplit.PublishConfig,
	planID string,
	assignments map[string][]*partition.KeyspacePartition,
) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	nc, err := nats.Connect(url, nats.Timeout(cfg.Timeout), nats.Name("keysplit"))
	if err != nil {
		return 0, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return 0, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	kv, err := kvutil.EnsureKVBucketWithRetry(ctx, js, kvutil.PlanBucketConfig(cfg.Bucket), 3)
	if err != nil {
		return 0, err
	}

	pub := publish.NewPlanPublisher(kv, cfg.Prefix, publish.WithLogger(log), publish.WithMetrics(c.metrics))
	if err := pub.DiscoverHighestVersion(ctx); err != nil {
		return 0, err
	}

	return pub.Publish(ctx, planID, assignments)
}

func writePlan(
	w io.Writer,
	format string,
	report planReport,
	parts []*partition.KeyspacePartition,
	assignments map[string][]*partition.KeyspacePartition,
) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(report)
	}

	fmt.Fprintf(w, "plan %s\n", report.PlanID)
	for _, dim := range slices.Sorted(maps.Keys(report.Counts)) {
		fmt.Fprintf(w, "  %s: %d\n", dim, report.Counts[dim])
	}
	if report.Version > 0 {
		fmt.Fprintf(w, "published version %d\n", report.Version)
	}

	for _, p := range parts {
		fmt.Fprintf(w, "%s\n", p)
	}
	for _, worker := range slices.Sorted(maps.Keys(assignments)) {
		fmt.Fprintf(w, "%s (%d partitions)\n", worker, len(assignments[worker]))
		for _, p := range assignments[worker] {
			fmt.Fprintf(w, "  %s\n", p)
		}
	}

	return nil
}
