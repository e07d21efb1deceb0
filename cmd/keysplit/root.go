package main

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/arloliu/keysplit/internal/logging"
	"github.com/arloliu/keysplit/internal/metrics"
	"github.com/arloliu/keysplit/types"
)

// cli holds the state shared by all subcommands.
type cli struct {
	verbose     bool
	metricsFile string

	registry *prometheus.Registry
	metrics  *metrics.PrometheusCollector
}

func newRootCmd() *cobra.Command {
	c := &cli{registry: prometheus.NewRegistry()}
	c.metrics = metrics.NewPrometheus(c.registry, "keysplit")

	root := &cobra.Command{
		Use:   "keysplit",
		Short: "Keyspace partitioning and dataset diff tool",
		Long: `keysplit splits a multi-dimensional keyspace into balanced partitions,
assigns the partitions to workers and compares datasets keyed by the same
key model.

Examples:
  # Partition the keys of two key lists and print the plan
  keysplit plan --config keysplit.yaml --keys a.yaml --keys b.yaml

  # Assign the partitions to three workers and publish the plan to NATS KV
  keysplit plan --keys keys.yaml --workers w0,w1,w2 --nats nats://127.0.0.1:4222

  # Compare two dataset manifests
  keysplit diff run-a.yaml run-b.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&c.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")

	root.AddCommand(
		newPlanCmd(c),
		newFetchCmd(c),
		newDiffCmd(c),
		newVersionCmd(),
	)
	for _, sub := range root.Commands() {
		if sub.RunE != nil {
			sub.RunE = c.withMetrics(sub.RunE)
		}
	}

	return root
}

// withMetrics wraps run so the metrics file is written whether or not the
// command fails.
func (c *cli) withMetrics(run func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if werr := c.writeMetrics(); werr != nil && err == nil {
				err = werr
			}
		}()

		return run(cmd, args)
	}
}

func (c *cli) writeMetrics() error {
	if c.metricsFile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(c.metricsFile, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}

	return nil
}

// logger returns a text logger writing to the command's error stream.
func (c *cli) logger(cmd *cobra.Command) types.Logger {
	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})

	return logging.NewSlog(slog.New(handler))
}
