package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/spf13/cobra"

	"github.com/arloliu/keysplit"
	"github.com/arloliu/keysplit/publish"
)

func newFetchCmd(c *cli) *cobra.Command {
	defaults := keysplit.DefaultConfig().Publish

	var (
		natsURL string
		bucket  string
		prefix  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "fetch WORKER",
		Short: "Print the plan published for a worker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			nc, err := nats.Connect(natsURL, nats.Timeout(timeout), nats.Name("keysplit"))
			if err != nil {
				return fmt.Errorf("failed to connect to NATS: %w", err)
			}
			defer nc.Close()

			js, err := jetstream.New(nc)
			if err != nil {
				return fmt.Errorf("failed to create JetStream context: %w", err)
			}

			kv, err := js.KeyValue(ctx, bucket)
			if err != nil {
				return fmt.Errorf("failed to open KV bucket %s: %w", bucket, err)
			}

			doc, err := publish.NewPlanPublisher(kv, prefix, publish.WithLogger(c.logger(cmd))).Load(ctx, args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			return enc.Encode(doc)
		},
	}

	cmd.Flags().StringVar(&natsURL, "nats", nats.DefaultURL, "NATS server URL")
	cmd.Flags().StringVar(&bucket, "bucket", defaults.Bucket, "KV bucket holding published plans")
	cmd.Flags().StringVar(&prefix, "prefix", defaults.Prefix, "Key prefix of published plans")
	cmd.Flags().DurationVar(&timeout, "timeout", defaults.Timeout, "Request timeout")

	return cmd
}
