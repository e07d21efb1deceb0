// Package kvutil provides helpers for the NATS JetStream KV buckets that hold published plans.
package kvutil

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// PlanBucketConfig returns the bucket configuration used for published plans.
//
// Only the latest document per worker matters, so history is 1 and entries
// never expire.
func PlanBucketConfig(bucket string) jetstream.KeyValueConfig {
	return jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "keysplit partition plans",
		History:     1,
	}
}

// EnsureKVBucketWithRetry creates or opens a KV bucket with retry logic.
//
// Several planners may create the same bucket concurrently; losing the race
// surfaces as ErrBucketExists and the bucket is opened instead. Connectivity
// errors are retried with exponential backoff, other errors fail immediately.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - js: JetStream context
//   - config: KV bucket configuration
//   - maxRetries: Maximum number of attempts (default: 3)
//
// Returns:
//   - jetstream.KeyValue: The KV bucket instance
//   - error: Last error after all attempts
//
// Example:
//
//	kv, err := kvutil.EnsureKVBucketWithRetry(ctx, js, kvutil.PlanBucketConfig("keysplit-plans"), 3)
func EnsureKVBucketWithRetry(
	ctx context.Context,
	js jetstream.JetStream,
	config jetstream.KeyValueConfig,
	maxRetries int,
) (jetstream.KeyValue, error) {
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error

	for attempt := range maxRetries {
		kv, err := js.CreateKeyValue(ctx, config)
		if err == nil {
			return kv, nil
		}

		switch {
		case errors.Is(err, jetstream.ErrBucketExists):
			kv, openErr := js.KeyValue(ctx, config.Bucket)
			if openErr == nil {
				return kv, nil
			}
			lastErr = fmt.Errorf("bucket exists but failed to open: %w", openErr)
		case IsConnectivityError(err):
			lastErr = err
		default:
			return nil, fmt.Errorf("failed to create KV bucket %s: %w", config.Bucket, err)
		}

		if ctx.Err() != nil {
			return nil, fmt.Errorf("context cancelled during KV bucket creation: %w", ctx.Err())
		}

		// Exponential backoff: 10ms, 20ms, 40ms...
		if attempt < maxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * 10 * time.Millisecond //nolint:gosec // attempt is bounded by maxRetries
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return nil, fmt.Errorf("failed to create/open KV bucket %s after %d attempts: %w",
		config.Bucket, maxRetries, lastErr)
}

// IsConnectivityError reports whether err is caused by the NATS connection
// rather than by the request: timeouts, refused or closed connections, and
// missing JetStream responses.
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}

	return errors.Is(err, nats.ErrTimeout) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, nats.ErrNoServers) ||
		errors.Is(err, nats.ErrDisconnected) ||
		errors.Is(err, nats.ErrConnectionClosed) ||
		errors.Is(err, jetstream.ErrNoStreamResponse) ||
		strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "i/o timeout")
}
