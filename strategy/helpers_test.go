package strategy

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/keysplit/keys"
	"github.com/arloliu/keysplit/partition"
)

type recordingLogger struct {
	debugMessages []string
	warnMessages  []string
}

func (l *recordingLogger) Debug(msg string, _ ...any) {
	l.debugMessages = append(l.debugMessages, msg)
}

func (l *recordingLogger) Info(string, ...any) {}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.warnMessages = append(l.warnMessages, msg)
}

func (l *recordingLogger) Error(string, ...any) {}

func (l *recordingLogger) Fatal(string, ...any) {}

// gridPartitions partitions a frames x tiles keyspace into frameCount x tileCount partitions.
func gridPartitions(tb testing.TB, frames, tiles, frameCount, tileCount int) []*partition.KeyspacePartition {
	tb.Helper()

	ks := keys.NewKeyspace()
	for i := range frames {
		ks.AddElements(keys.NewElement(fmt.Sprintf("f%03d", i), "frame"))
	}
	for i := range tiles {
		ks.AddElements(keys.NewElement(fmt.Sprintf("t%03d", i), "tile"))
	}

	kp := partition.NewKeyspacePartitioner(ks)
	require.NoError(tb, kp.AddDimension("frame", partition.DimensionConfig{Count: frameCount}))
	require.NoError(tb, kp.AddDimension("tile", partition.DimensionConfig{Count: tileCount}))

	parts, err := kp.Partition()
	require.NoError(tb, err)

	return parts
}

func generateWorkers(n int) []string {
	workers := make([]string, n)
	for i := range workers {
		workers[i] = fmt.Sprintf("worker-%d", i)
	}

	return workers
}

// indexWeights weighs partitions by position.
func indexWeights(weights []int64) WeightFunc {
	return func(p *partition.KeyspacePartition) int64 {
		return weights[p.Index()]
	}
}

func totalAssigned(assignments map[string][]*partition.KeyspacePartition) int {
	n := 0
	for _, parts := range assignments {
		n += len(parts)
	}

	return n
}
