package keysplit

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/keysplit/internal/logger"
	"github.com/arloliu/keysplit/keys"
	"github.com/arloliu/keysplit/source"
	"github.com/arloliu/keysplit/strategy"
)

// gridKeyspace holds sizes[i] elements named "<dim><n>" for each dims[i].
func gridKeyspace(dims []string, sizes []int) *keys.Keyspace {
	ks := keys.NewKeyspace()
	for i, d := range dims {
		for n := range sizes[i] {
			ks.AddElements(keys.NewElement(fmt.Sprintf("%s%02d", d, n), keys.Dimension(d)))
		}
	}

	return ks
}

func mustPlanner(t *testing.T, cfg Config) *Planner {
	t.Helper()

	p, err := NewPlanner(&cfg, WithLogger(logger.NewTest(t)))
	require.NoError(t, err)

	return p
}

func TestNewPlanner(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := NewPlanner(nil)
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := Config{MinPartitions: 10, MaxPartitions: 2}
		_, err := NewPlanner(&cfg)
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("applies defaults", func(t *testing.T) {
		cfg := Config{}
		p, err := NewPlanner(&cfg)
		require.NoError(t, err)
		require.Equal(t, DefaultConfig(), p.Config())
	})
}

func TestPlanner_Plan(t *testing.T) {
	t.Run("proportional counts", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaxPartitions = 20
		cfg.Dimensions = []DimensionConfig{
			DefaultDimension("frame"), DefaultDimension("tile"), DefaultDimension("band"),
		}
		ks := gridKeyspace([]string{"frame", "tile", "band"}, []int{32, 10, 5})

		plan, err := mustPlanner(t, cfg).Plan(ks)
		require.NoError(t, err)
		require.Equal(t, map[Dimension]int{"frame": 10, "tile": 2, "band": 1}, plan.Counts)
		require.Equal(t, 20, plan.Len())

		for i, p := range plan.Partitions {
			require.Equal(t, i, p.Index())
			require.Equal(t, 20, p.Total())
		}
	})

	t.Run("unconfigured dimensions use defaults", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaxPartitions = 8
		ks := gridKeyspace([]string{"frame", "tile"}, []int{4, 2})

		plan, err := mustPlanner(t, cfg).Plan(ks)
		require.NoError(t, err)
		require.Equal(t, map[Dimension]int{"frame": 4, "tile": 2}, plan.Counts)
		require.Equal(t, 8, plan.Len())
	})

	t.Run("configured dimension missing from keyspace", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Dimensions = []DimensionConfig{DefaultDimension("frame"), DefaultDimension("band")}
		ks := gridKeyspace([]string{"frame"}, []int{4})

		_, err := mustPlanner(t, cfg).Plan(ks)
		require.ErrorIs(t, err, ErrUnknownDimension)
		require.Contains(t, err.Error(), `"band"`)
	})

	t.Run("dependent dimensions are not split", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaxPartitions = 4
		band := DefaultDimension("band")
		band.Dependent = true
		absent := DefaultDimension("camera")
		absent.Dependent = true
		cfg.Dimensions = []DimensionConfig{band, absent}
		ks := gridKeyspace([]string{"frame", "band"}, []int{4, 3})

		plan, err := mustPlanner(t, cfg).Plan(ks)
		require.NoError(t, err)
		require.Equal(t, map[Dimension]int{"frame": 4}, plan.Counts)
		require.Equal(t, 4, plan.Len())

		for _, p := range plan.Partitions {
			deps := p.DependentPartitions()
			require.Len(t, deps, 1)
			require.Equal(t, Dimension("band"), deps[0].Dimension())
			require.Equal(t, 3, deps[0].Len())
		}

		first := plan.Partitions[0]
		accepted := keys.MustKey(
			keys.NewElement("frame00", "frame"),
			keys.NewElement("band02", "band"),
			keys.NewElement("cam-a", "camera"),
		)
		require.True(t, first.CompleteFilter().Accept(accepted))

		unknown := keys.MustKey(keys.NewElement("frame00", "frame"), keys.NewElement("x", "lens"))
		require.False(t, first.CompleteFilter().Accept(unknown))
		require.True(t, first.ExtraDimensionsFilter().Accept(unknown))
	})

	t.Run("chunk size bounds the count", func(t *testing.T) {
		cfg := DefaultConfig()
		frame := DefaultDimension("frame")
		frame.ChunkSize = 3
		cfg.Dimensions = []DimensionConfig{frame}
		ks := gridKeyspace([]string{"frame"}, []int{10})

		plan, err := mustPlanner(t, cfg).Plan(ks)
		require.NoError(t, err)
		require.Equal(t, map[Dimension]int{"frame": 4}, plan.Counts)

		var lens []int
		for _, p := range plan.Partitions {
			dp, ok := p.Partition("frame")
			require.True(t, ok)
			lens = append(lens, dp.Len())
		}
		require.Equal(t, []int{3, 3, 3, 1}, lens)
	})

	t.Run("overlap widens ranges", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaxPartitions = 2
		frame := DefaultDimension("frame")
		frame.OverlapBefore = 1
		frame.OverlapAfter = 1
		cfg.Dimensions = []DimensionConfig{frame}
		ks := gridKeyspace([]string{"frame"}, []int{6})

		plan, err := mustPlanner(t, cfg).Plan(ks)
		require.NoError(t, err)
		require.Equal(t, "0/2 frame[frame00..frame03]", plan.Partitions[0].String())
		require.Equal(t, "1/2 frame[frame02..frame05]", plan.Partitions[1].String())
	})

	t.Run("infeasible bounds report the dimension", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaxPartitions = 5
		frame := DefaultDimension("frame")
		frame.MinPartitions = 6
		cfg.Dimensions = []DimensionConfig{frame}
		ks := gridKeyspace([]string{"frame"}, []int{10})

		_, err := mustPlanner(t, cfg).Plan(ks)
		require.ErrorIs(t, err, ErrConstraintViolation)

		var ce *ConstraintError
		require.True(t, errors.As(err, &ce))
		require.Equal(t, "frame", ce.Dimension)
		require.Equal(t, "min", ce.Bound)
	})
}

func TestPlanner_PlanIdentity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPartitions = 6
	p := mustPlanner(t, cfg)

	a, err := p.Plan(gridKeyspace([]string{"frame", "tile"}, []int{6, 3}))
	require.NoError(t, err)
	b, err := p.Plan(gridKeyspace([]string{"frame", "tile"}, []int{6, 3}))
	require.NoError(t, err)
	c, err := p.Plan(gridKeyspace([]string{"frame", "tile"}, []int{7, 3}))
	require.NoError(t, err)

	require.Equal(t, a.Fingerprint(), b.Fingerprint())
	require.Equal(t, a.ID, b.ID)
	require.NotEqual(t, a.ID, c.ID)

	seeded := DefaultConfig()
	seeded.MaxPartitions = 6
	seeded.HashSeed = 99
	d, err := mustPlanner(t, seeded).Plan(gridKeyspace([]string{"frame", "tile"}, []int{6, 3}))
	require.NoError(t, err)
	require.NotEqual(t, a.Fingerprint(), d.Fingerprint())
}

func TestPlanner_PlanSources(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPartitions = 4
	p := mustPlanner(t, cfg)

	left := source.NewStatic([]keys.Key{
		keys.MustKey(keys.NewElement("f1", "frame"), keys.NewElement("t1", "tile")),
		keys.MustKey(keys.NewElement("f2", "frame"), keys.NewElement("t1", "tile")),
	})
	right := source.NewYAML([]byte("- frame: f3\n  tile: t2\n- frame: f4\n  tile: t2\n"))

	plan, err := p.PlanSources(context.Background(), left, right)
	require.NoError(t, err)
	require.Equal(t, 4, plan.Len())

	failing := source.NewYAML([]byte("not: [a list"))
	_, err = p.PlanSources(context.Background(), left, failing)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestPlan_Assign(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPartitions = 6
	plan, err := mustPlanner(t, cfg).Plan(gridKeyspace([]string{"frame"}, []int{6}))
	require.NoError(t, err)

	assignments, err := plan.Assign(strategy.NewRoundRobin(), []string{"worker-0", "worker-1"})
	require.NoError(t, err)
	require.Len(t, assignments["worker-0"], 3)
	require.Len(t, assignments["worker-1"], 3)

	_, err = plan.Assign(strategy.NewConsistentHash(), nil)
	require.ErrorIs(t, err, ErrNoWorkersAvailable)
}
