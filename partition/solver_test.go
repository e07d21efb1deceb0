package partition

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/keysplit/internal/logger"
	"github.com/arloliu/keysplit/types"
)

type dimInput struct {
	name string
	size int
	min  int
	max  int // 0 means no explicit cap
}

func solve(t *testing.T, overallMin, overallMax int, dims ...dimInput) (map[string]int, error) {
	t.Helper()

	p := NewPartitioner(overallMin, overallMax, WithLogger(logger.NewTest(t)))
	for _, d := range dims {
		var opts []DimensionOption
		if d.max > 0 {
			opts = append(opts, WithMaxPartitions(d.max))
		}
		require.NoError(t, p.AddDimension(d.name, d.size, d.min, opts...))
	}

	return p.ComputePartitions()
}

func TestPartitioner_ComputePartitions(t *testing.T) {
	tests := []struct {
		name       string
		overallMin int
		overallMax int
		dims       []dimInput
		want       map[string]int
	}{
		{
			name:       "single dimension capped by overall max",
			overallMin: 1, overallMax: 5,
			dims: []dimInput{{"dim1", 32, 1, 0}},
			want: map[string]int{"dim1": 5},
		},
		{
			name:       "single dimension capped by its own max",
			overallMin: 1, overallMax: 5,
			dims: []dimInput{{"dim1", 6, 1, 3}},
			want: map[string]int{"dim1": 3},
		},
		{
			name:       "proportional to dimension size",
			overallMin: 1, overallMax: 20,
			dims: []dimInput{{"dim1", 32, 1, 0}, {"dim2", 10, 1, 0}, {"dim3", 5, 1, 0}},
			want: map[string]int{"dim1": 10, "dim2": 2, "dim3": 1},
		},
		{
			name:       "capped by element count",
			overallMin: 1, overallMax: 100,
			dims: []dimInput{{"dim1", 3, 1, 0}, {"dim2", 2, 1, 0}},
			want: map[string]int{"dim1": 3, "dim2": 2},
		},
		{
			name:       "max above element count is lowered",
			overallMin: 1, overallMax: 100,
			dims: []dimInput{{"dim1", 4, 1, 50}},
			want: map[string]int{"dim1": 4},
		},
		{
			name:       "minimum is honored",
			overallMin: 1, overallMax: 8,
			dims: []dimInput{{"big", 100, 1, 0}, {"small", 4, 4, 0}},
			want: map[string]int{"big": 2, "small": 4},
		},
		{
			name:       "ties favor registration order",
			overallMin: 1, overallMax: 2,
			dims: []dimInput{{"b", 10, 1, 0}, {"a", 10, 1, 0}},
			want: map[string]int{"b": 2, "a": 1},
		},
		{
			name:       "search reaches overall min the greedy pass misses",
			overallMin: 7, overallMax: 7,
			dims: []dimInput{{"a", 7, 1, 0}, {"b", 7, 1, 0}},
			want: map[string]int{"a": 7, "b": 1},
		},
		{
			name:       "no dimensions",
			overallMin: 1, overallMax: 10,
			want:       map[string]int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := solve(t, tt.overallMin, tt.overallMax, tt.dims...)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestPartitioner_Properties(t *testing.T) {
	sizes := []int{1, 2, 3, 5, 8, 13, 40}
	for _, overallMax := range []int{1, 4, 9, 30} {
		for _, s1 := range sizes {
			for _, s2 := range sizes {
				got, err := solve(t, 1, overallMax, dimInput{"x", s1, 1, 0}, dimInput{"y", s2, 1, 0})
				require.NoError(t, err)

				require.GreaterOrEqual(t, got["x"], 1)
				require.LessOrEqual(t, got["x"], s1)
				require.GreaterOrEqual(t, got["y"], 1)
				require.LessOrEqual(t, got["y"], s2)
				require.LessOrEqual(t, got["x"]*got["y"], overallMax)

				again, err := solve(t, 1, overallMax, dimInput{"x", s1, 1, 0}, dimInput{"y", s2, 1, 0})
				require.NoError(t, err)
				require.Equal(t, got, again)
			}
		}
	}
}

func TestPartitioner_ConstraintViolation(t *testing.T) {
	tests := []struct {
		name       string
		overallMin int
		overallMax int
		dims       []dimInput
		dimension  string
		bound      string
		message    string
	}{
		{
			name:       "dimension min exceeds overall max",
			overallMin: 1, overallMax: 5,
			dims:      []dimInput{{"dim1", 20, 6, 10}},
			dimension: "dim1", bound: "min",
			message: `constraint violation: dimension "dim1" min=6 exceeds overall max 5`,
		},
		{
			name:       "dimension max below overall min",
			overallMin: 4, overallMax: 10,
			dims:      []dimInput{{"dim1", 20, 1, 3}},
			dimension: "dim1", bound: "max",
			message: `constraint violation: dimension "dim1" max=3 is below overall min 4`,
		},
		{
			name:       "dimension min exceeds its max",
			overallMin: 1, overallMax: 10,
			dims:      []dimInput{{"dim1", 20, 4, 2}},
			dimension: "dim1", bound: "min",
		},
		{
			name:       "dimension min exceeds element count",
			overallMin: 1, overallMax: 10,
			dims:      []dimInput{{"dim1", 2, 3, 0}},
			dimension: "dim1", bound: "min",
		},
		{
			name:       "empty dimension",
			overallMin: 1, overallMax: 10,
			dims:      []dimInput{{"dim1", 0, 1, 0}},
			dimension: "dim1", bound: "size",
		},
		{
			name:       "overall min above max",
			overallMin: 7, overallMax: 3,
			bound:   "min",
			message: "constraint violation: overall min=7 exceeds max 3",
		},
		{
			name:       "overall min below one",
			overallMin: 0, overallMax: 3,
			bound: "min",
		},
		{
			name:       "minimums multiply past overall max",
			overallMin: 1, overallMax: 5,
			dims:  []dimInput{{"a", 10, 3, 0}, {"b", 10, 2, 0}},
			bound: "min product",
		},
		{
			name:       "maximums multiply below overall min",
			overallMin: 20, overallMax: 30,
			dims:  []dimInput{{"a", 4, 1, 0}, {"b", 4, 1, 0}},
			bound: "max product",
		},
		{
			name:       "no allocation lands inside a narrow range",
			overallMin: 5, overallMax: 5,
			dims:  []dimInput{{"a", 4, 1, 0}, {"b", 4, 1, 0}},
			bound: "min",
		},
		{
			name:       "no dimensions but overall min above one",
			overallMin: 2, overallMax: 4,
			bound: "max product",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := solve(t, tt.overallMin, tt.overallMax, tt.dims...)
			require.ErrorIs(t, err, types.ErrConstraintViolation)

			var ce *types.ConstraintError
			require.True(t, errors.As(err, &ce))
			require.Equal(t, tt.dimension, ce.Dimension)
			require.Equal(t, tt.bound, ce.Bound)
			if tt.message != "" {
				require.EqualError(t, err, tt.message)
			}
		})
	}
}

func TestPartitioner_AddDimension(t *testing.T) {
	t.Run("duplicate name", func(t *testing.T) {
		p := NewPartitioner(1, 5)
		require.NoError(t, p.AddDimension("dim1", 10, 1))
		require.ErrorIs(t, p.AddDimension("dim1", 3, 1), types.ErrDuplicateRegistration)
	})

	t.Run("empty name", func(t *testing.T) {
		p := NewPartitioner(1, 5)
		require.ErrorIs(t, p.AddDimension("", 10, 1), types.ErrInvalidConfig)
	})

	t.Run("concurrent registration", func(t *testing.T) {
		p := NewPartitioner(1, 1000)
		names := []string{"a", "b", "c", "d", "e", "f"}

		var wg sync.WaitGroup
		for _, n := range names {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, p.AddDimension(n, 4, 1))
			}()
		}
		wg.Wait()

		got, err := p.ComputePartitions()
		require.NoError(t, err)
		require.Len(t, got, len(names))
	})
}

type recordingMetrics struct {
	solves     []bool
	partitions []int
}

func (m *recordingMetrics) RecordSolve(_ float64, success bool) {
	m.solves = append(m.solves, success)
}

func (m *recordingMetrics) RecordPartitionsGenerated(count int) {
	m.partitions = append(m.partitions, count)
}

func TestPartitioner_Metrics(t *testing.T) {
	m := &recordingMetrics{}

	p := NewPartitioner(1, 5, WithMetrics(m))
	require.NoError(t, p.AddDimension("dim1", 10, 1))
	_, err := p.ComputePartitions()
	require.NoError(t, err)

	bad := NewPartitioner(1, 5, WithMetrics(m))
	require.NoError(t, bad.AddDimension("dim1", 10, 6))
	_, err = bad.ComputePartitions()
	require.Error(t, err)

	require.Equal(t, []bool{true, false}, m.solves)
}
