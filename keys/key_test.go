package keys

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/keysplit/types"
)

const (
	dimFrame Dimension = "frame"
	dimTile  Dimension = "tile"
	dimBand  Dimension = "band"
)

func TestElementCompare(t *testing.T) {
	t.Run("orders by identifier within a dimension", func(t *testing.T) {
		c, err := NewElement("f1", dimFrame).Compare(NewElement("f2", dimFrame))
		require.NoError(t, err)
		require.Less(t, c, 0)

		c, err = NewElement("f2", dimFrame).Compare(NewElement("f2", dimFrame))
		require.NoError(t, err)
		require.Equal(t, 0, c)
	})

	t.Run("fails across dimensions", func(t *testing.T) {
		_, err := NewElement("f1", dimFrame).Compare(NewElement("t1", dimTile))
		require.ErrorIs(t, err, types.ErrDimensionMismatch)
	})
}

func TestNewKey(t *testing.T) {
	t.Run("single element uses compact form", func(t *testing.T) {
		k, err := NewKey(NewElement("f1", dimFrame))
		require.NoError(t, err)
		require.IsType(t, singleKey{}, k)
		require.Equal(t, []Dimension{dimFrame}, k.Dimensions())
		require.Equal(t, 1, k.Len())

		e, ok := k.Element(dimFrame)
		require.True(t, ok)
		require.Equal(t, "f1", e.ID())

		_, ok = k.Element(dimTile)
		require.False(t, ok)
	})

	t.Run("multiple elements are sorted by dimension", func(t *testing.T) {
		k, err := NewKey(NewElement("t3", dimTile), NewElement("f1", dimFrame), NewElement("b2", dimBand))
		require.NoError(t, err)
		require.IsType(t, multiKey{}, k)
		require.Equal(t, []Dimension{dimBand, dimFrame, dimTile}, k.Dimensions())
		require.Equal(t, "[band=b2 frame=f1 tile=t3]", k.String())

		e, ok := k.Element(dimTile)
		require.True(t, ok)
		require.Equal(t, "t3", e.ID())
	})

	t.Run("empty key", func(t *testing.T) {
		k, err := NewKey()
		require.NoError(t, err)
		require.Equal(t, 0, k.Len())
		require.Empty(t, k.Dimensions())
	})

	t.Run("duplicate dimension fails", func(t *testing.T) {
		_, err := NewKey(NewElement("f1", dimFrame), NewElement("f2", dimFrame))
		require.ErrorIs(t, err, types.ErrDuplicateDimension)
		require.ErrorIs(t, err, types.ErrInvalidKeyConstruction)
	})

	t.Run("elements slice is not aliased", func(t *testing.T) {
		in := []Element{NewElement("t1", dimTile), NewElement("f1", dimFrame)}
		k := MustKey(in...)

		out := k.Elements()
		out[0] = NewElement("zzz", dimBand)

		require.Equal(t, dimTile, in[0].Dimension())
		require.Equal(t, dimFrame, k.Elements()[0].Dimension())
	})
}

func TestCompareKeys(t *testing.T) {
	f1 := MustKey(NewElement("f1", dimFrame))
	f2 := MustKey(NewElement("f2", dimFrame))
	f1t1 := MustKey(NewElement("f1", dimFrame), NewElement("t1", dimTile))
	f1t2 := MustKey(NewElement("f1", dimFrame), NewElement("t2", dimTile))
	f2t1 := MustKey(NewElement("f2", dimFrame), NewElement("t1", dimTile))
	b1 := MustKey(NewElement("b1", dimBand))
	t1 := MustKey(NewElement("t1", dimTile))

	tests := []struct {
		name string
		a, b Key
		want int
	}{
		{"equal single", f1, MustKey(NewElement("f1", dimFrame)), 0},
		{"same dimension by id", f1, f2, -1},
		{"dimension names first", b1, f1, -1},
		{"dimension names before ids", f2, t1, -1},
		{"prefix dimensions sort first", f2, f1t1, -1},
		{"first differing dimension decides", f1t2, f2t1, -1},
		{"later dimension breaks tie", f1t1, f1t2, -1},
		{"reverse", f2t1, f1t1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompareKeys(tt.a, tt.b)
			switch tt.want {
			case 0:
				require.Equal(t, 0, got)
			case -1:
				require.Less(t, got, 0)
				require.Greater(t, CompareKeys(tt.b, tt.a), 0)
			case 1:
				require.Greater(t, got, 0)
			}
		})
	}

	t.Run("single and general forms compare equal", func(t *testing.T) {
		general := multiKey{elems: []Element{NewElement("f1", dimFrame)}}
		require.True(t, EqualKeys(f1, general))
		require.Equal(t, ID(f1), ID(general))
		require.Equal(t, Hash(f1, 0), Hash(general, 0))
	})
}

func TestSortKeys(t *testing.T) {
	ks := []Key{
		MustKey(NewElement("t1", dimTile)),
		MustKey(NewElement("f2", dimFrame)),
		MustKey(NewElement("f1", dimFrame), NewElement("t1", dimTile)),
		MustKey(NewElement("f1", dimFrame)),
	}
	SortKeys(ks)

	got := make([]string, len(ks))
	for i, k := range ks {
		got[i] = k.String()
	}
	require.Equal(t, []string{"[frame=f1]", "[frame=f2]", "[frame=f1 tile=t1]", "[tile=t1]"}, got)
}

func TestIDAndHash(t *testing.T) {
	a := MustKey(NewElement("b", "a"), NewElement("d", "c"))
	b := MustKey(NewElement("bc", "a"), NewElement("d", "c"))

	require.NotEqual(t, ID(a), ID(b))
	require.NotEqual(t, Hash(a, 0), Hash(b, 0))
	require.Equal(t, Hash(a, 7), Hash(MustKey(NewElement("d", "c"), NewElement("b", "a")), 7))
	require.NotEqual(t, Hash(a, 0), Hash(a, 7))

	empty := MustKey()
	require.Equal(t, "", ID(empty))
}
