package keys

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/keysplit/types"
)

func elementIDs(elems []Element) []string {
	out := make([]string, len(elems))
	for i, e := range elems {
		out[i] = e.ID()
	}

	return out
}

func TestKeyspace(t *testing.T) {
	t.Run("accumulates sorted unique elements", func(t *testing.T) {
		ks := NewKeyspace()
		ks.AddKey(MustKey(NewElement("f3", dimFrame), NewElement("t1", dimTile)))
		ks.AddKeys(
			MustKey(NewElement("f1", dimFrame)),
			MustKey(NewElement("f3", dimFrame), NewElement("t2", dimTile)),
		)

		require.Equal(t, []Dimension{dimFrame, dimTile}, ks.Dimensions())

		frames, err := ks.Elements(dimFrame)
		require.NoError(t, err)
		require.Equal(t, []string{"f1", "f3"}, elementIDs(frames))

		size, err := ks.Size(dimTile)
		require.NoError(t, err)
		require.Equal(t, 2, size)
		require.True(t, ks.HasDimension(dimTile))
	})

	t.Run("every key element is present and nothing else", func(t *testing.T) {
		corpus := []Key{
			MustKey(NewElement("f2", dimFrame), NewElement("b1", dimBand)),
			MustKey(NewElement("t9", dimTile)),
			MustKey(NewElement("f1", dimFrame), NewElement("t9", dimTile)),
		}
		ks := KeyspaceOf(corpus...)

		seen := map[Dimension]map[string]bool{}
		for _, k := range corpus {
			for _, e := range k.Elements() {
				if seen[e.Dimension()] == nil {
					seen[e.Dimension()] = map[string]bool{}
				}
				seen[e.Dimension()][e.ID()] = true

				elems, err := ks.Elements(e.Dimension())
				require.NoError(t, err)
				require.Contains(t, elementIDs(elems), e.ID())
			}
		}

		for _, d := range ks.Dimensions() {
			elems, err := ks.Elements(d)
			require.NoError(t, err)
			for _, e := range elems {
				require.True(t, seen[d][e.ID()], "unexpected element %s", e)
			}
		}
	})

	t.Run("unknown dimension", func(t *testing.T) {
		ks := NewKeyspace()

		_, err := ks.Elements(dimBand)
		require.ErrorIs(t, err, types.ErrUnknownDimension)

		_, err = ks.Size(dimBand)
		require.ErrorIs(t, err, types.ErrUnknownDimension)
		require.False(t, ks.HasDimension(dimBand))
		require.Empty(t, ks.Dimensions())
	})

	t.Run("equality", func(t *testing.T) {
		a := KeyspaceOf(MustKey(NewElement("f1", dimFrame)), MustKey(NewElement("f2", dimFrame)))
		b := KeyspaceOf(MustKey(NewElement("f2", dimFrame)), MustKey(NewElement("f1", dimFrame)), MustKey(NewElement("f1", dimFrame)))
		c := KeyspaceOf(MustKey(NewElement("f1", dimFrame)))
		d := KeyspaceOf(MustKey(NewElement("f1", dimFrame)), MustKey(NewElement("f2", dimTile)))

		require.True(t, a.Equal(b))
		require.False(t, a.Equal(c))
		require.False(t, a.Equal(d))
		require.False(t, a.Equal(nil))
		require.Equal(t, "{frame:[f1 f2]}", a.String())
	})

	t.Run("concurrent producers", func(t *testing.T) {
		ks := NewKeyspace()

		const producers = 8
		const perProducer = 200

		var wg sync.WaitGroup
		for p := range producers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range perProducer {
					ks.AddKey(MustKey(
						NewElement(fmt.Sprintf("f%04d", i), dimFrame),
						NewElement(fmt.Sprintf("t%02d", p), dimTile),
					))
				}
			}()
		}
		wg.Wait()

		frames, err := ks.Size(dimFrame)
		require.NoError(t, err)
		require.Equal(t, perProducer, frames)

		tiles, err := ks.Size(dimTile)
		require.NoError(t, err)
		require.Equal(t, producers, tiles)

		elems, err := ks.Elements(dimFrame)
		require.NoError(t, err)
		require.IsNonDecreasing(t, elementIDs(elems))
	})
}
