package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/keysplit/keys"
)

func frameKey(id string) keys.Key {
	return keys.MustKey(keys.NewElement(id, "frame"))
}

func TestStatic_ListKeys(t *testing.T) {
	t.Run("returns all keys", func(t *testing.T) {
		ks := []keys.Key{frameKey("f1"), frameKey("f2"), frameKey("f3")}
		src := NewStatic(ks)

		result, err := src.ListKeys(context.Background())

		require.NoError(t, err)
		require.Len(t, result, 3)
		require.Equal(t, ks, result)
	})

	t.Run("returns empty list when no keys", func(t *testing.T) {
		src := NewStatic(nil)

		result, err := src.ListKeys(context.Background())

		require.NoError(t, err)
		require.Empty(t, result)
	})

	t.Run("does not expose internal slice", func(t *testing.T) {
		src := NewStatic([]keys.Key{frameKey("f1")})

		result, err := src.ListKeys(context.Background())
		require.NoError(t, err)
		result[0] = frameKey("changed")

		result2, _ := src.ListKeys(context.Background())
		require.Equal(t, "[frame=f1]", result2[0].String())
	})
}

func TestStatic_Update(t *testing.T) {
	src := NewStatic([]keys.Key{frameKey("f1")})

	updated := []keys.Key{frameKey("f1"), frameKey("f2")}
	src.Update(updated)
	updated[0] = frameKey("changed")

	result, err := src.ListKeys(context.Background())
	require.NoError(t, err)
	require.Len(t, result, 2)
	require.Equal(t, "[frame=f1]", result[0].String())
}
