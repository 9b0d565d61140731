package ordmap_test

import (
	"testing"

	"github.com/ehsanranjbar/flatkv/internal/ordmap"
	"github.com/stretchr/testify/require"
)

func TestMap(t *testing.T) {
	m := ordmap.New[string, int]()

	t.Run("Set", func(t *testing.T) {
		require.False(t, m.Set("b", 1))
		require.False(t, m.Set("a", 2))
		require.False(t, m.Set("c", 3))
		require.Equal(t, 3, m.Len())
		require.Equal(t, []string{"b", "a", "c"}, m.Keys())
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.True(t, m.Set("a", 20))
		v, ok := m.Get("a")
		require.True(t, ok)
		require.Equal(t, 20, v)
		require.Equal(t, []string{"b", "a", "c"}, m.Keys())
	})

	t.Run("Iter", func(t *testing.T) {
		var (
			keys   []string
			values []int
		)
		for k, v := range m.Iter() {
			keys = append(keys, k)
			values = append(values, v)
		}
		require.Equal(t, []string{"b", "a", "c"}, keys)
		require.Equal(t, []int{1, 20, 3}, values)
	})

	t.Run("Delete", func(t *testing.T) {
		m.Delete("b")
		m.Delete("missing")
		require.Equal(t, []string{"a", "c"}, m.Keys())

		v, ok := m.Get("c")
		require.True(t, ok)
		require.Equal(t, 3, v)

		_, ok = m.Get("b")
		require.False(t, ok)
	})
}
