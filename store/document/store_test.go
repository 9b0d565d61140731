package document_test

import (
	"testing"

	"github.com/ehsanranjbar/flatkv/flatten"
	"github.com/ehsanranjbar/flatkv/store/document"
	"github.com/ehsanranjbar/flatkv/testutil"
	"github.com/stretchr/testify/require"
)

func mustFlatten(t *testing.T, v any) *flatten.Result {
	t.Helper()
	r, err := flatten.Flatten(v)
	require.NoError(t, err)
	return r
}

func TestStore(t *testing.T) {
	db := testutil.PrepareDB(t)
	store, err := document.Open(db)
	require.NoError(t, err)
	defer store.Close()

	restaurant := mustFlatten(t, testutil.Restaurant())
	config := mustFlatten(t, map[string]any{"name": "svc", "port": 8080, "tags": []string{"a", "b"}})

	var restaurantID, configID uint64
	t.Run("Put", func(t *testing.T) {
		restaurantID, err = store.Put(restaurant)
		require.NoError(t, err)
		require.Equal(t, uint64(1), restaurantID)

		configID, err = store.Put(config)
		require.NoError(t, err)
		require.Equal(t, uint64(2), configID)
	})

	t.Run("Get", func(t *testing.T) {
		got, err := store.Get(restaurantID)
		require.NoError(t, err)
		require.Equal(t, restaurant.Keys(), got.Keys())

		got, err = store.Get(configID)
		require.NoError(t, err)
		require.Equal(t, []string{"name", "port", "tags.0", "tags.1"}, got.Keys())
		require.Equal(t, map[string]any{
			"name":   "svc",
			"port":   int64(8080),
			"tags.0": "a",
			"tags.1": "b",
		}, got.Map())
	})

	t.Run("GetPath", func(t *testing.T) {
		v, err := store.GetPath(configID, "tags.1")
		require.NoError(t, err)
		require.Equal(t, "b", v)

		_, err = store.GetPath(configID, "missing")
		require.ErrorIs(t, err, document.ErrNotFound)

		_, err = store.GetPath(restaurantID, "port")
		require.ErrorIs(t, err, document.ErrNotFound)
	})

	t.Run("Has", func(t *testing.T) {
		bm, err := store.Has("name")
		require.NoError(t, err)
		require.Equal(t, []uint64{restaurantID, configID}, bm.ToArray())

		bm, err = store.Has("port")
		require.NoError(t, err)
		require.Equal(t, []uint64{configID}, bm.ToArray())

		bm, err = store.Has("missing")
		require.NoError(t, err)
		require.True(t, bm.IsEmpty())
	})

	t.Run("Query", func(t *testing.T) {
		ids, err := store.Query(`port > 8000`)
		require.NoError(t, err)
		require.Equal(t, []uint64{configID}, ids)

		ids, err = store.Query(`_id >= 1`)
		require.NoError(t, err)
		require.Equal(t, []uint64{restaurantID, configID}, ids)

		_, err = store.Query(`port >`)
		require.Error(t, err)
	})

	t.Run("Set", func(t *testing.T) {
		err := store.Set(configID, mustFlatten(t, map[string]any{"name": "svc", "replicas": 3}))
		require.NoError(t, err)

		got, err := store.Get(configID)
		require.NoError(t, err)
		require.Equal(t, []string{"name", "replicas"}, got.Keys())

		bm, err := store.Has("port")
		require.NoError(t, err)
		require.True(t, bm.IsEmpty())
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(restaurantID))

		_, err := store.Get(restaurantID)
		require.ErrorIs(t, err, document.ErrNotFound)
		require.ErrorIs(t, store.Delete(restaurantID), document.ErrNotFound)

		ids, err := store.IDs()
		require.NoError(t, err)
		require.Equal(t, []uint64{configID}, ids)

		bm, err := store.Has("name")
		require.NoError(t, err)
		require.Equal(t, []uint64{configID}, bm.ToArray())
	})
}

func TestStoreReopen(t *testing.T) {
	db := testutil.PrepareDB(t)

	store, err := document.Open(db, document.WithPrefix("cfg"), document.WithKeyLen(1))
	require.NoError(t, err)
	id, err := store.Put(mustFlatten(t, map[string]any{"a": map[string]any{"b": true}}))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = document.Open(db, document.WithPrefix("cfg"), document.WithKeyLen(1))
	require.NoError(t, err)
	defer store.Close()

	v, err := store.GetPath(id, "a.b")
	require.NoError(t, err)
	require.Equal(t, true, v)

	next, err := store.Put(mustFlatten(t, "bare"))
	require.NoError(t, err)
	require.Greater(t, next, id)

	other, err := document.Open(db)
	require.NoError(t, err)
	defer other.Close()

	ids, err := other.IDs()
	require.NoError(t, err)
	require.Empty(t, ids)
}
