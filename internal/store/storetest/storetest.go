// Package storetest provides a behavior suite every store.Store backend must pass.
package storetest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/tagshelf/tagshelf/internal/errors"
	"github.com/tagshelf/tagshelf/internal/store"
)

// Factory opens a fresh, empty backend for one subtest.
// The suite closes the store; the factory owns any other cleanup.
type Factory func(t *testing.T) store.Store

func rec(key, value string) store.Record {
	return store.Record{Key: key, Value: []byte(value)}
}

// Run exercises the full storage contract against a backend.
func Run(t *testing.T, open Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"PutGet", testPutGet},
		{"ValuesKeepTheirBytes", testValueBytes},
		{"GetMissing", testGetMissing},
		{"PutReplaces", testPutReplaces},
		{"GetAllOrderedByKey", testGetAllOrdered},
		{"CollectionsAreIsolated", testIsolation},
		{"DeleteIsIdempotent", testDelete},
		{"ReplaceAll", testReplaceAll},
		{"ReplaceAllEmpty", testReplaceAllEmpty},
		{"ClearAll", testClearAll},
		{"CanceledContext", testCanceled},
		{"ClosedIsUnavailable", testClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := open(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func testPutGet(t *testing.T, s store.Store) {
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, store.CollectionItems, rec("a", `{"id":"a"}`)))

	got, err := s.Get(ctx, store.CollectionItems, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.Key)
	assert.JSONEq(t, `{"id":"a"}`, string(got.Value))
}

func testValueBytes(t *testing.T, s store.Store) {
	ctx := context.Background()
	const value = `{ "memo": "<b> & co",  "tags": ["é"] }`

	require.NoError(t, s.Put(ctx, store.CollectionItems, rec("a", value)))
	got, err := s.Get(ctx, store.CollectionItems, "a")
	require.NoError(t, err)
	assert.Equal(t, value, string(got.Value))

	require.NoError(t, s.ReplaceAll(ctx, store.CollectionItems, []store.Record{rec("b", value)}))
	all, err := s.GetAll(ctx, store.CollectionItems)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, value, string(all[0].Value))
}

func testGetMissing(t *testing.T, s store.Store) {
	_, err := s.Get(context.Background(), store.CollectionItems, "nope")
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, store.ErrNotFound))
	assert.False(t, store.IsStorageError(err))
}

func testPutReplaces(t *testing.T, s store.Store) {
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, store.CollectionItems, rec("a", `{"v":1}`)))
	require.NoError(t, s.Put(ctx, store.CollectionItems, rec("a", `{"v":2}`)))

	all, err := s.GetAll(ctx, store.CollectionItems)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.JSONEq(t, `{"v":2}`, string(all[0].Value))
}

func testGetAllOrdered(t *testing.T, s store.Store) {
	ctx := context.Background()

	for _, k := range []string{"c", "a", "d", "b"} {
		require.NoError(t, s.Put(ctx, store.CollectionItems, rec(k, fmt.Sprintf(`%q`, k))))
	}

	all, err := s.GetAll(ctx, store.CollectionItems)
	require.NoError(t, err)

	keys := make([]string, len(all))
	for i, r := range all {
		keys[i] = r.Key
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, keys)
}

func testIsolation(t *testing.T, s store.Store) {
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, store.CollectionItems, rec("x", `1`)))
	require.NoError(t, s.Put(ctx, store.CollectionTags, rec("x", `2`)))

	items, err := s.GetAll(ctx, store.CollectionItems)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, `1`, string(items[0].Value))

	meta, err := s.GetAll(ctx, store.CollectionMeta)
	require.NoError(t, err)
	assert.Empty(t, meta)
}

func testDelete(t *testing.T, s store.Store) {
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, store.CollectionItems, rec("a", `1`)))
	require.NoError(t, s.Delete(ctx, store.CollectionItems, "a"))
	require.NoError(t, s.Delete(ctx, store.CollectionItems, "a"))

	_, err := s.Get(ctx, store.CollectionItems, "a")
	assert.True(t, domainerrors.Is(err, store.ErrNotFound))
}

func testReplaceAll(t *testing.T, s store.Store) {
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, store.CollectionTags, rec("old", `"old"`)))
	require.NoError(t, s.Put(ctx, store.CollectionItems, rec("keep", `1`)))

	require.NoError(t, s.ReplaceAll(ctx, store.CollectionTags, []store.Record{
		rec("beta", `"beta"`),
		rec("alpha", `"alpha"`),
	}))

	tags, err := s.GetAll(ctx, store.CollectionTags)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "alpha", tags[0].Key)
	assert.Equal(t, "beta", tags[1].Key)

	items, err := s.GetAll(ctx, store.CollectionItems)
	require.NoError(t, err)
	assert.Len(t, items, 1, "other collections are untouched")
}

func testReplaceAllEmpty(t *testing.T, s store.Store) {
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, store.CollectionTags, rec("a", `1`)))
	require.NoError(t, s.ReplaceAll(ctx, store.CollectionTags, nil))

	tags, err := s.GetAll(ctx, store.CollectionTags)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func testClearAll(t *testing.T, s store.Store) {
	ctx := context.Background()

	for _, c := range store.Collections {
		require.NoError(t, s.Put(ctx, c, rec("k", `1`)))
	}
	require.NoError(t, s.ClearAll(ctx))

	for _, c := range store.Collections {
		all, err := s.GetAll(ctx, c)
		require.NoError(t, err)
		assert.Empty(t, all, c)
	}
}

func testCanceled(t *testing.T, s store.Store) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Put(ctx, store.CollectionItems, rec("a", `1`))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, store.IsStorageError(err))
}

func testClosed(t *testing.T, s store.Store) {
	require.NoError(t, s.Close())

	_, err := s.GetAll(context.Background(), store.CollectionItems)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrStorageUnavailable))
}
