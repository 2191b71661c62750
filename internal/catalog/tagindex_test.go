package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagshelf/tagshelf/internal/domain"
	domainerrors "github.com/tagshelf/tagshelf/internal/errors"
	"github.com/tagshelf/tagshelf/internal/normalize"
	"github.com/tagshelf/tagshelf/internal/store"
	"github.com/tagshelf/tagshelf/internal/store/memory"
	"github.com/tagshelf/tagshelf/internal/store/storetest"
)

func TestRecordUsage_RecentIsBoundedMRU(t *testing.T) {
	c := newTestCatalog(t, nil)
	ctx := context.Background()

	for i := range 10 {
		require.NoError(t, c.Tags().RecordUsage(ctx, fmt.Sprintf("t%d", i)))
	}
	require.NoError(t, c.Tags().RecordUsage(ctx, "t5"))

	assert.Equal(t, []string{"t5", "t9", "t8", "t7", "t6", "t4", "t3", "t2"}, c.Tags().Recent())
	assert.Len(t, c.Tags().Vocabulary(), 10)

	err := c.Tags().RecordUsage(ctx, "  ")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
}

func TestAddTag(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		policy normalize.Policy
		want   []bool
		vocab  []string
	}{
		{"exact", normalize.PolicyExact, []bool{true, true, false, false}, []string{"Beach", "beach"}},
		{"fold", normalize.PolicyFold, []bool{true, false, false, false}, []string{"Beach"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCatalog(t, nil, WithPolicy(tt.policy))

			var got []bool
			for _, tag := range []string{"Beach", "beach", " Beach ", "   "} {
				added, err := c.Tags().AddTag(ctx, tag)
				require.NoError(t, err)
				got = append(got, added)
			}

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.vocab, vocabNames(c))
			assert.Empty(t, c.Tags().Recent())
		})
	}
}

func TestAddTag_KeepsVocabularySorted(t *testing.T) {
	c := newTestCatalog(t, nil)
	for _, tag := range []string{"zebra", "apple", "mango"} {
		_, err := c.Tags().AddTag(context.Background(), tag)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"apple", "mango", "zebra"}, vocabNames(c))
}

func TestRenameTag_Merge(t *testing.T) {
	c := newTestCatalog(t, nil)
	a := addItem(t, c, "x")
	b := addItem(t, c, "y")

	res, err := c.Tags().RenameTag(context.Background(), "x", "y")
	require.NoError(t, err)

	assert.True(t, res.Merged)
	assert.True(t, res.Renamed)
	assert.Equal(t, 1, res.ItemsAffected)
	assert.Equal(t, 2, res.UsageTo)
	assert.Equal(t, 0, res.UsageFrom)

	assert.Equal(t, []string{"y"}, vocabNames(c))
	got, err := c.Item(a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, got.FreeTags)
	got, err = c.Item(b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, got.FreeTags)
	assert.Equal(t, 2, c.Tags().TagUsage("y"))
	assertUsageConsistent(t, c)
}

func TestRenameTag_DedupesItemTags(t *testing.T) {
	c := newTestCatalog(t, nil)
	it := addItem(t, c, "x", "y")

	_, err := c.Tags().RenameTag(context.Background(), "x", "y")
	require.NoError(t, err)

	got, err := c.Item(it.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, got.FreeTags)
	assertUsageConsistent(t, c)
}

func TestRenameTag_Rename(t *testing.T) {
	c := newTestCatalog(t, nil)
	ctx := context.Background()
	addItem(t, c, "old", "keep")
	addItem(t, c, "Old")
	_, err := c.SetSearchState(ctx, domain.SearchState{Tags: []string{"old", "keep"}})
	require.NoError(t, err)

	res, err := c.Tags().RenameTag(ctx, "old", "  brand   new ")
	require.NoError(t, err)

	assert.Equal(t, "brand new", res.To)
	assert.False(t, res.Merged)
	assert.Equal(t, 2, res.ItemsAffected)
	assert.Equal(t, 2, res.UsageTo)

	assert.Equal(t, []string{"brand new", "keep"}, vocabNames(c))
	assert.Equal(t, []string{"brand new", "keep"}, c.Tags().Recent())
	assert.Equal(t, []string{"brand new", "keep"}, c.SearchState().Tags)
	assert.Len(t, c.Search(), 1)
	assertUsageConsistent(t, c)
}

func TestRenameTag_NoOps(t *testing.T) {
	c := newTestCatalog(t, nil)
	ctx := context.Background()
	addItem(t, c, "x")

	for _, to := range []string{"", "   ", "x", " x "} {
		res, err := c.Tags().RenameTag(ctx, "x", to)
		require.NoError(t, err)
		assert.False(t, res.Renamed, "to=%q", to)
	}
	assert.Equal(t, []string{"x"}, vocabNames(c))

	_, err := c.Tags().RenameTag(ctx, "missing", "y")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestRenameTag_CaseOnlyUnderFoldPolicy(t *testing.T) {
	c := newTestCatalog(t, nil, WithPolicy(normalize.PolicyFold))
	it := addItem(t, c, "beach")

	res, err := c.Tags().RenameTag(context.Background(), "beach", "Beach")
	require.NoError(t, err)

	assert.False(t, res.Merged)
	assert.Equal(t, []string{"Beach"}, vocabNames(c))
	got, err := c.Item(it.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Beach"}, got.FreeTags)
}

func TestRenameTag_PartialFailureKeepsOldName(t *testing.T) {
	faulty := storetest.NewFaulty(memory.New())
	t.Cleanup(func() { faulty.Close() })
	c := newTestCatalog(t, faulty)
	addItem(t, c, "x")
	stuck := addItem(t, c, "x")
	addItem(t, c, "x")

	faulty.FailKey(store.CollectionItems, stuck.ID)
	res, err := c.Tags().RenameTag(context.Background(), "x", "z")

	require.Error(t, err)
	progress, ok := domainerrors.ProgressOf(err)
	require.True(t, ok)
	assert.Equal(t, domainerrors.Progress{Succeeded: 2, Failed: 1}, progress)
	assert.False(t, res.Renamed)
	assert.Equal(t, 1, res.UsageFrom)
	assert.Equal(t, 2, res.UsageTo)

	assert.Equal(t, []string{"x", "z"}, vocabNames(c))
	assertUsageConsistent(t, c)

	// Retrying after the store heals completes the rename.
	faulty.Heal()
	res, err = c.Tags().RenameTag(context.Background(), "x", "z")
	require.NoError(t, err)
	assert.True(t, res.Merged)
	assert.Equal(t, []string{"z"}, vocabNames(c))
	assert.Equal(t, 3, c.Tags().TagUsage("z"))
}

func TestDeleteTag(t *testing.T) {
	c := newTestCatalog(t, nil)
	ctx := context.Background()
	addItem(t, c, "gone", "stay")
	addItem(t, c, "Gone")
	addItem(t, c, "stay")
	_, err := c.SetSearchState(ctx, domain.SearchState{Tags: []string{"gone"}})
	require.NoError(t, err)

	assert.Equal(t, 2, c.Tags().TagUsage("gone"))
	n, err := c.Tags().DeleteTag(ctx, "gone")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, 0, c.Tags().TagUsage("gone"))
	assert.Equal(t, []string{"stay"}, vocabNames(c))
	assert.Equal(t, []string{"stay"}, c.Tags().Recent())
	assert.Empty(t, c.SearchState().Tags)
	for _, it := range c.Items() {
		assert.False(t, it.HasTag("gone"))
	}
	assertUsageConsistent(t, c)

	_, err = c.Tags().DeleteTag(ctx, "gone")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestDeleteTag_PartialFailure(t *testing.T) {
	faulty := storetest.NewFaulty(memory.New())
	t.Cleanup(func() { faulty.Close() })
	c := newTestCatalog(t, faulty)
	addItem(t, c, "x")
	stuck := addItem(t, c, "x")

	faulty.FailKey(store.CollectionItems, stuck.ID)
	n, err := c.Tags().DeleteTag(context.Background(), "x")

	assert.Equal(t, 2, n)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrPartialFailure))
	assert.Equal(t, []string{"x"}, vocabNames(c))
	assert.Equal(t, 1, c.Tags().TagUsage("x"))
	assertUsageConsistent(t, c)
}

func TestCascade_CanceledContextCountsRemainingAsFailed(t *testing.T) {
	c := newTestCatalog(t, nil)
	addItem(t, c, "x")
	addItem(t, c, "x")

	ctx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	cancel()
	res := c.cascade(ctx, "test", func(it *domain.MediaItem) *domain.MediaItem {
		return it.Clone()
	})
	c.mu.Unlock()

	assert.Equal(t, 0, res.Succeeded)
	assert.Equal(t, 2, res.Failed)
	assert.ErrorIs(t, res.err("test"), context.Canceled)
}

func TestVocabularyUsageSurvivesZero(t *testing.T) {
	c := newTestCatalog(t, nil)
	it := addItem(t, c, "solo")

	require.NoError(t, c.DeleteItem(context.Background(), it.ID))

	entry, err := c.Tags().Tag("solo")
	require.NoError(t, err)
	assert.Equal(t, 0, entry.UsageCount)
}
