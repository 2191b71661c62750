package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagshelf/tagshelf/internal/domain"
	domainerrors "github.com/tagshelf/tagshelf/internal/errors"
	"github.com/tagshelf/tagshelf/internal/store"
	"github.com/tagshelf/tagshelf/internal/store/memory"
	"github.com/tagshelf/tagshelf/internal/store/storetest"
)

func TestAddCategory(t *testing.T) {
	c := newTestCatalog(t, nil)
	ctx := context.Background()

	key, err := c.Tags().AddCategory(ctx, "  Film   Stock ", []string{"Portra", " Portra ", "", "Ektar"}, true)
	require.NoError(t, err)
	assert.Equal(t, "film_stock", key)

	cat, err := c.Tags().Category(key)
	require.NoError(t, err)
	assert.Equal(t, "Film Stock", cat.Label)
	assert.Equal(t, []string{"Portra", "Ektar"}, cat.Values)
	assert.True(t, cat.Multi)

	_, err = c.Tags().AddCategory(ctx, "FILM stock", []string{"x"}, false)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrDuplicateCategory))

	_, err = c.Tags().AddCategory(ctx, "  ", []string{"x"}, false)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

	_, err = c.Tags().AddCategory(ctx, "Lens", []string{" ", ""}, false)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
}

func TestCategories_DisplayOrder(t *testing.T) {
	c := newTestCatalog(t, nil)
	ctx := context.Background()

	for _, label := range []string{"Zoom", "Aperture", "Mood"} {
		_, err := c.Tags().AddCategory(ctx, label, []string{"x"}, false)
		require.NoError(t, err)
	}

	var keys []string
	for _, cat := range c.Tags().Categories() {
		keys = append(keys, cat.Key)
	}
	assert.Equal(t, []string{"zoom", "aperture", "mood"}, keys)
}

// categoryFixture creates a single-select camera category and two items
// answering it.
func categoryFixture(t *testing.T, c *Catalog) (a, b *domain.MediaItem) {
	t.Helper()
	ctx := context.Background()

	_, err := c.Tags().AddCategory(ctx, "Camera", []string{"Leica", "Nikon"}, false)
	require.NoError(t, err)

	a, err = c.AddItem(ctx, NewItem{StructuredTags: map[string]domain.StructuredValue{"camera": domain.SingleValue("Leica")}})
	require.NoError(t, err)
	b, err = c.AddItem(ctx, NewItem{StructuredTags: map[string]domain.StructuredValue{"camera": domain.SingleValue("Nikon")}})
	require.NoError(t, err)
	return a, b
}

func TestEditCategory(t *testing.T) {
	tests := []struct {
		name      string
		label     string
		values    []string
		multi     bool
		wantValue domain.StructuredValue
	}{
		{"values only keeps answers", "Camera", []string{"Leica"}, false, domain.SingleValue("Leica")},
		{"label change resets to null", "Body", []string{"Leica", "Nikon"}, false, domain.EmptyValue(false)},
		{"cardinality change resets to empty set", "Camera", []string{"Leica", "Nikon"}, true, domain.EmptyValue(true)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCatalog(t, nil)
			a, _ := categoryFixture(t, c)

			cat, err := c.Tags().EditCategory(context.Background(), "camera", tt.label, tt.values, tt.multi)
			require.NoError(t, err)
			assert.Equal(t, "camera", cat.Key)
			assert.Equal(t, tt.label, cat.Label)
			assert.Equal(t, tt.values, cat.Values)

			got, err := c.Item(a.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValue, got.StructuredTags["camera"])
		})
	}
}

func TestEditCategory_RemovedValueIsKeptOnItems(t *testing.T) {
	c := newTestCatalog(t, nil)
	_, b := categoryFixture(t, c)

	_, err := c.Tags().EditCategory(context.Background(), "camera", "Camera", []string{"Leica"}, false)
	require.NoError(t, err)

	got, err := c.Item(b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Nikon", got.StructuredTags["camera"].Value)

	// The stale value can no longer be written.
	_, err = c.UpdateItem(context.Background(), b.ID, ItemPatch{
		StructuredTags: map[string]domain.StructuredValue{"camera": domain.SingleValue("Nikon")},
	})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
}

func TestEditCategory_PartialFailureKeepsSchema(t *testing.T) {
	faulty := storetest.NewFaulty(memory.New())
	t.Cleanup(func() { faulty.Close() })
	c := newTestCatalog(t, faulty)
	_, b := categoryFixture(t, c)

	faulty.FailKey(store.CollectionItems, b.ID)
	_, err := c.Tags().EditCategory(context.Background(), "camera", "Body", []string{"Leica"}, false)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrPartialFailure))

	cat, err := c.Tags().Category("camera")
	require.NoError(t, err)
	assert.Equal(t, "Camera", cat.Label)
}

func TestEditCategory_NotFound(t *testing.T) {
	c := newTestCatalog(t, nil)
	_, err := c.Tags().EditCategory(context.Background(), "nope", "Nope", []string{"x"}, false)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestDeleteCategory(t *testing.T) {
	c := newTestCatalog(t, nil)
	ctx := context.Background()
	categoryFixture(t, c)

	_, err := c.SetSearchState(ctx, domain.SearchState{
		Structured: map[string][]string{"camera": {"Leica"}},
	})
	require.NoError(t, err)
	require.Len(t, c.Search(), 1)

	require.NoError(t, c.Tags().DeleteCategory(ctx, "camera"))

	for _, it := range c.Items() {
		assert.NotContains(t, it.StructuredTags, "camera")
	}
	assert.NotContains(t, c.SearchState().Structured, "camera")
	assert.Empty(t, c.Tags().Categories())
	assert.Len(t, c.Search(), 2)

	// A filter still naming the deleted key is ignored.
	got := c.Query(domain.SearchState{Structured: map[string][]string{"camera": {"Leica"}}})
	assert.Len(t, got, 2)

	err = c.Tags().DeleteCategory(ctx, "camera")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestSetSearchState(t *testing.T) {
	c := newTestCatalog(t, nil)
	ctx := context.Background()
	addItem(t, c, "a", "b")
	addItem(t, c, "a")

	s, err := c.SetSearchState(ctx, domain.SearchState{Tags: []string{" a ", "A", "b"}, Mode: domain.FilterOr})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, s.Tags)
	assert.Equal(t, domain.SortNewest, s.Sort)
	assert.Len(t, c.Search(), 2)

	_, err = c.SetSearchState(ctx, domain.SearchState{Mode: "xor"})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
	assert.Equal(t, domain.FilterOr, c.SearchState().Mode)
}

func TestSearch_EmptyFiltersReturnEverything(t *testing.T) {
	c := newTestCatalog(t, nil)
	for range 5 {
		addItem(t, c)
	}

	got := c.Search()
	require.Len(t, got, 5)
	assert.Equal(t, "med-0005", got[0].ID)
}
