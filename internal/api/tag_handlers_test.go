package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagshelf/tagshelf/internal/domain"
	domainerrors "github.com/tagshelf/tagshelf/internal/errors"
)

func TestCreateTag(t *testing.T) {
	ts := setupTestServer(t, nil)

	resp := ts.api.Post("/api/v1/tags", map[string]any{"name": "  film   noir "})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	created := decode[CreateTagResponse](t, resp).Data
	assert.True(t, created.Created)
	assert.Equal(t, "film noir", created.Tag.Name)
	assert.Equal(t, 0, created.Tag.UsageCount)

	resp = ts.api.Post("/api/v1/tags", map[string]any{"name": "film noir"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.False(t, decode[CreateTagResponse](t, resp).Data.Created)

	resp = ts.api.Post("/api/v1/tags", map[string]any{"name": "   "})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, string(domainerrors.CodeValidation), decode[any](t, resp).Code)

	// Adding a tag by hand does not make it recent.
	recent := decode[RecentTagsResponse](t, ts.api.Get("/api/v1/tags/recent")).Data
	assert.Equal(t, []string{}, recent.Tags)
}

func TestGetTag(t *testing.T) {
	ts := setupTestServer(t, nil)
	addItem(t, ts.catalog, "a", "a/b")
	addItem(t, ts.catalog, "b", "a/b")

	resp := ts.api.Get("/api/v1/tags/a%2Fb")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	entry := decode[domain.TagEntry](t, resp).Data
	assert.Equal(t, "a/b", entry.Name)
	assert.Equal(t, 2, entry.UsageCount)

	resp = ts.api.Get("/api/v1/tags/missing")
	require.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, string(domainerrors.CodeNotFound), decode[any](t, resp).Code)
}

func TestRenameTag(t *testing.T) {
	ts := setupTestServer(t, nil)
	a := addItem(t, ts.catalog, "a", "dusk")
	b := addItem(t, ts.catalog, "b", "dusk", "sunset")

	t.Run("merge into existing tag", func(t *testing.T) {
		resp := ts.api.Patch("/api/v1/tags/dusk", map[string]any{"name": "sunset"})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

		res := decode[domain.RenameResult](t, resp).Data
		assert.True(t, res.Renamed)
		assert.True(t, res.Merged)
		assert.Equal(t, 2, res.ItemsAffected)
		assert.Equal(t, 0, res.UsageFrom)
		assert.Equal(t, 2, res.UsageTo)

		itemA := decode[ItemResponse](t, ts.api.Get("/api/v1/items/"+a)).Data
		assert.Equal(t, []string{"sunset"}, itemA.FreeTags)
		itemB := decode[ItemResponse](t, ts.api.Get("/api/v1/items/"+b)).Data
		assert.Equal(t, []string{"sunset"}, itemB.FreeTags)

		assert.Equal(t, http.StatusNotFound, ts.api.Get("/api/v1/tags/dusk").Code)
	})

	t.Run("unknown tag", func(t *testing.T) {
		resp := ts.api.Patch("/api/v1/tags/nothing", map[string]any{"name": "else"})
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("empty target", func(t *testing.T) {
		resp := ts.api.Patch("/api/v1/tags/sunset", map[string]any{"name": ""})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})
}

func TestDeleteTag(t *testing.T) {
	ts := setupTestServer(t, nil)
	a := addItem(t, ts.catalog, "a", "blurry", "keep")
	addItem(t, ts.catalog, "b", "blurry")

	resp := ts.api.Delete("/api/v1/tags/blurry")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	res := decode[DeleteTagResponse](t, resp).Data
	assert.Equal(t, "blurry", res.Tag)
	assert.Equal(t, 2, res.ItemsAffected)

	item := decode[ItemResponse](t, ts.api.Get("/api/v1/items/"+a)).Data
	assert.Equal(t, []string{"keep"}, item.FreeTags)

	recent := decode[RecentTagsResponse](t, ts.api.Get("/api/v1/tags/recent")).Data
	assert.NotContains(t, recent.Tags, "blurry")

	resp = ts.api.Delete("/api/v1/tags/blurry")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCategories(t *testing.T) {
	ts := setupTestServer(t, nil)

	resp := ts.api.Post("/api/v1/categories", map[string]any{
		"label":  "Film Stock",
		"values": []string{"Portra 400", "HP5", "Portra 400"},
		"multi":  true,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	cat := decode[domain.Category](t, resp).Data
	assert.Equal(t, "film_stock", cat.Key)
	assert.Equal(t, "Film Stock", cat.Label)
	assert.Equal(t, []string{"Portra 400", "HP5"}, cat.Values)
	assert.True(t, cat.Multi)

	t.Run("duplicate label", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/categories", map[string]any{
			"label":  "film stock",
			"values": []string{"Tri-X"},
		})
		require.Equal(t, http.StatusConflict, resp.Code)
		assert.Equal(t, string(domainerrors.CodeDuplicateCategory), decode[any](t, resp).Code)
	})

	t.Run("no values", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/categories", map[string]any{
			"label":  "Lens",
			"values": []string{},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})

	id := addItem(t, ts.catalog, "roll one")
	resp = ts.api.Patch("/api/v1/items/"+id, map[string]any{
		"structured_tags": map[string]any{"film_stock": []string{"HP5"}},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	t.Run("edit keeps answers when cardinality is unchanged", func(t *testing.T) {
		resp := ts.api.Put("/api/v1/categories/film_stock", map[string]any{
			"label":  "Film Stock",
			"values": []string{"HP5", "Tri-X"},
			"multi":  true,
		})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		assert.Equal(t, []string{"HP5", "Tri-X"}, decode[domain.Category](t, resp).Data.Values)

		item := decode[ItemResponse](t, ts.api.Get("/api/v1/items/"+id)).Data
		assert.Equal(t, map[string]any{"film_stock": []any{"HP5"}}, item.StructuredTags)
	})

	list := decode[ListCategoriesResponse](t, ts.api.Get("/api/v1/categories")).Data
	require.Len(t, list.Categories, 1)

	t.Run("delete removes answers", func(t *testing.T) {
		resp := ts.api.Delete("/api/v1/categories/film_stock")
		require.Equal(t, http.StatusNoContent, resp.Code)

		item := decode[ItemResponse](t, ts.api.Get("/api/v1/items/"+id)).Data
		assert.Empty(t, item.StructuredTags)

		resp = ts.api.Delete("/api/v1/categories/film_stock")
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}
