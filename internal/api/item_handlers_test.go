package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/tagshelf/tagshelf/internal/errors"
)

func TestItems_Lifecycle(t *testing.T) {
	ts := setupTestServer(t, nil)

	resp := ts.api.Post("/api/v1/categories", map[string]any{
		"label":  "Camera",
		"values": []string{"Leica", "Nikon"},
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	// Create
	resp = ts.api.Post("/api/v1/items", map[string]any{
		"original":        pngBytes(t, 200, 100),
		"free_tags":       []string{"beach", "Sunset", "beach"},
		"structured_tags": map[string]any{"camera": "Leica"},
		"memo":            "golden hour",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	created := decode[ItemResponse](t, resp).Data
	assert.Equal(t, "med-0001", created.ID)
	assert.Equal(t, []string{"beach", "Sunset"}, created.FreeTags)
	assert.Equal(t, map[string]any{"camera": "Leica"}, created.StructuredTags)
	assert.Equal(t, "image/png", created.ContentType)
	assert.NotEmpty(t, created.BlurHash)
	assert.Equal(t, "/api/v1/items/med-0001/thumbnail", created.ThumbnailURL)
	assert.Equal(t, "/api/v1/items/med-0001/original", created.OriginalURL)

	// Tags used on an item land in the vocabulary and the recent list.
	recent := decode[RecentTagsResponse](t, ts.api.Get("/api/v1/tags/recent")).Data
	assert.Equal(t, []string{"Sunset", "beach"}, recent.Tags)

	// Images
	resp = ts.api.Get("/api/v1/items/med-0001/thumbnail")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "image/jpeg", resp.Header().Get("Content-Type"))
	assert.Equal(t, []byte{0xff, 0xd8}, resp.Body.Bytes()[:2])

	resp = ts.api.Get("/api/v1/items/med-0001/original")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "image/png", resp.Header().Get("Content-Type"))

	// Update: memo changes, the structured value is cleared, tags untouched.
	resp = ts.api.Patch("/api/v1/items/med-0001", map[string]any{
		"memo":            "blue hour",
		"structured_tags": map[string]any{"camera": nil},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	updated := decode[ItemResponse](t, resp).Data
	assert.Equal(t, "blue hour", updated.Memo)
	assert.Empty(t, updated.StructuredTags)
	assert.Equal(t, []string{"beach", "Sunset"}, updated.FreeTags)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	// Read back
	resp = ts.api.Get("/api/v1/items/med-0001")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "blue hour", decode[ItemResponse](t, resp).Data.Memo)

	// Delete
	resp = ts.api.Delete("/api/v1/items/med-0001")
	require.Equal(t, http.StatusNoContent, resp.Code)
	assert.Empty(t, resp.Body.String())

	resp = ts.api.Get("/api/v1/items/med-0001")
	require.Equal(t, http.StatusNotFound, resp.Code)
	env := decode[any](t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, string(domainerrors.CodeNotFound), env.Code)

	// Vocabulary survives the item.
	tags := decode[ListTagsResponse](t, ts.api.Get("/api/v1/tags")).Data
	require.Len(t, tags.Tags, 2)
	assert.Equal(t, 0, tags.Tags[0].UsageCount)
}

func TestCreateItem_Rejects(t *testing.T) {
	ts := setupTestServer(t, nil)
	_, err := ts.catalog.Tags().AddCategory(t.Context(), "Camera", []string{"Leica"}, false)
	require.NoError(t, err)

	tests := []struct {
		name   string
		body   map[string]any
		status int
	}{
		{
			name:   "not an image",
			body:   map[string]any{"original": []byte("definitely not pixels")},
			status: http.StatusBadRequest,
		},
		{
			name: "value outside the category",
			body: map[string]any{
				"original":        pngBytes(t, 8, 8),
				"structured_tags": map[string]any{"camera": "Canon"},
			},
			status: http.StatusBadRequest,
		},
		{
			name: "structured value of the wrong shape",
			body: map[string]any{
				"original":        pngBytes(t, 8, 8),
				"structured_tags": map[string]any{"camera": 42},
			},
			status: http.StatusBadRequest,
		},
		{
			name:   "missing original",
			body:   map[string]any{"memo": "nothing"},
			status: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/api/v1/items", tt.body)
			require.Equal(t, tt.status, resp.Code, resp.Body.String())

			env := decode[any](t, resp)
			assert.False(t, env.Success)
			assert.Equal(t, string(domainerrors.CodeValidation), env.Code)
			assert.Equal(t, 0, ts.catalog.Count())
		})
	}
}

func TestCreateItem_TooLarge(t *testing.T) {
	ts := setupTestServer(t, nil)

	resp := ts.api.Post("/api/v1/items", map[string]any{"original": make([]byte, 1<<20+1)})
	require.Equal(t, http.StatusRequestEntityTooLarge, resp.Code, resp.Body.String())
	assert.Equal(t, string(domainerrors.CodeValidation), decode[any](t, resp).Code)
	assert.Equal(t, 0, ts.catalog.Count())
}

func TestListItems_Pagination(t *testing.T) {
	ts := setupTestServer(t, nil)
	for _, memo := range []string{"a", "b", "c"} {
		addItem(t, ts.catalog, memo)
	}

	page := decode[ItemListResponse](t, ts.api.Get("/api/v1/items?offset=1&limit=1")).Data
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "med-0002", page.Items[0].ID)
	assert.Equal(t, []string{}, page.Items[0].FreeTags)

	page = decode[ItemListResponse](t, ts.api.Get("/api/v1/items?offset=5")).Data
	assert.Equal(t, 3, page.Total)
	assert.Empty(t, page.Items)

	resp := ts.api.Get("/api/v1/items?limit=0")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestBulkTags(t *testing.T) {
	ts := setupTestServer(t, nil)
	a := addItem(t, ts.catalog, "a")
	b := addItem(t, ts.catalog, "b", "trip")

	resp := ts.api.Post("/api/v1/items/bulk-tags", map[string]any{
		"action": "add", "tag": "trip", "ids": []string{a, b},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	res := decode[map[string]any](t, resp).Data
	assert.Equal(t, float64(1), res["succeeded"])
	assert.Equal(t, float64(1), res["unchanged"])

	entry := decode[map[string]any](t, ts.api.Get("/api/v1/tags/trip")).Data
	assert.Equal(t, float64(2), entry["usage_count"])

	resp = ts.api.Post("/api/v1/items/bulk-tags", map[string]any{
		"action": "remove", "tag": "trip", "ids": []string{a, "med-9999"},
	})
	require.Equal(t, http.StatusInternalServerError, resp.Code)
	env := decode[any](t, resp)
	assert.Equal(t, string(domainerrors.CodePartialFailure), env.Code)

	var progress domainerrors.Progress
	require.NoError(t, json.Unmarshal(env.Details, &progress))
	assert.Equal(t, domainerrors.Progress{Succeeded: 1, Failed: 1}, progress)

	resp = ts.api.Post("/api/v1/items/bulk-tags", map[string]any{
		"action": "toggle", "tag": "trip", "ids": []string{a},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}
