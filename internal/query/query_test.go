package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagshelf/tagshelf/internal/domain"
)

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func item(id string, minutes int, tags ...string) *domain.MediaItem {
	return &domain.MediaItem{
		ID:        id,
		FreeTags:  tags,
		CreatedAt: base.Add(time.Duration(minutes) * time.Minute),
	}
}

func ids(items []*domain.MediaItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestRun_FreeTagAnd(t *testing.T) {
	items := []*domain.MediaItem{item("ab", 0, "a", "b"), item("a", 1, "a")}

	got := Run(items, nil, domain.SearchState{Tags: []string{"a", "b"}, Mode: domain.FilterAnd})

	assert.Equal(t, []string{"ab"}, ids(got))
}

func TestRun_FreeTagOr(t *testing.T) {
	items := []*domain.MediaItem{item("ab", 0, "a", "b"), item("a", 1, "a"), item("c", 2, "c")}

	got := Run(items, nil, domain.SearchState{Tags: []string{"a", "b"}, Mode: domain.FilterOr, Sort: domain.SortOldest})

	assert.Equal(t, []string{"ab", "a"}, ids(got))
}

func TestRun_FreeTagIgnoresCase(t *testing.T) {
	items := []*domain.MediaItem{item("x", 0, "Beach"), item("y", 1, "forest")}

	got := Run(items, nil, domain.SearchState{Tags: []string{"BEACH"}})

	assert.Equal(t, []string{"x"}, ids(got))
}

func TestRun_EmptyFiltersReturnEverything(t *testing.T) {
	items := []*domain.MediaItem{item("1", 0), item("2", 5, "a"), item("3", 2, "b")}

	got := Run(items, nil, domain.SearchState{})

	require.Len(t, got, len(items))
	assert.Equal(t, []string{"2", "3", "1"}, ids(got))
}

func TestRun_SortIsStable(t *testing.T) {
	items := []*domain.MediaItem{item("first", 0), item("second", 0), item("later", 10)}

	newest := Run(items, nil, domain.SearchState{Sort: domain.SortNewest})
	assert.Equal(t, []string{"later", "first", "second"}, ids(newest))

	oldest := Run(items, nil, domain.SearchState{Sort: domain.SortOldest})
	assert.Equal(t, []string{"first", "second", "later"}, ids(oldest))
}

func TestRun_DoesNotMutateInput(t *testing.T) {
	items := []*domain.MediaItem{item("old", 0), item("new", 10)}

	Run(items, nil, domain.SearchState{Sort: domain.SortNewest})

	assert.Equal(t, []string{"old", "new"}, ids(items))
}

func TestRun_Structured(t *testing.T) {
	schema := map[string]*domain.Category{
		"camera": {Key: "camera", Label: "Camera", Values: []string{"Leica", "Nikon"}},
		"mood":   {Key: "mood", Label: "Mood", Values: []string{"calm", "dark", "warm"}, Multi: true},
	}

	leica := item("leica", 0)
	leica.StructuredTags = map[string]domain.StructuredValue{
		"camera": domain.SingleValue("Leica"),
		"mood":   domain.MultiValue("calm", "warm"),
	}
	nikon := item("nikon", 1)
	nikon.StructuredTags = map[string]domain.StructuredValue{
		"camera": domain.SingleValue("Nikon"),
		"mood":   domain.MultiValue("dark"),
	}
	bare := item("bare", 2)
	items := []*domain.MediaItem{leica, nikon, bare}

	tests := []struct {
		name   string
		filter map[string][]string
		want   []string
	}{
		{"single equals", map[string][]string{"camera": {"Leica"}}, []string{"leica"}},
		{"multi intersects", map[string][]string{"mood": {"dark", "warm"}}, []string{"nikon", "leica"}},
		{"both", map[string][]string{"camera": {"Nikon"}, "mood": {"warm"}}, []string{}},
		{"unknown key ignored", map[string][]string{"lens": {"50mm"}}, []string{"bare", "nikon", "leica"}},
		{"empty filter ignored", map[string][]string{"camera": {}}, []string{"bare", "nikon", "leica"}},
		{"single is case sensitive", map[string][]string{"camera": {"leica"}}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Run(items, schema, domain.SearchState{Structured: tt.filter})
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestRun_StructuredToleratesStaleShape(t *testing.T) {
	// Category became multi after the item was saved as single.
	schema := map[string]*domain.Category{
		"mood": {Key: "mood", Label: "Mood", Values: []string{"calm"}, Multi: true},
	}
	it := item("x", 0)
	it.StructuredTags = map[string]domain.StructuredValue{"mood": domain.SingleValue("calm")}

	got := Run([]*domain.MediaItem{it}, schema, domain.SearchState{Structured: map[string][]string{"mood": {"calm"}}})

	assert.Equal(t, []string{"x"}, ids(got))
}

func TestRun_Text(t *testing.T) {
	a := item("a", 0, "Sunset")
	a.Memo = "Taken on the pier"
	b := item("b", 1, "city")
	b.StructuredTags = map[string]domain.StructuredValue{"film": domain.MultiValue("Portra 400")}
	items := []*domain.MediaItem{a, b}

	tests := []struct {
		text string
		want []string
	}{
		{"", []string{"b", "a"}},
		{"sun", []string{"a"}},
		{"PIER sunset", []string{"a"}},
		{"portra", []string{"b"}},
		{"sun portra", []string{}},
		{"   ", []string{"b", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := Run(items, nil, domain.SearchState{Text: tt.text})
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestRun_PassesAreAnded(t *testing.T) {
	schema := map[string]*domain.Category{
		"camera": {Key: "camera", Label: "Camera", Values: []string{"Leica"}},
	}
	match := item("match", 0, "street")
	match.Memo = "rainy"
	match.StructuredTags = map[string]domain.StructuredValue{"camera": domain.SingleValue("Leica")}
	noText := item("no-text", 1, "street")
	noText.StructuredTags = map[string]domain.StructuredValue{"camera": domain.SingleValue("Leica")}
	noTag := item("no-tag", 2)
	noTag.Memo = "rainy"
	noTag.StructuredTags = map[string]domain.StructuredValue{"camera": domain.SingleValue("Leica")}

	got := Run([]*domain.MediaItem{match, noText, noTag}, schema, domain.SearchState{
		Tags:       []string{"street"},
		Structured: map[string][]string{"camera": {"Leica"}},
		Text:       "rain",
	})

	assert.Equal(t, []string{"match"}, ids(got))
}
