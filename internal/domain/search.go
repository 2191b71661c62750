package domain

import (
	"maps"
	"slices"
)

// FilterMode combines the free-tag filter.
type FilterMode string

const (
	// FilterAnd keeps items carrying every filter tag.
	FilterAnd FilterMode = "and"
	// FilterOr keeps items carrying at least one filter tag.
	FilterOr FilterMode = "or"
)

// SortOrder orders query results by creation time.
type SortOrder string

const (
	// SortNewest puts the most recently created items first.
	SortNewest SortOrder = "newest"
	// SortOldest puts the oldest items first.
	SortOldest SortOrder = "oldest"
)

// SearchState is a complete query: free-tag filter, structured filters,
// search text and sort order. The catalog persists the active one.
type SearchState struct {
	Tags       []string            `json:"tags"`
	Mode       FilterMode          `json:"mode" validate:"omitempty,oneof=and or"`
	Structured map[string][]string `json:"structured,omitempty"`
	Text       string              `json:"text"`
	Sort       SortOrder           `json:"sort" validate:"omitempty,oneof=newest oldest"`
}

// DefaultSearchState returns a state that matches everything, newest first.
func DefaultSearchState() SearchState {
	return SearchState{
		Tags: []string{},
		Mode: FilterAnd,
		Sort: SortNewest,
	}
}

// WithDefaults fills unset mode and sort.
func (s SearchState) WithDefaults() SearchState {
	if s.Mode == "" {
		s.Mode = FilterAnd
	}
	if s.Sort == "" {
		s.Sort = SortNewest
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}
	return s
}

// Clone returns a deep copy.
func (s SearchState) Clone() SearchState {
	s.Tags = slices.Clone(s.Tags)
	if s.Structured != nil {
		m := make(map[string][]string, len(s.Structured))
		for k, v := range s.Structured {
			m[k] = slices.Clone(v)
		}
		s.Structured = m
	}
	return s
}

// StructuredKeys returns the keys with a non-empty structured filter, sorted.
func (s SearchState) StructuredKeys() []string {
	keys := make([]string, 0, len(s.Structured))
	for _, k := range slices.Sorted(maps.Keys(s.Structured)) {
		if len(s.Structured[k]) > 0 {
			keys = append(keys, k)
		}
	}
	return keys
}
