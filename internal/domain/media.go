// Package domain holds the catalog's data model.
package domain

import (
	"maps"
	"slices"
	"time"

	"github.com/tagshelf/tagshelf/internal/normalize"
)

// MediaItemIDPrefix is the prefix of every media item ID.
const MediaItemIDPrefix = "med"

// MediaItem is one cataloged image with its tags and memo.
// Image payloads are opaque to the catalog.
type MediaItem struct {
	ID             string                     `json:"id" validate:"required"`
	Thumbnail      []byte                     `json:"thumbnail,omitempty"`
	Original       []byte                     `json:"original,omitempty"`
	ContentType    string                     `json:"content_type,omitempty"`
	BlurHash       string                     `json:"blur_hash,omitempty"`
	FreeTags       []string                   `json:"free_tags"`
	StructuredTags map[string]StructuredValue `json:"structured_tags,omitempty"`
	Memo           string                     `json:"memo"`
	CreatedAt      time.Time                  `json:"created_at"`
	UpdatedAt      time.Time                  `json:"updated_at"`
}

// Key returns the storage key of the item.
func (m *MediaItem) Key() string {
	return m.ID
}

// Touch updates the UpdatedAt timestamp.
func (m *MediaItem) Touch(now time.Time) {
	m.UpdatedAt = now
}

// HasTag reports whether the item carries tag, ignoring case.
func (m *MediaItem) HasTag(tag string) bool {
	return normalize.IndexFold(m.FreeTags, tag) >= 0
}

// Clone returns a deep copy of the item's mutable fields.
// Image payloads are shared since they are never modified in place.
func (m *MediaItem) Clone() *MediaItem {
	c := *m
	c.FreeTags = slices.Clone(m.FreeTags)
	if m.StructuredTags != nil {
		c.StructuredTags = make(map[string]StructuredValue, len(m.StructuredTags))
		for k, v := range m.StructuredTags {
			c.StructuredTags[k] = v.Clone()
		}
	}
	return &c
}

// StructuredKeys returns the item's structured category keys in sorted order.
func (m *MediaItem) StructuredKeys() []string {
	return slices.Sorted(maps.Keys(m.StructuredTags))
}
