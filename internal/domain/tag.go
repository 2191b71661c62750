package domain

import "time"

// MaxRecentTags bounds the recent tag list.
const MaxRecentTags = 8

// TagRecord is the persisted form of a vocabulary entry.
// Usage counts are never stored; they are derived from items.
type TagRecord struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Key returns the storage key of the record.
func (t *TagRecord) Key() string {
	return t.Name
}

// TagEntry is a vocabulary entry with its computed usage.
type TagEntry struct {
	Name       string    `json:"name"`
	UsageCount int       `json:"usage_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// RenameResult describes the outcome of a tag rename or merge.
type RenameResult struct {
	From          string `json:"from"`
	To            string `json:"to"`
	Renamed       bool   `json:"renamed"`
	Merged        bool   `json:"merged"`
	ItemsAffected int    `json:"items_affected"`
	UsageFrom     int    `json:"usage_from"`
	UsageTo       int    `json:"usage_to"`
}
