package backup

import "time"

// FormatVersion is the archive layout version. Increment major on breaking changes.
const FormatVersion = "1.0"

// Archive entry paths.
const (
	manifestPath   = "manifest.json"
	itemsPath      = "entities/items.jsonl"
	tagsPath       = "entities/tags.jsonl"
	categoriesPath = "entities/categories.jsonl"
)

// Manifest describes archive contents.
type Manifest struct {
	Version         string     `json:"version"`
	SnapshotVersion int        `json:"snapshot_version"`
	ArchiveID       string     `json:"archive_id"`
	CreatedAt       time.Time  `json:"created_at"`
	ExportedAt      *time.Time `json:"exported_at,omitempty"`

	Counts EntityCounts `json:"counts"`
	Recent []string     `json:"recent,omitempty"`
}

// EntityCounts tracks entity counts for validation and progress reporting.
type EntityCounts struct {
	Items      int `json:"items"`
	Tags       int `json:"tags"`
	Categories int `json:"categories"`
}

// tagLine is one line of the tags entity file.
type tagLine struct {
	Name string `json:"name"`
}
