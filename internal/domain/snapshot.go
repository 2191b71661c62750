package domain

import "time"

// SnapshotVersion is the current export format version.
// Version 1 exports carry no recent list.
const SnapshotVersion = 2

// Snapshot is the full exported catalog.
type Snapshot struct {
	Version    int                  `json:"version" validate:"required,min=1"`
	ExportedAt *time.Time           `json:"exported_at,omitempty"`
	Items      []*MediaItem         `json:"items" validate:"dive,required"`
	Tags       []string             `json:"tags"`
	Categories map[string]*Category `json:"categories,omitempty" validate:"dive,required"`
	Recent     []string             `json:"recent,omitempty"`
}
