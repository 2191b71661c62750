package api

import (
	"github.com/tagshelf/tagshelf/internal/backup"
	"github.com/tagshelf/tagshelf/internal/catalog"
	"github.com/tagshelf/tagshelf/internal/media/thumbnail"
)

// Services groups what the HTTP handlers delegate to.
type Services struct {
	Catalog     *catalog.Catalog
	Exporter    *backup.Exporter
	Importer    *backup.Importer
	Thumbnailer thumbnail.Thumbnailer
}

// API limits and constants.
const (
	// MaxUploadSize is the default bound on upload and import bodies (32 MB).
	MaxUploadSize = 32 << 20
)

// Cache-Control header values.
const (
	CacheOneDayPrivate = "private, max-age=86400"
	CacheNoStore       = "no-store"
)
