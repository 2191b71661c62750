package backup

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/tagshelf/tagshelf/internal/catalog"
	"github.com/tagshelf/tagshelf/internal/domain"
	"github.com/tagshelf/tagshelf/internal/id"
)

// Exporter produces snapshots of a catalog.
type Exporter struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
	now     func() time.Time
}

// NewExporter creates an Exporter.
func NewExporter(c *catalog.Catalog, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		catalog: c,
		logger:  logger,
		now:     time.Now,
	}
}

// Export captures the whole catalog.
func (e *Exporter) Export(ctx context.Context) (*domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap := e.catalog.Snapshot()
	exportedAt := e.now().UTC()
	snap.ExportedAt = &exportedAt

	e.logger.Info("catalog exported",
		"items", len(snap.Items),
		"tags", len(snap.Tags),
		"categories", len(snap.Categories),
	)
	return snap, nil
}

// ExportArchive captures the catalog and writes it to w as a zip archive.
// Returns the archive ID recorded in the manifest.
func (e *Exporter) ExportArchive(ctx context.Context, w io.Writer) (string, error) {
	snap, err := e.Export(ctx)
	if err != nil {
		return "", err
	}
	archiveID, err := id.Generate("bak")
	if err != nil {
		return "", err
	}
	if err := WriteArchive(w, snap, archiveID); err != nil {
		return "", err
	}
	return archiveID, nil
}
