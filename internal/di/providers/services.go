package providers

import (
	"github.com/samber/do/v2"

	"github.com/tagshelf/tagshelf/internal/backup"
	"github.com/tagshelf/tagshelf/internal/catalog"
	"github.com/tagshelf/tagshelf/internal/config"
	"github.com/tagshelf/tagshelf/internal/logger"
	"github.com/tagshelf/tagshelf/internal/media/thumbnail"
)

// ProvideExporter provides the catalog exporter.
func ProvideExporter(i do.Injector) (*backup.Exporter, error) {
	c := do.MustInvoke[*catalog.Catalog](i)
	log := do.MustInvoke[*logger.Logger](i)

	return backup.NewExporter(c, log.Component("backup")), nil
}

// ProvideImporter provides the catalog importer.
func ProvideImporter(i do.Injector) (*backup.Importer, error) {
	c := do.MustInvoke[*catalog.Catalog](i)
	log := do.MustInvoke[*logger.Logger](i)

	return backup.NewImporter(c, log.Component("backup")), nil
}

// ProvideThumbnailer provides the thumbnail generator.
func ProvideThumbnailer(i do.Injector) (thumbnail.Thumbnailer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return thumbnail.New(cfg.Thumbnail.Size, log.Component("thumbnail")), nil
}
