// Package di provides dependency injection configuration for the TagShelf server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/tagshelf/tagshelf/internal/api"
	"github.com/tagshelf/tagshelf/internal/backup"
	"github.com/tagshelf/tagshelf/internal/catalog"
	"github.com/tagshelf/tagshelf/internal/config"
	"github.com/tagshelf/tagshelf/internal/di/providers"
	"github.com/tagshelf/tagshelf/internal/logger"
	"github.com/tagshelf/tagshelf/internal/media/thumbnail"
)

// NewContainer creates and configures the DI container with all providers.
// args are the command-line flags handed to the config loader.
func NewContainer(args []string) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig(args))
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideCatalog)

	// Services
	do.Provide(injector, providers.ProvideExporter)
	do.Provide(injector, providers.ProvideImporter)
	do.Provide(injector, providers.ProvideThumbnailer)

	// Workers
	do.Provide(injector, providers.ProvideRateLimiter)

	// Server
	do.Provide(injector, providers.ProvideAPIServer)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and starts the HTTP server.
// A failing provider is returned as an error instead of panicking.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*logger.Logger](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*catalog.Catalog](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*backup.Exporter](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*backup.Importer](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[thumbnail.Thumbnailer](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.RateLimiterHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*api.Server](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}
	return nil
}
