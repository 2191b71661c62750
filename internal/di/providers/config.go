// Package providers contains dependency injection providers for the TagShelf server.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/tagshelf/tagshelf/internal/config"
	"github.com/tagshelf/tagshelf/internal/logger"
)

// ProvideConfig returns a provider that loads the configuration from args,
// the environment and the .env file.
func ProvideConfig(args []string) func(do.Injector) (*config.Config, error) {
	return func(do.Injector) (*config.Config, error) {
		return config.Load(args)
	}
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting TagShelf Server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.Storage.DataPath,
		"storage_backend", cfg.Storage.Backend,
	)

	return log, nil
}
