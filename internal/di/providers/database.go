package providers

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/samber/do/v2"

	"github.com/tagshelf/tagshelf/internal/catalog"
	"github.com/tagshelf/tagshelf/internal/config"
	"github.com/tagshelf/tagshelf/internal/logger"
	"github.com/tagshelf/tagshelf/internal/normalize"
	"github.com/tagshelf/tagshelf/internal/store"
	"github.com/tagshelf/tagshelf/internal/store/badgerstore"
	"github.com/tagshelf/tagshelf/internal/store/memory"
	"github.com/tagshelf/tagshelf/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the configured storage backend. In auto mode badger is
// tried first, then sqlite, then the in-memory store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeLog := log.Component("store")

	openers, err := openers(cfg, storeLog)
	if err != nil {
		return nil, err
	}

	s, err := store.OpenFirst(context.Background(), log.Logger, openers...)
	if err != nil {
		return nil, err
	}

	log.Info("Storage initialized", "backend", s.Backend())
	if s.Backend() == memory.BackendName && cfg.Storage.Backend != config.BackendMemory {
		log.Warn("Catalog is held in memory only, changes will be lost on exit")
	}

	return &StoreHandle{Store: store.Instrument(s)}, nil
}

func openers(cfg *config.Config, log *slog.Logger) ([]store.Opener, error) {
	mem := store.Opener{Name: memory.BackendName, Open: memory.Open}

	if cfg.Storage.Backend == config.BackendMemory {
		return []store.Opener{mem}, nil
	}

	if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	badger := badgerstore.Opener(cfg.BadgerPath(), log)
	lite := sqlite.Opener(cfg.SQLitePath(), log)

	switch cfg.Storage.Backend {
	case config.BackendBadger:
		return []store.Opener{badger}, nil
	case config.BackendSQLite:
		return []store.Opener{lite}, nil
	default:
		return []store.Opener{badger, lite, mem}, nil
	}
}

// ProvideSlogLogger provides access to the underlying slog.Logger for packages that need it.
func ProvideSlogLogger(i do.Injector) (*slog.Logger, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return log.Logger, nil
}

// ProvideCatalog provides the catalog loaded from storage.
func ProvideCatalog(i do.Injector) (*catalog.Catalog, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	c := catalog.New(storeHandle.Store, log.Component("catalog"),
		catalog.WithPolicy(normalize.Policy(cfg.Catalog.VocabularyPolicy)),
	)
	if err := c.Load(context.Background()); err != nil {
		return nil, err
	}

	log.Info("Catalog loaded",
		"items", c.Count(),
		"tags", len(c.Tags().Vocabulary()),
		"categories", len(c.Tags().Categories()),
		"vocabulary_policy", cfg.Catalog.VocabularyPolicy,
	)

	return c, nil
}
