package main

import (
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/tagshelf/tagshelf/internal/backup"
	"github.com/tagshelf/tagshelf/internal/catalog"
	"github.com/tagshelf/tagshelf/internal/di"
)

// globalFlags are handed to the config loader, so the environment and the
// .env file apply here exactly as they do for the server.
type globalFlags struct {
	dataPath string
	storage  string
	policy   string
	logLevel string
	envFile  string
}

func (g *globalFlags) args() []string {
	args := []string{"-log-level", g.logLevel}
	if g.envFile != "" {
		args = append(args, "-env-file", g.envFile)
	}
	if g.dataPath != "" {
		args = append(args, "-data-path", g.dataPath)
	}
	if g.storage != "" {
		args = append(args, "-storage", g.storage)
	}
	if g.policy != "" {
		args = append(args, "-vocabulary-policy", g.policy)
	}
	return args
}

// app resolves services from the container on first use.
type app struct {
	flags    globalFlags
	injector *do.RootScope
}

func (a *app) container() *do.RootScope {
	if a.injector == nil {
		a.injector = di.NewContainer(a.flags.args())
	}
	return a.injector
}

func (a *app) catalog() (*catalog.Catalog, error) {
	return do.Invoke[*catalog.Catalog](a.container())
}

func (a *app) exporter() (*backup.Exporter, error) {
	return do.Invoke[*backup.Exporter](a.container())
}

func (a *app) importer() (*backup.Importer, error) {
	return do.Invoke[*backup.Importer](a.container())
}

// close shuts the container down, closing storage.
func (a *app) close() {
	if a.injector != nil {
		_ = a.injector.Shutdown()
	}
}

func rootCommand() (*cobra.Command, *app) {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "tagshelfctl",
		Short:         "TagShelf catalog maintenance",
		Long:          "tagshelfctl exports, imports, queries and edits a TagShelf catalog without running the server.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.flags.dataPath, "data-path", "", "Catalog data directory (default: $DATA_PATH or ~/TagShelf/data)")
	flags.StringVar(&a.flags.storage, "storage", "", "Storage backend: auto, badger, sqlite or memory")
	flags.StringVar(&a.flags.policy, "vocabulary-policy", "", "Vocabulary membership: exact or fold")
	flags.StringVar(&a.flags.logLevel, "log-level", "error", "Log level: debug, info, warn or error")
	flags.StringVar(&a.flags.envFile, "env-file", "", "Path to .env file")

	rootCmd.AddCommand(
		exportCommand(a),
		importCommand(a),
		tagsCommand(a),
		categoriesCommand(a),
		queryCommand(a),
	)

	return rootCmd, a
}
