// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Storage backends accepted by STORAGE_BACKEND.
const (
	BackendAuto   = "auto"
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Storage   StorageConfig
	Catalog   CatalogConfig
	Server    ServerConfig
	Thumbnail ThumbnailConfig
	RateLimit RateLimitConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `env:"ENV" envDefault:"development"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// StorageConfig selects where the catalog is persisted.
type StorageConfig struct {
	// DataPath holds the badger directory and the sqlite file (default: ~/TagShelf/data).
	DataPath string `env:"DATA_PATH"`
	// Backend is auto, badger, sqlite or memory. Auto tries badger, then
	// sqlite, then falls back to memory.
	Backend string `env:"STORAGE_BACKEND" envDefault:"auto"`
}

// CatalogConfig holds catalog behavior settings.
type CatalogConfig struct {
	// VocabularyPolicy decides whether vocabulary membership ignores case: exact or fold.
	VocabularyPolicy string `env:"VOCABULARY_POLICY" envDefault:"exact"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port           string        `env:"SERVER_PORT" envDefault:"8080"`
	ReadTimeout    time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout   time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"60s"`
	IdleTimeout    time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	MaxUploadBytes int64         `env:"MAX_UPLOAD_BYTES" envDefault:"33554432"`
	// AllowedOrigins lists CORS origins. Empty allows any origin.
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// ThumbnailConfig holds thumbnail generation settings.
type ThumbnailConfig struct {
	Size int `env:"THUMBNAIL_SIZE" envDefault:"320"`
}

// RateLimitConfig bounds mutating requests per client IP.
type RateLimitConfig struct {
	RPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"10"`
	Burst int     `env:"RATE_LIMIT_BURST" envDefault:"20"`
}

// flagSpec binds one command-line flag to a config field.
type flagSpec struct {
	name  string
	usage string
	apply func(c *Config, v string) error
}

var flagSpecs = []flagSpec{
	{"env", "Environment (development, staging, production)", func(c *Config, v string) error {
		c.App.Environment = v
		return nil
	}},
	{"log-level", "Log level (debug, info, warn, error)", func(c *Config, v string) error {
		c.Logger.Level = v
		return nil
	}},
	{"data-path", "Directory for catalog storage", func(c *Config, v string) error {
		c.Storage.DataPath = v
		return nil
	}},
	{"storage", "Storage backend (auto, badger, sqlite, memory)", func(c *Config, v string) error {
		c.Storage.Backend = v
		return nil
	}},
	{"vocabulary-policy", "Vocabulary membership (exact, fold)", func(c *Config, v string) error {
		c.Catalog.VocabularyPolicy = v
		return nil
	}},
	{"port", "Server port (default: 8080)", func(c *Config, v string) error {
		c.Server.Port = v
		return nil
	}},
	{"read-timeout", "HTTP read timeout (default: 15s)", durationFlag(func(c *Config) *time.Duration { return &c.Server.ReadTimeout })},
	{"write-timeout", "HTTP write timeout (default: 60s)", durationFlag(func(c *Config) *time.Duration { return &c.Server.WriteTimeout })},
	{"idle-timeout", "HTTP idle timeout (default: 60s)", durationFlag(func(c *Config) *time.Duration { return &c.Server.IdleTimeout })},
	{"thumbnail-size", "Thumbnail bounding box edge in pixels (default: 320)", func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid thumbnail size %q: %w", v, err)
		}
		c.Thumbnail.Size = n
		return nil
	}},
}

func durationFlag(field func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*field(c) = d
		return nil
	}
}

// Load loads configuration from multiple sources with precedence:
// 1. Command-line flags in args (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	set := flag.NewFlagSet("tagshelf", flag.ContinueOnError)
	envFile := set.String("env-file", ".env", "Path to .env file")
	values := make(map[string]*string, len(flagSpecs))
	for _, spec := range flagSpecs {
		values[spec.name] = set.String(spec.name, "", spec.usage)
	}
	if err := set.Parse(args); err != nil {
		return nil, err
	}

	// A missing .env file is fine; a malformed one is not.
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", *envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	for _, spec := range flagSpecs {
		if v := *values[spec.name]; v != "" {
			if err := spec.apply(cfg, v); err != nil {
				return nil, fmt.Errorf("flag -%s: %w", spec.name, err)
			}
		}
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}
	if !slices.Contains([]string{"development", "staging", "production"}, c.App.Environment) {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(c.Logger.Level)) {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	switch c.Storage.Backend {
	case BackendAuto, BackendBadger, BackendSQLite:
		if c.Storage.DataPath == "" {
			return errors.New("data path cannot be empty after expansion")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("invalid storage backend: %s (must be auto, badger, sqlite, or memory)", c.Storage.Backend)
	}

	switch c.Catalog.VocabularyPolicy {
	case "exact", "fold":
	default:
		return fmt.Errorf("invalid vocabulary policy: %s (must be exact or fold)", c.Catalog.VocabularyPolicy)
	}

	if c.Thumbnail.Size <= 0 {
		return fmt.Errorf("thumbnail size must be positive, got %d", c.Thumbnail.Size)
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("rate limit rps and burst must be positive")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return errors.New("max upload bytes must be positive")
	}

	return nil
}

// IsProduction reports whether the app runs in production.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// BadgerPath is the directory of the badger backend.
func (c *Config) BadgerPath() string {
	return filepath.Join(c.Storage.DataPath, "badger")
}

// SQLitePath is the database file of the sqlite backend.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.Storage.DataPath, "catalog.db")
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath expands ~ and makes the path absolute.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "TagShelf", "data")

	expanded, err := expandPath(c.Storage.DataPath, defaultPath)
	if err != nil {
		return err
	}
	c.Storage.DataPath = expanded
	return nil
}
