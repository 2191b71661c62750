// Package backup exports and imports the whole catalog, either as a single
// JSON document or as a zip archive of JSONL entity files.
package backup

import (
	"errors"

	domainerrors "github.com/tagshelf/tagshelf/internal/errors"
)

var (
	// ErrInvalidManifest indicates the archive manifest is missing or malformed.
	ErrInvalidManifest = errors.New("invalid or missing manifest")

	// ErrVersionMismatch indicates the export version is not supported.
	ErrVersionMismatch = errors.New("export version not supported")

	// ErrCorruptedBackup indicates the export failed integrity checks.
	ErrCorruptedBackup = errors.New("export integrity check failed")
)

// invalid reports a rejected export as a validation error that still
// matches sentinel with errors.Is.
func invalid(sentinel error, format string, args ...any) error {
	return domainerrors.Validationf(format, args...).WithCause(sentinel)
}
