package store

import (
	domainerrors "github.com/tagshelf/tagshelf/internal/errors"
)

// Sentinel errors.
var (
	// ErrNotFound is returned by Get when the key is absent.
	ErrNotFound = domainerrors.NotFound("record not found")

	// ErrClosed is returned by every method of a closed backend.
	ErrClosed = domainerrors.Wrap(domainerrors.New("store closed"), domainerrors.CodeStorageUnavailable, "storage unavailable")
)

// NotFound returns ErrNotFound annotated with the missing record.
func NotFound(collection, key string) error {
	return domainerrors.NotFoundf("record %q not found in %q", key, collection)
}

// Unavailable wraps a failure to open or reach a backend.
func Unavailable(backend string, err error) error {
	return domainerrors.StorageUnavailable(backend, err)
}

// IOError wraps a failed read or write. Errors that already carry a storage
// code pass through unchanged.
func IOError(op, collection string, err error) error {
	if err == nil {
		return nil
	}
	if IsStorageError(err) || domainerrors.Is(err, domainerrors.ErrNotFound) {
		return err
	}
	return domainerrors.StorageIO(op, collection, err)
}

// IsStorageError reports whether err is an unavailable or i/o storage error.
func IsStorageError(err error) bool {
	return domainerrors.Is(err, domainerrors.ErrStorageIO) ||
		domainerrors.Is(err, domainerrors.ErrStorageUnavailable)
}
