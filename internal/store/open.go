package store

import (
	"context"
	"errors"
	"log/slog"

	domainerrors "github.com/tagshelf/tagshelf/internal/errors"
)

// Opener opens one backend.
type Opener struct {
	Name string
	Open func(ctx context.Context) (Store, error)
}

// OpenFirst opens the first backend that is available.
//
// A backend failing with a storage unavailable error is skipped with a
// warning and the next one is tried. Any other error aborts. When every
// backend is unavailable the joined errors are returned.
func OpenFirst(ctx context.Context, logger *slog.Logger, openers ...Opener) (Store, error) {
	if len(openers) == 0 {
		return nil, domainerrors.StorageUnavailable("any", errors.New("no storage backends configured"))
	}

	var failures []error
	for i, o := range openers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		s, err := o.Open(ctx)
		if err == nil {
			if i > 0 && logger != nil {
				logger.Warn("Using fallback storage backend", "backend", s.Backend(), "skipped", i)
			}
			return s, nil
		}

		if !domainerrors.Is(err, domainerrors.ErrStorageUnavailable) {
			return nil, err
		}

		if logger != nil {
			logger.Warn("Storage backend unavailable", "backend", o.Name, "error", err)
		}
		failures = append(failures, err)
	}

	return nil, domainerrors.StorageUnavailable("every", errors.Join(failures...))
}
