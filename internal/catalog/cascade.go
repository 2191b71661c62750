package catalog

import (
	"context"

	"github.com/tagshelf/tagshelf/internal/domain"
	domainerrors "github.com/tagshelf/tagshelf/internal/errors"
	"github.com/tagshelf/tagshelf/internal/metrics"
)

// cascadeResult counts the items a cascade rewrote.
type cascadeResult struct {
	Succeeded int
	Failed    int
	cause     error
}

// err returns a partial failure error when any item failed.
func (r cascadeResult) err(op string) error {
	if r.Failed == 0 {
		return nil
	}
	return domainerrors.PartialFailure(op, r.Succeeded, r.Failed, r.cause)
}

// cascade offers every item to rewrite. When rewrite returns a new version
// the item is persisted and, once written, installed in the state.
// Items that fail are left untouched in memory and counted.
// The context is only checked between items; once it is done every
// remaining candidate counts as failed. Caller holds mu.
func (c *Catalog) cascade(ctx context.Context, op string, rewrite func(*domain.MediaItem) *domain.MediaItem) cascadeResult {
	var res cascadeResult
	now := c.now()

	// Iterate over a copy: putItem replaces entries of the live slice.
	for _, it := range append([]*domain.MediaItem(nil), c.state.items...) {
		next := rewrite(it)
		if next == nil {
			continue
		}

		if err := ctx.Err(); err != nil {
			res.Failed++
			res.cause = err
			continue
		}

		next.Touch(now)
		if err := c.items.Put(ctx, next); err != nil {
			c.logger.Warn("cascade write failed",
				"operation", op,
				"item_id", it.ID,
				"error", err,
			)
			res.Failed++
			res.cause = err
			continue
		}
		c.state.putItem(next)
		res.Succeeded++
	}

	metrics.CascadeItemsTotal.WithLabelValues(op, "success").Add(float64(res.Succeeded))
	if res.Failed > 0 {
		metrics.CascadeItemsTotal.WithLabelValues(op, "error").Add(float64(res.Failed))
		c.logger.Error("cascade incomplete",
			"operation", op,
			"succeeded", res.Succeeded,
			"failed", res.Failed,
		)
	}
	return res
}
