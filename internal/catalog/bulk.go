package catalog

import (
	"context"
	"strings"

	"github.com/tagshelf/tagshelf/internal/domain"
	domainerrors "github.com/tagshelf/tagshelf/internal/errors"
	"github.com/tagshelf/tagshelf/internal/metrics"
	"github.com/tagshelf/tagshelf/internal/normalize"
)

// BulkResult reports a bulk tag operation per item.
type BulkResult struct {
	Succeeded int      `json:"succeeded"`
	Unchanged int      `json:"unchanged"`
	Failed    int      `json:"failed"`
	FailedIDs []string `json:"failed_ids,omitempty"`
}

// BulkAddTag adds tag to every listed item that lacks it. Items already
// carrying the tag count as unchanged, so a second run changes nothing.
// When any item fails the result comes with a partial failure error.
func (c *Catalog) BulkAddTag(ctx context.Context, ids []string, tag string) (BulkResult, error) {
	tag = normalize.TagName(tag)
	if tag == "" {
		return BulkResult{}, domainerrors.Validation("tag name is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	res := c.bulk(ctx, "bulk_add_tag", ids, func(it *domain.MediaItem) *domain.MediaItem {
		if it.HasTag(tag) {
			return nil
		}
		next := it.Clone()
		next.FreeTags = append(next.FreeTags, tag)
		return next
	})

	if res.Succeeded+res.Unchanged > 0 {
		if err := c.touchTags(ctx, []string{tag}); err != nil {
			return res, err
		}
	}
	return res, res.err("bulk add tag")
}

// BulkRemoveTag removes tag from every listed item. Items without the tag
// count as unchanged.
func (c *Catalog) BulkRemoveTag(ctx context.Context, ids []string, tag string) (BulkResult, error) {
	tag = normalize.TagName(tag)
	if tag == "" {
		return BulkResult{}, domainerrors.Validation("tag name is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	res := c.bulk(ctx, "bulk_remove_tag", ids, func(it *domain.MediaItem) *domain.MediaItem {
		if !it.HasTag(tag) {
			return nil
		}
		next := it.Clone()
		next.FreeTags = removeTag(next.FreeTags, tag)
		return next
	})
	return res, res.err("bulk remove tag")
}

// bulk applies change to each listed item in order. A nil result from
// change leaves the item unchanged. Unknown IDs and failed writes are
// counted as failures. Caller holds mu.
func (c *Catalog) bulk(ctx context.Context, op string, ids []string, change func(*domain.MediaItem) *domain.MediaItem) BulkResult {
	res := BulkResult{}
	now := c.now()

	seen := make(map[string]struct{}, len(ids))
	for _, itemID := range ids {
		if _, dup := seen[itemID]; dup {
			continue
		}
		seen[itemID] = struct{}{}

		if ctx.Err() != nil {
			res.fail(itemID)
			continue
		}

		it, ok := c.state.byID[itemID]
		if !ok {
			res.fail(itemID)
			continue
		}

		next := change(it)
		if next == nil {
			res.Unchanged++
			continue
		}

		next.Touch(now)
		if err := c.items.Put(ctx, next); err != nil {
			c.logger.Warn("bulk write failed", "operation", op, "item_id", itemID, "error", err)
			res.fail(itemID)
			continue
		}
		c.state.putItem(next)
		res.Succeeded++
	}

	metrics.CascadeItemsTotal.WithLabelValues(op, "success").Add(float64(res.Succeeded))
	metrics.CascadeItemsTotal.WithLabelValues(op, "error").Add(float64(res.Failed))
	return res
}

func (r *BulkResult) fail(id string) {
	r.Failed++
	r.FailedIDs = append(r.FailedIDs, id)
}

func (r BulkResult) err(op string) error {
	if r.Failed == 0 {
		return nil
	}
	cause := domainerrors.New("failed items: " + joinIDs(r.FailedIDs))
	return domainerrors.PartialFailure(op, r.Succeeded+r.Unchanged, r.Failed, cause)
}

func joinIDs(ids []string) string {
	const limit = 5
	if len(ids) <= limit {
		return strings.Join(ids, ", ")
	}
	return strings.Join(ids[:limit], ", ") + ", ..."
}
