package catalog

import (
	"context"
	"maps"
	"slices"

	"github.com/tagshelf/tagshelf/internal/domain"
	domainerrors "github.com/tagshelf/tagshelf/internal/errors"
	"github.com/tagshelf/tagshelf/internal/normalize"
)

// NewItem holds the fields of an item being added.
type NewItem struct {
	Thumbnail      []byte
	Original       []byte
	ContentType    string
	BlurHash       string
	FreeTags       []string
	StructuredTags map[string]domain.StructuredValue
	Memo           string
}

// ItemPatch is a partial update. Nil fields are left unchanged.
// StructuredTags is applied per key: an empty value removes the key.
type ItemPatch struct {
	Memo           *string
	FreeTags       *[]string
	StructuredTags map[string]domain.StructuredValue
}

// AddItem validates, persists and indexes a new item. Each free tag is then
// recorded as used.
//
// If recording the tags fails the item stays created and is returned along
// with the error.
func (c *Catalog) AddItem(ctx context.Context, in NewItem) (*domain.MediaItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	structured := map[string]domain.StructuredValue{}
	for _, key := range slices.Sorted(maps.Keys(in.StructuredTags)) {
		v, err := c.coerce(key, in.StructuredTags[key])
		if err != nil {
			return nil, err
		}
		if !v.IsEmpty() {
			structured[key] = v
		}
	}

	if len(structured) == 0 {
		structured = nil
	}

	itemID, err := c.newID()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate item id")
	}

	now := c.now()
	item := &domain.MediaItem{
		ID:             itemID,
		Thumbnail:      in.Thumbnail,
		Original:       in.Original,
		ContentType:    in.ContentType,
		BlurHash:       in.BlurHash,
		FreeTags:       cleanTags(in.FreeTags),
		StructuredTags: structured,
		Memo:           in.Memo,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := c.items.Put(ctx, item); err != nil {
		return nil, err
	}
	c.state.putItem(item)
	c.observe()

	c.logger.Debug("item added", "item_id", item.ID, "tags", len(item.FreeTags))

	if err := c.touchTags(ctx, item.FreeTags); err != nil {
		return item.Clone(), err
	}
	return item.Clone(), nil
}

// UpdateItem applies a partial update. Usage counts move by the tag delta
// and tags new to the item are recorded as used.
func (c *Catalog) UpdateItem(ctx context.Context, id string, patch ItemPatch) (*domain.MediaItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	old, ok := c.state.byID[id]
	if !ok {
		return nil, domainerrors.NotFoundf("item %q not found", id)
	}

	next := old.Clone()
	if patch.Memo != nil {
		next.Memo = *patch.Memo
	}

	var added []string
	if patch.FreeTags != nil {
		next.FreeTags = cleanTags(*patch.FreeTags)
		for _, t := range next.FreeTags {
			if !old.HasTag(t) {
				added = append(added, t)
			}
		}
	}

	for _, key := range slices.Sorted(maps.Keys(patch.StructuredTags)) {
		// Clearing works for orphaned keys too.
		if patch.StructuredTags[key].IsEmpty() {
			delete(next.StructuredTags, key)
			continue
		}
		v, err := c.coerce(key, patch.StructuredTags[key])
		if err != nil {
			return nil, err
		}
		if v.IsEmpty() {
			delete(next.StructuredTags, key)
			continue
		}
		if next.StructuredTags == nil {
			next.StructuredTags = map[string]domain.StructuredValue{}
		}
		next.StructuredTags[key] = v
	}

	if len(next.StructuredTags) == 0 {
		next.StructuredTags = nil
	}

	next.Touch(c.now())
	if err := c.items.Put(ctx, next); err != nil {
		return nil, err
	}
	c.state.putItem(next)

	if err := c.touchTags(ctx, added); err != nil {
		return next.Clone(), err
	}
	return next.Clone(), nil
}

// DeleteItem removes an item. Its tags stay in the vocabulary.
func (c *Catalog) DeleteItem(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.state.byID[id]; !ok {
		return domainerrors.NotFoundf("item %q not found", id)
	}
	if err := c.items.Delete(ctx, id); err != nil {
		return err
	}
	c.state.removeItem(id)
	c.observe()

	c.logger.Debug("item deleted", "item_id", id)
	return nil
}

// Item returns a copy of one item.
func (c *Catalog) Item(id string) (*domain.MediaItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.state.byID[id]
	if !ok {
		return nil, domainerrors.NotFoundf("item %q not found", id)
	}
	return it.Clone(), nil
}

// Items returns every item in insertion order. The items are shared with
// the catalog and must not be modified.
func (c *Catalog) Items() []*domain.MediaItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.state.items)
}

// Count returns the number of items.
func (c *Catalog) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.state.items)
}

// coerce validates a structured value against the current schema and
// converts it to the category's cardinality. Caller holds mu.
func (c *Catalog) coerce(key string, v domain.StructuredValue) (domain.StructuredValue, error) {
	cat, ok := c.state.categories[key]
	if !ok {
		return v, domainerrors.Validationf("unknown category %q", key)
	}

	values := v.Flatten()
	for _, val := range values {
		if !cat.Allows(val) {
			return v, domainerrors.ValidationWithDetails(
				"value not allowed in category "+cat.Label,
				map[string]string{"category": key, "value": val},
			)
		}
	}

	if cat.Multi {
		return domain.MultiValue(values...), nil
	}
	switch len(values) {
	case 0:
		return domain.EmptyValue(false), nil
	case 1:
		return domain.SingleValue(values[0]), nil
	default:
		return v, domainerrors.Validationf("category %q accepts a single value", key)
	}
}

// cleanTags collapses whitespace, drops empty names and removes duplicates
// under case folding, keeping the first spelling.
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, normalize.TagName(t))
	}
	return normalize.DedupeFold(out)
}
