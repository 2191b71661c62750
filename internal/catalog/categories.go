package catalog

import (
	"context"
	"slices"

	"github.com/tagshelf/tagshelf/internal/domain"
	domainerrors "github.com/tagshelf/tagshelf/internal/errors"
	"github.com/tagshelf/tagshelf/internal/normalize"
)

// AddCategory creates a structured category and returns its key, derived
// from the label. Values are trimmed and deduplicated; at least one must
// remain.
func (x *TagIndex) AddCategory(ctx context.Context, label string, values []string, multi bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	label, values, err := cleanCategory(label, values)
	if err != nil {
		return "", err
	}
	key := normalize.CategoryKey(label)
	if key == "" {
		return "", domainerrors.Validationf("category label %q has no usable characters", label)
	}

	c := x.c
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.state.categories[key]; exists {
		return "", domainerrors.DuplicateCategoryf("category %q already exists", key)
	}

	cat := &domain.Category{
		Key:       key,
		Label:     label,
		Values:    values,
		Multi:     multi,
		Position:  c.state.nextPosition(),
		CreatedAt: c.now(),
	}
	if err := c.categories.Put(ctx, cat); err != nil {
		return "", err
	}
	c.state.categories[key] = cat
	c.observe()

	c.logger.Info("category added", "key", key, "values", len(values), "multi", multi)
	return key, nil
}

// EditCategory replaces a category's label, allowed values and
// cardinality. A label or cardinality change resets every item's answer for
// the category to the empty value of the new cardinality; affected items are
// persisted before the schema. Removing an allowed value leaves items that
// hold it untouched.
func (x *TagIndex) EditCategory(ctx context.Context, key, label string, values []string, multi bool) (*domain.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	label, values, err := cleanCategory(label, values)
	if err != nil {
		return nil, err
	}

	c := x.c
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, ok := c.state.categories[key]
	if !ok {
		return nil, domainerrors.NotFoundf("category %q not found", key)
	}

	if label != cur.Label || multi != cur.Multi {
		empty := domain.EmptyValue(multi)
		res := c.cascade(ctx, "edit_category", func(it *domain.MediaItem) *domain.MediaItem {
			if _, has := it.StructuredTags[key]; !has {
				return nil
			}
			next := it.Clone()
			next.StructuredTags[key] = empty.Clone()
			return next
		})
		if err := res.err("edit category"); err != nil {
			return nil, err
		}
	}

	next := cur.Clone()
	next.Label = label
	next.Values = values
	next.Multi = multi
	if err := c.categories.Put(ctx, next); err != nil {
		return nil, err
	}
	c.state.categories[key] = next

	c.logger.Info("category edited", "key", key)
	return next.Clone(), nil
}

// DeleteCategory removes a category from the schema, from every item and
// from the active structured filter.
func (x *TagIndex) DeleteCategory(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c := x.c
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.state.categories[key]; !ok {
		return domainerrors.NotFoundf("category %q not found", key)
	}

	res := c.cascade(ctx, "delete_category", func(it *domain.MediaItem) *domain.MediaItem {
		if _, has := it.StructuredTags[key]; !has {
			return nil
		}
		next := it.Clone()
		delete(next.StructuredTags, key)
		if len(next.StructuredTags) == 0 {
			next.StructuredTags = nil
		}
		return next
	})
	if err := res.err("delete category"); err != nil {
		return err
	}

	if err := c.categories.Delete(ctx, key); err != nil {
		return err
	}
	delete(c.state.categories, key)
	c.observe()

	if _, filtered := c.state.search.Structured[key]; filtered {
		search := c.state.search.Clone()
		delete(search.Structured, key)
		if len(search.Structured) == 0 {
			search.Structured = nil
		}
		if err := c.saveSearch(ctx, search); err != nil {
			return err
		}
	}

	c.logger.Info("category deleted", "key", key, "items", res.Succeeded)
	return nil
}

// Categories returns the schema in display order.
func (x *TagIndex) Categories() []*domain.Category {
	c := x.c
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.sortedCategories()
}

// Category returns one category.
func (x *TagIndex) Category(key string) (*domain.Category, error) {
	c := x.c
	c.mu.Lock()
	defer c.mu.Unlock()

	cat, ok := c.state.categories[key]
	if !ok {
		return nil, domainerrors.NotFoundf("category %q not found", key)
	}
	return cat.Clone(), nil
}

func cleanCategory(label string, values []string) (string, []string, error) {
	label = normalize.CollapseSpace(label)
	if label == "" {
		return "", nil, domainerrors.Validation("category label is required")
	}

	out := make([]string, 0, len(values))
	for _, v := range values {
		v = normalize.CollapseSpace(v)
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return "", nil, domainerrors.Validation("category needs at least one value")
	}
	return label, out, nil
}
