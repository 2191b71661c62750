package catalog

import (
	"context"
	"slices"

	"github.com/tagshelf/tagshelf/internal/domain"
	domainerrors "github.com/tagshelf/tagshelf/internal/errors"
	"github.com/tagshelf/tagshelf/internal/normalize"
)

// TagIndex is the vocabulary side of a Catalog: tag names, usage, recency
// and the structured category schema. It shares the catalog's lock and
// state.
type TagIndex struct {
	c *Catalog
}

// Tags returns the tag index of the catalog.
func (c *Catalog) Tags() *TagIndex {
	return &TagIndex{c: c}
}

// RecordUsage registers a tag selection: the tag joins the vocabulary if it
// is not known yet and moves to the front of the recent list.
func (x *TagIndex) RecordUsage(ctx context.Context, tag string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tag = normalize.TagName(tag)
	if tag == "" {
		return domainerrors.Validation("tag name is required")
	}

	c := x.c
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.touchTags(ctx, []string{tag})
}

// AddTag inserts tag into the vocabulary. It returns false without writing
// when the trimmed name is empty or already known under the vocabulary
// policy. The recent list is not touched.
func (x *TagIndex) AddTag(ctx context.Context, tag string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	tag = normalize.TagName(tag)
	if tag == "" {
		return false, nil
	}

	c := x.c
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.vocabIndex(tag, c.policy) >= 0 {
		return false, nil
	}
	rec := &domain.TagRecord{Name: tag, CreatedAt: c.now()}
	if err := c.saveVocab(ctx, withVocab(c.state.vocab, rec)); err != nil {
		return false, err
	}
	c.observe()
	return true, nil
}

// RenameTag replaces from with to on every item carrying it, then updates
// the vocabulary, the recent list and the active tag filter.
//
// If to already names another vocabulary entry the rename is a merge and
// from simply leaves the vocabulary. Items match from ignoring case, so
// every spelling of from leaves the vocabulary with it. An empty to, or one equal to from, is
// a no-op. When some items fail to persist, the vocabulary keeps from (and
// gains to) so every name still on an item stays listed, and a partial
// failure error is returned.
func (x *TagIndex) RenameTag(ctx context.Context, from, to string) (domain.RenameResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.RenameResult{}, err
	}
	from = normalize.TagName(from)
	to = normalize.TagName(to)
	res := domain.RenameResult{From: from, To: to}
	if to == "" || to == from {
		return res, nil
	}

	c := x.c
	c.mu.Lock()
	defer c.mu.Unlock()

	fromIdx := c.state.vocabIndex(from, c.policy)
	if fromIdx < 0 && c.state.usageOf(from) == 0 {
		return res, domainerrors.NotFoundf("tag %q not found", from)
	}

	// A case-only rename under the fold policy matches from itself.
	toIdx := slices.IndexFunc(c.state.vocab, func(r *domain.TagRecord) bool {
		return c.policy.Match(r.Name, to) && (fromIdx < 0 || r != c.state.vocab[fromIdx])
	})
	res.Merged = toIdx >= 0

	cascade := c.cascade(ctx, "rename_tag", func(it *domain.MediaItem) *domain.MediaItem {
		if !it.HasTag(from) {
			return nil
		}
		next := it.Clone()
		next.FreeTags = replaceTag(next.FreeTags, from, to)
		return next
	})
	res.ItemsAffected = cascade.Succeeded

	vocab := c.state.vocab
	if cascade.Failed == 0 {
		var target *domain.TagRecord
		if res.Merged {
			target = c.state.vocab[toIdx]
		}
		vocab = withoutVocab(vocab, from, target)
	}
	if !res.Merged {
		createdAt := c.now()
		if fromIdx >= 0 {
			createdAt = c.state.vocab[fromIdx].CreatedAt
		}
		vocab = withVocab(vocab, &domain.TagRecord{Name: to, CreatedAt: createdAt})
	}

	if err := c.saveVocab(ctx, vocab); err != nil {
		return res, err
	}
	c.observe()

	if cascade.Failed == 0 {
		if err := c.saveRecent(ctx, renameRecent(c.state.recent, from, to)); err != nil {
			return res, err
		}
		if err := c.renameInFilter(ctx, from, to); err != nil {
			return res, err
		}
		res.Renamed = true
	}

	res.UsageFrom = c.state.usageOf(from)
	res.UsageTo = c.state.usageOf(to)

	c.logger.Info("tag renamed",
		"from", from,
		"to", to,
		"merged", res.Merged,
		"items", res.ItemsAffected,
	)
	return res, cascade.err("rename tag")
}

// DeleteTag removes tag from every item, then every spelling of it from
// the vocabulary, the recent list and the active tag filter. It returns the usage count the tag
// had before deletion.
func (x *TagIndex) DeleteTag(ctx context.Context, tag string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	tag = normalize.TagName(tag)

	c := x.c
	c.mu.Lock()
	defer c.mu.Unlock()

	before := c.state.usageOf(tag)
	if c.state.vocabIndex(tag, c.policy) < 0 && before == 0 {
		return 0, domainerrors.NotFoundf("tag %q not found", tag)
	}

	cascade := c.cascade(ctx, "delete_tag", func(it *domain.MediaItem) *domain.MediaItem {
		if !it.HasTag(tag) {
			return nil
		}
		next := it.Clone()
		next.FreeTags = removeTag(next.FreeTags, tag)
		return next
	})
	if err := cascade.err("delete tag"); err != nil {
		return before, err
	}

	if err := c.saveVocab(ctx, withoutVocab(c.state.vocab, tag, nil)); err != nil {
		return before, err
	}
	c.observe()

	recent := slices.DeleteFunc(slices.Clone(c.state.recent), func(r string) bool {
		return normalize.EqualFold(r, tag)
	})
	if err := c.saveRecent(ctx, recent); err != nil {
		return before, err
	}
	if err := c.renameInFilter(ctx, tag, ""); err != nil {
		return before, err
	}

	c.logger.Info("tag deleted", "tag", tag, "items", cascade.Succeeded)
	return before, nil
}

// TagUsage returns the number of items carrying tag, ignoring case.
func (x *TagIndex) TagUsage(tag string) int {
	c := x.c
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.usageOf(normalize.TagName(tag))
}

// Vocabulary returns every known tag sorted by name, with usage counts.
func (x *TagIndex) Vocabulary() []domain.TagEntry {
	c := x.c
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.TagEntry, len(c.state.vocab))
	for i, r := range c.state.vocab {
		out[i] = domain.TagEntry{
			Name:       r.Name,
			UsageCount: c.state.usageOf(r.Name),
			CreatedAt:  r.CreatedAt,
		}
	}
	return out
}

// Tag returns one vocabulary entry.
func (x *TagIndex) Tag(name string) (domain.TagEntry, error) {
	c := x.c
	c.mu.Lock()
	defer c.mu.Unlock()

	name = normalize.TagName(name)
	i := c.state.vocabIndex(name, c.policy)
	if i < 0 {
		return domain.TagEntry{}, domainerrors.NotFoundf("tag %q not found", name)
	}
	r := c.state.vocab[i]
	return domain.TagEntry{Name: r.Name, UsageCount: c.state.usageOf(r.Name), CreatedAt: r.CreatedAt}, nil
}

// Recent returns the most recently used tags, most recent first.
func (x *TagIndex) Recent() []string {
	c := x.c
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.state.recent)
}

// renameRecent replaces entries equal to from with to, keeping the first
// occurrence of to.
func renameRecent(recent []string, from, to string) []string {
	out := make([]string, 0, len(recent))
	for _, r := range recent {
		if normalize.EqualFold(r, from) {
			r = to
		}
		if normalize.IndexFold(out, r) < 0 {
			out = append(out, r)
		}
	}
	return out
}

// renameInFilter rewrites from to to in the active tag filter. An empty to
// drops from. Caller holds mu.
func (c *Catalog) renameInFilter(ctx context.Context, from, to string) error {
	if normalize.IndexFold(c.state.search.Tags, from) < 0 {
		return nil
	}
	search := c.state.search.Clone()
	if to == "" {
		search.Tags = removeTag(search.Tags, from)
	} else {
		search.Tags = replaceTag(search.Tags, from, to)
	}
	return c.saveSearch(ctx, search)
}
