package catalog

import (
	"context"
	"maps"
	"slices"

	"github.com/tagshelf/tagshelf/internal/domain"
	domainerrors "github.com/tagshelf/tagshelf/internal/errors"
	"github.com/tagshelf/tagshelf/internal/normalize"
	"github.com/tagshelf/tagshelf/internal/query"
)

// Search runs the active search state. The returned items are shared with
// the catalog and must not be modified.
func (c *Catalog) Search() []*domain.MediaItem {
	c.mu.Lock()
	items, schema, state := slices.Clone(c.state.items), maps.Clone(c.state.categories), c.state.search.Clone()
	c.mu.Unlock()

	return query.Run(items, schema, state)
}

// Query runs an explicit search without changing the active one.
func (c *Catalog) Query(filter domain.SearchState) []*domain.MediaItem {
	c.mu.Lock()
	items, schema := slices.Clone(c.state.items), maps.Clone(c.state.categories)
	c.mu.Unlock()

	return query.Run(items, schema, cleanSearch(filter))
}

// SearchState returns the active search state.
func (c *Catalog) SearchState() domain.SearchState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.search.Clone()
}

// SetSearchState validates, persists and activates a search state.
func (c *Catalog) SetSearchState(ctx context.Context, s domain.SearchState) (domain.SearchState, error) {
	if err := ctx.Err(); err != nil {
		return domain.SearchState{}, err
	}
	s = cleanSearch(s)
	if s.Mode != domain.FilterAnd && s.Mode != domain.FilterOr {
		return domain.SearchState{}, domainerrors.Validationf("unknown filter mode %q", s.Mode)
	}
	if s.Sort != domain.SortNewest && s.Sort != domain.SortOldest {
		return domain.SearchState{}, domainerrors.Validationf("unknown sort order %q", s.Sort)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.saveSearch(ctx, s); err != nil {
		return domain.SearchState{}, err
	}
	return s.Clone(), nil
}

// cleanSearch fills defaults, canonicalizes tag names and drops empty
// structured filters.
func cleanSearch(s domain.SearchState) domain.SearchState {
	s = s.Clone().WithDefaults()
	s.Tags = cleanTags(s.Tags)
	for k, v := range s.Structured {
		if len(v) == 0 {
			delete(s.Structured, k)
		}
	}
	if len(s.Structured) == 0 {
		s.Structured = nil
	}
	s.Text = normalize.CollapseSpace(s.Text)
	return s
}
