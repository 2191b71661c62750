// Package catalog owns the media collection, the tag vocabulary and the
// structured category schema, and keeps them consistent under cascading
// mutations.
//
// Every mutation persists first and updates memory only after the write
// succeeded. Cascades persist item by item, apply each success, and report
// a partial failure with counts when some items could not be written.
// A single mutex serializes mutations and reads, so no caller observes a
// cascade half way through.
package catalog

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/tagshelf/tagshelf/internal/domain"
	domainerrors "github.com/tagshelf/tagshelf/internal/errors"
	"github.com/tagshelf/tagshelf/internal/id"
	"github.com/tagshelf/tagshelf/internal/metrics"
	"github.com/tagshelf/tagshelf/internal/normalize"
	"github.com/tagshelf/tagshelf/internal/store"
)

// Keys of the meta collection.
const (
	metaRecent = "recent"
	metaSearch = "search"
)

// Catalog is the coordinator of the catalog State.
type Catalog struct {
	mu    sync.Mutex
	state *State

	store      store.Store
	items      *store.Collection[domain.MediaItem]
	tags       *store.Collection[domain.TagRecord]
	categories *store.Collection[domain.Category]

	policy normalize.Policy
	logger *slog.Logger
	now    func() time.Time
	newID  func() (string, error)
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithPolicy sets how vocabulary membership is decided. Default exact.
func WithPolicy(p normalize.Policy) Option {
	return func(c *Catalog) {
		c.policy = p
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) {
		c.now = now
	}
}

// WithIDGenerator replaces the media item ID generator.
func WithIDGenerator(gen func() (string, error)) Option {
	return func(c *Catalog) {
		c.newID = gen
	}
}

// New creates an empty catalog over s. Call Load to read persisted state.
func New(s store.Store, logger *slog.Logger, opts ...Option) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Catalog{
		state:      newState(),
		store:      s,
		items:      store.Items(s),
		tags:       store.Tags(s),
		categories: store.Categories(s),
		policy:     normalize.PolicyExact,
		logger:     logger,
		now:        time.Now,
		newID: func() (string, error) {
			return id.Ordered(domain.MediaItemIDPrefix)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the vocabulary policy in effect.
func (c *Catalog) Policy() normalize.Policy {
	return c.policy
}

// Backend names the storage backend.
func (c *Catalog) Backend() string {
	return c.store.Backend()
}

// Load replaces the in-memory state with the persisted one and recomputes
// usage counts from the items.
func (c *Catalog) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

func (c *Catalog) load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	items, err := c.items.List(ctx)
	if err != nil {
		return err
	}
	vocab, err := c.tags.List(ctx)
	if err != nil {
		return err
	}
	cats, err := c.categories.List(ctx)
	if err != nil {
		return err
	}

	s := newState()
	for _, it := range items {
		s.putItem(it)
	}
	s.vocab = withVocab(nil, vocab...)
	for _, cat := range cats {
		s.categories[cat.Key] = cat
	}

	if err := store.GetJSON(ctx, c.store, store.CollectionMeta, metaRecent, &s.recent); err != nil && !domainerrors.Is(err, store.ErrNotFound) {
		return err
	}
	if s.recent == nil {
		s.recent = []string{}
	}
	if len(s.recent) > domain.MaxRecentTags {
		s.recent = s.recent[:domain.MaxRecentTags]
	}
	if err := store.GetJSON(ctx, c.store, store.CollectionMeta, metaSearch, &s.search); err != nil && !domainerrors.Is(err, store.ErrNotFound) {
		return err
	}
	s.search = s.search.WithDefaults()

	c.state = s
	c.observe()

	c.logger.Info("catalog loaded",
		"backend", c.store.Backend(),
		"items", len(s.items),
		"tags", len(s.vocab),
		"categories", len(s.categories),
	)
	return nil
}

// Rewrite runs fn against the underlying store with every mutation blocked,
// then reloads the in-memory state. The reload runs even when fn fails so
// memory matches whatever fn managed to write.
func (c *Catalog) Rewrite(ctx context.Context, fn func(ctx context.Context, s store.Store) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := fn(ctx, c.store)
	if loadErr := c.load(context.WithoutCancel(ctx)); loadErr != nil {
		return domainerrors.Join(err, loadErr)
	}
	return err
}

// Snapshot returns a deep copy of the catalog for export.
func (c *Catalog) Snapshot() *domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := &domain.Snapshot{
		Version:    domain.SnapshotVersion,
		Items:      make([]*domain.MediaItem, len(c.state.items)),
		Tags:       c.state.vocabNames(),
		Categories: make(map[string]*domain.Category, len(c.state.categories)),
		Recent:     slices.Clone(c.state.recent),
	}
	for i, it := range c.state.items {
		snap.Items[i] = it.Clone()
	}
	for k, cat := range c.state.categories {
		snap.Categories[k] = cat.Clone()
	}
	return snap
}

// observe refreshes the catalog gauges. Caller holds mu.
func (c *Catalog) observe() {
	metrics.CatalogItems.Set(float64(len(c.state.items)))
	metrics.CatalogVocabulary.Set(float64(len(c.state.vocab)))
	metrics.CatalogCategories.Set(float64(len(c.state.categories)))
}

// saveVocab persists a vocabulary and installs it. Caller holds mu.
func (c *Catalog) saveVocab(ctx context.Context, vocab []*domain.TagRecord) error {
	if err := c.tags.ReplaceAll(ctx, vocab); err != nil {
		return err
	}
	c.state.vocab = vocab
	return nil
}

// saveRecent persists a recent list and installs it. Caller holds mu.
func (c *Catalog) saveRecent(ctx context.Context, recent []string) error {
	if slices.Equal(recent, c.state.recent) {
		return nil
	}
	if err := store.PutJSON(ctx, c.store, store.CollectionMeta, metaRecent, recent); err != nil {
		return err
	}
	c.state.recent = recent
	return nil
}

// saveSearch persists the active search state and installs it. Caller holds mu.
func (c *Catalog) saveSearch(ctx context.Context, search domain.SearchState) error {
	if err := store.PutJSON(ctx, c.store, store.CollectionMeta, metaSearch, search); err != nil {
		return err
	}
	c.state.search = search
	return nil
}

// touchTags registers a use of each tag: unknown names join the vocabulary
// and every tag moves to the front of the recent list, the last one ending
// up first. Caller holds mu.
func (c *Catalog) touchTags(ctx context.Context, tags []string) error {
	if len(tags) == 0 {
		return nil
	}

	var added []*domain.TagRecord
	recent := c.state.recent
	now := c.now()
	for _, tag := range tags {
		known := c.state.vocabIndex(tag, c.policy) >= 0 ||
			slices.ContainsFunc(added, func(r *domain.TagRecord) bool { return c.policy.Match(r.Name, tag) })
		if !known {
			added = append(added, &domain.TagRecord{Name: tag, CreatedAt: now})
		}
		recent = pushRecent(recent, tag)
	}

	if len(added) > 0 {
		if err := c.saveVocab(ctx, withVocab(c.state.vocab, added...)); err != nil {
			return err
		}
		c.observe()
	}
	return c.saveRecent(ctx, recent)
}
