package store

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"

	"github.com/tagshelf/tagshelf/internal/domain"
	domainerrors "github.com/tagshelf/tagshelf/internal/errors"
)

// Collection provides typed JSON access to one collection of a Store.
type Collection[T any] struct {
	store Store
	name  string
	keyOf func(*T) string
}

// NewCollection creates a typed view of the named collection.
// keyOf derives a record's key from the value.
func NewCollection[T any](s Store, name string, keyOf func(*T) string) *Collection[T] {
	return &Collection[T]{
		store: s,
		name:  name,
		keyOf: keyOf,
	}
}

// Items returns the media item collection.
func Items(s Store) *Collection[domain.MediaItem] {
	return NewCollection(s, CollectionItems, (*domain.MediaItem).Key)
}

// Tags returns the tag vocabulary collection.
func Tags(s Store) *Collection[domain.TagRecord] {
	return NewCollection(s, CollectionTags, (*domain.TagRecord).Key)
}

// Categories returns the structured category schema collection.
func Categories(s Store) *Collection[domain.Category] {
	return NewCollection(s, CollectionCategories, func(c *domain.Category) string { return c.Key })
}

// Name returns the collection name.
func (c *Collection[T]) Name() string {
	return c.name
}

// Get retrieves a value by key.
// Returns ErrNotFound if the key does not exist.
func (c *Collection[T]) Get(ctx context.Context, key string) (*T, error) {
	rec, err := c.store.Get(ctx, c.name, key)
	if err != nil {
		return nil, err
	}
	return c.decode(rec)
}

// Put stores a value under its derived key.
func (c *Collection[T]) Put(ctx context.Context, v *T) error {
	rec, err := c.encode(v)
	if err != nil {
		return err
	}
	return c.store.Put(ctx, c.name, rec)
}

// Delete removes a value by key.
func (c *Collection[T]) Delete(ctx context.Context, key string) error {
	return c.store.Delete(ctx, c.name, key)
}

// ReplaceAll atomically replaces the collection contents.
func (c *Collection[T]) ReplaceAll(ctx context.Context, vs []*T) error {
	recs := make([]Record, 0, len(vs))
	for _, v := range vs {
		rec, err := c.encode(v)
		if err != nil {
			return err
		}
		recs = append(recs, rec)
	}
	return c.store.ReplaceAll(ctx, c.name, recs)
}

// All returns an iterator over every value in key order.
// A decode failure is yielded and iteration continues.
func (c *Collection[T]) All(ctx context.Context) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		recs, err := c.store.GetAll(ctx, c.name)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, rec := range recs {
			v, err := c.decode(rec)
			if !yield(v, err) {
				return
			}
		}
	}
}

// List returns every value in key order, failing on the first error.
func (c *Collection[T]) List(ctx context.Context) ([]*T, error) {
	var out []*T
	for v, err := range c.All(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *Collection[T]) encode(v *T) (Record, error) {
	key := c.keyOf(v)
	if key == "" {
		return Record{}, domainerrors.Validationf("%s record has an empty key", c.name)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return Record{}, domainerrors.Wrapf(err, domainerrors.CodeInternal, "encode %s record %q", c.name, key)
	}
	return Record{Key: key, Value: data}, nil
}

func (c *Collection[T]) decode(rec Record) (*T, error) {
	var v T
	if err := json.Unmarshal(rec.Value, &v); err != nil {
		return nil, IOError("decode", c.name, fmt.Errorf("record %q: %w", rec.Key, err))
	}
	return &v, nil
}

// GetJSON reads a single JSON document stored under key.
// Returns ErrNotFound if the key does not exist.
func GetJSON(ctx context.Context, s Store, collection, key string, dest any) error {
	rec, err := s.Get(ctx, collection, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(rec.Value, dest); err != nil {
		return IOError("decode", collection, fmt.Errorf("record %q: %w", key, err))
	}
	return nil
}

// PutJSON stores v as a single JSON document under key.
func PutJSON(ctx context.Context, s Store, collection, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return domainerrors.Wrapf(err, domainerrors.CodeInternal, "encode %s record %q", collection, key)
	}
	return s.Put(ctx, collection, Record{Key: key, Value: data})
}
