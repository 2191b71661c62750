// Package memory provides the degraded in-process storage backend used when
// no durable backend can be opened. Nothing survives a restart.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/patrickmn/go-cache"

	"github.com/tagshelf/tagshelf/internal/store"
)

// BackendName identifies this backend.
const BackendName = "memory"

const keySep = "\x00"

// Store keeps records in a go-cache instance without expiration.
type Store struct {
	// mu serializes compound operations. go-cache locks per call only.
	mu     sync.RWMutex
	cache  *cache.Cache
	closed atomic.Bool
}

// New creates an empty in-memory store.
func New() *Store {
	// A cleanup interval of zero starts no janitor goroutine.
	return &Store{cache: cache.New(cache.NoExpiration, 0)}
}

// Open adapts New to the store.Opener signature.
func Open(context.Context) (store.Store, error) {
	return New(), nil
}

func cacheKey(collection, key string) string {
	return collection + keySep + key
}

func (s *Store) check(ctx context.Context, op, collection string) error {
	if s.closed.Load() {
		return store.ErrClosed
	}
	return store.IOError(op, collection, ctx.Err())
}

// GetAll implements store.Store.
func (s *Store) GetAll(ctx context.Context, collection string) ([]store.Record, error) {
	if err := s.check(ctx, "get_all", collection); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := collection + keySep
	var recs []store.Record
	for k, item := range s.cache.Items() {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		recs = append(recs, store.Record{
			Key:   strings.TrimPrefix(k, prefix),
			Value: slices.Clone(item.Object.([]byte)),
		})
	}
	slices.SortFunc(recs, func(a, b store.Record) int { return strings.Compare(a.Key, b.Key) })
	return recs, nil
}

// Get implements store.Store.
func (s *Store) Get(ctx context.Context, collection, key string) (store.Record, error) {
	if err := s.check(ctx, "get", collection); err != nil {
		return store.Record{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	v, found := s.cache.Get(cacheKey(collection, key))
	if !found {
		return store.Record{}, store.NotFound(collection, key)
	}
	return store.Record{Key: key, Value: slices.Clone(v.([]byte))}, nil
}

// Put implements store.Store.
func (s *Store) Put(ctx context.Context, collection string, rec store.Record) error {
	if err := s.check(ctx, "put", collection); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Set(cacheKey(collection, rec.Key), slices.Clone(rec.Value), cache.NoExpiration)
	return nil
}

// Delete implements store.Store.
func (s *Store) Delete(ctx context.Context, collection, key string) error {
	if err := s.check(ctx, "delete", collection); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Delete(cacheKey(collection, key))
	return nil
}

// ReplaceAll implements store.Store.
func (s *Store) ReplaceAll(ctx context.Context, collection string, recs []store.Record) error {
	if err := s.check(ctx, "replace_all", collection); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := collection + keySep
	for k := range s.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			s.cache.Delete(k)
		}
	}
	for _, rec := range recs {
		s.cache.Set(cacheKey(collection, rec.Key), slices.Clone(rec.Value), cache.NoExpiration)
	}
	return nil
}

// ClearAll implements store.Store.
func (s *Store) ClearAll(ctx context.Context) error {
	if err := s.check(ctx, "clear_all", "*"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Flush()
	return nil
}

// Backend implements store.Store.
func (s *Store) Backend() string {
	return BackendName
}

// Close implements store.Store.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.cache.Flush()
	return nil
}
