package storetest

import (
	"context"
	"errors"
	"sync"

	"github.com/tagshelf/tagshelf/internal/store"
)

// ErrInjected is the cause of every failure injected by Faulty.
var ErrInjected = errors.New("injected failure")

// Faulty wraps a Store and fails selected writes.
type Faulty struct {
	store.Store

	mu       sync.Mutex
	failKeys map[string]bool
	failAll  map[string]bool
}

// NewFaulty wraps s. Nothing fails until configured.
func NewFaulty(s store.Store) *Faulty {
	return &Faulty{
		Store:    s,
		failKeys: map[string]bool{},
		failAll:  map[string]bool{},
	}
}

// FailKey makes every Put and Delete of key in collection fail.
func (f *Faulty) FailKey(collection, key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failKeys[collection+"/"+key] = true
}

// FailCollection makes every write to collection fail.
func (f *Faulty) FailCollection(collection string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAll[collection] = true
}

// Heal removes every configured failure.
func (f *Faulty) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.failKeys)
	clear(f.failAll)
}

func (f *Faulty) fails(op, collection, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll[collection] || f.failKeys[collection+"/"+key] {
		return store.IOError(op, collection, ErrInjected)
	}
	return nil
}

// Put implements store.Store.
func (f *Faulty) Put(ctx context.Context, collection string, rec store.Record) error {
	if err := f.fails("put", collection, rec.Key); err != nil {
		return err
	}
	return f.Store.Put(ctx, collection, rec)
}

// Delete implements store.Store.
func (f *Faulty) Delete(ctx context.Context, collection, key string) error {
	if err := f.fails("delete", collection, key); err != nil {
		return err
	}
	return f.Store.Delete(ctx, collection, key)
}

// ReplaceAll implements store.Store.
func (f *Faulty) ReplaceAll(ctx context.Context, collection string, recs []store.Record) error {
	if err := f.fails("replace_all", collection, ""); err != nil {
		return err
	}
	return f.Store.ReplaceAll(ctx, collection, recs)
}
