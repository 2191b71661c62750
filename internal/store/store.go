// Package store defines the storage port the catalog persists through, plus
// helpers shared by every backend.
//
// A backend holds named collections of keyed records. Two durable backends
// exist (badgerstore, a per-key object store, and sqlite, which keeps one
// serialized blob per collection) and one degraded in-memory backend.
// Callers cannot tell them apart: records come back in key order, missing
// keys surface as ErrNotFound, and every failure is a coded storage error.
package store

import "context"

// Collection names used by the catalog.
const (
	CollectionItems      = "items"
	CollectionTags       = "tags"
	CollectionCategories = "categories"
	CollectionMeta       = "meta"
)

// Collections lists every collection in a catalog.
var Collections = []string{
	CollectionItems,
	CollectionTags,
	CollectionCategories,
	CollectionMeta,
}

// Record is one keyed entry in a collection. Value holds JSON.
type Record struct {
	Key   string
	Value []byte
}

// Store is the storage port.
//
// Every method may fail with a storage unavailable error (the backend is
// closed or cannot be reached) or a storage i/o error (one read or write
// failed). Get returns ErrNotFound for a missing key. Delete of a missing key
// is not an error.
type Store interface {
	// GetAll returns every record of a collection in ascending key order.
	GetAll(ctx context.Context, collection string) ([]Record, error)
	// Get returns one record.
	Get(ctx context.Context, collection, key string) (Record, error)
	// Put inserts or replaces a record by its key.
	Put(ctx context.Context, collection string, rec Record) error
	// Delete removes a record.
	Delete(ctx context.Context, collection, key string) error
	// ReplaceAll atomically clears a collection and inserts records.
	ReplaceAll(ctx context.Context, collection string, recs []Record) error
	// ClearAll wipes every collection.
	ClearAll(ctx context.Context) error
	// Backend names the implementation, for logs and metrics.
	Backend() string
	// Close releases the backend. Further calls fail as unavailable.
	Close() error
}
