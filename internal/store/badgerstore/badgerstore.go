// Package badgerstore implements the storage port on Badger, one key per record.
package badgerstore

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/tagshelf/tagshelf/internal/store"
)

// BackendName identifies this backend.
const BackendName = "badger"

// Store wraps a Badger database. Record keys are stored as
// "{collection}:{key}" so a collection is a key prefix.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// mu guards closed. Readers hold it for the duration of a call so Close
	// waits for in-flight operations.
	mu     sync.RWMutex
	closed bool
}

// Open opens or creates a Badger database in dir.
// Any failure is reported as storage unavailable.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, store.Unavailable(BackendName, err)
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil            // Badger's own logging is too chatty
	opts.SyncWrites = true       // a crash must not lose acknowledged writes
	opts.CompactL0OnClose = true // faster startup next time

	db, err := badger.Open(opts)
	if err != nil {
		return nil, store.Unavailable(BackendName, err)
	}

	if logger != nil {
		logger.Info("Badger database opened", "path", dir)
	}

	return &Store{db: db, logger: logger}, nil
}

// Opener returns a store.Opener for dir.
func Opener(dir string, logger *slog.Logger) store.Opener {
	return store.Opener{
		Name: BackendName,
		Open: func(context.Context) (store.Store, error) {
			return Open(dir, logger)
		},
	}
}

func prefix(collection string) []byte {
	return []byte(collection + ":")
}

func recordKey(collection, key string) []byte {
	return []byte(collection + ":" + key)
}

// begin checks the store is usable and holds the read lock until done is called.
func (s *Store) begin(ctx context.Context, op, collection string) (done func(), err error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, store.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		s.mu.RUnlock()
		return nil, store.IOError(op, collection, err)
	}
	return s.mu.RUnlock, nil
}

// GetAll implements store.Store. Badger iterates keys in byte order, which
// is the record key order within one prefix.
func (s *Store) GetAll(ctx context.Context, collection string) ([]store.Record, error) {
	done, err := s.begin(ctx, "get_all", collection)
	if err != nil {
		return nil, err
	}
	defer done()

	p := prefix(collection)
	var recs []store.Record

	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = p
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			recs = append(recs, store.Record{
				Key:   string(item.Key()[len(p):]),
				Value: val,
			})
		}
		return nil
	})
	if err != nil {
		return nil, store.IOError("get_all", collection, err)
	}
	return recs, nil
}

// Get implements store.Store.
func (s *Store) Get(ctx context.Context, collection, key string) (store.Record, error) {
	done, err := s.begin(ctx, "get", collection)
	if err != nil {
		return store.Record{}, err
	}
	defer done()

	var val []byte
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(collection, key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return store.Record{}, store.NotFound(collection, key)
	}
	if err != nil {
		return store.Record{}, store.IOError("get", collection, err)
	}
	return store.Record{Key: key, Value: val}, nil
}

// Put implements store.Store.
func (s *Store) Put(ctx context.Context, collection string, rec store.Record) error {
	done, err := s.begin(ctx, "put", collection)
	if err != nil {
		return err
	}
	defer done()

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(collection, rec.Key), rec.Value)
	})
	return store.IOError("put", collection, err)
}

// Delete implements store.Store.
func (s *Store) Delete(ctx context.Context, collection, key string) error {
	done, err := s.begin(ctx, "delete", collection)
	if err != nil {
		return err
	}
	defer done()

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(recordKey(collection, key))
	})
	return store.IOError("delete", collection, err)
}

// ReplaceAll implements store.Store. The clear and the inserts share one
// transaction. A collection too large for one transaction is rewritten with
// DropPrefix and a write batch instead.
func (s *Store) ReplaceAll(ctx context.Context, collection string, recs []store.Record) error {
	done, err := s.begin(ctx, "replace_all", collection)
	if err != nil {
		return err
	}
	defer done()

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := deletePrefix(txn, prefix(collection)); err != nil {
			return err
		}
		for _, rec := range recs {
			if err := txn.Set(recordKey(collection, rec.Key), rec.Value); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, badger.ErrTxnTooBig) {
		if s.logger != nil {
			s.logger.Warn("Replace too large for one transaction, using batch", "collection", collection, "records", len(recs))
		}
		err = s.replaceBatched(collection, recs)
	}
	return store.IOError("replace_all", collection, err)
}

func deletePrefix(txn *badger.Txn, p []byte) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = p
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)

	var keys [][]byte
	for it.Seek(p); it.ValidForPrefix(p); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	it.Close()

	for _, k := range keys {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) replaceBatched(collection string, recs []store.Record) error {
	if err := s.db.DropPrefix(prefix(collection)); err != nil {
		return err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, rec := range recs {
		if err := wb.Set(recordKey(collection, rec.Key), rec.Value); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// ClearAll implements store.Store.
func (s *Store) ClearAll(ctx context.Context) error {
	done, err := s.begin(ctx, "clear_all", "*")
	if err != nil {
		return err
	}
	defer done()

	return store.IOError("clear_all", "*", s.db.DropAll())
}

// Backend implements store.Store.
func (s *Store) Backend() string {
	return BackendName
}

// Close gracefully closes the database. Calling it twice is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.logger != nil {
		s.logger.Info("Closing badger database")
	}
	return s.db.Close()
}
