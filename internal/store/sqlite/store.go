// Package sqlite implements the storage port as a flat key-value table in
// SQLite where each collection is one serialized blob.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/tagshelf/tagshelf/internal/store"

	_ "modernc.org/sqlite"
)

// BackendName identifies this backend.
const BackendName = "sqlite"

//go:embed schema.sql
var schemaSQL string

// Store keeps every collection as a JSON object {key: record} in one row of
// the kv table. Writes read, modify and rewrite the whole blob inside a
// transaction.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	// mu serializes blob rewrites and guards closed.
	mu     sync.RWMutex
	closed bool
}

// Open creates a new SQLite store at the given path.
// It configures WAL mode, sets pragmas, and creates the kv table.
// Any failure is reported as storage unavailable.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, store.Unavailable(BackendName, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, store.Unavailable(BackendName, err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, store.Unavailable(BackendName, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, store.Unavailable(BackendName, err)
	}

	if logger != nil {
		logger.Info("SQLite database opened", "path", path)
	}

	return &Store{db: db, logger: logger}, nil
}

// Opener returns a store.Opener for path.
func Opener(path string, logger *slog.Logger) store.Opener {
	return store.Opener{
		Name: BackendName,
		Open: func(context.Context) (store.Store, error) {
			return Open(path, logger)
		},
	}
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type blob map[string]json.RawMessage

func load(ctx context.Context, q querier, collection string) (blob, error) {
	var data []byte
	err := q.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, collection).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return blob{}, nil
	}
	if err != nil {
		return nil, err
	}

	b := blob{}
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return b, nil
}

func save(ctx context.Context, tx *sql.Tx, collection string, b blob) error {
	if len(b) == 0 {
		_, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, collection)
		return err
	}

	data, err := encode(b)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		collection, data)
	return err
}

// encode writes b as a JSON object with keys in order. Record values are
// copied verbatim so they read back byte for byte, as on the other backends.
func encode(b blob) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for i, key := range slices.Sorted(maps.Keys(b)) {
		v := b[key]
		if !json.Valid(v) {
			return nil, fmt.Errorf("record %q is not valid JSON", key)
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(key); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1) // Encode appends a newline
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// read runs fn under the read lock after checking the store is open.
func (s *Store) read(ctx context.Context, op, collection string, fn func() error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return store.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return store.IOError(op, collection, err)
	}
	return store.IOError(op, collection, fn())
}

// rewrite loads a collection blob, lets fn modify it and saves it, all in one
// transaction.
func (s *Store) rewrite(ctx context.Context, op, collection string, fn func(b blob) blob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return store.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return store.IOError(op, collection, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.IOError(op, collection, err)
	}
	defer tx.Rollback()

	b, err := load(ctx, tx, collection)
	if err != nil {
		return store.IOError(op, collection, err)
	}
	if err := save(ctx, tx, collection, fn(b)); err != nil {
		return store.IOError(op, collection, err)
	}
	return store.IOError(op, collection, tx.Commit())
}

// GetAll implements store.Store.
func (s *Store) GetAll(ctx context.Context, collection string) ([]store.Record, error) {
	var recs []store.Record
	err := s.read(ctx, "get_all", collection, func() error {
		b, err := load(ctx, s.db, collection)
		if err != nil {
			return err
		}
		for _, k := range slices.Sorted(maps.Keys(b)) {
			recs = append(recs, store.Record{Key: k, Value: []byte(b[k])})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// Get implements store.Store.
func (s *Store) Get(ctx context.Context, collection, key string) (store.Record, error) {
	var (
		val   json.RawMessage
		found bool
	)
	err := s.read(ctx, "get", collection, func() error {
		b, err := load(ctx, s.db, collection)
		if err != nil {
			return err
		}
		val, found = b[key]
		return nil
	})
	if err != nil {
		return store.Record{}, err
	}
	if !found {
		return store.Record{}, store.NotFound(collection, key)
	}
	return store.Record{Key: key, Value: []byte(val)}, nil
}

// Put implements store.Store.
func (s *Store) Put(ctx context.Context, collection string, rec store.Record) error {
	return s.rewrite(ctx, "put", collection, func(b blob) blob {
		b[rec.Key] = json.RawMessage(slices.Clone(rec.Value))
		return b
	})
}

// Delete implements store.Store.
func (s *Store) Delete(ctx context.Context, collection, key string) error {
	return s.rewrite(ctx, "delete", collection, func(b blob) blob {
		delete(b, key)
		return b
	})
}

// ReplaceAll implements store.Store.
func (s *Store) ReplaceAll(ctx context.Context, collection string, recs []store.Record) error {
	return s.rewrite(ctx, "replace_all", collection, func(blob) blob {
		b := make(blob, len(recs))
		for _, rec := range recs {
			b[rec.Key] = json.RawMessage(slices.Clone(rec.Value))
		}
		return b
	})
}

// ClearAll implements store.Store.
func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return store.ErrClosed
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv`)
	return store.IOError("clear_all", "*", err)
}

// Backend implements store.Store.
func (s *Store) Backend() string {
	return BackendName
}

// Close closes the underlying database connection. Calling it twice is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
