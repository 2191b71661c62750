package sqlite

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagshelf/tagshelf/internal/store"
	"github.com/tagshelf/tagshelf/internal/store/storetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	s, err := Open(dbPath, logger)
	require.NoError(t, err)
	return s
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return newTestStore(t)
	})
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	var journalMode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var name string
	err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='kv'").Scan(&name)
	require.NoError(t, err)
}

func TestCollectionIsOneBlob(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, store.CollectionItems, store.Record{Key: "a", Value: []byte(`{"n":1}`)}))
	require.NoError(t, s.Put(ctx, store.CollectionItems, store.Record{Key: "b", Value: []byte(`{"n":2}`)}))

	var rows int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM kv").Scan(&rows))
	assert.Equal(t, 1, rows)

	var blob string
	require.NoError(t, s.db.QueryRow("SELECT value FROM kv WHERE key = ?", store.CollectionItems).Scan(&blob))
	assert.JSONEq(t, `{"a":{"n":1},"b":{"n":2}}`, blob)
}

func TestPut_RejectsNonJSONValue(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	err := s.Put(context.Background(), store.CollectionItems, store.Record{Key: "a", Value: []byte("not json")})
	require.Error(t, err)
	assert.True(t, store.IsStorageError(err))
}
