package backup

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagshelf/tagshelf/internal/catalog"
	"github.com/tagshelf/tagshelf/internal/domain"
	domainerrors "github.com/tagshelf/tagshelf/internal/errors"
	"github.com/tagshelf/tagshelf/internal/normalize"
	"github.com/tagshelf/tagshelf/internal/store/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock() func() time.Time {
	t := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

// newCatalog returns a loaded catalog over a fresh memory store whose item
// IDs start with prefix.
func newCatalog(t *testing.T, prefix string) *catalog.Catalog {
	t.Helper()
	s := memory.New()
	t.Cleanup(func() { s.Close() })

	n := 0
	c := catalog.New(s, testLogger(),
		catalog.WithClock(fixedClock()),
		catalog.WithIDGenerator(func() (string, error) {
			n++
			return fmt.Sprintf("%s-%04d", prefix, n), nil
		}),
	)
	require.NoError(t, c.Load(context.Background()))
	return c
}

// populate fills c with a category, three tagged items and an unused tag,
// then reloads it so every value has been through storage.
func populate(t *testing.T, c *catalog.Catalog) {
	t.Helper()
	ctx := context.Background()

	_, err := c.Tags().AddCategory(ctx, "Camera", []string{"Leica", "Nikon"}, false)
	require.NoError(t, err)
	_, err = c.Tags().AddCategory(ctx, "Mood", []string{"calm", "busy"}, true)
	require.NoError(t, err)

	_, err = c.AddItem(ctx, catalog.NewItem{
		FreeTags:       []string{"beach", "sunset"},
		StructuredTags: map[string]domain.StructuredValue{"camera": domain.SingleValue("Leica")},
		Memo:           "first light",
		ContentType:    "image/jpeg",
		Thumbnail:      []byte{0xff, 0xd8},
	})
	require.NoError(t, err)
	_, err = c.AddItem(ctx, catalog.NewItem{
		FreeTags:       []string{"city"},
		StructuredTags: map[string]domain.StructuredValue{"mood": domain.MultiValue("calm", "busy")},
	})
	require.NoError(t, err)
	_, err = c.AddItem(ctx, catalog.NewItem{Memo: "untagged"})
	require.NoError(t, err)
	_, err = c.Tags().AddTag(ctx, "unused")
	require.NoError(t, err)

	require.NoError(t, c.Load(ctx))
}

func names(entries []domain.TagEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestRoundTrip_Overwrite(t *testing.T) {
	tests := []struct {
		name  string
		frame func(t *testing.T, snap *domain.Snapshot) *domain.Snapshot
	}{
		{"in memory", func(_ *testing.T, snap *domain.Snapshot) *domain.Snapshot {
			return snap
		}},
		{"json document", func(t *testing.T, snap *domain.Snapshot) *domain.Snapshot {
			var buf bytes.Buffer
			require.NoError(t, WriteJSON(&buf, snap))
			got, err := ReadJSON(&buf)
			require.NoError(t, err)
			return got
		}},
		{"zip archive", func(t *testing.T, snap *domain.Snapshot) *domain.Snapshot {
			var buf bytes.Buffer
			require.NoError(t, WriteArchive(&buf, snap, "bak-test"))
			got, err := ReadArchive(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
			require.NoError(t, err)
			return got
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			src := newCatalog(t, "med")
			populate(t, src)

			snap, err := NewExporter(src, testLogger()).Export(ctx)
			require.NoError(t, err)
			require.NotNil(t, snap.ExportedAt)

			dst := newCatalog(t, "other")
			_, err = dst.AddItem(ctx, catalog.NewItem{FreeTags: []string{"stale"}})
			require.NoError(t, err)

			res, err := NewImporter(dst, testLogger()).Import(ctx, tt.frame(t, snap), ImportModeOverwrite)
			require.NoError(t, err)
			assert.Equal(t, EntityCounts{Items: 3, Tags: 4, Categories: 2}, res.Imported)
			assert.NotEmpty(t, res.ImportID)

			assert.Equal(t, src.Items(), dst.Items())
			assert.Equal(t, names(src.Tags().Vocabulary()), names(dst.Tags().Vocabulary()))
			assert.Equal(t, src.Tags().Categories(), dst.Tags().Categories())
			assert.Equal(t, src.Tags().Recent(), dst.Tags().Recent())
			assert.Equal(t, 1, dst.Tags().TagUsage("beach"))
			assert.Equal(t, 0, dst.Tags().TagUsage("stale"))
		})
	}
}

func TestImport_Merge(t *testing.T) {
	ctx := context.Background()

	src := newCatalog(t, "med")
	_, err := src.Tags().AddCategory(ctx, "Camera", []string{"Canon"}, false)
	require.NoError(t, err)
	_, err = src.Tags().AddCategory(ctx, "Film", []string{"Portra"}, false)
	require.NoError(t, err)
	_, err = src.AddItem(ctx, catalog.NewItem{FreeTags: []string{"incoming"}, Memo: "theirs"})
	require.NoError(t, err)
	_, err = src.AddItem(ctx, catalog.NewItem{FreeTags: []string{"shared"}, Memo: "new"})
	require.NoError(t, err)

	dst := newCatalog(t, "med")
	_, err = dst.Tags().AddCategory(ctx, "Camera", []string{"Leica"}, false)
	require.NoError(t, err)
	_, err = dst.AddItem(ctx, catalog.NewItem{FreeTags: []string{"shared"}, Memo: "ours"})
	require.NoError(t, err)
	_, err = dst.SetSearchState(ctx, domain.SearchState{Tags: []string{"shared"}})
	require.NoError(t, err)

	snap, err := NewExporter(src, testLogger()).Export(ctx)
	require.NoError(t, err)

	res, err := NewImporter(dst, testLogger()).Import(ctx, snap, ImportModeMerge)
	require.NoError(t, err)
	assert.Equal(t, EntityCounts{Items: 1, Tags: 1, Categories: 2}, res.Imported)
	assert.Equal(t, EntityCounts{Items: 1, Tags: 1}, res.Skipped)

	// med-0001 exists on both sides; the local copy wins.
	local, err := dst.Item("med-0001")
	require.NoError(t, err)
	assert.Equal(t, "ours", local.Memo)
	added, err := dst.Item("med-0002")
	require.NoError(t, err)
	assert.Equal(t, "new", added.Memo)

	assert.Equal(t, []string{"incoming", "shared"}, names(dst.Tags().Vocabulary()))
	assert.Equal(t, 2, dst.Tags().TagUsage("shared"))

	camera, err := dst.Tags().Category("camera")
	require.NoError(t, err)
	assert.Equal(t, []string{"Canon"}, camera.Values)
	_, err = dst.Tags().Category("film")
	require.NoError(t, err)

	// Merge keeps local session state.
	assert.Equal(t, []string{"shared"}, dst.SearchState().Tags)
}

func TestImport_VersionOneHasNoRecent(t *testing.T) {
	ctx := context.Background()
	dst := newCatalog(t, "med")

	snap := &domain.Snapshot{
		Version: 1,
		Items: []*domain.MediaItem{
			{ID: "med-legacy", FreeTags: []string{"old"}},
		},
		Tags: []string{"old", "  spaced   out "},
		Categories: map[string]*domain.Category{
			"lens": {Label: "Lens", Values: []string{"50mm"}},
		},
	}

	_, err := NewImporter(dst, testLogger()).Import(ctx, snap, ImportModeOverwrite)
	require.NoError(t, err)

	assert.Equal(t, []string{"old", "spaced out"}, names(dst.Tags().Vocabulary()))
	assert.Empty(t, dst.Tags().Recent())

	lens, err := dst.Tags().Category("lens")
	require.NoError(t, err)
	assert.Equal(t, "Lens", lens.Label)
}

// usageConsistent checks every vocabulary entry's usage against a count
// taken over the items themselves.
func usageConsistent(t *testing.T, c *catalog.Catalog) {
	t.Helper()
	counts := map[string]int{}
	for _, it := range c.Items() {
		for _, tag := range it.FreeTags {
			counts[normalize.Fold(tag)]++
		}
	}
	listed := map[string]bool{}
	for _, e := range c.Tags().Vocabulary() {
		listed[normalize.Fold(e.Name)] = true
		assert.Equal(t, counts[normalize.Fold(e.Name)], e.UsageCount, "usage of %q", e.Name)
	}
	for folded, n := range counts {
		assert.True(t, listed[folded], "%q is used but missing from the vocabulary", folded)
		assert.Equal(t, n, c.Tags().TagUsage(folded), "usage of %q", folded)
	}
}

func TestImport_CleansItemTags(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		mode  ImportMode
		local []string
		want  []string
		vocab []string
	}{
		{"overwrite", ImportModeOverwrite, nil, []string{"a", "b"}, []string{"a", "b"}},
		{"merge", ImportModeMerge, []string{"a"}, []string{"a", "b"}, []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := newCatalog(t, "loc")
			if tt.local != nil {
				_, err := dst.AddItem(ctx, catalog.NewItem{FreeTags: tt.local})
				require.NoError(t, err)
			}

			snap := &domain.Snapshot{
				Version: domain.SnapshotVersion,
				Items: []*domain.MediaItem{
					{ID: "med-dirty", FreeTags: []string{"a", "A", "  b  ", " "}},
				},
				Tags: []string{"a"},
			}

			_, err := NewImporter(dst, testLogger()).Import(ctx, snap, tt.mode)
			require.NoError(t, err)

			it, err := dst.Item("med-dirty")
			require.NoError(t, err)
			assert.Equal(t, tt.want, it.FreeTags)
			assert.Equal(t, tt.vocab, names(dst.Tags().Vocabulary()))
			assert.Equal(t, 1, dst.Tags().TagUsage("b"))
			usageConsistent(t, dst)
		})
	}
}

func TestImport_Rejects(t *testing.T) {
	valid := func() *domain.Snapshot {
		return &domain.Snapshot{
			Version: domain.SnapshotVersion,
			Items:   []*domain.MediaItem{{ID: "med-1"}},
		}
	}

	tests := []struct {
		name     string
		mutate   func(s *domain.Snapshot)
		mode     ImportMode
		sentinel error
	}{
		{"future version", func(s *domain.Snapshot) { s.Version = 3 }, ImportModeMerge, ErrVersionMismatch},
		{"zero version", func(s *domain.Snapshot) { s.Version = 0 }, ImportModeMerge, ErrVersionMismatch},
		{"duplicate ids", func(s *domain.Snapshot) {
			s.Items = append(s.Items, &domain.MediaItem{ID: "med-1"})
		}, ImportModeMerge, ErrCorruptedBackup},
		{"category under wrong key", func(s *domain.Snapshot) {
			s.Categories = map[string]*domain.Category{"a": {Key: "b", Label: "B", Values: []string{"x"}}}
		}, ImportModeOverwrite, ErrCorruptedBackup},
		{"missing item id", func(s *domain.Snapshot) { s.Items[0].ID = "" }, ImportModeMerge, nil},
		{"category without values", func(s *domain.Snapshot) {
			s.Categories = map[string]*domain.Category{"a": {Label: "A"}}
		}, ImportModeMerge, nil},
		{"unknown mode", func(*domain.Snapshot) {}, ImportMode("append"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := newCatalog(t, "med")
			snap := valid()
			tt.mutate(snap)

			_, err := NewImporter(dst, testLogger()).Import(context.Background(), snap, tt.mode)
			require.Error(t, err)
			assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			}
			assert.Zero(t, dst.Count())
		})
	}
}

func TestReadArchive_Corrupt(t *testing.T) {
	build := func(t *testing.T, files map[string]string) []byte {
		t.Helper()
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		for name, body := range files {
			w, err := zw.Create(name)
			require.NoError(t, err)
			_, err = io.WriteString(w, body)
			require.NoError(t, err)
		}
		require.NoError(t, zw.Close())
		return buf.Bytes()
	}

	manifest := `{"version":"1.0","snapshot_version":2,"counts":{"items":2,"tags":0,"categories":0}}`
	entities := map[string]string{
		itemsPath:      `{"id":"med-1"}` + "\n",
		tagsPath:       "",
		categoriesPath: "",
	}

	tests := []struct {
		name     string
		data     []byte
		sentinel error
	}{
		{"not a zip", []byte("plain text"), ErrCorruptedBackup},
		{"no manifest", build(t, entities), ErrInvalidManifest},
		{"wrong format version", build(t, map[string]string{
			manifestPath: `{"version":"9.0","snapshot_version":2}`,
		}), ErrVersionMismatch},
		{"count mismatch", build(t, map[string]string{
			manifestPath:   manifest,
			itemsPath:      entities[itemsPath],
			tagsPath:       "",
			categoriesPath: "",
		}), ErrCorruptedBackup},
		{"missing entity file", build(t, map[string]string{
			manifestPath: manifest,
			itemsPath:    entities[itemsPath],
		}), ErrCorruptedBackup},
		{"bad line", build(t, map[string]string{
			manifestPath:   manifest,
			itemsPath:      `{"id":"med-1"}` + "\n{oops\n",
			tagsPath:       "",
			categoriesPath: "",
		}), ErrCorruptedBackup},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadArchive(bytes.NewReader(tt.data), int64(len(tt.data)))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel), "got %v", err)
			assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
		})
	}
}

func TestReadJSON_Corrupt(t *testing.T) {
	_, err := ReadJSON(bytes.NewBufferString(`{"version":`))
	assert.ErrorIs(t, err, ErrCorruptedBackup)
}

func TestExportArchive_ManifestCounts(t *testing.T) {
	src := newCatalog(t, "med")
	populate(t, src)

	var buf bytes.Buffer
	archiveID, err := NewExporter(src, testLogger()).ExportArchive(context.Background(), &buf)
	require.NoError(t, err)
	assert.Regexp(t, `^bak-`, archiveID)

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	rc, err := zr.Open(manifestPath)
	require.NoError(t, err)
	defer rc.Close()
	var m Manifest
	require.NoError(t, json.NewDecoder(rc).Decode(&m))

	assert.Equal(t, FormatVersion, m.Version)
	assert.Equal(t, archiveID, m.ArchiveID)
	assert.Equal(t, EntityCounts{Items: 3, Tags: 4, Categories: 2}, m.Counts)
	assert.Equal(t, domain.SnapshotVersion, m.SnapshotVersion)
}
