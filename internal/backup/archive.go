package backup

import (
	"archive/zip"
	"encoding/json"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/tagshelf/tagshelf/internal/backup/stream"
	"github.com/tagshelf/tagshelf/internal/domain"
	"github.com/tagshelf/tagshelf/internal/metrics"
)

// WriteJSON writes snap as one JSON document.
func WriteJSON(w io.Writer, snap *domain.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return err
	}
	countRecords("export", snap)
	return nil
}

// ReadJSON parses a single JSON document export.
func ReadJSON(r io.Reader) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, invalid(ErrCorruptedBackup, "decode export: %v", err)
	}
	return &snap, nil
}

// WriteArchive writes snap as a zip archive: a manifest plus one JSONL file
// per entity type.
func WriteArchive(w io.Writer, snap *domain.Snapshot, archiveID string) error {
	zw := zip.NewWriter(w)

	manifest := Manifest{
		Version:         FormatVersion,
		SnapshotVersion: snap.Version,
		ArchiveID:       archiveID,
		CreatedAt:       time.Now().UTC(),
		ExportedAt:      snap.ExportedAt,
		Counts: EntityCounts{
			Items:      len(snap.Items),
			Tags:       len(snap.Tags),
			Categories: len(snap.Categories),
		},
		Recent: snap.Recent,
	}
	if err := stream.WriteJSON(zw, manifestPath, manifest); err != nil {
		return err
	}

	items, err := stream.NewWriter[*domain.MediaItem](zw, itemsPath)
	if err != nil {
		return err
	}
	if err := items.WriteAll(snap.Items); err != nil {
		return err
	}

	tags, err := stream.NewWriter[tagLine](zw, tagsPath)
	if err != nil {
		return err
	}
	for _, name := range snap.Tags {
		if err := tags.Write(tagLine{Name: name}); err != nil {
			return err
		}
	}

	cats, err := stream.NewWriter[*domain.Category](zw, categoriesPath)
	if err != nil {
		return err
	}
	for _, key := range slices.Sorted(maps.Keys(snap.Categories)) {
		if err := cats.Write(snap.Categories[key]); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return err
	}
	countRecords("export", snap)
	return nil
}

// ReadArchive parses a zip archive written by WriteArchive. Entity counts
// must match the manifest.
func ReadArchive(r io.ReaderAt, size int64) (*domain.Snapshot, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, invalid(ErrCorruptedBackup, "open archive: %v", err)
	}

	var manifest Manifest
	if err := stream.ReadJSON(zr, manifestPath, &manifest); err != nil {
		return nil, invalid(ErrInvalidManifest, "read manifest: %v", err)
	}
	if manifest.Version != FormatVersion {
		return nil, invalid(ErrVersionMismatch, "unsupported archive version %s (want %s)", manifest.Version, FormatVersion)
	}

	snap := &domain.Snapshot{
		Version:    manifest.SnapshotVersion,
		ExportedAt: manifest.ExportedAt,
		Recent:     manifest.Recent,
		Categories: map[string]*domain.Category{},
	}

	snap.Items, err = readEntities[*domain.MediaItem](zr, itemsPath)
	if err != nil {
		return nil, err
	}

	tags, err := readEntities[tagLine](zr, tagsPath)
	if err != nil {
		return nil, err
	}
	for _, t := range tags {
		snap.Tags = append(snap.Tags, t.Name)
	}

	cats, err := readEntities[*domain.Category](zr, categoriesPath)
	if err != nil {
		return nil, err
	}
	for _, cat := range cats {
		snap.Categories[cat.Key] = cat
	}

	got := EntityCounts{Items: len(snap.Items), Tags: len(snap.Tags), Categories: len(snap.Categories)}
	if got != manifest.Counts {
		return nil, invalid(ErrCorruptedBackup, "archive holds %+v, manifest declares %+v", got, manifest.Counts)
	}
	return snap, nil
}

func readEntities[T any](zr *zip.Reader, path string) ([]T, error) {
	rc, err := stream.OpenFile(zr, path)
	if err != nil {
		return nil, invalid(ErrCorruptedBackup, "%v", err)
	}
	out, err := stream.NewReader[T](rc).Collect()
	if err != nil {
		return nil, invalid(ErrCorruptedBackup, "%s: %v", path, err)
	}
	return out, nil
}

func countRecords(direction string, snap *domain.Snapshot) {
	metrics.BackupRecordsTotal.WithLabelValues(direction, "items").Add(float64(len(snap.Items)))
	metrics.BackupRecordsTotal.WithLabelValues(direction, "tags").Add(float64(len(snap.Tags)))
	metrics.BackupRecordsTotal.WithLabelValues(direction, "categories").Add(float64(len(snap.Categories)))
}
