package backup

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/tagshelf/tagshelf/internal/catalog"
	"github.com/tagshelf/tagshelf/internal/domain"
	domainerrors "github.com/tagshelf/tagshelf/internal/errors"
	"github.com/tagshelf/tagshelf/internal/id"
	"github.com/tagshelf/tagshelf/internal/normalize"
	"github.com/tagshelf/tagshelf/internal/store"
	"github.com/tagshelf/tagshelf/internal/validation"
)

// metaRecent is the meta key the catalog keeps its recent list under.
const metaRecent = "recent"

// Importer loads snapshots into a catalog.
type Importer struct {
	catalog   *catalog.Catalog
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
}

// NewImporter creates an Importer.
func NewImporter(c *catalog.Catalog, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		catalog:   c,
		validator: validation.New(),
		logger:    logger,
		now:       time.Now,
	}
}

// Import loads snap into the catalog.
//
// Overwrite clears every collection and stores the snapshot verbatim.
// Merge unions the snapshot with the catalog: local items win on ID
// collisions, vocabularies are unioned and incoming categories replace
// local ones with the same key. The catalog is reloaded afterwards in
// both modes, including after a failed write.
func (im *Importer) Import(ctx context.Context, snap *domain.Snapshot, mode ImportMode) (*ImportResult, error) {
	if !mode.Valid() {
		return nil, domainerrors.Validationf("unknown import mode %q", mode)
	}
	if err := im.check(snap); err != nil {
		return nil, err
	}

	importID, err := id.Generate("imp")
	if err != nil {
		return nil, err
	}
	start := time.Now()
	log := im.logger.With("import_id", importID, "mode", mode)
	log.Info("import started", "items", len(snap.Items), "tags", len(snap.Tags), "categories", len(snap.Categories))

	result := &ImportResult{ImportID: importID, Mode: mode}
	err = im.catalog.Rewrite(ctx, func(ctx context.Context, s store.Store) error {
		if mode == ImportModeOverwrite {
			return im.overwrite(ctx, s, snap, result)
		}
		return im.merge(ctx, s, snap, result)
	})
	result.Duration = time.Since(start)
	if err != nil {
		log.Error("import failed", "error", err, "duration", result.Duration)
		return nil, err
	}

	countRecords("import", snap)
	log.Info("import complete",
		"imported", result.Imported,
		"skipped", result.Skipped,
		"duration", result.Duration,
	)
	return result, nil
}

// check validates snap and repairs what it can: category keys missing from
// the records are filled, item tags are cleaned the way the catalog cleans
// them and tags in use but absent from the vocabulary are added to it.
func (im *Importer) check(snap *domain.Snapshot) error {
	if snap == nil {
		return invalid(ErrCorruptedBackup, "empty export")
	}
	if snap.Version < 1 || snap.Version > domain.SnapshotVersion {
		return invalid(ErrVersionMismatch, "unsupported export version %d (want 1 to %d)", snap.Version, domain.SnapshotVersion)
	}

	for key, cat := range snap.Categories {
		if cat == nil {
			continue
		}
		switch cat.Key {
		case "":
			cat.Key = key
		case key:
		default:
			return invalid(ErrCorruptedBackup, "category %q is stored under key %q", cat.Key, key)
		}
	}

	if err := im.validator.Validate(snap); err != nil {
		return err
	}

	seen := make(map[string]bool, len(snap.Items))
	for _, it := range snap.Items {
		if seen[it.ID] {
			return invalid(ErrCorruptedBackup, "duplicate item id %q", it.ID)
		}
		seen[it.ID] = true

		tags := make([]string, 0, len(it.FreeTags))
		for _, t := range it.FreeTags {
			tags = append(tags, normalize.TagName(t))
		}
		it.FreeTags = normalize.DedupeFold(tags)
		for _, t := range it.FreeTags {
			if normalize.IndexFold(snap.Tags, t) < 0 {
				snap.Tags = append(snap.Tags, t)
			}
		}
	}
	return nil
}

func (im *Importer) overwrite(ctx context.Context, s store.Store, snap *domain.Snapshot, result *ImportResult) error {
	if err := s.ClearAll(ctx); err != nil {
		return err
	}

	vocab := im.vocabulary(nil, snap.Tags)
	cats := categoryList(snap.Categories)

	if err := store.Items(s).ReplaceAll(ctx, snap.Items); err != nil {
		return err
	}
	if err := store.Tags(s).ReplaceAll(ctx, vocab); err != nil {
		return err
	}
	if err := store.Categories(s).ReplaceAll(ctx, cats); err != nil {
		return err
	}
	if len(snap.Recent) > 0 {
		if err := store.PutJSON(ctx, s, store.CollectionMeta, metaRecent, snap.Recent); err != nil {
			return err
		}
	}

	result.Imported = EntityCounts{Items: len(snap.Items), Tags: len(vocab), Categories: len(cats)}
	result.Skipped = EntityCounts{Tags: len(snap.Tags) - len(vocab)}
	return nil
}

func (im *Importer) merge(ctx context.Context, s store.Store, snap *domain.Snapshot, result *ImportResult) error {
	items, err := store.Items(s).List(ctx)
	if err != nil {
		return err
	}
	local, err := store.Tags(s).List(ctx)
	if err != nil {
		return err
	}
	cats, err := store.Categories(s).List(ctx)
	if err != nil {
		return err
	}

	known := make(map[string]bool, len(items))
	for _, it := range items {
		known[it.ID] = true
	}
	for _, it := range snap.Items {
		if known[it.ID] {
			result.Skipped.Items++
			continue
		}
		items = append(items, it)
		result.Imported.Items++
	}

	vocab := im.vocabulary(local, snap.Tags)
	result.Imported.Tags = len(vocab) - len(local)
	result.Skipped.Tags = len(snap.Tags) - result.Imported.Tags

	byKey := make(map[string]*domain.Category, len(cats)+len(snap.Categories))
	for _, cat := range cats {
		byKey[cat.Key] = cat
	}
	for key, cat := range snap.Categories {
		byKey[key] = cat
		result.Imported.Categories++
	}

	if err := store.Items(s).ReplaceAll(ctx, items); err != nil {
		return err
	}
	if err := store.Tags(s).ReplaceAll(ctx, vocab); err != nil {
		return err
	}
	return store.Categories(s).ReplaceAll(ctx, categoryList(byKey))
}

// vocabulary returns local plus a record for every incoming name the
// catalog's policy does not already know. Blank names are dropped.
func (im *Importer) vocabulary(local []*domain.TagRecord, names []string) []*domain.TagRecord {
	policy := im.catalog.Policy()
	now := im.now()
	out := slices.Clone(local)
	for _, name := range names {
		name = normalize.TagName(name)
		if name == "" {
			continue
		}
		if slices.ContainsFunc(out, func(r *domain.TagRecord) bool { return policy.Match(r.Name, name) }) {
			continue
		}
		out = append(out, &domain.TagRecord{Name: name, CreatedAt: now})
	}
	return out
}

func categoryList(m map[string]*domain.Category) []*domain.Category {
	out := make([]*domain.Category, 0, len(m))
	for _, cat := range m {
		out = append(out, cat)
	}
	domain.SortCategories(out)
	return out
}
