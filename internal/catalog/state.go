package catalog

import (
	"maps"
	"slices"
	"strings"

	"github.com/tagshelf/tagshelf/internal/domain"
	"github.com/tagshelf/tagshelf/internal/normalize"
)

// State is the in-memory catalog. Only the Catalog mutates it, always after
// the matching write reached storage.
//
// Items are never modified in place: a mutation stores a new clone, so
// slices handed out by readers stay valid.
type State struct {
	items []*domain.MediaItem // ordered by ID
	byID  map[string]*domain.MediaItem

	vocab []*domain.TagRecord // sorted by name
	usage map[string]int      // folded tag -> item count

	recent     []string
	categories map[string]*domain.Category
	search     domain.SearchState
}

func newState() *State {
	return &State{
		byID:       map[string]*domain.MediaItem{},
		usage:      map[string]int{},
		recent:     []string{},
		categories: map[string]*domain.Category{},
		search:     domain.DefaultSearchState(),
	}
}

func compareID(a *domain.MediaItem, id string) int {
	return strings.Compare(a.ID, id)
}

// putItem inserts or replaces an item and adjusts usage counts.
func (s *State) putItem(it *domain.MediaItem) {
	if old, ok := s.byID[it.ID]; ok {
		s.countTags(old.FreeTags, -1)
		i, _ := slices.BinarySearchFunc(s.items, it.ID, compareID)
		s.items[i] = it
	} else {
		i, _ := slices.BinarySearchFunc(s.items, it.ID, compareID)
		s.items = slices.Insert(s.items, i, it)
	}
	s.byID[it.ID] = it
	s.countTags(it.FreeTags, 1)
}

// removeItem drops an item and decrements its tag usage.
func (s *State) removeItem(id string) {
	old, ok := s.byID[id]
	if !ok {
		return
	}
	s.countTags(old.FreeTags, -1)
	delete(s.byID, id)
	if i, found := slices.BinarySearchFunc(s.items, id, compareID); found {
		s.items = slices.Delete(s.items, i, i+1)
	}
}

func (s *State) countTags(tags []string, delta int) {
	for _, t := range tags {
		k := normalize.Fold(t)
		s.usage[k] += delta
		if s.usage[k] <= 0 {
			delete(s.usage, k)
		}
	}
}

func (s *State) usageOf(tag string) int {
	return s.usage[normalize.Fold(tag)]
}

// vocabIndex finds the vocabulary entry matching name under policy, or -1.
func (s *State) vocabIndex(name string, policy normalize.Policy) int {
	return slices.IndexFunc(s.vocab, func(r *domain.TagRecord) bool {
		return policy.Match(r.Name, name)
	})
}

func (s *State) vocabNames() []string {
	names := make([]string, len(s.vocab))
	for i, r := range s.vocab {
		names[i] = r.Name
	}
	return names
}

// withVocab returns a sorted copy of vocab with recs added.
func withVocab(vocab []*domain.TagRecord, recs ...*domain.TagRecord) []*domain.TagRecord {
	out := slices.Concat(vocab, recs)
	slices.SortStableFunc(out, func(a, b *domain.TagRecord) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// withoutVocab returns a copy of vocab minus every spelling of name under
// case folding. keep, when not nil, survives.
func withoutVocab(vocab []*domain.TagRecord, name string, keep *domain.TagRecord) []*domain.TagRecord {
	return slices.DeleteFunc(slices.Clone(vocab), func(r *domain.TagRecord) bool {
		return r != keep && normalize.EqualFold(r.Name, name)
	})
}

// pushRecent returns recent with tag moved to the front, trimmed to
// domain.MaxRecentTags.
func pushRecent(recent []string, tag string) []string {
	out := make([]string, 0, domain.MaxRecentTags)
	out = append(out, tag)
	for _, r := range recent {
		if len(out) == domain.MaxRecentTags {
			break
		}
		if !normalize.EqualFold(r, tag) {
			out = append(out, r)
		}
	}
	return out
}

// replaceTag returns tags with every entry equal to from under folding
// replaced by to, deduplicated.
func replaceTag(tags []string, from, to string) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		if normalize.EqualFold(t, from) {
			out[i] = to
		} else {
			out[i] = t
		}
	}
	return normalize.DedupeFold(out)
}

// removeTag returns tags without entries equal to tag under folding.
func removeTag(tags []string, tag string) []string {
	return slices.DeleteFunc(slices.Clone(tags), func(t string) bool {
		return normalize.EqualFold(t, tag)
	})
}

func (s *State) sortedCategories() []*domain.Category {
	cats := make([]*domain.Category, 0, len(s.categories))
	for _, k := range slices.Sorted(maps.Keys(s.categories)) {
		cats = append(cats, s.categories[k].Clone())
	}
	domain.SortCategories(cats)
	return cats
}

func (s *State) nextPosition() int {
	pos := 0
	for _, c := range s.categories {
		pos = max(pos, c.Position+1)
	}
	return pos
}
