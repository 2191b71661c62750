// Package query evaluates catalog searches.
//
// Run is a pure function: it never mutates its inputs and its result depends
// only on its arguments. Three filters are ANDed together and then the
// survivors are stably sorted by creation time:
//
//  1. structured: for every schema category with a non-empty filter, a
//     multi-select category must share a value with the filter and a
//     single-select category must equal the selected value. Filter keys that
//     are not in the schema are ignored.
//  2. free tags: AND keeps supersets of the filter, OR keeps intersections.
//     Comparison ignores case.
//  3. text: every whitespace-separated term must occur, ignoring case, in a
//     free tag, the memo, or a structured value of the item.
//
// An empty filter matches everything for its own pass only.
package query

import (
	"slices"
	"strings"

	"github.com/tagshelf/tagshelf/internal/domain"
	"github.com/tagshelf/tagshelf/internal/metrics"
	"github.com/tagshelf/tagshelf/internal/normalize"
)

// Run filters and sorts items.
func Run(items []*domain.MediaItem, schema map[string]*domain.Category, state domain.SearchState) []*domain.MediaItem {
	t := metrics.NewTimer()
	p := compile(schema, state.WithDefaults())

	out := make([]*domain.MediaItem, 0, len(items))
	for _, item := range items {
		if p.match(item) {
			out = append(out, item)
		}
	}

	Sort(out, state.Sort)

	metrics.QueryDuration.Observe(t.Seconds())
	metrics.QueryResults.Observe(float64(len(out)))
	return out
}

// Sort orders items by creation time in place. The sort is stable so items
// created at the same instant keep their relative order.
func Sort(items []*domain.MediaItem, order domain.SortOrder) {
	if order == domain.SortOldest {
		slices.SortStableFunc(items, func(a, b *domain.MediaItem) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		})
		return
	}
	slices.SortStableFunc(items, func(a, b *domain.MediaItem) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

type structuredFilter struct {
	key    string
	multi  bool
	values []string
}

// plan is a search compiled once per Run.
type plan struct {
	structured []structuredFilter
	tags       []string // folded
	mode       domain.FilterMode
	terms      []string // folded
}

func compile(schema map[string]*domain.Category, state domain.SearchState) *plan {
	p := &plan{mode: state.Mode}

	for _, key := range state.StructuredKeys() {
		cat, ok := schema[key]
		if !ok {
			continue
		}
		values := slices.DeleteFunc(slices.Clone(state.Structured[key]), func(v string) bool { return v == "" })
		if len(values) == 0 {
			continue
		}
		p.structured = append(p.structured, structuredFilter{
			key:    key,
			multi:  cat.Multi,
			values: values,
		})
	}

	for _, tag := range normalize.DedupeFold(state.Tags) {
		p.tags = append(p.tags, normalize.Fold(tag))
	}

	p.terms = normalize.Terms(state.Text)
	return p
}

func (p *plan) match(item *domain.MediaItem) bool {
	return p.matchStructured(item) && p.matchTags(item) && p.matchText(item)
}

func (p *plan) matchStructured(item *domain.MediaItem) bool {
	for _, f := range p.structured {
		v, ok := item.StructuredTags[f.key]
		if !ok {
			return false
		}
		// Flatten tolerates items still holding the shape of an earlier
		// cardinality.
		got := v.Flatten()
		if f.multi {
			if !slices.ContainsFunc(got, func(g string) bool { return slices.Contains(f.values, g) }) {
				return false
			}
			continue
		}
		if len(got) != 1 || got[0] != f.values[0] {
			return false
		}
	}
	return true
}

func (p *plan) matchTags(item *domain.MediaItem) bool {
	if len(p.tags) == 0 {
		return true
	}

	have := make(map[string]struct{}, len(item.FreeTags))
	for _, t := range item.FreeTags {
		have[normalize.Fold(t)] = struct{}{}
	}

	if p.mode == domain.FilterOr {
		for _, t := range p.tags {
			if _, ok := have[t]; ok {
				return true
			}
		}
		return false
	}

	for _, t := range p.tags {
		if _, ok := have[t]; !ok {
			return false
		}
	}
	return true
}

func (p *plan) matchText(item *domain.MediaItem) bool {
	if len(p.terms) == 0 {
		return true
	}

	fields := make([]string, 0, len(item.FreeTags)+len(item.StructuredTags)+1)
	for _, t := range item.FreeTags {
		fields = append(fields, normalize.Fold(t))
	}
	fields = append(fields, normalize.Fold(item.Memo))
	for _, key := range item.StructuredKeys() {
		for _, v := range item.StructuredTags[key].Flatten() {
			fields = append(fields, normalize.Fold(v))
		}
	}

	for _, term := range p.terms {
		if !slices.ContainsFunc(fields, func(f string) bool { return strings.Contains(f, term) }) {
			return false
		}
	}
	return true
}
