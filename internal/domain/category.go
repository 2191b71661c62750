package domain

import (
	"slices"
	"time"
)

// Category is a structured tag category: a fixed list of allowed values with
// single- or multi-select cardinality. Key is derived from the label at
// creation and never changes.
type Category struct {
	Key       string    `json:"key" validate:"required"`
	Label     string    `json:"label" validate:"required"`
	Values    []string  `json:"values" validate:"required,min=1"`
	Multi     bool      `json:"multi"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// Allows reports whether v is in the category's current allowed list.
func (c *Category) Allows(v string) bool {
	return slices.Contains(c.Values, v)
}

// Clone returns a copy that does not share the values slice.
func (c *Category) Clone() *Category {
	cc := *c
	cc.Values = slices.Clone(c.Values)
	return &cc
}

// SortCategories orders categories for display: by position, then key.
func SortCategories(cats []*Category) {
	slices.SortFunc(cats, func(a, b *Category) int {
		if a.Position != b.Position {
			return a.Position - b.Position
		}
		if a.Key < b.Key {
			return -1
		}
		if a.Key > b.Key {
			return 1
		}
		return 0
	})
}
