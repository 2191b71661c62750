package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// StructuredValue is an item's answer for one structured category.
// Single-select categories hold at most one value and serialize as a string
// or null. Multi-select categories hold a set and serialize as an array.
type StructuredValue struct {
	Multi  bool
	Value  string
	Values []string
}

// SingleValue returns a single-select value. An empty string is the empty answer.
func SingleValue(v string) StructuredValue {
	return StructuredValue{Value: v}
}

// MultiValue returns a multi-select value with duplicates removed.
func MultiValue(vs ...string) StructuredValue {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return StructuredValue{Multi: true, Values: out}
}

// EmptyValue returns the empty answer for the given cardinality:
// null for single-select, an empty set for multi-select.
func EmptyValue(multi bool) StructuredValue {
	if multi {
		return StructuredValue{Multi: true, Values: []string{}}
	}
	return StructuredValue{}
}

// IsEmpty reports whether the value holds no answer.
func (v StructuredValue) IsEmpty() bool {
	if v.Multi {
		return len(v.Values) == 0
	}
	return v.Value == ""
}

// Flatten returns every answer the value holds, regardless of shape.
func (v StructuredValue) Flatten() []string {
	if v.Multi {
		return v.Values
	}
	if v.Value == "" {
		return nil
	}
	return []string{v.Value}
}

// Clone returns a copy that does not share the values slice.
func (v StructuredValue) Clone() StructuredValue {
	v.Values = slices.Clone(v.Values)
	return v
}

// MarshalJSON implements json.Marshaler.
func (v StructuredValue) MarshalJSON() ([]byte, error) {
	if v.Multi {
		if v.Values == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.Values)
	}
	if v.Value == "" {
		return []byte("null"), nil
	}
	return json.Marshal(v.Value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *StructuredValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = StructuredValue{}
		return nil
	case len(data) > 0 && data[0] == '[':
		var vs []string
		if err := json.Unmarshal(data, &vs); err != nil {
			return fmt.Errorf("structured value: %w", err)
		}
		*v = MultiValue(vs...)
		return nil
	default:
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("structured value: %w", err)
		}
		*v = SingleValue(s)
		return nil
	}
}
