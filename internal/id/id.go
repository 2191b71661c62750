// Package id generates prefixed identifiers.
package id

import (
	"fmt"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Generate creates a prefixed NanoID.
// Format: prefix-nanoid (e.g., "imp-V1StGXR8_Z5jdHi6B-myT").
//
// Used for identifiers that carry no ordering, such as import runs and
// archive names.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// Ordered creates a prefixed UUIDv7.
// Format: prefix-uuid (e.g., "med-01912f4e-8a3c-7d2e-9b1a-3c4d5e6f7a8b").
//
// UUIDv7 strings sort in creation order, so storage key order matches
// insertion order.
func Ordered(prefix string) (string, error) {
	u, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuidv7: %w", err)
	}
	return prefix + "-" + u.String(), nil
}
