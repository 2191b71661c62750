// Package stream provides JSONL streaming to/from zip archives.
package stream

import (
	"archive/zip"
	"encoding/json"
	"io"
)

// Writer streams entities as JSONL to a zip archive.
type Writer[T any] struct {
	w     io.Writer
	enc   *json.Encoder
	count int
}

// NewWriter creates a JSONL writer for a path within the zip.
func NewWriter[T any](zw *zip.Writer, path string) (*Writer[T], error) {
	w, err := zw.Create(path)
	if err != nil {
		return nil, err
	}
	return &Writer[T]{w: w, enc: json.NewEncoder(w)}, nil
}

// Write encodes a single entity as a JSON line.
func (w *Writer[T]) Write(entity T) error {
	// Encode terminates every value with a newline.
	if err := w.enc.Encode(entity); err != nil {
		return err
	}
	w.count++
	return nil
}

// WriteAll writes every entity in order.
func (w *Writer[T]) WriteAll(entities []T) error {
	for _, e := range entities {
		if err := w.Write(e); err != nil {
			return err
		}
	}
	return nil
}

// Count returns entities written so far.
func (w *Writer[T]) Count() int {
	return w.count
}

// WriteJSON stores v as a single indented JSON document at path.
func WriteJSON(zw *zip.Writer, path string, v any) error {
	w, err := zw.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
