package store

import (
	"context"

	"github.com/tagshelf/tagshelf/internal/metrics"
)

// Instrumented records Prometheus metrics for every call to the wrapped Store.
type Instrumented struct {
	next Store
}

// Instrument wraps s with metrics.
func Instrument(s Store) *Instrumented {
	metrics.StorageBackend.WithLabelValues(s.Backend()).Set(1)
	return &Instrumented{next: s}
}

// Unwrap returns the wrapped Store.
func (s *Instrumented) Unwrap() Store {
	return s.next
}

func (s *Instrumented) observe(op string, t metrics.Timer, err error) {
	backend := s.next.Backend()
	metrics.StorageOpDuration.WithLabelValues(backend, op).Observe(t.Seconds())
	metrics.StorageOpsTotal.WithLabelValues(backend, op, metrics.Status(err)).Inc()
}

// GetAll implements Store.
func (s *Instrumented) GetAll(ctx context.Context, collection string) ([]Record, error) {
	t := metrics.NewTimer()
	recs, err := s.next.GetAll(ctx, collection)
	s.observe("get_all", t, err)
	return recs, err
}

// Get implements Store. A missing key is not counted as an error.
func (s *Instrumented) Get(ctx context.Context, collection, key string) (Record, error) {
	t := metrics.NewTimer()
	rec, err := s.next.Get(ctx, collection, key)
	if IsStorageError(err) {
		s.observe("get", t, err)
	} else {
		s.observe("get", t, nil)
	}
	return rec, err
}

// Put implements Store.
func (s *Instrumented) Put(ctx context.Context, collection string, rec Record) error {
	t := metrics.NewTimer()
	err := s.next.Put(ctx, collection, rec)
	s.observe("put", t, err)
	return err
}

// Delete implements Store.
func (s *Instrumented) Delete(ctx context.Context, collection, key string) error {
	t := metrics.NewTimer()
	err := s.next.Delete(ctx, collection, key)
	s.observe("delete", t, err)
	return err
}

// ReplaceAll implements Store.
func (s *Instrumented) ReplaceAll(ctx context.Context, collection string, recs []Record) error {
	t := metrics.NewTimer()
	err := s.next.ReplaceAll(ctx, collection, recs)
	s.observe("replace_all", t, err)
	return err
}

// ClearAll implements Store.
func (s *Instrumented) ClearAll(ctx context.Context) error {
	t := metrics.NewTimer()
	err := s.next.ClearAll(ctx)
	s.observe("clear_all", t, err)
	return err
}

// Backend implements Store.
func (s *Instrumented) Backend() string {
	return s.next.Backend()
}

// Close implements Store.
func (s *Instrumented) Close() error {
	metrics.StorageBackend.WithLabelValues(s.next.Backend()).Set(0)
	return s.next.Close()
}
