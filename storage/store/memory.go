package store

import (
	"context"
	"errors"
	"sync"
)

// MemoryStore is an in-process Store used in tests. It mimics the
// schema-first contract of the real store: inserts before
// EnsureSchema fail.
type MemoryStore struct {
	mu          sync.Mutex
	schemaReady bool
	rows        []*StoredRow
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// EnsureSchema implements the Store interface.
func (s *MemoryStore) EnsureSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemaReady = true
	return nil
}

// InsertRow implements the Store interface.
func (s *MemoryStore) InsertRow(ctx context.Context, row *StoredRow) error {
	return s.InsertRows(ctx, []*StoredRow{row})
}

// InsertRows implements the Store interface.
func (s *MemoryStore) InsertRows(ctx context.Context, rows []*StoredRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.schemaReady {
		return errors.New("schema has not been ensured")
	}
	s.rows = append(s.rows, rows...)
	return nil
}

// CountRows implements the Store interface.
func (s *MemoryStore) CountRows(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.rows)), nil
}

// CountByType implements the Store interface.
func (s *MemoryStore) CountByType(ctx context.Context) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[string]int64)
	for _, row := range s.rows {
		counts[row.LogType]++
	}
	return counts, nil
}

// Rows returns a copy of everything stored so far.
func (s *MemoryStore) Rows() []*StoredRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*StoredRow, len(s.rows))
	copy(out, s.rows)
	return out
}

// Close implements the Store interface.
func (s *MemoryStore) Close() {}

var _ Store = (*MemoryStore)(nil)
