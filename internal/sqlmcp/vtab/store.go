package vtab

import (
	"fmt"
	"io"
	"sync"
)

// RelationStore holds the ephemeral relations backing cached tables.
type RelationStore interface {
	CreateRelation(name string, columns []string) error
	InsertRow(name string, values []any) error
	// ScanRelation opens a forward scan in insertion order.
	ScanRelation(name string) (RowScanner, error)
	DropRelation(name string) error
}

// RowScanner is a forward-only scan over a relation.
type RowScanner interface {
	// Next fills dest with the next row, or returns io.EOF.
	Next(dest []any) error
	Close() error
}

// MemoryStore is an in-process RelationStore.
type MemoryStore struct {
	mu        sync.RWMutex
	relations map[string]*memRelation
}

type memRelation struct {
	columns []string
	rows    [][]any
}

var _ RelationStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{relations: make(map[string]*memRelation)}
}

func (s *MemoryStore) CreateRelation(name string, columns []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.relations[name]; ok {
		return fmt.Errorf("%w: %s", ErrRelationExists, name)
	}
	s.relations[name] = &memRelation{columns: append([]string(nil), columns...)}
	return nil
}

func (s *MemoryStore) InsertRow(name string, values []any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rel, ok := s.relations[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSuchRelation, name)
	}
	if len(values) != len(rel.columns) {
		return fmt.Errorf("relation %s has %d columns, got %d values", name, len(rel.columns), len(values))
	}
	rel.rows = append(rel.rows, append([]any(nil), values...))
	return nil
}

func (s *MemoryStore) ScanRelation(name string) (RowScanner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rel, ok := s.relations[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchRelation, name)
	}
	return &memScanner{rows: rel.rows}, nil
}

func (s *MemoryStore) DropRelation(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.relations, name)
	return nil
}

// Relations returns the names of the live relations.
func (s *MemoryStore) Relations() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.relations))
	for name := range s.relations {
		names = append(names, name)
	}
	return names
}

type memScanner struct {
	rows [][]any
	pos  int
}

func (m *memScanner) Next(dest []any) error {
	if m.rows == nil || m.pos >= len(m.rows) {
		return io.EOF
	}
	copy(dest, m.rows[m.pos])
	m.pos++
	return nil
}

func (m *memScanner) Close() error {
	m.rows = nil
	return nil
}
