package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps records in a mutex-guarded map. It is the default
// backend and the one integration tests run against.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

// Save stores a deep copy of the record, stamping CreatedAt on first save
// and UpdatedAt on every save.
func (s *MemoryStore) Save(ctx context.Context, record *Record) error {
	if record.SessionID == "" {
		return fmt.Errorf("record has no session ID")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := clone(record)
	copied.UpdatedAt = time.Now().UTC()
	if existing, ok := s.records[record.SessionID]; ok {
		copied.CreatedAt = existing.CreatedAt
	} else if copied.CreatedAt.IsZero() {
		copied.CreatedAt = copied.UpdatedAt
	}
	s.records[record.SessionID] = copied
	return nil
}

// Load returns a deep copy of the stored record, or ErrNotFound.
func (s *MemoryStore) Load(ctx context.Context, sessionID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %q: %w", sessionID, ErrNotFound)
	}
	return clone(record), nil
}

// List returns all stored session IDs in lexical order.
func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close is a no-op for the in-memory backend.
func (s *MemoryStore) Close() error { return nil }
