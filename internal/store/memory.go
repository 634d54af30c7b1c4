package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// MemoryStore keeps encoded documents in process memory. Every load decodes
// a fresh copy, so callers never share state with the store.
type MemoryStore struct {
	snapshots
	mu   sync.RWMutex
	docs map[string][]byte
}

var _ Backend = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{docs: make(map[string][]byte, len(documentNames))}
	for _, name := range documentNames {
		s.docs[name] = emptyDocument(name)
	}
	s.snapshots = snapshots{io: s}
	return s
}

func (s *MemoryStore) readDocument(_ context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	body, ok := s.docs[name]
	if !ok {
		return nil, fmt.Errorf("document %q does not exist", name)
	}
	return slices.Clone(body), nil
}

func (s *MemoryStore) writeDocument(_ context.Context, name string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[name] = slices.Clone(body)
	return nil
}

// SetRaw replaces a document with arbitrary bytes.
func (s *MemoryStore) SetRaw(name string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[name] = slices.Clone(body)
}

// Remove drops a document so later reads fail as unavailable.
func (s *MemoryStore) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, name)
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
