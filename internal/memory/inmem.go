package memory

import (
	"context"
	"sync"
)

// InMemoryStore is a mutex-guarded map implementation of Store, used in
// tests and for local runs without Redis.
type InMemoryStore struct {
	mu   sync.RWMutex
	data map[Namespace]map[string][]byte
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		data: make(map[Namespace]map[string][]byte),
	}
}

func (s *InMemoryStore) Put(_ context.Context, ns Namespace, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.data[ns]
	if !ok {
		entries = make(map[string][]byte)
		s.data[ns] = entries
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	entries[key] = cp
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, ns Namespace, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, ok := s.data[ns]
	if !ok {
		return nil, false, nil
	}
	value, ok := entries[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	return cp, true, nil
}

func (s *InMemoryStore) ListKeys(_ context.Context, ns Namespace) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.data[ns]
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	return keys, nil
}
