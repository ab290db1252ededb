package settings

import (
	"context"
	"maps"
	"sync"
)

// MemoryStore keeps settings in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]map[string]string
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, scope Scope, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", false, ErrClosed
	}
	v, ok := s.data[scope.String()][key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, scope Scope, key, value string) error {
	if err := checkKey(scope, key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	m := s.data[scope.String()]
	if m == nil {
		m = make(map[string]string)
		s.data[scope.String()] = m
	}
	m[key] = value
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, scope Scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	delete(s.data[scope.String()], key)
	return nil
}

func (s *MemoryStore) List(_ context.Context, scope Scope) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := maps.Clone(s.data[scope.String()])
	if out == nil {
		out = map[string]string{}
	}
	return out, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ Store = (*MemoryStore)(nil)
