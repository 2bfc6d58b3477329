// Package memory provides a process-local KV used by the memory backend and
// by tests.
package memory

import (
	"context"
	"sync"

	"myexpense/internal/storage"
)

type Store struct {
	mu     sync.Mutex
	values map[string]string
}

var _ storage.KV = (*Store)(nil)

func New() *Store {
	return &Store{values: map[string]string{}}
}

// NewWith returns a store pre-populated with values, for seeding tests.
func NewWith(values map[string]string) *Store {
	s := New()
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return "", storage.ErrKeyNotFound
	}
	return v, nil
}

func (s *Store) Put(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}
