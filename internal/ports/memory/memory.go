package memory

import (
	"context"
	"sync"

	"easyfinances/internal/ports"
)

// Store is an in-process KeyValueStore. A session-scoped store is simply one
// that is dropped with the process.
type Store struct {
	mu    sync.Mutex
	items map[string]string
}

var _ ports.KeyValueStore = (*Store)(nil)

func New() *Store {
	return &Store{items: map[string]string{}}
}

// NewWith seeds the store, mostly for tests.
func NewWith(items map[string]string) *Store {
	s := New()
	for k, v := range items {
		s.items[k] = v
	}
	return s
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	return v, ok, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
	return nil
}

func (s *Store) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// Len returns the number of keys held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
