// Package memory provides an in-process core.Store, used by tests and by
// read-only previews.
package memory

import (
	"context"
	"sync"

	"github.com/aretw0/memento/pkg/core"
)

// Store keeps values in a map. FailGet and FailSet inject storage failures.
type Store struct {
	mu     sync.RWMutex
	values map[string][]byte

	FailGet error
	FailSet error

	sets int
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{values: make(map[string][]byte)}
}

func (s *Store) Initialize(ctx context.Context) error { return nil }

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailGet != nil {
		return nil, false, s.FailGet
	}
	v, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSet != nil {
		return s.FailSet
	}
	s.values[key] = append([]byte(nil), value...)
	s.sets++
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSet != nil {
		return s.FailSet
	}
	delete(s.values, key)
	return nil
}

// Sets returns how many successful Set calls the store received.
func (s *Store) Sets() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sets
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]int{"keys": len(s.values), "sets": s.sets}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string { return "store" }

var _ core.Store = (*Store)(nil)
