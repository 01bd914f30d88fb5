// Package memstore is an in-memory dynsched.KeyValueStore.
package memstore

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/benjamonnguyen/dynsched"
)

type Store struct {
	mu     sync.Mutex
	values map[string]string
	// FailWrites makes SetMany and Remove return an error.
	FailWrites bool
}

var _ dynsched.KeyValueStore = (*Store)(nil)

func New() *Store {
	return &Store{values: make(map[string]string)}
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *Store) SetMany(_ context.Context, entries map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return fmt.Errorf("memstore: writes disabled")
	}
	for k := range entries {
		if k == "" {
			return fmt.Errorf("provide key")
		}
	}
	maps.Copy(s.values, entries)
	return nil
}

func (s *Store) Remove(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return fmt.Errorf("memstore: writes disabled")
	}
	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}

// Snapshot copies the current contents.
func (s *Store) Snapshot() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.values)
}
