package persist

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps snapshots in memory. It is meant for tests and demos.
type MemoryStore struct {
	mu    sync.RWMutex
	snaps map[string]Snapshot
	saves int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: make(map[string]Snapshot)}
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, snap Snapshot) error {
	if !ValidName(snap.Name) {
		return ErrInvalidName
	}
	snap.Data = append([]byte(nil), snap.Data...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[snap.Name] = snap
	s.saves++
	return nil
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, name string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snaps[name]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return snap, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snaps, name)
	return nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.snaps))
	for name := range s.snaps {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// Saves returns how many times Save succeeded.
func (s *MemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
