package checkpoint

import (
	"context"
	"sync"
)

// MemoryStore keeps the checkpoint in memory. It records every save, which
// makes it convenient in tests.
type MemoryStore struct {
	mu      sync.Mutex
	current *Checkpoint
	saves   []*Checkpoint
}

// NewMemoryStore returns a store holding cp, which may be nil.
func NewMemoryStore(cp *Checkpoint) *MemoryStore {
	return &MemoryStore{current: cp.Clone()}
}

// Load returns a copy of the held checkpoint.
func (s *MemoryStore) Load(_ context.Context) (*Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone(), nil
}

// Save replaces the held checkpoint with a copy of cp.
func (s *MemoryStore) Save(_ context.Context, cp *Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = cp.Clone()
	s.saves = append(s.saves, cp.Clone())
	return nil
}

// Delete drops the held checkpoint.
func (s *MemoryStore) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	return nil
}

// Saves returns copies of every checkpoint saved so far, oldest first.
func (s *MemoryStore) Saves() []*Checkpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Checkpoint, len(s.saves))
	for i, cp := range s.saves {
		out[i] = cp.Clone()
	}
	return out
}
