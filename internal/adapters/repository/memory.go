package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/scoutai/scoutai/internal/domain/model"
	"github.com/scoutai/scoutai/internal/modelstore"
)

// MemoryStore keeps the encoded artifact in memory. Artifacts go through the
// same JSON encoding as FileStore so a load never aliases a saved value.
type MemoryStore struct {
	mu  sync.RWMutex
	raw []byte
}

var _ modelstore.Repository = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

// Location returns a fixed description.
func (s *MemoryStore) Location() string { return "memory" }

// Save replaces the stored artifact.
func (s *MemoryStore) Save(_ context.Context, a *modelstore.Artifact) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("%w: encode artifact: %w", model.ErrPersistence, err)
	}
	s.mu.Lock()
	s.raw = raw
	s.mu.Unlock()
	return nil
}

// Load decodes the stored artifact.
func (s *MemoryStore) Load(_ context.Context) (*modelstore.Artifact, error) {
	s.mu.RLock()
	raw := s.raw
	s.mu.RUnlock()
	if raw == nil {
		return nil, modelstore.ErrArtifactNotFound
	}
	var a modelstore.Artifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("%w: %w: %w", model.ErrPersistence, ErrCorrupt, err)
	}
	return &a, nil
}

// Delete drops the stored artifact.
func (s *MemoryStore) Delete(_ context.Context) error {
	s.mu.Lock()
	s.raw = nil
	s.mu.Unlock()
	return nil
}

// Len returns the size of the encoded artifact, 0 when empty.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.raw)
}
