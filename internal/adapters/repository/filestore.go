// Package repository persists model artifacts.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/scoutai/scoutai/internal/domain/model"
	"github.com/scoutai/scoutai/internal/modelstore"
	"github.com/scoutai/scoutai/pkg/logger"
)

const (
	defaultFileMode fs.FileMode = 0o644
	dirMode         fs.FileMode = 0o755
)

// FileStore keeps one artifact as a JSON file. Writes go to a temporary file
// in the same directory and are renamed into place.
type FileStore struct {
	mu     sync.Mutex
	path   string
	mode   fs.FileMode
	logger logger.Logger
}

var _ modelstore.Repository = (*FileStore)(nil)

// NewFileStore creates a store for the artifact at path.
func NewFileStore(path string, opts ...Option) *FileStore {
	s := &FileStore{
		path:   path,
		mode:   defaultFileMode,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the artifact path.
func (s *FileStore) Location() string { return s.path }

// Save writes a atomically.
func (s *FileStore) Save(ctx context.Context, a *modelstore.Artifact) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", model.ErrPersistence, err)
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("%w: encode artifact: %w", model.ErrPersistence, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("%w: create %s: %w", model.ErrPersistence, dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", model.ErrPersistence, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%w: write %s: %w", model.ErrPersistence, tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%w: sync %s: %w", model.ErrPersistence, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("%w: close %s: %w", model.ErrPersistence, tmpName, err)
	}
	if err := os.Chmod(tmpName, s.mode); err != nil {
		cleanup()
		return fmt.Errorf("%w: chmod %s: %w", model.ErrPersistence, tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return fmt.Errorf("%w: rename into %s: %w", model.ErrPersistence, s.path, err)
	}

	s.logger.Debug(ctx, "artifact saved", logger.String("path", s.path), logger.Int("bytes", len(raw)))
	return nil
}

// Load reads the artifact. A missing file reports modelstore.ErrArtifactNotFound.
func (s *FileStore) Load(ctx context.Context) (*modelstore.Artifact, error) {
	s.mu.Lock()
	raw, err := os.ReadFile(s.path)
	s.mu.Unlock()

	if errors.Is(err, fs.ErrNotExist) {
		return nil, modelstore.ErrArtifactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", model.ErrPersistence, s.path, err)
	}

	var a modelstore.Artifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("%w: %w: %w", model.ErrPersistence, ErrCorrupt, err)
	}
	s.logger.Debug(ctx, "artifact read", logger.String("path", s.path), logger.Int("bytes", len(raw)))
	return &a, nil
}

// Delete removes the artifact file. A missing file is not an error.
func (s *FileStore) Delete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: remove %s: %w", model.ErrPersistence, s.path, err)
	}
	s.logger.Debug(ctx, "artifact removed", logger.String("path", s.path), logger.Bool("existed", err == nil))
	return nil
}
