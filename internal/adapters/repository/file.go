// Package repository persists the leaderboard document and serves read-side
// snapshots of it.
package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/okian/graphboard/internal/domain/model"
	"github.com/okian/graphboard/pkg/atomicfile"
)

const defaultPerm fs.FileMode = 0o644

// FileStore keeps the leaderboard in a local JSON file.
type FileStore struct {
	path string
	perm fs.FileMode
}

// NewFileStore creates a store for path.
func NewFileStore(path string, opts ...FileOption) *FileStore {
	s := &FileStore{path: path, perm: defaultPerm}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the document location.
func (s *FileStore) Path() string { return s.path }

// Load reads the document. A missing or zero-length file is the empty state.
func (s *FileStore) Load(ctx context.Context) (model.State, error) {
	if err := ctx.Err(); err != nil {
		return model.State{}, err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.EmptyState(), nil
	}
	if err != nil {
		return model.State{}, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return model.EmptyState(), nil
	}
	state, err := Decode(data)
	if err != nil {
		return model.State{}, fmt.Errorf("%s: %w", s.path, err)
	}
	return state, nil
}

// Save replaces the document atomically.
func (s *FileStore) Save(ctx context.Context, state model.State) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	data, err := Encode(state)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %w", ErrPersist, err)
		}
	}
	if err := atomicfile.WriteFile(s.path, data, s.perm); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

// Raw returns the persisted bytes, or nil when nothing has been saved yet.
func (s *FileStore) Raw(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return data, err
}
