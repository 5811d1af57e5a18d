package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"classmate/internal/domain"
)

type snapshot struct {
	Dimension int            `json:"dimension"`
	Chunks    []domain.Chunk `json:"chunks"`
	Vectors   [][]float64    `json:"vectors"`
}

// SaveTo writes the store's contents to path. The write goes to a temporary
// file in the same directory and is renamed into place, so a concurrent
// reader never observes a half-written index and a failed save leaves any
// previous index untouched.
func (s *Storage) SaveTo(path string) error {
	s.mu.RLock()
	snap := snapshot{Dimension: s.dimension, Chunks: s.chunks, Vectors: s.vectors}
	data, err := json.Marshal(snap)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename index: %w", err)
	}
	return nil
}

// LoadFrom restores a store from a snapshot file written by SaveTo.
func LoadFrom(path string) (*Storage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse index: %w", err)
	}
	if snap.Dimension <= 0 {
		return nil, errors.New("index snapshot has no dimension")
	}
	s := NewStorage()
	if err := s.Init(snap.Dimension); err != nil {
		return nil, err
	}
	if err := s.Upsert(snap.Chunks, snap.Vectors); err != nil {
		return nil, err
	}
	return s, nil
}
