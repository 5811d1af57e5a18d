package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"classmate/internal/thread"
)

// Snapshot is the durable, restartable serialization of small session state.
// It never contains document bytes or temporary paths; only identity and
// re-derivable state belongs here.
type Snapshot struct {
	APIKey         string       `json:"api_key"`
	Level          string       `json:"level"`
	Threads        thread.State `json:"threads"`
	KnowledgeBuilt bool         `json:"knowledge_built"`
}

// Store reads and writes session snapshots at a fixed well-known location.
// Saving is best-effort durability: failures are logged, never surfaced to
// the interactive flow. Loading is permitted once, at process start, before
// any in-process state has diverged from defaults.
type Store struct {
	path   string
	log    *zap.Logger
	mu     sync.Mutex
	loaded bool
}

func NewStore(path string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{path: path, log: log}
}

// Save writes a complete snapshot atomically (temp file + rename), so a
// concurrent load never observes a half-written file. The returned error is
// for tests; interactive callers discard it since the failure is already logged.
func (s *Store) Save(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		s.log.Error("marshal session snapshot", zap.Error(err))
		return fmt.Errorf("marshal session snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		s.log.Error("create session directory", zap.Error(err))
		return fmt.Errorf("create session directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		s.log.Error("write session snapshot", zap.Error(err))
		return fmt.Errorf("write session snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		s.log.Error("rename session snapshot", zap.Error(err))
		return fmt.Errorf("rename session snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot at the well-known location. It returns not-ok when
// no snapshot exists, when the file is unreadable, or on any call after the
// first; rehydrating twice could clobber live, newer state.
func (s *Store) Load() (*Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return nil, false
	}
	s.loaded = true
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("read session snapshot", zap.Error(err))
		}
		return nil, false
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.log.Warn("parse session snapshot", zap.Error(err))
		return nil, false
	}
	return &snap, true
}
