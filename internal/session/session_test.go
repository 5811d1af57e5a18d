package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"classmate/internal/domain"
	"classmate/internal/thread"
)

func testSnapshot(t *testing.T) Snapshot {
	t.Helper()
	threads := thread.NewStore(10, 40)
	th := threads.Create()
	require.NoError(t, threads.Append(th.ID, domain.RoleUser, "What is entropy?"))
	return Snapshot{
		APIKey:         "sk-test",
		Level:          string(domain.LevelIntermediate),
		Threads:        threads.Export(),
		KnowledgeBuilt: true,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	snap := testSnapshot(t)
	require.NoError(t, NewStore(path, zap.NewNop()).Save(snap))

	loaded, ok := NewStore(path, zap.NewNop()).Load()
	require.True(t, ok)
	assert.Equal(t, snap.APIKey, loaded.APIKey)
	assert.Equal(t, snap.Level, loaded.Level)
	assert.Equal(t, snap.KnowledgeBuilt, loaded.KnowledgeBuilt)
	assert.Equal(t, snap.Threads.ActiveID, loaded.Threads.ActiveID)
	require.Len(t, loaded.Threads.Threads, 1)
	assert.Equal(t, "What is entropy?", loaded.Threads.Threads[0].Title)
}

func TestLoadMissingFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "session.json"), zap.NewNop())
	snap, ok := s.Load()
	assert.False(t, ok)
	assert.Nil(t, snap)
}

func TestLoadOnlyOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, NewStore(path, zap.NewNop()).Save(testSnapshot(t)))

	s := NewStore(path, zap.NewNop())
	_, ok := s.Load()
	require.True(t, ok)

	// A second load could clobber live state; it must refuse.
	snap, ok := s.Load()
	assert.False(t, ok)
	assert.Nil(t, snap)
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, ok := NewStore(path, zap.NewNop()).Load()
	assert.False(t, ok)
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.json")
	require.NoError(t, NewStore(path, zap.NewNop()).Save(testSnapshot(t)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "session.json", entries[0].Name())
}

func TestSaveOverwritesPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewStore(path, zap.NewNop())
	snap := testSnapshot(t)
	require.NoError(t, store.Save(snap))
	snap.Level = string(domain.LevelExpert)
	require.NoError(t, store.Save(snap))

	loaded, ok := NewStore(path, zap.NewNop()).Load()
	require.True(t, ok)
	assert.Equal(t, string(domain.LevelExpert), loaded.Level)
}
