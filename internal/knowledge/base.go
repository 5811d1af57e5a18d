package knowledge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"classmate/internal/domain"
	"classmate/internal/embedding"
	"classmate/internal/vectorstore/memory"
)

// IndexFile is the name of the durable index inside a knowledge directory.
// Its presence distinguishes "built at least once" from "never built",
// independent of any in-process flag.
const IndexFile = "index.json"

// Status describes the lifecycle state of a knowledge base.
type Status int

const (
	// StatusAbsent means no index has ever been built at this location.
	StatusAbsent Status = iota
	// StatusBuilt means a live in-memory index is ready for search.
	StatusBuilt
	// StatusUnloaded means a durable index exists on disk but the in-memory
	// handle was lost (typically across a process restart) and must be
	// reloaded or rebuilt before use.
	StatusUnloaded
)

func (s Status) String() string {
	switch s {
	case StatusBuilt:
		return "built"
	case StatusUnloaded:
		return "built-but-unloaded"
	default:
		return "absent"
	}
}

// Base is the handle to a persisted, searchable index built from one source
// document. A fresh process never starts in StatusBuilt.
type Base struct {
	dir      string
	embedder embedding.Embedder
	store    *memory.Storage
	status   Status
}

// Open probes dir for a previously persisted index and returns a handle in
// StatusUnloaded or StatusAbsent. It never loads the index itself.
func Open(dir string, embedder embedding.Embedder) *Base {
	b := &Base{dir: dir, embedder: embedder, status: StatusAbsent}
	if _, err := os.Stat(filepath.Join(dir, IndexFile)); err == nil {
		b.status = StatusUnloaded
	}
	return b
}

// Dir returns the durable location of this knowledge base.
func (b *Base) Dir() string { return b.dir }

// Status returns the current lifecycle state.
func (b *Base) Status() Status { return b.status }

// Ready reports whether the base can serve searches.
func (b *Base) Ready() bool { return b.status == StatusBuilt }

// EverBuilt reports whether a durable index exists, live or not.
func (b *Base) EverBuilt() bool { return b.status != StatusAbsent }

// Reload restores the in-memory index from the durable snapshot. Only valid
// in StatusUnloaded; callers in StatusAbsent must ingest instead.
func (b *Base) Reload() error {
	if b.status == StatusBuilt {
		return nil
	}
	if b.status == StatusAbsent {
		return fmt.Errorf("%w: nothing persisted at %s", domain.ErrKnowledgeBaseNotReady, b.dir)
	}
	store, err := memory.LoadFrom(filepath.Join(b.dir, IndexFile))
	if err != nil {
		return fmt.Errorf("reload knowledge base: %w", err)
	}
	b.store = store
	b.status = StatusBuilt
	return nil
}

// Search embeds the query and returns the topK most similar chunks. Fails
// fast with ErrKnowledgeBaseNotReady unless the base is live; it never
// attempts an implicit reload.
func (b *Base) Search(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	if b.status != StatusBuilt || b.store == nil {
		return nil, fmt.Errorf("%w: status is %s", domain.ErrKnowledgeBaseNotReady, b.status)
	}
	vec, err := b.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return b.store.Search(vec, topK)
}
