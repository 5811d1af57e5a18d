package knowledge

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"classmate/internal/domain"
	"classmate/internal/embedding"
	"classmate/internal/extract"
	"classmate/internal/vectorstore/memory"
)

// embedBatchSize bounds how many chunks go to the backend per request.
const embedBatchSize = 64

// Ingestor converts a source document into a persisted knowledge base:
// extract, chunk, embed, index, persist. Every run is a full rebuild; a run
// that fails leaves any previously persisted index untouched.
type Ingestor struct {
	chunker    domain.Chunker
	embedder   embedding.Embedder
	summarizer domain.Summarizer
	summaryLen int
	log        *zap.Logger
}

func NewIngestor(chunker domain.Chunker, embedder embedding.Embedder, summarizer domain.Summarizer, summaryLen int, log *zap.Logger) *Ingestor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ingestor{chunker: chunker, embedder: embedder, summarizer: summarizer, summaryLen: summaryLen, log: log}
}

// Ingest builds a knowledge base at dir from the document at path and returns
// a live handle plus a short summary of the document. The caller only needs
// the document for the duration of this call; nothing retains its bytes.
func (in *Ingestor) Ingest(ctx context.Context, path, dir string) (*Base, string, error) {
	text, err := extract.FromFile(path)
	if err != nil {
		return nil, "", err
	}
	doc := domain.Document{ID: hashString(path), Path: path, Content: text}

	chunks, err := in.chunker.Chunk(doc)
	if err != nil {
		return nil, "", err
	}
	if len(chunks) == 0 {
		return nil, "", fmt.Errorf("%w: document produced no chunks", domain.ErrParse)
	}
	in.log.Info("chunked document",
		zap.String("path", path), zap.Int("chunks", len(chunks)))

	vectors, err := in.embedAll(ctx, chunks)
	if err != nil {
		return nil, "", err
	}

	store := memory.NewStorage()
	if err := store.Init(len(vectors[0])); err != nil {
		return nil, "", err
	}
	if err := store.Upsert(chunks, vectors); err != nil {
		return nil, "", err
	}
	if err := store.SaveTo(filepath.Join(dir, IndexFile)); err != nil {
		return nil, "", fmt.Errorf("persist knowledge base: %w", err)
	}
	in.log.Info("knowledge base persisted",
		zap.String("dir", dir), zap.Int("chunks", store.Len()))

	summary := ""
	if in.summarizer != nil {
		if summary, err = in.summarizer.Summarize(text, in.summaryLen); err != nil {
			// The summary is cosmetic; an index without one is still valid.
			in.log.Warn("summarize failed", zap.Error(err))
			summary = ""
		}
	}

	return &Base{dir: dir, embedder: in.embedder, store: store, status: StatusBuilt}, summary, nil
}

func (in *Ingestor) embedAll(ctx context.Context, chunks []domain.Chunk) ([][]float64, error) {
	vectors := make([][]float64, 0, len(chunks))
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-start)
		for _, ch := range chunks[start:end] {
			texts = append(texts, ch.Text)
		}
		batch, err := in.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func hashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
