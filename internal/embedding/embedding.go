package embedding

import "context"

// Embedder converts free text into a numeric vector representation.
type Embedder interface {
	// Embed returns an embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float64, error)
	// EmbedBatch returns one vector per input text, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}
