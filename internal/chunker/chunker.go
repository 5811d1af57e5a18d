package chunker

import (
	"strconv"
	"strings"
	"unicode"

	"classmate/internal/domain"
)

// CharChunker splits text into fixed-size chunks of runes with overlap, so
// sentence-level context is not lost across a chunk boundary. Cuts prefer the
// last whitespace near the end of the window to avoid splitting words.
type CharChunker struct {
	size    int
	overlap int
}

func NewCharChunker(size, overlap int) *CharChunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 5
	}
	return &CharChunker{size: size, overlap: overlap}
}

func (c *CharChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	runes := []rune(document.Content)
	var chunks []domain.Chunk
	start := 0
	idx := 0
	for start < len(runes) {
		end := start + c.size
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = breakAtWhitespace(runes, start, end)
		}
		text := strings.TrimSpace(string(runes[start:end]))
		if text != "" {
			chunks = append(chunks, domain.Chunk{
				DocumentID: document.ID,
				ChunkID:    document.ID + ":" + strconv.Itoa(idx),
				Text:       text,
				Index:      idx,
			})
			idx++
		}
		if end == len(runes) {
			break
		}
		next := end - c.overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return chunks, nil
}

// breakAtWhitespace walks back from end looking for a whitespace rune, but
// never gives up more than a fifth of the window.
func breakAtWhitespace(runes []rune, start, end int) int {
	limit := end - (end-start)/5
	for i := end; i > limit; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return end
}
