package domain

// Document is a single source text extracted from an uploaded file.
type Document struct {
	ID      string
	Path    string
	Content string
}

// Chunk is a bounded, overlapping span of document text, the unit of retrieval.
type Chunk struct {
	DocumentID string
	ChunkID    string
	Text       string
	Index      int
}

// SearchResult is a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Level is the learner's declared expertise tier. It controls the tone and
// depth of generated explanations.
type Level string

const (
	LevelBeginner     Level = "Beginner"
	LevelIntermediate Level = "Intermediate"
	LevelExpert       Level = "Expert"
)

// Levels lists the valid tiers in display order.
func Levels() []Level {
	return []Level{LevelBeginner, LevelIntermediate, LevelExpert}
}

// ParseLevel normalizes a stored level string, defaulting to Beginner for
// anything unrecognized so a damaged snapshot never blocks startup.
func ParseLevel(s string) Level {
	switch Level(s) {
	case LevelIntermediate:
		return LevelIntermediate
	case LevelExpert:
		return LevelExpert
	default:
		return LevelBeginner
	}
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
