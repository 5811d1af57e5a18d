package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"classmate/internal/domain"
)

// RefusalSentence is the fixed reply the model is instructed to use when an
// answer is not derivable from the retrieved context.
const RefusalSentence = "I'm sorry, that topic isn't covered in my textbook."

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 3

// ChatClient is the slice of the OpenAI client the engine needs; tests
// substitute a mock.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// KnowledgeSource is the retrieval surface of a knowledge base.
type KnowledgeSource interface {
	Ready() bool
	Search(ctx context.Context, query string, topK int) ([]domain.SearchResult, error)
}

// Engine answers questions grounded strictly in text retrieved from a
// knowledge source, with tone and depth keyed to the learner level. Apart
// from the model call it is a pure function of (question, level, index).
type Engine struct {
	source      KnowledgeSource
	chat        ChatClient
	model       string
	temperature float32
	topK        int
	log         *zap.Logger
}

func NewEngine(source KnowledgeSource, chat ChatClient, model string, temperature float32, topK int, log *zap.Logger) *Engine {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{source: source, chat: chat, model: model, temperature: temperature, topK: topK, log: log}
}

// Answer retrieves the most relevant chunks for question and delegates
// generation to the chat model. It fails fast with ErrKnowledgeBaseNotReady
// when the source is not live; recovery (re-ingestion) is the caller's job.
func (e *Engine) Answer(ctx context.Context, question string, level domain.Level) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", errors.New("empty question")
	}
	if !e.source.Ready() {
		return "", domain.ErrKnowledgeBaseNotReady
	}
	contextBlock, err := RetrieveContext(ctx, e.source, question, e.topK)
	if err != nil {
		return "", err
	}

	resp, err := e.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: e.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(level, contextBlock)},
			{Role: openai.ChatMessageRoleUser, Content: question},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: chat completion: %v", domain.ErrBackendUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: chat completion returned no choices", domain.ErrBackendUnavailable)
	}
	e.log.Info("answered question",
		zap.String("level", string(level)), zap.Int("question_len", len(question)))
	return resp.Choices[0].Message.Content, nil
}

// RetrieveContext returns the topK most similar chunks joined in retrieval
// rank order, separated by paragraph breaks.
func RetrieveContext(ctx context.Context, source KnowledgeSource, query string, topK int) (string, error) {
	results, err := source.Search(ctx, query, topK)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, r.Chunk.Text)
	}
	return strings.Join(parts, "\n\n"), nil
}

func systemPrompt(level domain.Level, contextBlock string) string {
	return fmt.Sprintf(`You are an expert, empathetic tutor for a university-level course.
The user's current knowledge level is: **%s**.

**CRITICAL GUIDELINES:**
- Answer the user's question based **SOLELY** on the context provided below.
- If the answer is not in the context, say %q. Do not make up an answer.
- **Tailor your explanation precisely to the user's level:**
%s

**CONTEXT FROM THE TEXTBOOK:**
%s`, level, RefusalSentence, levelPolicy(level), contextBlock)
}

func levelPolicy(level domain.Level) string {
	switch level {
	case domain.LevelIntermediate:
		return "  -> Use technical terms but define them briefly. Go into more detail."
	case domain.LevelExpert:
		return "  -> Assume deep knowledge. Use advanced terminology and discuss nuances, trade-offs, and complexities."
	default:
		return "  -> Use simple analogies, avoid jargon, and focus on high-level concepts."
	}
}
