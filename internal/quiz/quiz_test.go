package quiz

import (
	"context"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classmate/internal/domain"
)

type mockChat struct {
	calls []openai.ChatCompletionRequest
	resp  openai.ChatCompletionResponse
	err   error
}

func (m *mockChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.calls = append(m.calls, req)
	return m.resp, m.err
}

func textResponse(s string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: s}},
		},
	}
}

type stubSource struct {
	ready   bool
	results []domain.SearchResult
}

func (s *stubSource) Ready() bool { return s.ready }

func (s *stubSource) Search(context.Context, string, int) ([]domain.SearchResult, error) {
	return s.results, nil
}

func readySource() *stubSource {
	return &stubSource{ready: true, results: []domain.SearchResult{
		{Chunk: domain.Chunk{Text: "Entropy measures disorder."}},
	}}
}

func TestGenerateParsesItems(t *testing.T) {
	chat := &mockChat{resp: textResponse(`[
		{"question": "What is entropy?", "answer": "A measure of disorder."},
		{"question": "Does entropy decrease?", "answer": "Not in a closed system."}
	]`)}
	g := NewGenerator(readySource(), chat, "gpt-4", 0.2, 3)

	items, err := g.Generate(context.Background(), "entropy", domain.LevelBeginner, 5)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "What is entropy?", items[0].Question)
	assert.Equal(t, "Not in a closed system.", items[1].Answer)

	require.Len(t, chat.calls, 1)
	assert.Contains(t, chat.calls[0].Messages[0].Content, "only the provided context")
	assert.Contains(t, chat.calls[0].Messages[1].Content, "Entropy measures disorder.")
}

func TestGenerateStripsMarkdownFence(t *testing.T) {
	chat := &mockChat{resp: textResponse("```json\n[{\"question\": \"Q\", \"answer\": \"A\"}]\n```")}
	g := NewGenerator(readySource(), chat, "gpt-4", 0.2, 3)

	items, err := g.Generate(context.Background(), "entropy", domain.LevelExpert, 3)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Q", items[0].Question)
}

func TestGenerateFallsBackToRawText(t *testing.T) {
	chat := &mockChat{resp: textResponse("Sorry, here are some thoughts instead.")}
	g := NewGenerator(readySource(), chat, "gpt-4", 0.2, 3)

	items, err := g.Generate(context.Background(), "entropy", domain.LevelBeginner, 3)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Quiz", items[0].Question)
	assert.Equal(t, "Sorry, here are some thoughts instead.", items[0].Answer)
}

func TestGenerateTruncatesToRequestedCount(t *testing.T) {
	chat := &mockChat{resp: textResponse(`[
		{"question": "Q1", "answer": "A1"},
		{"question": "Q2", "answer": "A2"},
		{"question": "Q3", "answer": "A3"}
	]`)}
	g := NewGenerator(readySource(), chat, "gpt-4", 0.2, 3)

	items, err := g.Generate(context.Background(), "entropy", domain.LevelBeginner, 2)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestGenerateRequiresKnowledgeBase(t *testing.T) {
	chat := &mockChat{resp: textResponse("unused")}
	g := NewGenerator(&stubSource{ready: false}, chat, "gpt-4", 0.2, 3)

	_, err := g.Generate(context.Background(), "entropy", domain.LevelBeginner, 3)
	require.ErrorIs(t, err, domain.ErrKnowledgeBaseNotReady)
	assert.Empty(t, chat.calls)
}

func TestGenerateRequiresTopic(t *testing.T) {
	g := NewGenerator(readySource(), &mockChat{}, "gpt-4", 0.2, 3)
	_, err := g.Generate(context.Background(), "  ", domain.LevelBeginner, 3)
	assert.Error(t, err)
}
