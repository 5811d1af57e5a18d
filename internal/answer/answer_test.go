package answer

import (
	"context"
	"errors"
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
	err     error
	queries []string
}

func (s *stubSource) Ready() bool { return s.ready }

func (s *stubSource) Search(_ context.Context, query string, _ int) ([]domain.SearchResult, error) {
	s.queries = append(s.queries, query)
	return s.results, s.err
}

func chunks(texts ...string) []domain.SearchResult {
	out := make([]domain.SearchResult, len(texts))
	for i, t := range texts {
		out[i] = domain.SearchResult{Chunk: domain.Chunk{Text: t, Index: i}}
	}
	return out
}

func TestAnswerReturnsRefusalVerbatim(t *testing.T) {
	// Retrieval stubbed with context unrelated to the question: the grounded
	// prompt instructs refusal, and the engine must pass the refusal through
	// with no rewriting.
	source := &stubSource{ready: true, results: chunks("The mitochondria is the powerhouse of the cell.")}
	chat := &mockChat{resp: textResponse(RefusalSentence)}
	engine := NewEngine(source, chat, "gpt-4", 0.1, 3, nil)

	got, err := engine.Answer(context.Background(), "Who won the 1994 World Cup?", domain.LevelBeginner)
	require.NoError(t, err)
	assert.Equal(t, RefusalSentence, got)

	require.Len(t, chat.calls, 1)
	system := chat.calls[0].Messages[0].Content
	assert.Contains(t, system, RefusalSentence, "the refusal sentence must be mandated in the instruction")
	assert.Contains(t, system, "SOLELY")
}

func TestAnswerFailsFastWithoutKnowledgeBase(t *testing.T) {
	chat := &mockChat{resp: textResponse("should never be used")}
	engine := NewEngine(&stubSource{ready: false}, chat, "gpt-4", 0.1, 3, nil)

	_, err := engine.Answer(context.Background(), "What is entropy?", domain.LevelBeginner)
	require.ErrorIs(t, err, domain.ErrKnowledgeBaseNotReady)
	assert.Empty(t, chat.calls, "no backend call may happen without a live index")
}

func TestAnswerContextPreservesRankOrder(t *testing.T) {
	source := &stubSource{ready: true, results: chunks("first chunk", "second chunk", "third chunk")}
	chat := &mockChat{resp: textResponse("ok")}
	engine := NewEngine(source, chat, "gpt-4", 0.1, 3, nil)

	_, err := engine.Answer(context.Background(), "question", domain.LevelExpert)
	require.NoError(t, err)

	system := chat.calls[0].Messages[0].Content
	assert.Contains(t, system, "first chunk\n\nsecond chunk\n\nthird chunk")
}

func TestAnswerLevelPolicies(t *testing.T) {
	tests := []struct {
		level domain.Level
		want  string
	}{
		{domain.LevelBeginner, "simple analogies"},
		{domain.LevelIntermediate, "define them briefly"},
		{domain.LevelExpert, "trade-offs"},
	}
	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			chat := &mockChat{resp: textResponse("ok")}
			engine := NewEngine(&stubSource{ready: true, results: chunks("ctx")}, chat, "gpt-4", 0.1, 3, nil)
			_, err := engine.Answer(context.Background(), "question", tt.level)
			require.NoError(t, err)
			system := chat.calls[0].Messages[0].Content
			assert.Contains(t, system, tt.want)
			assert.Contains(t, system, string(tt.level))
		})
	}
}

func TestAnswerSendsQuestionAsUserMessage(t *testing.T) {
	chat := &mockChat{resp: textResponse("ok")}
	engine := NewEngine(&stubSource{ready: true, results: chunks("ctx")}, chat, "gpt-4", 0.1, 3, nil)
	_, err := engine.Answer(context.Background(), "What is entropy?", domain.LevelBeginner)
	require.NoError(t, err)

	msgs := chat.calls[0].Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, msgs[0].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, msgs[1].Role)
	assert.Equal(t, "What is entropy?", msgs[1].Content)
}

func TestAnswerBackendFailure(t *testing.T) {
	chat := &mockChat{err: errors.New("connection refused")}
	engine := NewEngine(&stubSource{ready: true, results: chunks("ctx")}, chat, "gpt-4", 0.1, 3, nil)
	_, err := engine.Answer(context.Background(), "question", domain.LevelBeginner)
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
}

func TestAnswerEmptyQuestion(t *testing.T) {
	engine := NewEngine(&stubSource{ready: true}, &mockChat{}, "gpt-4", 0.1, 3, nil)
	_, err := engine.Answer(context.Background(), "   ", domain.LevelBeginner)
	assert.Error(t, err)
}

func TestRetrieveContextPropagatesSearchError(t *testing.T) {
	source := &stubSource{ready: true, err: domain.ErrBackendUnavailable}
	engine := NewEngine(source, &mockChat{}, "gpt-4", 0.1, 3, nil)
	_, err := engine.Answer(context.Background(), "question", domain.LevelBeginner)
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
}
