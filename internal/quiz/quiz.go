package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"classmate/internal/answer"
	"classmate/internal/domain"
)

// Item is one generated question/answer pair.
type Item struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Generator produces short quizzes grounded in retrieved textbook context,
// under the same grounding contract as the answer engine.
type Generator struct {
	source      answer.KnowledgeSource
	chat        answer.ChatClient
	model       string
	temperature float32
	topK        int
}

func NewGenerator(source answer.KnowledgeSource, chat answer.ChatClient, model string, temperature float32, topK int) *Generator {
	if topK <= 0 {
		topK = answer.DefaultTopK
	}
	return &Generator{source: source, chat: chat, model: model, temperature: temperature, topK: topK}
}

// Generate creates n question/answer pairs about topic for the given level.
// When the model ignores the JSON format, the raw text comes back as a single
// item rather than failing silently.
func (g *Generator) Generate(ctx context.Context, topic string, level domain.Level, n int) ([]Item, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("empty quiz topic")
	}
	if !g.source.Ready() {
		return nil, domain.ErrKnowledgeBaseNotReady
	}
	if n <= 0 {
		n = 5
	}
	contextBlock, err := answer.RetrieveContext(ctx, g.source, topic, g.topK)
	if err != nil {
		return nil, err
	}

	system := fmt.Sprintf(`You are an expert tutor creating quizzes for a %s learner.
Follow these rules:
- Use only the provided context.
- Provide concise yet complete answers.
- Return exactly %d items.`, level, n)
	user := fmt.Sprintf(`Context:
%s

Generate %d question and answer pairs about %q as a JSON array of objects with "question" and "answer" keys. Return only the JSON array.`, contextBlock, n, topic)

	resp, err := g.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: quiz generation: %v", domain.ErrBackendUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: quiz generation returned no choices", domain.ErrBackendUnavailable)
	}
	return parseItems(resp.Choices[0].Message.Content, n), nil
}

func parseItems(content string, n int) []Item {
	raw := strings.TrimSpace(content)
	// Models sometimes fence the JSON in markdown.
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var parsed []Item
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
		items := make([]Item, 0, n)
		for _, it := range parsed {
			it.Question = strings.TrimSpace(it.Question)
			it.Answer = strings.TrimSpace(it.Answer)
			if it.Question == "" || it.Answer == "" {
				continue
			}
			items = append(items, it)
			if len(items) == n {
				break
			}
		}
		if len(items) > 0 {
			return items
		}
	}
	return []Item{{Question: "Quiz", Answer: strings.TrimSpace(content)}}
}
