package external

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"routecast/internal/types"
)

// summaryMaxTokens bounds the generated trip summary. The UI shows two or
// three sentences; anything longer is wasted spend.
const summaryMaxTokens = 200

// chatCompleter is the subset of the OpenAI client used by the summarizer,
// extracted for testability.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAISummarizer implements types.SummaryGenerator using the OpenAI chat
// completions API.
type OpenAISummarizer struct {
	client chatCompleter
	model  string
}

var _ types.SummaryGenerator = (*OpenAISummarizer)(nil)

// NewOpenAISummarizer creates a summarizer backed by the OpenAI API.
func NewOpenAISummarizer(apiKey types.SecretString, model string) *OpenAISummarizer {
	return &OpenAISummarizer{
		client: openai.NewClient(apiKey.Unmask()),
		model:  model,
	}
}

// newOpenAISummarizerWithClient is the test seam for injecting a mock client.
func newOpenAISummarizerWithClient(client chatCompleter, model string) *OpenAISummarizer {
	return &OpenAISummarizer{client: client, model: model}
}

// Summarize sends the prepared prompt and returns the model's reply. Callers
// fall back to a static summary on any error, so failures here are mapped to
// an upstream error and never block route processing.
func (s *OpenAISummarizer) Summarize(ctx context.Context, prompt string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     s.model,
		MaxTokens: summaryMaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a helpful assistant that writes concise, driver-focused trip weather summaries.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return "", types.NewAppError(types.ErrCodeUpstreamUnavailable,
			"summary generation failed", err)
	}

	if len(resp.Choices) == 0 {
		return "", types.NewAppError(types.ErrCodeUpstreamUnavailable,
			"summary generation returned no choices", nil)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
