package phraser

import (
	"context"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"
)

// OpenAIParaphraser calls the chat completions endpoint directly.
type OpenAIParaphraser struct {
	client       *openaisdk.Client
	model        string
	systemPrompt string
	temperature  float64
	maxTokens    int64
}

var _ Paraphraser = (*OpenAIParaphraser)(nil)

type OpenAIConfig struct {
	Model        string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int64
}

func NewOpenAIParaphraser(client *openaisdk.Client, cfg OpenAIConfig) (*OpenAIParaphraser, error) {
	if client == nil {
		return nil, fmt.Errorf("openai client is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	if strings.TrimSpace(cfg.SystemPrompt) == "" {
		return nil, fmt.Errorf("system prompt is required")
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 128
	}
	return &OpenAIParaphraser{
		client:       client,
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		temperature:  cfg.Temperature,
		maxTokens:    cfg.MaxTokens,
	}, nil
}

func (p *OpenAIParaphraser) Paraphrase(ctx context.Context, text string) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(p.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(p.systemPrompt),
			openaisdk.UserMessage(text),
		},
		Temperature: openaisdk.Float(p.temperature),
		MaxTokens:   openaisdk.Int(p.maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
