package generator

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"
)

// OpenAICompleter calls the OpenAI chat completions API.
type OpenAICompleter struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewOpenAICompleter creates a completer for model.
func NewOpenAICompleter(apiKey, model string, maxTokens int, temperature float32) *OpenAICompleter {
	return newOpenAICompleter(openai.DefaultConfig(apiKey), model, maxTokens, temperature)
}

func newOpenAICompleter(cfg openai.ClientConfig, model string, maxTokens int, temperature float32) *OpenAICompleter {
	return &OpenAICompleter{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

func (g *OpenAICompleter) Name() string { return "openai" }

func (g *OpenAICompleter) Complete(ctx context.Context, system, user string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	}

	rsp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(rsp.Choices) == 0 || len(rsp.Choices[0].Message.Content) == 0 {
		return "", errors.New("no response from OpenAI")
	}
	return rsp.Choices[0].Message.Content, nil
}
