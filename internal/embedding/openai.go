package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

const openAIBatchLimit = 2048

// OpenAIProvider embeds text through the OpenAI embeddings API.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates a provider for model. baseURL overrides the API endpoint when set.
func NewOpenAIProvider(apiKey, model, baseURL string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{client: openai.NewClientWithConfig(cfg), model: model}
}

func (p *OpenAIProvider) Name() string    { return "openai" }
func (p *OpenAIProvider) BatchLimit() int { return openAIBatchLimit }
func (p *OpenAIProvider) Close() error    { return nil }

// Embed returns vectors ordered by the response index, not arrival order.
func (p *OpenAIProvider) Embed(ctx context.Context, texts []string, _ InputType) ([][]float32, error) {
	rsp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(p.model),
	})
	if err != nil {
		return nil, err
	}
	if len(rsp.Data) != len(texts) {
		return nil, fmt.Errorf("openai returned %d embeddings for %d inputs", len(rsp.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, d := range rsp.Data {
		if d.Index < 0 || d.Index >= len(out) || out[d.Index] != nil {
			return nil, fmt.Errorf("openai returned invalid embedding index %d", d.Index)
		}
		if len(d.Embedding) == 0 {
			return nil, errors.New("no response from OpenAI")
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}
