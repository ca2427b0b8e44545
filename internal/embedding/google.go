package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	genaiopt "google.golang.org/api/option"
)

const googleBatchLimit = 100

// GoogleProvider embeds text through the Gemini embedding API.
type GoogleProvider struct {
	client *genai.Client
	model  string
}

// NewGoogleProvider creates a Gemini client authenticated with apiKey.
func NewGoogleProvider(ctx context.Context, apiKey, model string) (*GoogleProvider, error) {
	client, err := genai.NewClient(ctx, genaiopt.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GoogleProvider{client: client, model: model}, nil
}

func (p *GoogleProvider) Name() string    { return "google" }
func (p *GoogleProvider) BatchLimit() int { return googleBatchLimit }
func (p *GoogleProvider) Close() error    { return p.client.Close() }

// Embed sends texts in one BatchEmbedContents request with a retrieval task type.
func (p *GoogleProvider) Embed(ctx context.Context, texts []string, input InputType) ([][]float32, error) {
	model := p.client.EmbeddingModel(p.model)
	model.TaskType = genai.TaskTypeRetrievalDocument
	if input == InputQuery {
		model.TaskType = genai.TaskTypeRetrievalQuery
	}

	batch := model.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}
	rsp, err := model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, err
	}
	if rsp == nil || len(rsp.Embeddings) != len(texts) {
		return nil, errors.New("no response from Google")
	}

	out := make([][]float32, len(texts))
	for i, e := range rsp.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, fmt.Errorf("google returned empty embedding at %d", i)
		}
		out[i] = e.Values
	}
	return out, nil
}
