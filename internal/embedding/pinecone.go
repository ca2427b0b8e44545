package embedding

import (
	"context"
	"fmt"

	"github.com/pinecone-io/go-pinecone/v3/pinecone"
)

const pineconeBatchLimit = 32

// PineconeProvider embeds through Pinecone hosted inference.
type PineconeProvider struct {
	client *pinecone.Client
	model  string
}

// NewPineconeProvider creates a provider. An empty host uses the SDK's default endpoint.
func NewPineconeProvider(apiKey, model, host string) (*PineconeProvider, error) {
	client, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey:    apiKey,
		Host:      host,
		SourceTag: "ruiji",
	})
	if err != nil {
		return nil, fmt.Errorf("pinecone client: %w", err)
	}
	return &PineconeProvider{client: client, model: model}, nil
}

func (p *PineconeProvider) Name() string    { return "pinecone" }
func (p *PineconeProvider) BatchLimit() int { return pineconeBatchLimit }
func (p *PineconeProvider) Close() error    { return nil }

// Embed issues one embed request for texts. Inputs longer than the model window are
// truncated at the end.
func (p *PineconeProvider) Embed(ctx context.Context, texts []string, input InputType) ([][]float32, error) {
	rsp, err := p.client.Inference.Embed(ctx, &pinecone.EmbedRequest{
		Model:      p.model,
		TextInputs: texts,
		Parameters: map[string]interface{}{
			"input_type": string(input),
			"truncate":   "END",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("pinecone embed: %w", err)
	}
	if len(rsp.Data) != len(texts) {
		return nil, fmt.Errorf("pinecone returned %d embeddings for %d inputs", len(rsp.Data), len(texts))
	}
	out := make([][]float32, len(rsp.Data))
	for i, d := range rsp.Data {
		if d.DenseEmbedding == nil {
			return nil, fmt.Errorf("pinecone embedding %d is not dense; model %s is unsupported", i, p.model)
		}
		out[i] = d.DenseEmbedding.Values
	}
	return out, nil
}
