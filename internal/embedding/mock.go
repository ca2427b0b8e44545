package embedding

import (
	"context"
	"math"

	"github.com/hyperjump/ruiji/pkg/utils"
)

// MockProvider is a deterministic provider for tests and offline runs. The same text
// always maps to the same unit-length vector, independent of the input type.
type MockProvider struct {
	dimensions int
	batchLimit int
}

// NewMockProvider returns a provider producing vectors of the given dimension.
func NewMockProvider(dimensions, batchLimit int) *MockProvider {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockProvider{dimensions: dimensions, batchLimit: batchLimit}
}

func (p *MockProvider) Name() string    { return "mock" }
func (p *MockProvider) BatchLimit() int { return p.batchLimit }
func (p *MockProvider) Close() error    { return nil }

// Embed derives each vector from the text hash.
func (p *MockProvider) Embed(ctx context.Context, texts []string, _ InputType) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h := HashString(text)
		v := make([]float32, p.dimensions)
		for j := range v {
			v[j] = float32(math.Sin(float64(h%100003)*float64(j+1))*0.1 + 0.01)
		}
		utils.NormalizeL2(v)
		out[i] = v
	}
	return out, nil
}
