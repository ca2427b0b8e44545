// Package embedding turns text into fixed-dimension vectors through pluggable providers.
package embedding

import "context"

// InputType is the content-type hint passed to providers that embed stored passages and
// search queries differently.
type InputType string

const (
	// InputPassage marks texts that will be stored in an index.
	InputPassage InputType = "passage"
	// InputQuery marks texts used to search an index.
	InputQuery InputType = "query"
)

// Provider is a single embedding backend. Embed must return one vector per input, in order.
type Provider interface {
	Name() string
	// BatchLimit is the maximum number of texts per Embed call; 0 means no limit.
	BatchLimit() int
	Embed(ctx context.Context, texts []string, input InputType) ([][]float32, error)
	Close() error
}

// Embedder produces vector embeddings for text.
type Embedder interface {
	// EmbedBatch embeds a non-empty batch; output[i] corresponds to texts[i].
	EmbedBatch(ctx context.Context, texts []string, input InputType) ([][]float32, error)
	// Embed embeds one text as a batch of one and returns its vector.
	Embed(ctx context.Context, text string, input InputType) ([]float32, error)
	// Dimensions returns the vector length, or 0 before it is known.
	Dimensions() int
	Close() error
}
