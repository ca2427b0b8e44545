package embedding

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/hyperjump/ruiji/internal/models"
	"github.com/hyperjump/ruiji/pkg/utils"
	"go.uber.org/zap"
)

// BatchEmbedder implements Embedder over a Provider. Inputs larger than the provider's
// batch limit are split into contiguous chunks issued in order; the first failing chunk
// aborts the whole call.
type BatchEmbedder struct {
	provider   Provider
	configured int
	observed   atomic.Int64
	cache      *EmbeddingCache
	logger     *zap.Logger
}

// Option configures a BatchEmbedder.
type Option func(*BatchEmbedder)

// WithLogger sets a logger for per-chunk debug output.
func WithLogger(l *zap.Logger) Option {
	return func(e *BatchEmbedder) { e.logger = utils.OrNop(l) }
}

// WithCache enables an LRU cache of the given size for single query embeddings.
func WithCache(size int) Option {
	return func(e *BatchEmbedder) {
		if size > 0 {
			e.cache = NewEmbeddingCache(size)
		}
	}
}

// WithDimensions sets the expected dimension reported before any vector is observed.
func WithDimensions(n int) Option {
	return func(e *BatchEmbedder) { e.configured = n }
}

// NewBatchEmbedder wraps p.
func NewBatchEmbedder(p Provider, opts ...Option) *BatchEmbedder {
	e := &BatchEmbedder{provider: p, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EmbedBatch embeds texts in provider-sized chunks and concatenates the results.
func (e *BatchEmbedder) EmbedBatch(ctx context.Context, texts []string, input InputType) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, models.ErrEmptyBatch
	}
	limit := e.provider.BatchLimit()
	if limit <= 0 {
		limit = len(texts)
	}
	chunks := (len(texts) + limit - 1) / limit

	out := make([][]float32, 0, len(texts))
	dim := 0
	for start := 0; start < len(texts); start += limit {
		end := min(start+limit, len(texts))
		n := start/limit + 1
		vecs, err := e.provider.Embed(ctx, texts[start:end], input)
		if err != nil {
			e.logger.Error("embedding chunk failed",
				zap.String("provider", e.provider.Name()),
				zap.Int("chunk", n),
				zap.Int("chunks", chunks),
				zap.Error(err))
			return nil, fmt.Errorf("%s embed chunk %d/%d: %w", e.provider.Name(), n, chunks, err)
		}
		if len(vecs) != end-start {
			return nil, fmt.Errorf("%s returned %d embeddings for %d inputs", e.provider.Name(), len(vecs), end-start)
		}
		for _, v := range vecs {
			if dim == 0 {
				dim = len(v)
			}
			if len(v) == 0 || len(v) != dim {
				return nil, models.DimensionError(len(v), dim)
			}
		}
		out = append(out, vecs...)
		e.logger.Debug("embedded chunk",
			zap.String("provider", e.provider.Name()),
			zap.Int("chunk", n),
			zap.Int("chunks", chunks),
			zap.Int("size", end-start))
	}
	e.observed.Store(int64(dim))
	return out, nil
}

// Embed embeds a single text. Query embeddings are served from the cache when enabled.
func (e *BatchEmbedder) Embed(ctx context.Context, text string, input InputType) ([]float32, error) {
	useCache := e.cache != nil && input == InputQuery
	if useCache {
		if v, ok := e.cache.Get(text); ok {
			return v, nil
		}
	}
	vecs, err := e.EmbedBatch(ctx, []string{text}, input)
	if err != nil {
		return nil, err
	}
	if useCache {
		e.cache.Set(text, vecs[0])
	}
	return vecs[0], nil
}

// Dimensions returns the last observed vector length, falling back to the configured one.
func (e *BatchEmbedder) Dimensions() int {
	if d := e.observed.Load(); d > 0 {
		return int(d)
	}
	return e.configured
}

// Close closes the provider.
func (e *BatchEmbedder) Close() error {
	return e.provider.Close()
}
