// Package retrieval exposes one load/search contract over whichever backend is configured.
package retrieval

import (
	"context"

	"github.com/hyperjump/ruiji/internal/models"
	"github.com/hyperjump/ruiji/internal/vector"
	"github.com/hyperjump/ruiji/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// LoadFunc populates the backend, typically from the configured dataset.
type LoadFunc func(ctx context.Context) (int, error)

// Retriever dispatches to a single backend chosen at construction.
type Retriever struct {
	backend  vector.Backend
	defaultK int
	logger   *zap.Logger
	loads    singleflight.Group
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Retriever) { r.logger = utils.OrNop(l) }
}

// WithDefaultK sets the result count used when callers pass k <= 0.
func WithDefaultK(k int) Option {
	return func(r *Retriever) {
		if k > 0 {
			r.defaultK = k
		}
	}
}

// New wraps backend.
func New(backend vector.Backend, opts ...Option) *Retriever {
	r := &Retriever{backend: backend, defaultK: 5, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateIndex forwards to the backend.
func (r *Retriever) CreateIndex(ctx context.Context, dimension int) error {
	return r.backend.CreateIndex(ctx, dimension)
}

// Load forwards to the backend.
func (r *Retriever) Load(ctx context.Context, records []models.Record) (int, error) {
	return r.backend.Load(ctx, records)
}

// Search forwards to the backend, substituting the default k for k <= 0.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]*models.SearchResult, error) {
	if k <= 0 {
		k = r.defaultK
	}
	return r.backend.Search(ctx, query, k)
}

// EnsureLoaded runs load when the backend is not ready. Concurrent callers share a
// single in-flight load, which runs detached from any one caller's cancellation; each
// caller still stops waiting when its own ctx is done.
func (r *Retriever) EnsureLoaded(ctx context.Context, load LoadFunc) error {
	if r.backend.Ready() {
		return nil
	}
	loadCtx := context.WithoutCancel(ctx)
	ch := r.loads.DoChan("load", func() (any, error) {
		if r.backend.Ready() {
			return 0, nil
		}
		r.logger.Info("index not ready, loading", zap.String("backend", r.backend.Type()))
		n, err := load(loadCtx)
		if err != nil {
			return n, err
		}
		r.logger.Info("lazy load finished", zap.Int("records", n))
		return n, nil
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		if res.Shared {
			r.logger.Debug("joined in-flight load")
		}
		if res.Err != nil {
			return res.Err
		}
	}
	if !r.backend.Ready() {
		return models.ErrNotReady
	}
	return nil
}

// Ready reports whether the backend can serve searches.
func (r *Retriever) Ready() bool { return r.backend.Ready() }

// BackendType returns the active backend name.
func (r *Retriever) BackendType() string { return r.backend.Type() }

// Size returns the number of stored records.
func (r *Retriever) Size(ctx context.Context) (int64, error) { return r.backend.Size(ctx) }

// Dimensions returns the index dimension.
func (r *Retriever) Dimensions() int { return r.backend.Dimensions() }

// DefaultK returns the result count used when callers pass k <= 0.
func (r *Retriever) DefaultK() int { return r.defaultK }

// Close closes the backend.
func (r *Retriever) Close() error { return r.backend.Close() }
