package vector

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/hyperjump/ruiji/internal/embedding"
	"github.com/hyperjump/ruiji/internal/models"
	"github.com/hyperjump/ruiji/pkg/utils"
	"go.uber.org/zap"
)

// FlatIndex is an in-memory exact nearest-neighbor index. Vectors and records are
// parallel sequences sharing positions; both are only ever extended together under
// the write lock, so len(vectors) == len(records) holds for every reader.
type FlatIndex struct {
	embedder embedding.Embedder
	logger   *zap.Logger

	mu         sync.RWMutex
	dimensions int
	vectors    [][]float32
	records    []models.Record
	ready      bool
}

// NewFlatIndex returns an empty index. The index is sized on first load unless
// CreateIndex is called first.
func NewFlatIndex(embedder embedding.Embedder, logger *zap.Logger) *FlatIndex {
	return &FlatIndex{embedder: embedder, logger: utils.OrNop(logger)}
}

// CreateIndex resets the index to empty with the given dimension.
func (f *FlatIndex) CreateIndex(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return models.ConfigError("index dimension must be positive, got %d", dimension)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if n := len(f.records); n > 0 {
		f.logger.Warn("discarding loaded records", zap.Int("records", n))
	}
	f.dimensions = dimension
	f.vectors = nil
	f.records = nil
	f.ready = false
	return nil
}

// Load validates all records, embeds their contexts as one batch and appends them.
// Records receive their position as identifier.
func (f *FlatIndex) Load(ctx context.Context, records []models.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	if err := models.ValidateRecords(records); err != nil {
		return 0, err
	}
	vecs, err := f.embedder.EmbedBatch(ctx, models.Contexts(records), embedding.InputPassage)
	if err != nil {
		return 0, fmt.Errorf("embed records: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.dimensions == 0 {
		f.dimensions = len(vecs[0])
		f.logger.Debug("created flat index", zap.Int("dimensions", f.dimensions))
	}
	for _, v := range vecs {
		if len(v) != f.dimensions {
			return 0, models.DimensionError(len(v), f.dimensions)
		}
	}

	base := len(f.records)
	for i, r := range records {
		r.ID = strconv.Itoa(base + i)
		vec := make([]float32, len(vecs[i]))
		copy(vec, vecs[i])
		f.vectors = append(f.vectors, vec)
		f.records = append(f.records, r)
	}
	f.ready = true

	f.logger.Info("loaded records", zap.Int("records", len(records)), zap.Int("size", len(f.records)))
	return len(records), nil
}

// Search returns the k records closest to query by squared L2 distance, scored 1/(1+d).
func (f *FlatIndex) Search(ctx context.Context, query string, k int) ([]*models.SearchResult, error) {
	if !f.Ready() {
		return nil, models.ErrNotReady
	}
	if k <= 0 {
		return []*models.SearchResult{}, nil
	}
	q, err := f.embedder.Embed(ctx, query, embedding.InputQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	// CreateIndex may have run while the query was embedded.
	if !f.ready {
		return nil, models.ErrNotReady
	}
	if len(q) != f.dimensions {
		return nil, models.DimensionError(len(q), f.dimensions)
	}

	hits := nearest(q, f.vectors, k)
	results := make([]*models.SearchResult, 0, len(hits))
	for _, h := range hits {
		if h.pos >= len(f.records) {
			continue
		}
		results = append(results, &models.SearchResult{
			Record: f.records[h.pos],
			Score:  distanceScore(h.distance),
			Rank:   len(results) + 1,
		})
	}
	return results, nil
}

// Size returns the number of stored records.
func (f *FlatIndex) Size(context.Context) (int64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return int64(len(f.records)), nil
}

// Dimensions returns the index dimension, or 0 before the index exists.
func (f *FlatIndex) Dimensions() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dimensions
}

// Ready reports whether a load has succeeded since construction or the last CreateIndex.
func (f *FlatIndex) Ready() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.ready
}

func (f *FlatIndex) Type() string { return TypeFlat }

// Close drops all stored data.
func (f *FlatIndex) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vectors = nil
	f.records = nil
	f.ready = false
	return nil
}

