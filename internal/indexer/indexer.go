// Package indexer bulk-loads tabular datasets into a retrieval backend in fixed-size batches.
package indexer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hyperjump/ruiji/internal/models"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DefaultBatchSize is the number of rows sent per Load call.
const DefaultBatchSize = 30

// Target is the index being populated.
type Target interface {
	CreateIndex(ctx context.Context, dimension int) error
	Load(ctx context.Context, records []models.Record) (int, error)
	Dimensions() int
	Ready() bool
}

// Source reads records from a dataset file.
type Source interface {
	Read(path string) ([]models.Record, error)
}

// Report summarizes a bulk load.
type Report struct {
	Path          string        `json:"path,omitempty"`
	Total         int           `json:"total"`
	Loaded        int           `json:"loaded"`
	Batches       int           `json:"batches"`
	FailedBatches int           `json:"failed_batches"`
	Duration      time.Duration `json:"duration"`
}

// Indexer loads records batch by batch. A failed batch is logged and the rest continue.
// File loads and reloads are serialized so a reset never interleaves with another load.
type Indexer struct {
	target    Target
	source    Source
	batchSize int
	logger    *zap.Logger

	mu sync.Mutex
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for per-batch output.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) {
		if l != nil {
			idx.logger = l
		}
	}
}

// WithBatchSize overrides DefaultBatchSize.
func WithBatchSize(n int) IndexerOption {
	return func(idx *Indexer) {
		if n > 0 {
			idx.batchSize = n
		}
	}
}

// NewIndexer creates an indexer writing to target and reading files through source.
func NewIndexer(target Target, source Source, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		target:    target,
		source:    source,
		batchSize: DefaultBatchSize,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// LoadRecords validates every record up front, then loads them in batches. The
// returned error aggregates all failed batches.
func (idx *Indexer) LoadRecords(ctx context.Context, records []models.Record) (*Report, error) {
	start := time.Now()
	report := &Report{Total: len(records)}
	if err := models.ValidateRecords(records); err != nil {
		return report, err
	}

	var errs error
	for lo := 0; lo < len(records); lo += idx.batchSize {
		if err := ctx.Err(); err != nil {
			errs = multierr.Append(errs, err)
			break
		}
		hi := min(lo+idx.batchSize, len(records))
		report.Batches++

		n, err := idx.target.Load(ctx, records[lo:hi])
		if err != nil {
			report.FailedBatches++
			idx.logger.Error("batch failed",
				zap.Int("batch", report.Batches),
				zap.Int("from", lo),
				zap.Int("to", hi),
				zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("batch %d (rows %d-%d): %w", report.Batches, lo, hi-1, err))
			continue
		}
		report.Loaded += n
		idx.logger.Debug("batch loaded", zap.Int("batch", report.Batches), zap.Int("records", n))
	}

	report.Duration = time.Since(start)
	idx.logger.Info("bulk load finished",
		zap.Int("total", report.Total),
		zap.Int("loaded", report.Loaded),
		zap.Int("failed_batches", report.FailedBatches),
		zap.Duration("duration", report.Duration))
	return report, errs
}

// LoadFile reads path and loads its records.
func (idx *Indexer) LoadFile(ctx context.Context, path string) (*Report, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.loadFile(ctx, path)
}

func (idx *Indexer) loadFile(ctx context.Context, path string) (*Report, error) {
	records, err := idx.source.Read(path)
	if err != nil {
		return &Report{Path: path}, fmt.Errorf("read dataset %s: %w", path, err)
	}
	idx.logger.Info("read dataset", zap.String("path", path), zap.Int("records", len(records)))
	report, err := idx.LoadRecords(ctx, records)
	report.Path = path
	return report, err
}

// Reload re-reads path and, only once it parsed cleanly, resets the index and loads it.
func (idx *Indexer) Reload(ctx context.Context, path string) (*Report, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	records, err := idx.source.Read(path)
	if err != nil {
		return &Report{Path: path}, fmt.Errorf("read dataset %s: %w", path, err)
	}
	if err := models.ValidateRecords(records); err != nil {
		return &Report{Path: path, Total: len(records)}, err
	}
	if d := idx.target.Dimensions(); d > 0 {
		if err := idx.target.CreateIndex(ctx, d); err != nil {
			return &Report{Path: path}, fmt.Errorf("reset index: %w", err)
		}
	}
	report, err := idx.LoadRecords(ctx, records)
	report.Path = path
	return report, err
}

// LazyLoader returns a load function for path suitable for on-demand loading. It does
// nothing when the target became ready while waiting, e.g. behind a Reload. Partial
// batch failures are logged and tolerated as long as some rows were stored.
func (idx *Indexer) LazyLoader(path string) func(ctx context.Context) (int, error) {
	return func(ctx context.Context) (int, error) {
		idx.mu.Lock()
		defer idx.mu.Unlock()
		if idx.target.Ready() {
			idx.logger.Debug("lazy load skipped, index already loaded", zap.String("path", path))
			return 0, nil
		}
		report, err := idx.loadFile(ctx, path)
		if err != nil && report.Loaded > 0 {
			idx.logger.Warn("dataset partially loaded", zap.Int("loaded", report.Loaded), zap.Error(err))
			return report.Loaded, nil
		}
		return report.Loaded, err
	}
}
