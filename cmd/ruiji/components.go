package main

import (
	"context"
	"fmt"

	"github.com/hyperjump/ruiji/internal/config"
	"github.com/hyperjump/ruiji/internal/dataset"
	"github.com/hyperjump/ruiji/internal/embedding"
	"github.com/hyperjump/ruiji/internal/generator"
	"github.com/hyperjump/ruiji/internal/indexer"
	"github.com/hyperjump/ruiji/internal/retrieval"
	"github.com/hyperjump/ruiji/internal/vector"
	"go.uber.org/zap"
)

// Components is everything a command needs to retrieve and respond.
type Components struct {
	Embedder  embedding.Embedder
	Backend   vector.Backend
	Retriever *retrieval.Retriever
	Indexer   *indexer.Indexer
	Counselor *generator.Counselor
}

func (c *Components) Close() {
	if c.Retriever != nil {
		_ = c.Retriever.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	embedder, err := embedding.NewEmbedder(ctx, cfg.Embedding, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	logger.Info("embedder initialized",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model))

	backend, err := vector.NewBackend(ctx, cfg.Vector, embedder, logger)
	if err != nil {
		_ = embedder.Close()
		return nil, fmt.Errorf("failed to initialize vector backend: %w", err)
	}
	logger.Info("vector backend initialized", zap.String("type", backend.Type()))

	retriever := retrieval.New(backend,
		retrieval.WithLogger(logger),
		retrieval.WithDefaultK(cfg.Search.DefaultK))

	idx := indexer.NewIndexer(retriever, dataset.NewReader(cfg.Dataset.Table),
		indexer.WithLogger(logger),
		indexer.WithBatchSize(cfg.Dataset.BatchSize))

	counselor, err := generator.New(cfg.Generator, logger)
	if err != nil {
		_ = retriever.Close()
		_ = embedder.Close()
		return nil, fmt.Errorf("failed to initialize generator: %w", err)
	}
	if !counselor.Configured() {
		logger.Warn("generator not configured; query responses will carry a fixed notice")
	}

	return &Components{
		Embedder:  embedder,
		Backend:   backend,
		Retriever: retriever,
		Indexer:   idx,
		Counselor: counselor,
	}, nil
}
