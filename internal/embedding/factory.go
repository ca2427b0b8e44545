package embedding

import (
	"context"

	"github.com/hyperjump/ruiji/internal/config"
	"github.com/hyperjump/ruiji/internal/models"
	"go.uber.org/zap"
)

// NewProvider builds the provider named by cfg.Provider.
func NewProvider(ctx context.Context, cfg config.EmbeddingConfig) (Provider, error) {
	needKey := func() error {
		if cfg.APIKey == "" {
			return models.ConfigError("embedding provider %q requires an api key", cfg.Provider)
		}
		return nil
	}

	switch cfg.Provider {
	case "pinecone":
		if err := needKey(); err != nil {
			return nil, err
		}
		p, err := NewPineconeProvider(cfg.APIKey, cfg.Model, cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "openai":
		if err := needKey(); err != nil {
			return nil, err
		}
		return NewOpenAIProvider(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	case "google":
		if err := needKey(); err != nil {
			return nil, err
		}
		p, err := NewGoogleProvider(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "onnx":
		if cfg.ModelPath == "" {
			return nil, models.ConfigError("onnx provider requires model_path")
		}
		p, err := NewONNXProvider(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "mock":
		return NewMockProvider(cfg.Dimensions, 0), nil
	default:
		return nil, models.ConfigError("unknown embedding provider %q", cfg.Provider)
	}
}

// NewEmbedder builds the configured provider wrapped in a BatchEmbedder.
func NewEmbedder(ctx context.Context, cfg config.EmbeddingConfig, logger *zap.Logger) (*BatchEmbedder, error) {
	p, err := NewProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewBatchEmbedder(p,
		WithLogger(logger),
		WithCache(cfg.CacheSize),
		WithDimensions(cfg.Dimensions),
	), nil
}
