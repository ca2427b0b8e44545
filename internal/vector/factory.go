package vector

import (
	"context"

	"github.com/hyperjump/ruiji/internal/config"
	"github.com/hyperjump/ruiji/internal/embedding"
	"github.com/hyperjump/ruiji/internal/models"
	"go.uber.org/zap"
)

// NewBackend builds the backend named by cfg.Backend. The choice is made once here.
func NewBackend(ctx context.Context, cfg config.VectorConfig, embedder embedding.Embedder, logger *zap.Logger) (Backend, error) {
	switch cfg.Backend {
	case TypeFlat:
		return NewFlatIndex(embedder, logger), nil
	case TypeRemote:
		if cfg.APIKey == "" {
			return nil, models.ConfigError("remote vector backend requires an api key")
		}
		svc, err := NewQdrantService(cfg.URL, cfg.APIKey, cfg.UseTLS)
		if err != nil {
			return nil, err
		}
		idx, err := NewRemoteIndex(ctx, svc, embedder, RemoteOptions{
			APIKey:     cfg.APIKey,
			Collection: cfg.Collection,
			Namespace:  cfg.Namespace,
			Dimensions: cfg.Dimensions,
			Metric:     cfg.Metric,
			IDStrategy: cfg.IDStrategy,
		}, logger)
		if err != nil {
			_ = svc.Close()
			return nil, err
		}
		return idx, nil
	default:
		return nil, models.ConfigError("unknown vector backend %q (supported: flat, remote)", cfg.Backend)
	}
}
