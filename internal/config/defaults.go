package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "pinecone"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = DefaultEmbeddingModel(cfg.Embedding.Provider)
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 1000
	}
	if cfg.Vector.Backend == "" {
		cfg.Vector.Backend = "remote"
	}
	if cfg.Vector.URL == "" {
		cfg.Vector.URL = "localhost:6334"
	}
	if cfg.Vector.Collection == "" {
		cfg.Vector.Collection = "llama-text-embed-v2-index"
	}
	if cfg.Vector.Namespace == "" {
		cfg.Vector.Namespace = "counseling"
	}
	if cfg.Vector.Dimensions == 0 {
		cfg.Vector.Dimensions = 1024
	}
	if cfg.Vector.Metric == "" {
		cfg.Vector.Metric = "cosine"
	}
	if cfg.Vector.IDStrategy == "" {
		cfg.Vector.IDStrategy = "content"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = cfg.Vector.Dimensions
	}
	if cfg.Search.DefaultK == 0 {
		cfg.Search.DefaultK = 5
	}
	if cfg.Search.MaxK == 0 {
		cfg.Search.MaxK = 50
	}
	if cfg.Dataset.Path == "" {
		cfg.Dataset.Path = "data/train.csv"
	}
	if cfg.Dataset.Table == "" {
		cfg.Dataset.Table = "records"
	}
	if cfg.Dataset.BatchSize == 0 {
		cfg.Dataset.BatchSize = 30
	}
	if cfg.Generator.Provider == "" {
		cfg.Generator.Provider = "openai"
	}
	if cfg.Generator.Model == "" {
		cfg.Generator.Model = "gpt-4"
	}
	if cfg.Generator.MaxTokens == 0 {
		cfg.Generator.MaxTokens = 600
	}
	if cfg.Generator.Temperature == 0 {
		cfg.Generator.Temperature = 0.7
	}
}

// DefaultEmbeddingModel returns the model used by provider when none is configured.
func DefaultEmbeddingModel(provider string) string {
	switch provider {
	case "openai":
		return "text-embedding-3-small"
	case "google":
		return "text-embedding-004"
	default:
		return "llama-text-embed-v2"
	}
}
