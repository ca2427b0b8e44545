package config

import (
	"fmt"
	"os"
	"strconv"
)

// LookupFunc looks up an environment variable; os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides cfg with environment variables. Secrets are normally supplied this way
// rather than in the config file. Unset or empty variables leave the file value in place.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("VECTOR_DB_TYPE", &cfg.Vector.Backend)
	str("QDRANT_URL", &cfg.Vector.URL)
	str("QDRANT_API_KEY", &cfg.Vector.APIKey)
	str("PINECONE_INDEX_NAME", &cfg.Vector.Collection)
	str("PINECONE_NAMESPACE", &cfg.Vector.Namespace)
	provider := cfg.Embedding.Provider
	str("EMBEDDING_MODEL_SOURCE", &cfg.Embedding.Provider)
	if cfg.Embedding.Provider != provider {
		cfg.Embedding.Model = DefaultEmbeddingModel(cfg.Embedding.Provider)
	}
	str("EMBEDDING_MODEL", &cfg.Embedding.Model)
	str("OPENAI_MODEL", &cfg.Generator.Model)
	str("OPENAI_API_KEY", &cfg.Generator.APIKey)
	str("DATASET_PATH", &cfg.Dataset.Path)

	// The legacy VECTOR_DB_TYPE value for the in-process index was "faiss".
	if cfg.Vector.Backend == "faiss" {
		cfg.Vector.Backend = "flat"
	}

	if cfg.Embedding.APIKey == "" {
		switch cfg.Embedding.Provider {
		case "pinecone":
			str("PINECONE_API_KEY", &cfg.Embedding.APIKey)
		case "openai":
			str("OPENAI_API_KEY", &cfg.Embedding.APIKey)
		case "google":
			str("GOOGLE_API_KEY", &cfg.Embedding.APIKey)
		}
	}

	if v, ok := lookup("TOP_K_RESULTS"); ok && v != "" {
		k, err := strconv.Atoi(v)
		if err != nil || k <= 0 {
			return fmt.Errorf("invalid TOP_K_RESULTS %q", v)
		}
		cfg.Search.DefaultK = k
	}
	return nil
}
