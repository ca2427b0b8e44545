package config

import "testing"

func lookupFrom(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	err := ApplyEnv(cfg, lookupFrom(map[string]string{
		"VECTOR_DB_TYPE":      "faiss",
		"PINECONE_API_KEY":    "pc-key",
		"PINECONE_NAMESPACE":  "support",
		"OPENAI_API_KEY":      "sk-test",
		"TOP_K_RESULTS":       "3",
		"DATASET_PATH":        "/srv/train.csv",
		"PINECONE_INDEX_NAME": "examples",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Vector.Backend != "flat" {
		t.Errorf("faiss should map to flat, got %s", cfg.Vector.Backend)
	}
	if cfg.Embedding.APIKey != "pc-key" {
		t.Errorf("pinecone embedding key: got %q", cfg.Embedding.APIKey)
	}
	if cfg.Generator.APIKey != "sk-test" {
		t.Errorf("generator key: got %q", cfg.Generator.APIKey)
	}
	if cfg.Search.DefaultK != 3 {
		t.Errorf("default k: got %d", cfg.Search.DefaultK)
	}
	if cfg.Dataset.Path != "/srv/train.csv" || cfg.Vector.Collection != "examples" || cfg.Vector.Namespace != "support" {
		t.Errorf("unexpected overrides: %+v / %+v", cfg.Dataset, cfg.Vector)
	}
}

func TestApplyEnv_providerSwitchResetsModel(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if err := ApplyEnv(cfg, lookupFrom(map[string]string{
		"EMBEDDING_MODEL_SOURCE": "openai",
		"OPENAI_API_KEY":         "sk-test",
	})); err != nil {
		t.Fatal(err)
	}
	if cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("model: got %s", cfg.Embedding.Model)
	}
	if cfg.Embedding.APIKey != "sk-test" {
		t.Errorf("openai embedding key: got %q", cfg.Embedding.APIKey)
	}
}

func TestApplyEnv_invalidTopK(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if err := ApplyEnv(cfg, lookupFrom(map[string]string{"TOP_K_RESULTS": "many"})); err == nil {
		t.Error("expected error for non-numeric TOP_K_RESULTS")
	}
}

func TestApplyEnv_emptyValuesIgnored(t *testing.T) {
	cfg := &Config{Vector: VectorConfig{Backend: "flat"}}
	ApplyDefaults(cfg)
	if err := ApplyEnv(cfg, lookupFrom(map[string]string{"VECTOR_DB_TYPE": ""})); err != nil {
		t.Fatal(err)
	}
	if cfg.Vector.Backend != "flat" {
		t.Errorf("empty env should not override, got %s", cfg.Vector.Backend)
	}
}
