package embedding

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hyperjump/ruiji/internal/config"
	"github.com/hyperjump/ruiji/internal/models"
)

func TestNewProvider(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		cfg     config.EmbeddingConfig
		want    string
		wantErr error
	}{
		{"mock", config.EmbeddingConfig{Provider: "mock", Dimensions: 8}, "mock", nil},
		{"pinecone", config.EmbeddingConfig{Provider: "pinecone", APIKey: "k", Model: "m"}, "pinecone", nil},
		{"openai", config.EmbeddingConfig{Provider: "openai", APIKey: "k", Model: "m"}, "openai", nil},
		{"pinecone without key", config.EmbeddingConfig{Provider: "pinecone"}, "", models.ErrConfig},
		{"openai without key", config.EmbeddingConfig{Provider: "openai"}, "", models.ErrConfig},
		{"google without key", config.EmbeddingConfig{Provider: "google"}, "", models.ErrConfig},
		{"onnx without model", config.EmbeddingConfig{Provider: "onnx"}, "", models.ErrConfig},
		{"unknown", config.EmbeddingConfig{Provider: "word2vec"}, "", models.ErrConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(ctx, tt.cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err=%v, want %v", err, tt.wantErr)
				}
				if p != nil {
					t.Errorf("provider=%#v alongside error, want nil", p)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewProvider: %v", err)
			}
			defer p.Close()
			if p.Name() != tt.want {
				t.Errorf("Name=%q, want %q", p.Name(), tt.want)
			}
		})
	}
}

func TestNewProvider_ConstructorFailureReturnsNilInterface(t *testing.T) {
	cfg := config.EmbeddingConfig{Provider: "onnx", ModelPath: filepath.Join(t.TempDir(), "missing.onnx"), Dimensions: 8}
	p, err := NewProvider(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected error for missing model")
	}
	if p != nil {
		t.Errorf("provider=%#v alongside error, want nil interface", p)
	}
}

func TestNewEmbedder_Mock(t *testing.T) {
	e, err := NewEmbedder(context.Background(), config.EmbeddingConfig{Provider: "mock", Dimensions: 12, CacheSize: 4}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	v, err := e.Embed(context.Background(), "hi", InputQuery)
	if err != nil {
		t.Fatal(err)
	}
	if len(v) != 12 || e.Dimensions() != 12 {
		t.Errorf("len=%d dims=%d", len(v), e.Dimensions())
	}
}
