package vector

import "context"

// Item is one point written to a vector service.
type Item struct {
	ID      string
	Vector  []float32
	Payload map[string]string
}

// Match is one ranked hit returned by a vector service.
type Match struct {
	ID      string
	Score   float32
	Vector  []float32
	Payload map[string]string
}

// VectorService is the managed vector store boundary. Collections are provisioned out
// of band with a fixed dimension and metric; namespaces partition one collection.
type VectorService interface {
	ListCollections(ctx context.Context) ([]string, error)
	Upsert(ctx context.Context, collection, namespace string, items []Item) error
	Query(ctx context.Context, collection, namespace string, vector []float32, k int) ([]Match, error)
	Count(ctx context.Context, collection, namespace string) (int64, error)
	Close() error
}
