// Package vector provides the flat and remote index backends behind one Backend contract.
package vector

import (
	"context"

	"github.com/hyperjump/ruiji/internal/models"
)

// Backend is the load/search contract shared by every index implementation.
type Backend interface {
	// CreateIndex prepares an empty index of the given dimension. On the flat backend
	// this discards any loaded data.
	CreateIndex(ctx context.Context, dimension int) error
	// Load validates, embeds and stores records, returning how many were stored.
	Load(ctx context.Context, records []models.Record) (int, error)
	// Search returns at most k records nearest to query, highest score first.
	Search(ctx context.Context, query string, k int) ([]*models.SearchResult, error)
	Size(ctx context.Context) (int64, error)
	Dimensions() int
	// Ready reports whether the backend can serve searches.
	Ready() bool
	Type() string
	Close() error
}

const (
	// TypeFlat is the in-process exact search backend.
	TypeFlat = "flat"
	// TypeRemote is the managed vector service backend.
	TypeRemote = "remote"
)
