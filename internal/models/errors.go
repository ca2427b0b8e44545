package models

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig marks invalid or incomplete configuration (missing credential,
	// unsupported backend, missing collection). Fatal at construction.
	ErrConfig = errors.New("configuration error")
	// ErrSchema marks records or tabular sources lacking Context or Response.
	ErrSchema = errors.New("schema error")
	// ErrDimensionMismatch marks vectors whose length differs from the index dimension.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrNotReady is returned when searching an index that has not been loaded.
	ErrNotReady = errors.New("index not initialized: load data first")
	// ErrEmptyBatch is returned when embedding is requested for no texts.
	ErrEmptyBatch = errors.New("empty embedding batch")
)

// ConfigError wraps ErrConfig with a formatted message.
func ConfigError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

// SchemaError wraps ErrSchema with a formatted message.
func SchemaError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSchema, fmt.Sprintf(format, args...))
}

// DimensionError wraps ErrDimensionMismatch.
func DimensionError(got, want int) error {
	return fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, got, want)
}
