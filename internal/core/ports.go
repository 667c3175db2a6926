package core

import (
	"context"
)

// ModelRequest is a single completion request to a language model
type ModelRequest struct {
	System      string
	Prompt      string
	ModelID     string
	MaxTokens   int
	Temperature float32
}

// ModelClient defines the interface for calling a hosted language model.
// Failures are reported as *CallError.
type ModelClient interface {
	// Complete sends the request and returns the raw response text
	Complete(ctx context.Context, req ModelRequest) (string, error)

	// Model returns the default model identifier used when the request leaves it empty
	Model() string
}

// CacheRepository defines the interface for caching enrichment results
type CacheRepository interface {
	// Get retrieves a cached entry by key
	Get(ctx context.Context, key string) (*CacheEntry, error)

	// Set stores a cache entry
	Set(ctx context.Context, entry *CacheEntry) error

	// Delete removes a cache entry
	Delete(ctx context.Context, key string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}
