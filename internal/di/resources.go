package di

import (
	"sync"

	"go.uber.org/zap"
)

// Resources tracks the clients, caches and producers opened by the container
type Resources struct {
	mu    sync.Mutex
	items []any
}

// NewResources creates an empty resource tracker
func NewResources() *Resources {
	return &Resources{}
}

// Add registers a value that may need closing or stopping
func (r *Resources) Add(v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, v)
}

// Close releases every resource in reverse order of registration
func (r *Resources) Close(logger *zap.Logger) {
	r.mu.Lock()
	items := r.items
	r.items = nil
	r.mu.Unlock()

	for i := len(items) - 1; i >= 0; i-- {
		switch v := items[i].(type) {
		case interface{ Close() error }:
			if err := v.Close(); err != nil {
				logger.Error("Failed to close resource", zap.Error(err))
			}
		case interface{ Stop() }:
			v.Stop()
		}
	}
}
