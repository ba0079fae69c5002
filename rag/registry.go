package rag

import (
	"fmt"
	"sync"
)

// EmbedderFactory builds an Embedder for a model name. Construction may
// be expensive (remote client setup, local model load), which is why the
// registry caches instances.
type EmbedderFactory func(modelName string) (Embedder, error)

// ModelRegistry caches one Embedder per model name, created lazily on
// first use and never evicted. Models are few and long-lived for the
// process lifetime, so eviction is not worth the complexity. The registry
// is an explicit handle rather than package state so tests can inject a
// fake factory.
type ModelRegistry struct {
	mu      sync.RWMutex
	factory EmbedderFactory
	models  map[string]Embedder
}

// NewModelRegistry creates a registry backed by the given factory.
func NewModelRegistry(factory EmbedderFactory) *ModelRegistry {
	return &ModelRegistry{
		factory: factory,
		models:  make(map[string]Embedder),
	}
}

// Get returns the cached Embedder for modelName, constructing it through
// the factory on first use. Safe for concurrent use.
func (r *ModelRegistry) Get(modelName string) (Embedder, error) {
	r.mu.RLock()
	embedder, ok := r.models[modelName]
	r.mu.RUnlock()
	if ok {
		return embedder, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if embedder, ok := r.models[modelName]; ok {
		return embedder, nil
	}
	if r.factory == nil {
		return nil, fmt.Errorf("no embedder factory configured")
	}
	embedder, err := r.factory(modelName)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder %q: %w", modelName, err)
	}
	r.models[modelName] = embedder
	return embedder, nil
}

// Register installs a pre-built Embedder under a model name, replacing
// any cached instance.
func (r *ModelRegistry) Register(modelName string, embedder Embedder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[modelName] = embedder
}

// Len returns the number of cached models.
func (r *ModelRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.models)
}
