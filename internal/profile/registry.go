package profile

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gyaneshwarpardhi/dbc/internal/config"
)

// Registry maps profile kinds to their builders.
// It is safe for concurrent reads; Register should only be called at startup.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// Default returns a registry holding every built-in kind.
func Default() *Registry {
	r := NewRegistry()
	r.Register(Static{})
	r.Register(Sine{})
	r.Register(Staged{})
	r.Register(Piecewise{})
	return r
}

// Register adds a builder. Panics on duplicate kind to surface misconfiguration early.
func (r *Registry) Register(b Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.builders[b.Kind()]; exists {
		panic(fmt.Sprintf("profile registry: duplicate kind %q", b.Kind()))
	}
	r.builders[b.Kind()] = b
}

// Get returns the builder for kind.
func (r *Registry) Get(kind string) (Builder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.builders[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return b, nil
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.builders))
	for k := range r.builders {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Validate checks def against its builder.
func (r *Registry) Validate(def config.ProfileDef) error {
	b, err := r.Get(def.Kind)
	if err != nil {
		return err
	}
	return b.Validate(def)
}

// Build resolves def's builder and produces duration minutes of flow.
func (r *Registry) Build(def config.ProfileDef, duration int) (Flow, error) {
	if duration <= 0 {
		return Flow{}, fmt.Errorf("profile %s: duration must be positive, got %d", def.ID, duration)
	}
	b, err := r.Get(def.Kind)
	if err != nil {
		return Flow{}, err
	}
	if err := b.Validate(def); err != nil {
		return Flow{}, err
	}
	return b.Build(def, duration)
}
