// Package provider defines the data-provider capability interface and
// the registry the fan-out coordinator dispatches against.
package provider

import (
	"context"
	"sync"

	"github.com/tracefind/trace-search/internal/result"
)

// Provider is a single data source. Implementations may parallelize
// their own network calls internally; the coordinator paces dispatches
// across providers.
type Provider interface {
	// Name is the stable source name this provider reports on results.
	Name() string

	// CanHandle reports whether the provider can answer a query with
	// the given field set.
	CanHandle(fields map[string]struct{}) bool

	// Search produces zero or more raw results for the query. Errors
	// are isolated by the coordinator and never abort the fan-out.
	Search(ctx context.Context, q *result.Query) ([]*result.RawResult, error)
}

// Registry holds registered providers in registration order.
type Registry struct {
	mu        sync.RWMutex
	providers []Provider
	byName    map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Provider),
	}
}

// Register adds a provider. Re-registering a name replaces the previous
// entry but keeps its position.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[p.Name()]; exists {
		for i, existing := range r.providers {
			if existing.Name() == p.Name() {
				r.providers[i] = p
				break
			}
		}
	} else {
		r.providers = append(r.providers, p)
	}
	r.byName[p.Name()] = p
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byName[name]
	return p, ok
}

// All returns all providers in registration order.
func (r *Registry) All() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

// Capable returns the providers whose CanHandle accepts the field set,
// in registration order.
func (r *Registry) Capable(fields map[string]struct{}) []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var capable []Provider
	for _, p := range r.providers {
		if p.CanHandle(fields) {
			capable = append(capable, p)
		}
	}
	return capable
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

// hasAny reports whether any of the wanted field names is present.
func hasAny(fields map[string]struct{}, wanted ...string) bool {
	for _, w := range wanted {
		if _, ok := fields[w]; ok {
			return true
		}
	}
	return false
}
