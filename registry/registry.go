// Package registry is the model registry spec.md treats as an external
// collaborator: a concurrency-safe, append-only map from model name to
// *sim.Model. It is injected into a sim.Simulation rather than reached for
// as a process-global singleton, so that a Simulation's behavior never
// depends on which other packages happened to import the registry too.
package registry

import (
	"fmt"
	"sync"

	"github.com/tessera-sim/evsim/sim"
)

// Registry is a concurrency-safe, append-only name-to-Model map. The zero
// value is not usable; construct with New.
type Registry struct {
	mu     sync.RWMutex
	models map[string]*sim.Model
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{models: map[string]*sim.Model{}}
}

// Register adds a model under its own Name. It returns an error if a model
// with that name is already registered; registration is append-only, never
// replace-in-place, so a model cannot change meaning out from under
// simulations already running against it.
func (r *Registry) Register(m *sim.Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.models[m.Name]; exists {
		return fmt.Errorf("registry: model %q already registered", m.Name)
	}
	r.models[m.Name] = m
	return nil
}

// Lookup implements sim.ModelRegistry.
func (r *Registry) Lookup(name string) (*sim.Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[name]
	return m, ok
}

// Names returns every registered model name, useful for monitoring listings
// and CLI diagnostics.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.models))
	for n := range r.models {
		names = append(names, n)
	}
	return names
}
