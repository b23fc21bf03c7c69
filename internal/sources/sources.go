// Package sources defines the data-source abstraction the run pipeline
// pulls allocation datasets through. A Source owns the connection to one
// system (HTTP API, database, or snapshot file) and produces the
// normalized records.Dataset for a reporting window.
//
// Sources handle their own authentication and shaping internally; by the
// time a dataset leaves a Source it is in the shared vocabulary the
// matcher and differ operate on.
package sources

import (
	"context"
	"sync"

	"github.com/nexa-labs/crosscheck/pkg/errors"
	"github.com/nexa-labs/crosscheck/pkg/records"
)

// Source produces one system's dataset for a reporting window.
type Source interface {
	// System identifies which side of the reconciliation this source feeds.
	System() records.System

	// Fetch retrieves and normalizes the system's records. Implementations
	// honor ctx cancellation on all remote calls.
	Fetch(ctx context.Context, window records.Window) (*records.Dataset, error)

	// Cleanup releases held resources (connections, temp files). Called
	// once after all Fetch operations complete.
	Cleanup() error
}

// Registry is a thread-safe container of sources keyed by system.
type Registry struct {
	mu      sync.RWMutex
	sources map[records.System]Source
}

// NewRegistry creates an empty source registry.
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[records.System]Source),
	}
}

// Get returns the source registered for a system.
func (r *Registry) Get(system records.System) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, found := r.sources[system]
	return src, found
}

// Set registers a source under its own system, replacing any previous
// registration for that system.
func (r *Registry) Set(src Source) error {
	if src == nil {
		return &errors.ValidationError{Field: "source", Message: "cannot register nil source"}
	}
	if !src.System().IsValid() {
		return &errors.ValidationError{Field: "system", Value: src.System(), Message: "unknown system"}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[src.System()] = src
	return nil
}

// Len returns the number of registered sources.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sources)
}

// Systems returns the systems with a registered source, in the fixed
// roster-then-planner order.
func (r *Registry) Systems() []records.System {
	r.mu.RLock()
	defer r.mu.RUnlock()
	systems := make([]records.System, 0, len(r.sources))
	for _, system := range records.AllSystems() {
		if _, found := r.sources[system]; found {
			systems = append(systems, system)
		}
	}
	return systems
}

// Cleanup calls Cleanup on every registered source, returning the first
// error encountered.
func (r *Registry) Cleanup() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var first error
	for _, src := range r.sources {
		if err := src.Cleanup(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
