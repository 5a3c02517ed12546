package catcher

import (
	"errors"
	"sync"
)

// ErrWorkNotFound is returned by Registry.Retrieve when no secured unit of
// work matches the definition.
var ErrWorkNotFound = errors.New("unit of work not found in registry")

// Registry is a store for secured units of work that allows retrieval based
// on their definitions. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries []*Secured
}

// NewRegistry creates a new Registry with the provided secured units.
func NewRegistry(entries ...*Secured) *Registry {
	return &Registry{entries: entries}
}

// Register adds secured units to the registry.
func (r *Registry) Register(entries ...*Secured) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, entries...)
}

// Retrieve returns the secured unit matching the definition's name and
// version. It returns ErrWorkNotFound if none matches.
func (r *Registry) Retrieve(def Definition) (*Secured, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.entries {
		if s.work.Name() == def.Name && s.work.Version() == def.Version.String() {
			return s, nil
		}
	}

	return nil, ErrWorkNotFound
}
