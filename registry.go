package constraint

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps constraint names to their definitions. It is safe for
// concurrent use; built-in constraints are registered on the default
// registry at init time.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: map[string]Definition{}}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry holding the built-in
// constraints.
func DefaultRegistry() *Registry { return defaultRegistry }

// Register adds a definition. It rejects empty or duplicate names,
// definitions with neither a factory nor a composition, and compositions
// that reference themselves directly or transitively.
func (r *Registry) Register(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("constraint: definition name must not be empty")
	}
	if def.New == nil && len(def.Composes) == 0 {
		return fmt.Errorf("constraint %q: definition needs a factory or a composition", def.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.defs[def.Name]; dup {
		return fmt.Errorf("constraint %q: already registered", def.Name)
	}
	if err := r.checkCompositionLocked(def.Name, def.Composes, map[string]bool{def.Name: true}); err != nil {
		return err
	}
	r.defs[def.Name] = def
	return nil
}

// MustRegister registers a definition and panics on error. Intended for
// package init of built-ins.
func (r *Registry) MustRegister(def Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// checkCompositionLocked walks the composition graph rooted at name and
// fails on cycles. Constituents not yet registered are allowed; their own
// registration re-checks the graph reachable from them.
func (r *Registry) checkCompositionLocked(name string, composes []Descriptor, onPath map[string]bool) error {
	for _, c := range composes {
		if onPath[c.Name] {
			return fmt.Errorf("constraint %q: composition cycle through %q", name, c.Name)
		}
		sub, ok := r.defs[c.Name]
		if !ok {
			continue
		}
		onPath[c.Name] = true
		if err := r.checkCompositionLocked(name, sub.Composes, onPath); err != nil {
			return err
		}
		delete(onPath, c.Name)
	}
	return nil
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	return def, ok
}

// Names returns the registered constraint names in ascending order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.defs))
	for name := range r.defs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Register adds a definition to the default registry.
func Register(def Definition) error { return defaultRegistry.Register(def) }
