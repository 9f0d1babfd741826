package rules

import (
	"sort"
	"sync"

	"github.com/aretw0/botflow/pkg/domain"
)

// Predicate decides whether an event is relevant. It may block on I/O and may fail.
type Predicate func(c *domain.Context) (bool, error)

// Selector is a named predicate. It is immutable once registered.
type Selector struct {
	name      string
	predicate Predicate
}

// NewSelector creates a selector. Empty names and nil predicates are rejected.
func NewSelector(name string, predicate Predicate) (*Selector, error) {
	if name == "" {
		return nil, domain.NewConfigurationError("selector", "", "name is required")
	}
	if predicate == nil {
		return nil, domain.NewConfigurationError("selector", name, "predicate is required")
	}
	return &Selector{name: name, predicate: predicate}, nil
}

// Name returns the selector name.
func (s *Selector) Name() string { return s.name }

// Match evaluates the predicate.
func (s *Selector) Match(c *domain.Context) (bool, error) {
	return s.predicate(c)
}

// Registry is the pool of selectors shared by every action of a router.
// Names are unique within a Registry.
type Registry struct {
	mu        sync.RWMutex
	selectors map[string]*Selector
}

// NewRegistry creates an empty selector registry.
func NewRegistry() *Registry {
	return &Registry{
		selectors: make(map[string]*Selector),
	}
}

// Register adds a selector. A duplicate name is a configuration error.
func (r *Registry) Register(s *Selector) error {
	if s == nil {
		return domain.NewConfigurationError("selector", "", "selector is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.selectors[s.name]; exists {
		return domain.NewConfigurationError("selector", s.name, "already registered")
	}
	r.selectors[s.name] = s
	return nil
}

// Lookup returns the selector registered under name.
func (r *Registry) Lookup(name string) (*Selector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.selectors[name]
	return s, ok
}

// Contains reports whether name is registered.
func (r *Registry) Contains(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns the registered selector names in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.selectors))
	for name := range r.selectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered selectors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.selectors)
}
