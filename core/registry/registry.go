// Package registry manages handler-module registration and lookup.
// Modules are the deployable units of business logic the router dispatches
// to; the registry replaces dynamic path-based loading with explicit,
// code-supplied bindings.
package registry

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
)

// Next is the middleware continuation handed to every operation. Handlers
// invoke it to pass control onward on non-terminal paths; a non-nil error
// reaches the framework error boundary and aborts the request with a
// server error.
type Next func(error)

// Handler serves one operation of a module.
type Handler func(w http.ResponseWriter, r *http.Request, next Next)

// Module is a named set of operations. Operation names may be dotted
// (group.action); lookup descends through nested groups before invoking
// the final entry.
type Module struct {
	ops    map[string]Handler
	groups map[string]*Module
}

// NewModule creates an empty module.
func NewModule() *Module {
	return &Module{
		ops:    make(map[string]Handler),
		groups: make(map[string]*Module),
	}
}

// Handle registers an operation. A dotted name creates the intermediate
// groups as needed.
func (m *Module) Handle(name string, h Handler) *Module {
	head, rest, nested := strings.Cut(name, ".")
	if !nested {
		m.ops[name] = h
		return m
	}
	g, ok := m.groups[head]
	if !ok {
		g = NewModule()
		m.groups[head] = g
	}
	g.Handle(rest, h)
	return m
}

// Group returns the named sub-group, creating it if needed.
func (m *Module) Group(name string) *Module {
	g, ok := m.groups[name]
	if !ok {
		g = NewModule()
		m.groups[name] = g
	}
	return g
}

// Operation resolves a possibly dotted operation identifier to its handler.
func (m *Module) Operation(id string) (Handler, bool) {
	head, rest, nested := strings.Cut(id, ".")
	if !nested {
		h, ok := m.ops[id]
		return h, ok
	}
	g, ok := m.groups[head]
	if !ok {
		return nil, false
	}
	return g.Operation(rest)
}

// Operations returns the sorted, fully-qualified operation names.
func (m *Module) Operations() []string {
	var out []string
	for name := range m.ops {
		out = append(out, name)
	}
	for prefix, g := range m.groups {
		for _, name := range g.Operations() {
			out = append(out, prefix+"."+name)
		}
	}
	sort.Strings(out)
	return out
}

// Registry maps module names to modules. It is read-mostly: configure at
// startup, then look up concurrently per request.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]*Module
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{modules: make(map[string]*Module)}
}

// Register binds a module under a name. Registering the same name twice is
// a configuration error.
func (r *Registry) Register(name string, m *Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.modules[name]; exists {
		return fmt.Errorf("module %q already registered", name)
	}
	r.modules[name] = m
	return nil
}

// Unregister removes a module from the registry.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.modules[name]; !exists {
		return fmt.Errorf("module %q not registered", name)
	}
	delete(r.modules, name)
	return nil
}

// Lookup returns a module by name.
func (r *Registry) Lookup(name string) (*Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[name]
	return m, ok
}

// Has reports whether a module is registered under the name.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns all registered module names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownModuleError reports a module the service document references but
// the registry does not know.
type UnknownModuleError struct {
	Module string
}

func (e *UnknownModuleError) Error() string {
	return fmt.Sprintf("handler module %q not registered", e.Module)
}

// UnknownOperationError reports an operation identifier that does not
// resolve to a callable within its module.
type UnknownOperationError struct {
	Module    string
	Operation string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("operation %q not found in module %q", e.Operation, e.Module)
}
