package native

import (
	"fmt"
	"reflect"
	"sort"
)

// Registry holds the host type bindings of one assembly.
type Registry struct {
	byType map[reflect.Type]*TypeBinding
	byName map[string]*TypeBinding
}

// NewRegistry creates a new, empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byType: make(map[reflect.Type]*TypeBinding),
		byName: make(map[string]*TypeBinding),
	}
}

// Register adds a binding. A type or name can only be registered once.
func (r *Registry) Register(b *TypeBinding) error {
	if b.Type == nil {
		return fmt.Errorf("binding %q has no host type", b.Name)
	}
	if prev, ok := r.byType[b.Type]; ok {
		return fmt.Errorf("host type %s is already registered as %q", b.Type, prev.Name)
	}
	if _, ok := r.byName[b.Name]; ok {
		return fmt.Errorf("class name %q is already bound to a host type", b.Name)
	}
	r.byType[b.Type] = b
	r.byName[b.Name] = b
	return nil
}

// Lookup finds the binding of a host type.
func (r *Registry) Lookup(t reflect.Type) (*TypeBinding, bool) {
	b, ok := r.byType[t]
	return b, ok
}

// LookupName finds a binding by its script class name.
func (r *Registry) LookupName(name string) (*TypeBinding, bool) {
	b, ok := r.byName[name]
	return b, ok
}

// Names returns the registered class names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
