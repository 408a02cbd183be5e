package strip

import (
	"errors"
	"fmt"
	"sort"
)

// Factory builds one Module instance for a chain slot.
type Factory func(ctx Context) (Module, error)

// Registry maps module type names to their factories. The zero value is not
// usable; construct with NewRegistry.
type Registry map[string]Factory

// NewRegistry creates an empty registry.
func NewRegistry() Registry {
	return make(Registry)
}

// Register adds a factory under a module type name. Names are registered
// once; re-registering is an error rather than a silent replacement.
func (r Registry) Register(moduleType string, factory Factory) error {
	switch {
	case moduleType == "":
		return errors.New("strip: empty module type")
	case factory == nil:
		return fmt.Errorf("strip: nil factory for module type %q", moduleType)
	}

	if _, taken := r[moduleType]; taken {
		return fmt.Errorf("strip: module type %q already registered", moduleType)
	}

	r[moduleType] = factory

	return nil
}

// MustRegister is like Register but panics on error.
func (r Registry) MustRegister(moduleType string, factory Factory) {
	if err := r.Register(moduleType, factory); err != nil {
		panic(err.Error())
	}
}

// Lookup returns the factory for the given module type, or nil.
func (r Registry) Lookup(moduleType string) Factory {
	return r[moduleType]
}

// Types returns the registered module type names in sorted order.
func (r Registry) Types() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
