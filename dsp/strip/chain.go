package strip

import (
	"errors"
	"fmt"
)

// ErrUnknownModule is returned when a slot references an unregistered module
// type or an order names a slot that was never added.
var ErrUnknownModule = errors.New("unknown module")

type slot struct {
	name       string
	moduleType string
	module     Module
	bypassed   bool
}

// Chain owns named module slots and runs them in a caller-controlled order.
// Reordering and bypassing are control-path operations; Process itself does
// not allocate.
type Chain struct {
	ctx      Context
	registry Registry

	slots map[string]*slot
	order []*slot
}

// NewChain creates an empty chain with the given context and registry.
func NewChain(ctx Context, registry Registry) *Chain {
	return &Chain{
		ctx:      ctx,
		registry: registry,
		slots:    make(map[string]*slot),
	}
}

// Context returns the chain context.
func (c *Chain) Context() Context {
	return c.ctx
}

// Add instantiates a module of the given registered type under a unique slot
// name and appends it to the processing order.
func (c *Chain) Add(name, moduleType string) error {
	if name == "" {
		return errors.New("strip: empty slot name")
	}

	if _, exists := c.slots[name]; exists {
		return fmt.Errorf("strip: duplicate slot name %q", name)
	}

	factory := c.registry.Lookup(moduleType)
	if factory == nil {
		return fmt.Errorf("%w type: %s", ErrUnknownModule, moduleType)
	}

	module, err := factory(c.ctx)
	if err != nil {
		return fmt.Errorf("strip: build slot %q (%s): %w", name, moduleType, err)
	}

	s := &slot{name: name, moduleType: moduleType, module: module}
	c.slots[name] = s
	c.order = append(c.order, s)

	return nil
}

// SetOrder replaces the processing order. Every name must refer to an added
// slot and appear at most once; slots left out of the order are skipped by
// Process until re-listed.
func (c *Chain) SetOrder(names ...string) error {
	next := make([]*slot, 0, len(names))
	seen := make(map[string]struct{}, len(names))

	for _, name := range names {
		if _, dup := seen[name]; dup {
			return fmt.Errorf("strip: slot %q listed twice", name)
		}
		seen[name] = struct{}{}

		s, ok := c.slots[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownModule, name)
		}

		next = append(next, s)
	}

	c.order = next

	return nil
}

// Order returns the active slot names in processing order.
func (c *Chain) Order() []string {
	names := make([]string, len(c.order))
	for i, s := range c.order {
		names[i] = s.name
	}

	return names
}

// SetBypassed marks a slot as bypassed without removing it from the order.
func (c *Chain) SetBypassed(name string, bypassed bool) error {
	s, ok := c.slots[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownModule, name)
	}

	s.bypassed = bypassed

	return nil
}

// Module returns the module instance behind a slot name, or nil. Callers use
// it to reach module-specific parameter setters.
func (c *Chain) Module(name string) Module {
	s, ok := c.slots[name]
	if !ok {
		return nil
	}

	return s.module
}

// Process runs the interleaved stereo block through the ordered slots in
// place, skipping bypassed ones.
func (c *Chain) Process(block []float64) {
	for _, s := range c.order {
		if s.bypassed {
			continue
		}

		s.module.Process(block)
	}
}

// Reset resets every slot's module, bypassed or not.
func (c *Chain) Reset() {
	for _, s := range c.slots {
		s.module.Reset()
	}
}
