package strip

import (
	"github.com/fsecada01/bus-channel-strip/dsp/dynamics"
	"github.com/fsecada01/bus-channel-strip/dsp/eq/console"
	"github.com/fsecada01/bus-channel-strip/dsp/eq/dynamic"
	"github.com/fsecada01/bus-channel-strip/dsp/eq/passive"
	"github.com/fsecada01/bus-channel-strip/dsp/punch"
	"github.com/fsecada01/bus-channel-strip/dsp/transformer"
)

// Module type names registered by DefaultRegistry.
const (
	TypeConsoleEQ   = "console-eq"
	TypeDynamicEQ   = "dynamic-eq"
	TypeGlue        = "glue"
	TypePassiveEQ   = "passive-eq"
	TypePunch       = "punch"
	TypeTransformer = "transformer"
)

// DefaultRegistry returns a registry with the strip's standard modules. Each
// factory builds a neutral instance; callers reach the concrete type through
// Chain.Module for parameter changes.
func DefaultRegistry() Registry {
	r := NewRegistry()

	r.MustRegister(TypeConsoleEQ, func(ctx Context) (Module, error) {
		return console.New(ctx.SampleRate)
	})

	r.MustRegister(TypeDynamicEQ, func(ctx Context) (Module, error) {
		return dynamic.New(ctx.SampleRate)
	})

	r.MustRegister(TypeGlue, func(ctx Context) (Module, error) {
		return dynamics.NewGlueCompressor(ctx.SampleRate)
	})

	r.MustRegister(TypePassiveEQ, func(ctx Context) (Module, error) {
		return passive.New(ctx.SampleRate)
	})

	r.MustRegister(TypePunch, func(ctx Context) (Module, error) {
		return punch.New(ctx.SampleRate)
	})

	r.MustRegister(TypeTransformer, func(ctx Context) (Module, error) {
		return transformer.New(ctx.SampleRate)
	})

	return r
}
