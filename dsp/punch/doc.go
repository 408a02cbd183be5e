// Package punch implements the strip's combined clipper and transient
// shaper.
//
// The module clips the program material against a selectable nonlinear
// transfer function (hard, tanh, or cubic) while a dual-envelope detector
// tracks transient activity and rebalances attack and sustain energy of the
// clipped signal. The nonlinear stage runs at an internal oversampled rate
// (1x/4x/8x/16x) to keep distortion aliasing out of the audible band; the
// decimation filter is deliberately minimal-phase and cheap, so the stage
// adds no latency.
//
// All per-block processing is allocation-free and single-threaded; exactly
// two channels (left/right) are supported. Parameters arrive as a snapshot
// once per block and are clamped into range rather than rejected.
package punch
