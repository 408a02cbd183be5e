// Package biquad provides single second-order IIR sections (Direct Form II
// Transposed) together with RBJ cookbook coefficient designers for the
// peaking and shelving responses used by the strip's EQ and coloration
// modules.
package biquad
