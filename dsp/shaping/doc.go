// Package shaping provides musical transfer functions shared by the
// coloration modules: soft saturation, perceptual control curves, and a
// soft-knee compression law. All functions are pure and allocation-free.
package shaping
