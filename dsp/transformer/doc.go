// Package transformer models the input and output transformers of a classic
// bus channel strip: drive-dependent saturation, a gentle loading-compression
// effect, and model-specific shelf coloration. Four voicings are provided,
// from warm vintage iron to clean modern designs.
package transformer
