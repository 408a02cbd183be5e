// Package strip assembles processing modules into a bus channel strip. A
// Chain owns named module instances built from a Registry and runs them over
// interleaved stereo blocks in a caller-controlled order, the way a patchable
// console routes its processing slots.
package strip
