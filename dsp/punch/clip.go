package punch

import "math"

// ClipMode selects the transfer function used by the clipper.
type ClipMode int

const (
	// ClipModeHard clamps at the threshold; mathematically cleanest and the
	// most transparent for small amounts.
	ClipModeHard ClipMode = iota
	// ClipModeSoft uses tanh saturation for a warmer, compressed character.
	ClipModeSoft
	// ClipModeCubic uses a polynomial curve with reduced high-frequency
	// harmonics.
	ClipModeCubic
)

// String returns the host-facing name of the mode.
func (m ClipMode) String() string {
	switch m {
	case ClipModeHard:
		return "Hard"
	case ClipModeSoft:
		return "Soft"
	case ClipModeCubic:
		return "Cubic"
	default:
		return "Hard"
	}
}

// hardClip clamps input to [-threshold, threshold].
func hardClip(input, threshold float64) float64 {
	if input > threshold {
		return threshold
	}

	if input < -threshold {
		return -threshold
	}

	return input
}

// softClipTanh passes signals below the softness-derived knee and saturates
// the rest toward ±threshold with a normalized tanh curve.
func softClipTanh(input, threshold, softness float64) float64 {
	if math.Abs(input) < threshold*(1-softness*0.3) {
		return input
	}

	normalized := input / threshold
	drive := 1 + softness*2

	return mathTanh(normalized*drive) / mathTanh(drive) * threshold
}

// softClipCubic passes signals below the knee and limits the rest along a
// cubic segment, hard-limiting beyond the knee span.
func softClipCubic(input, threshold, softness float64) float64 {
	kneeStart := threshold * (1 - softness*0.5)

	absInput := math.Abs(input)
	if absInput < kneeStart {
		return input
	}

	sign := 1.0
	if input < 0 {
		sign = -1.0
	}

	x := (absInput - kneeStart) / (threshold - kneeStart + 1e-4)
	if x < 0 {
		x = 0
	} else if x > 2 {
		x = 2
	}

	// y = x - x^3/3 inside the knee span, 2/3 past it.
	cubic := 2.0 / 3.0
	if x < 1 {
		cubic = x - x*x*x/3
	}

	outputRange := threshold - kneeStart

	return sign * (kneeStart + cubic*outputRange*1.5)
}

// applyClipping dispatches on mode. Hard mode blends toward the tanh curve
// once softness exceeds 0.01 (strict), producing an intermediate character;
// Soft and Cubic floor softness at 0.5.
func applyClipping(input, threshold, softness float64, mode ClipMode) float64 {
	switch mode {
	case ClipModeSoft:
		return softClipTanh(input, threshold, math.Max(softness, 0.5))
	case ClipModeCubic:
		return softClipCubic(input, threshold, math.Max(softness, 0.5))
	default:
		if softness > 0.01 {
			hard := hardClip(input, threshold)
			soft := softClipTanh(input, threshold, softness)

			return hard*(1-softness) + soft*softness
		}

		return hardClip(input, threshold)
	}
}
