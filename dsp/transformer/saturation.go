package transformer

import (
	"math"

	"github.com/fsecada01/bus-channel-strip/dsp/shaping"
)

// bypassThreshold is the saturation amount below which a law passes the
// signal through untouched.
const bypassThreshold = 0.01

// vintageSaturation is warm and musical with even-harmonic content.
func vintageSaturation(input, amount float64) float64 {
	if amount < bypassThreshold {
		return input
	}

	driven := input * (1 + amount*2)
	saturated := math.Tanh(driven)

	// Squared term injects subtle even harmonics.
	harmonic := driven * driven * amount * 0.1

	wet := saturated + harmonic

	return input*(1-amount*0.7) + wet*(amount*0.7)
}

// modernSaturation stays clean with subtle odd harmonics when pushed. The
// negative half saturates slightly less, which is where the odd content
// comes from.
func modernSaturation(input, amount float64) float64 {
	if amount < bypassThreshold {
		return input
	}

	driven := input * (1 + amount*1.5)

	var saturated float64
	if driven > 0 {
		saturated = driven / (1 + driven*driven*amount)
	} else {
		saturated = driven / (1 + driven*driven*amount*0.8)
	}

	return input*(1-amount*0.5) + saturated*(amount*0.5)
}

// britishSaturation is tight and controlled: a rational soft clip with a
// very small odd-harmonic addition.
func britishSaturation(input, amount float64) float64 {
	if amount < bypassThreshold {
		return input
	}

	driven := input * (1 + amount*1.2)

	// x/(1+k|x|) via the shared sigmoid: Sigmoid(kx)/k.
	k := amount * 0.8
	saturated := shaping.Sigmoid(driven*k) / k

	harmonic := math.Copysign(driven*driven, driven) * amount * 0.05

	return input*(1-amount*0.6) + (saturated+harmonic)*(amount*0.6)
}

// americanSaturation balances vintage warmth against modern clarity: a tanh
// knee above half scale plus cubic harmonic content.
func americanSaturation(input, amount float64) float64 {
	if amount < bypassThreshold {
		return input
	}

	driven := input * (1 + amount*1.8)

	saturated := driven
	if abs := math.Abs(driven); abs > 0.5 {
		saturated = math.Copysign(0.5+math.Tanh(abs-0.5)*0.5, driven)
	}

	harmonic := driven * driven * driven * amount * 0.08

	return input*(1-amount*0.6) + (saturated+harmonic)*(amount*0.6)
}
