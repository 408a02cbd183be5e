package shaping

import (
	"math"

	"github.com/fsecada01/bus-channel-strip/dsp/core"
)

// Sigmoid is a rational soft saturator, x / (1 + |x|). It maps the real line
// onto (-1, 1) with unity slope at the origin, useful for soft knees and
// gentle limiting without the cost of a transcendental.
func Sigmoid(x float64) float64 {
	return x / (1 + math.Abs(x))
}

// TanhSaturation applies tube-style tanh saturation with level compensation.
// drive runs [0, 1]; at 0 the curve is plain tanh at unity drive.
func TanhSaturation(x, drive float64) float64 {
	driven := x * (1 + drive*2)

	return math.Tanh(driven) * (1 / (1 + drive*0.5))
}

// ExpCurve reshapes a normalized control value x in [0, 1]. Positive
// curveAmount bends toward an exponential rise, negative toward a
// logarithmic one. The result is clamped back into [0, 1].
func ExpCurve(x, curveAmount float64) float64 {
	var shaped float64
	if curveAmount > 0 {
		shaped = (math.Pow(x, 1+curveAmount*2)-x)*curveAmount + x
	} else {
		logCurve := -curveAmount
		shaped = x - (x-math.Pow(x, 1/(1+logCurve*2)))*logCurve
	}

	return core.Clamp(shaped, 0, 1)
}

// PolyLogCurve blends a cubic polynomial bend with a logarithmic lift for
// filter and tone controls. x is a normalized control value in [0, 1].
func PolyLogCurve(x, polyAmount, logAmount float64) float64 {
	polyPart := x + polyAmount*(x*x*x-x)

	var logPart float64
	if x > 0 {
		logPart = logAmount * math.Log2(1+x)
	}

	return core.Clamp(polyPart+logPart, 0, 1)
}

// SoftKneeCompress applies a static compression curve with a sigmoid knee.
// Samples below threshold pass unchanged; above it the overshoot is divided
// by a ratio that fades in across kneeWidth. A kneeWidth of 0 switches hard
// at the threshold.
func SoftKneeCompress(input, threshold, ratio, kneeWidth float64) float64 {
	overThreshold := math.Abs(input) - threshold
	if overThreshold <= 0 {
		return input
	}

	kneeRatio := ratio
	if kneeWidth > 0 {
		kneePos := core.Clamp(overThreshold/kneeWidth, 0, 1)
		kneeRatio = 1 + (ratio-1)*Sigmoid(kneePos*4-2)*0.5 + 0.5
	}

	compressedOver := overThreshold / kneeRatio
	outputLevel := threshold + compressedOver

	if input < 0 {
		return -outputLevel
	}

	return outputLevel
}
