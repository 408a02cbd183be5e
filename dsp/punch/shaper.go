package punch

import "math"

// applyTransientShaping rebalances the clipped signal between transient and
// sustain emphasis. attackGain and sustainGain run [-1, 1] (cut to boost);
// transientAmount comes from the detector.
//
// Both regions get their own gain multiplier and the result is a blend
// weighted by the detected transient amount. The dual-multiplier form avoids
// the phase artifacts of multiband transient designs.
func applyTransientShaping(clipped, transientAmount, attackGain, sustainGain float64) float64 {
	// Scaled to 0.8 so full attack boost stays free of low-mid thump.
	var transientMult float64
	if attackGain > 0 {
		transientMult = 1 + transientAmount*attackGain*0.8
	} else {
		transientMult = 1 / math.Max(1-attackGain*transientAmount*0.8, 0.5)
	}

	sustainWeight := math.Max(0, 1-transientAmount)

	var sustainMult float64
	if sustainGain > 0 {
		sustainMult = 1 + sustainWeight*sustainGain*0.5
	} else {
		sustainMult = 1 - sustainWeight*math.Abs(sustainGain)*0.3
	}

	weight := transientAmount
	if weight < 0 {
		weight = 0
	} else if weight > 1 {
		weight = 1
	}

	return clipped*transientMult*weight + clipped*sustainMult*(1-weight)
}
