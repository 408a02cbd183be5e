package punch

const (
	// slowEnvelopeFloor guards the transient ratio against division by a
	// near-zero body envelope during silence.
	slowEnvelopeFloor = 1e-4

	// sensitivityScale maps the raw fast/slow divergence into a usable
	// control range before smoothing.
	sensitivityScale = 4.0

	defaultDetectorFastAttackMs  = 0.5
	defaultDetectorFastReleaseMs = 5.0
	defaultDetectorSlowAttackMs  = 20.0
	defaultDetectorSlowReleaseMs = 100.0

	constructionSmoothingMs = 2.0
	runtimeSmoothingMs      = 1.0
)

// TransientDetector models transient energy as the positive divergence
// between a fast-attacking and a slow-attacking envelope of the same signal.
type TransientDetector struct {
	fast *EnvelopeFollower
	slow *EnvelopeFollower

	sensitivity       float64
	smoothedTransient float64
	smoothingCoeff    float64
}

// NewTransientDetector creates a detector with onset-oriented fast times and
// body-oriented slow times at the given rate.
func NewTransientDetector(rate float64) *TransientDetector {
	return &TransientDetector{
		fast:           NewEnvelopeFollower(rate, defaultDetectorFastAttackMs, defaultDetectorFastReleaseMs),
		slow:           NewEnvelopeFollower(rate, defaultDetectorSlowAttackMs, defaultDetectorSlowReleaseMs),
		sensitivity:    0.5,
		smoothingCoeff: timeToCoeff(constructionSmoothingMs, rate),
	}
}

// UpdateParameters retunes both followers around the shaper's attack and
// release times. The fast follower leads the attack time by 10x, the slow
// follower leads the release time by 5x, so their divergence peaks on
// onsets and decays over the program body.
func (d *TransientDetector) UpdateParameters(rate, attackTimeMs, releaseTimeMs, sensitivity float64) {
	d.fast.UpdateTimes(rate, attackTimeMs*0.1, attackTimeMs)
	d.slow.UpdateTimes(rate, releaseTimeMs*0.2, releaseTimeMs)
	d.sensitivity = sensitivity
	d.smoothingCoeff = timeToCoeff(runtimeSmoothingMs, rate)
}

// Process advances the detector by one sample and returns the smoothed
// transient amount. Typical values stay near [0, 1] but the range is open
// above.
func (d *TransientDetector) Process(input float64) float64 {
	fastEnv := d.fast.Process(input)
	slowEnv := d.slow.Process(input)

	raw := 0.0
	if slowEnv > slowEnvelopeFloor {
		raw = (fastEnv - slowEnv) / slowEnv
		if raw < 0 {
			raw = 0
		}
	}

	scaled := raw * d.sensitivity * sensitivityScale

	// Anti-click smoothing.
	d.smoothedTransient = d.smoothingCoeff*d.smoothedTransient + (1-d.smoothingCoeff)*scaled

	return d.smoothedTransient
}

// Reset zeroes both followers and the smoothed output.
func (d *TransientDetector) Reset() {
	d.fast.Reset()
	d.slow.Reset()
	d.smoothedTransient = 0
}
