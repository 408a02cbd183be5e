package punch

import "math"

// EnvelopeFollower is a one-pole smoother of a signal's rectified magnitude
// with independent attack (rise) and release (fall) time constants.
type EnvelopeFollower struct {
	envelope     float64
	attackCoeff  float64
	releaseCoeff float64
}

// NewEnvelopeFollower creates a follower with coefficients derived from the
// given time constants at the given rate in samples per second.
func NewEnvelopeFollower(rate, attackMs, releaseMs float64) *EnvelopeFollower {
	e := &EnvelopeFollower{}
	e.UpdateTimes(rate, attackMs, releaseMs)

	return e
}

// timeToCoeff converts a time constant in milliseconds to a one-pole
// feedback coefficient at the given rate. Non-positive times collapse the
// recursion to a unit coefficient.
func timeToCoeff(timeMs, rate float64) float64 {
	if timeMs <= 0 {
		return 1
	}

	return math.Exp(-1.0 / (timeMs * 0.001 * rate))
}

// UpdateTimes recomputes both coefficients for the given rate. The rate is
// the rate the follower actually runs at, which for oversampled use is the
// host rate multiplied by the oversampling factor.
func (e *EnvelopeFollower) UpdateTimes(rate, attackMs, releaseMs float64) {
	e.attackCoeff = timeToCoeff(attackMs, rate)
	e.releaseCoeff = timeToCoeff(releaseMs, rate)
}

// Process advances the follower by one sample and returns the envelope.
func (e *EnvelopeFollower) Process(input float64) float64 {
	level := math.Abs(input)

	coeff := e.releaseCoeff
	if level > e.envelope {
		coeff = e.attackCoeff
	}

	e.envelope = coeff*e.envelope + (1-coeff)*level

	return e.envelope
}

// Envelope returns the current envelope value without advancing state.
func (e *EnvelopeFollower) Envelope() float64 {
	return e.envelope
}

// Reset zeroes the envelope.
func (e *EnvelopeFollower) Reset() {
	e.envelope = 0
}
