// Package passive emulates a classic passive tube program EQ. Its signature
// is the simultaneous low-frequency boost and cut: both shelves can be
// active at once, with the cut riding below the boost corner, producing the
// dipped low-mid curve the original hardware is known for. A gentle
// tube-style drive stage follows the filters.
package passive

import (
	"fmt"
	"math"

	"github.com/fsecada01/bus-channel-strip/dsp/core"
	"github.com/fsecada01/bus-channel-strip/dsp/filter/biquad"
	"github.com/fsecada01/bus-channel-strip/dsp/shaping"
)

const (
	numChannels = 2

	// controlBypass is the normalized control value below which a section
	// stays at identity.
	controlBypass = 0.01

	lowBoostRangeDB  = 8.0
	lowCutRangeDB    = 6.0
	highBoostRangeDB = 10.0
	highCutRangeDB   = 8.0

	// cutFreqRatio places the low cut below the boost corner, the coupling
	// that creates the classic dipped curve.
	cutFreqRatio = 0.6

	// interStageClamp bounds the signal between filter stages so a resonant
	// setting cannot run away.
	interStageClamp = 2.0
)

// EQ is a passive-style program EQ over interleaved stereo audio. All
// controls are normalized [0, 1] amounts with a quadratic taper, matching
// the feel of the original's continuously variable knobs.
type EQ struct {
	sampleRate float64

	lowBoostFreq  float64
	lowBoost      float64
	lowCut        float64
	highBoostFreq float64
	highBoost     float64
	highBandwidth float64
	highCutFreq   float64
	highCut       float64
	tubeDrive     float64

	lfBoost [numChannels]biquad.Section
	lfCut   [numChannels]biquad.Section
	hfBoost [numChannels]biquad.Section
	hfCut   [numChannels]biquad.Section
}

// New creates a neutral passive EQ for the given sample rate: all amounts
// zero, boost corners at 60 Hz and 10 kHz.
func New(sampleRate float64) (*EQ, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("passive eq sample rate must be > 0 and finite: %f", sampleRate)
	}

	eq := &EQ{
		sampleRate:    sampleRate,
		lowBoostFreq:  60,
		highBoostFreq: 10000,
		highCutFreq:   10000,
	}
	eq.setIdentity(&eq.lfBoost)
	eq.setIdentity(&eq.lfCut)
	eq.setIdentity(&eq.hfBoost)
	eq.setIdentity(&eq.hfCut)

	return eq, nil
}

func (eq *EQ) setIdentity(sections *[numChannels]biquad.Section) {
	for ch := range sections {
		sections[ch].SetCoefficients(biquad.Identity())
	}
}

func (eq *EQ) setCoeffs(sections *[numChannels]biquad.Section, c biquad.Coefficients) {
	for ch := range sections {
		sections[ch].SetCoefficients(c)
	}
}

// maxShelfFreq keeps shelf corners comfortably below Nyquist regardless of
// sample rate.
func (eq *EQ) maxShelfFreq() float64 {
	return math.Min(20000, eq.sampleRate*0.45)
}

func validateAmount(name string, amount float64) error {
	if amount < 0 || amount > 1 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Errorf("passive eq %s must be in [0, 1]: %f", name, amount)
	}

	return nil
}

// SetLowBoost voices the low-frequency boost shelf. amount is [0, 1] with a
// quadratic taper up to +8 dB. The low cut section follows the boost corner
// at 0.6x, so this also re-voices an active cut.
func (eq *EQ) SetLowBoost(freqHz, amount float64) error {
	if err := validateAmount("low boost", amount); err != nil {
		return err
	}

	eq.lowBoostFreq = core.Clamp(freqHz, 30, 200)
	eq.lowBoost = amount

	if amount < controlBypass {
		eq.setIdentity(&eq.lfBoost)
	} else {
		shaped := amount * amount
		coeffs, err := biquad.LowShelf(eq.sampleRate, eq.lowBoostFreq, 0.9, shaped*lowBoostRangeDB)
		if err != nil {
			return fmt.Errorf("passive eq low boost: %w", err)
		}
		eq.setCoeffs(&eq.lfBoost, coeffs)
	}

	// The cut corner is coupled to the boost corner.
	return eq.SetLowCut(eq.lowCut)
}

// SetLowCut voices the low-frequency cut shelf, simultaneous with the boost.
// amount is [0, 1] with a quadratic taper down to -6 dB.
func (eq *EQ) SetLowCut(amount float64) error {
	if err := validateAmount("low cut", amount); err != nil {
		return err
	}

	eq.lowCut = amount

	if amount < controlBypass {
		eq.setIdentity(&eq.lfCut)

		return nil
	}

	shaped := amount * amount
	cutFreq := core.Clamp(eq.lowBoostFreq*cutFreqRatio, 20, 120)

	coeffs, err := biquad.LowShelf(eq.sampleRate, cutFreq, 1.2, -shaped*lowCutRangeDB)
	if err != nil {
		return fmt.Errorf("passive eq low cut: %w", err)
	}
	eq.setCoeffs(&eq.lfCut, coeffs)

	return nil
}

// SetHighBoost voices the high-frequency peaking boost. amount is [0, 1]
// with a quadratic taper up to +10 dB; bandwidth is [0, 1] mapping to a Q of
// 0.6 (wide) to 2.0 (narrow).
func (eq *EQ) SetHighBoost(freqHz, amount, bandwidth float64) error {
	if err := validateAmount("high boost", amount); err != nil {
		return err
	}
	if err := validateAmount("high boost bandwidth", bandwidth); err != nil {
		return err
	}

	eq.highBoostFreq = core.Clamp(freqHz, 3000, eq.maxShelfFreq())
	eq.highBoost = amount
	eq.highBandwidth = bandwidth

	if amount < controlBypass {
		eq.setIdentity(&eq.hfBoost)

		return nil
	}

	shaped := amount * amount
	shapedBW := bandwidth * bandwidth
	q := 0.6 + shapedBW*1.4

	coeffs, err := biquad.Peaking(eq.sampleRate, eq.highBoostFreq, q, shaped*highBoostRangeDB)
	if err != nil {
		return fmt.Errorf("passive eq high boost: %w", err)
	}
	eq.setCoeffs(&eq.hfBoost, coeffs)

	return nil
}

// SetHighCut voices the high-frequency cut shelf, independent of the boost.
// amount is [0, 1] with a quadratic taper down to -8 dB.
func (eq *EQ) SetHighCut(freqHz, amount float64) error {
	if err := validateAmount("high cut", amount); err != nil {
		return err
	}

	eq.highCutFreq = core.Clamp(freqHz, 5000, eq.maxShelfFreq())
	eq.highCut = amount

	if amount < controlBypass {
		eq.setIdentity(&eq.hfCut)

		return nil
	}

	shaped := amount * amount

	coeffs, err := biquad.HighShelf(eq.sampleRate, eq.highCutFreq, 0.9, -shaped*highCutRangeDB)
	if err != nil {
		return fmt.Errorf("passive eq high cut: %w", err)
	}
	eq.setCoeffs(&eq.hfCut, coeffs)

	return nil
}

// SetTubeDrive sets the output tube drive amount in [0, 1].
func (eq *EQ) SetTubeDrive(amount float64) error {
	if err := validateAmount("tube drive", amount); err != nil {
		return err
	}

	eq.tubeDrive = amount

	return nil
}

// Process runs an interleaved stereo block through the four filter sections
// and the tube stage, in place. The signal is clamped between stages and the
// final output is bounded to [-1, 1].
func (eq *EQ) Process(block []float64) {
	frames := len(block) / numChannels
	tube := eq.tubeDrive >= controlBypass

	for i := 0; i < frames; i++ {
		for ch := 0; ch < numChannels; ch++ {
			idx := i*numChannels + ch

			s := block[idx]
			s = core.Clamp(eq.lfBoost[ch].ProcessSample(s), -interStageClamp, interStageClamp)
			s = core.Clamp(eq.lfCut[ch].ProcessSample(s), -interStageClamp, interStageClamp)
			s = core.Clamp(eq.hfBoost[ch].ProcessSample(s), -interStageClamp, interStageClamp)
			s = core.Clamp(eq.hfCut[ch].ProcessSample(s), -interStageClamp, interStageClamp)

			if tube {
				s = shaping.TanhSaturation(s, eq.tubeDrive*0.3)
			}

			block[idx] = core.Clamp(s, -1, 1)
		}
	}
}

// Reset clears all filter state, leaving the voicing intact.
func (eq *EQ) Reset() {
	for ch := 0; ch < numChannels; ch++ {
		eq.lfBoost[ch].Reset()
		eq.lfCut[ch].Reset()
		eq.hfBoost[ch].Reset()
		eq.hfCut[ch].Reset()
	}
}

// SampleRate returns the sample rate in Hz.
func (eq *EQ) SampleRate() float64 { return eq.sampleRate }
