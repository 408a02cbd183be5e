package punch

import (
	"fmt"
	"math"

	"github.com/fsecada01/bus-channel-strip/dsp/core"
)

const (
	// maxOversamplingRatio bounds the internal buffers; runtime factor
	// changes only shrink the window that gets used.
	maxOversamplingRatio = 16

	// MaxBlockFrames is the largest per-channel block length the module is
	// sized for at construction. Longer buffers are processed in chunks of
	// this size without allocating.
	MaxBlockFrames = 8192

	numChannels = 2

	// meterEpsilon guards the gain-reduction ratio in near-silence.
	meterEpsilon = 1e-4

	// shapeSmoothingCoeff smooths the shaped signal at the oversampled rate
	// (~1-2 ms) to suppress abrupt gain steps.
	shapeSmoothingCoeff = 0.05

	// meterSmoothing is the per-block exponential smoothing applied to the
	// display meters. Meters never feed back into the audio path.
	meterSmoothing = 0.9

	minClipThresholdDB = -12.0
	maxClipThresholdDB = 0.0
	minShaperAmount    = -1.0
	maxShaperAmount    = 1.0
	minAttackTimeMs    = 0.1
	maxAttackTimeMs    = 30.0
	minReleaseTimeMs   = 10.0
	maxReleaseTimeMs   = 500.0
	minGainDB          = -24.0
	maxGainDB          = 24.0
)

// Parameters is the per-block snapshot delivered from the control path. All
// fields are clamped into their documented ranges when applied; a snapshot
// is never rejected.
type Parameters struct {
	// Clipper
	ClipThresholdDB float64 // [-12, 0] dBFS
	ClipMode        ClipMode
	Softness        float64 // [0, 1]
	Oversampling    OversamplingFactor

	// Transient shaper
	Attack        float64 // [-1, 1], cut to boost
	Sustain       float64 // [-1, 1]
	AttackTimeMs  float64 // [0.1, 30]
	ReleaseTimeMs float64 // [10, 500]
	Sensitivity   float64 // [0, 1]

	// Global
	InputGainDB  float64 // [-24, 24]
	OutputGainDB float64 // [-24, 24]
	Mix          float64 // [0, 1] dry/wet
}

// DefaultParameters returns the module's production defaults: -1 dBFS hard
// clip at 8x oversampling with a mild attack emphasis, fully wet.
func DefaultParameters() Parameters {
	return Parameters{
		ClipThresholdDB: -1.0,
		ClipMode:        ClipModeHard,
		Softness:        0.0,
		Oversampling:    Oversampling8x,
		Attack:          0.2,
		Sustain:         0.0,
		AttackTimeMs:    5.0,
		ReleaseTimeMs:   100.0,
		Sensitivity:     0.5,
		InputGainDB:     0.0,
		OutputGainDB:    0.0,
		Mix:             1.0,
	}
}

func (p Parameters) clamped() Parameters {
	p.ClipThresholdDB = core.Clamp(p.ClipThresholdDB, minClipThresholdDB, maxClipThresholdDB)
	p.Softness = core.Clamp(p.Softness, 0, 1)
	p.Attack = core.Clamp(p.Attack, minShaperAmount, maxShaperAmount)
	p.Sustain = core.Clamp(p.Sustain, minShaperAmount, maxShaperAmount)
	p.AttackTimeMs = core.Clamp(p.AttackTimeMs, minAttackTimeMs, maxAttackTimeMs)
	p.ReleaseTimeMs = core.Clamp(p.ReleaseTimeMs, minReleaseTimeMs, maxReleaseTimeMs)
	p.Sensitivity = core.Clamp(p.Sensitivity, 0, 1)
	p.InputGainDB = core.Clamp(p.InputGainDB, minGainDB, maxGainDB)
	p.OutputGainDB = core.Clamp(p.OutputGainDB, minGainDB, maxGainDB)
	p.Mix = core.Clamp(p.Mix, 0, 1)

	return p
}

// channelState bundles the detection, oversampling, and smoothing state
// owned by one channel. Left and right are two fixed instances, never a
// growable collection.
type channelState struct {
	detector    *TransientDetector
	oversampler *Oversampler
	smoothed    float64
}

// Punch combines a nonlinear clipper with a transient shaper, running the
// nonlinear stage at an internal oversampled rate. Exactly two interleaved
// channels are supported.
type Punch struct {
	sampleRate float64
	params     Parameters

	// Resolved per-block values.
	clipThreshold float64 // linear
	clipMode      ClipMode
	softness      float64
	factor        int
	attack        float64
	sustain       float64
	inputGain     float64
	outputGain    float64
	mix           float64

	channels [numChannels]channelState

	gainReduction     float64
	transientActivity float64
}

// New creates a Punch stage for the given host sample rate with default
// parameters applied.
func New(sampleRate float64) (*Punch, error) {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return nil, fmt.Errorf("punch: sample rate must be positive and finite: %f", sampleRate)
	}

	p := &Punch{sampleRate: sampleRate}
	for c := range p.channels {
		p.channels[c] = channelState{
			detector:    NewTransientDetector(sampleRate),
			oversampler: NewOversampler(maxOversamplingRatio, MaxBlockFrames),
		}
	}

	p.UpdateParameters(DefaultParameters())

	return p, nil
}

// UpdateParameters applies a fresh parameter snapshot. Out-of-range values
// are clamped, never rejected, so a block can never fail mid-process. The
// detector time constants are recomputed against the oversampled effective
// rate so perceived attack/release timing is independent of the factor.
func (p *Punch) UpdateParameters(params Parameters) {
	params = params.clamped()
	p.params = params

	p.clipThreshold = core.DBToLinear(params.ClipThresholdDB)
	p.clipMode = params.ClipMode
	p.softness = params.Softness
	p.factor = params.Oversampling.Ratio()
	p.attack = params.Attack
	p.sustain = params.Sustain
	p.inputGain = core.DBToLinear(params.InputGainDB)
	p.outputGain = core.DBToLinear(params.OutputGainDB)
	p.mix = params.Mix

	effectiveRate := p.sampleRate * float64(p.factor)
	for c := range p.channels {
		p.channels[c].oversampler.SetFactor(p.factor)
		p.channels[c].detector.UpdateParameters(effectiveRate,
			params.AttackTimeMs, params.ReleaseTimeMs, params.Sensitivity)
	}
}

// Process transforms an interleaved stereo buffer in place. Channels are
// processed sequentially because detection and oversampling state span each
// channel's full history. Never allocates.
func (p *Punch) Process(buf []float64) {
	frames := len(buf) / numChannels
	factor := p.factor

	var taps [maxOversamplingRatio]float64

	maxGR := 0.0
	maxTransient := 0.0

	for start := 0; start < frames; start += MaxBlockFrames {
		chunk := frames - start
		if chunk > MaxBlockFrames {
			chunk = MaxBlockFrames
		}

		for i := 0; i < chunk; i++ {
			base := (start + i) * numChannels

			for c := 0; c < numChannels; c++ {
				ch := &p.channels[c]

				gained := buf[base+c] * p.inputGain
				dry := gained

				upsampled := ch.oversampler.Upsample(gained, i)

				for k, tap := range upsampled {
					transient := ch.detector.Process(tap)
					if transient > maxTransient {
						maxTransient = transient
					}

					clipped := applyClipping(tap, p.clipThreshold, p.softness, p.clipMode)

					if abs := math.Abs(tap); abs > meterEpsilon {
						if gr := (abs - math.Abs(clipped)) / abs; gr > maxGR {
							maxGR = gr
						}
					}

					shaped := applyTransientShaping(clipped, transient, p.attack, p.sustain)

					ch.smoothed = ch.smoothed*(1-shapeSmoothingCoeff) + shaped*shapeSmoothingCoeff
					taps[k] = ch.smoothed
				}

				processed := ch.oversampler.Downsample(taps[:factor], i)

				mixed := dry*(1-p.mix) + processed*p.mix
				buf[base+c] = mixed * p.outputGain
			}
		}
	}

	p.gainReduction = p.gainReduction*meterSmoothing + maxGR*(1-meterSmoothing)
	p.transientActivity = p.transientActivity*meterSmoothing + maxTransient*(1-meterSmoothing)
}

// Reset zeroes all envelope, filter, and smoothing state while preserving
// the last parameter snapshot. Issued outside the audio-processing window,
// e.g. on transport stop.
func (p *Punch) Reset() {
	for c := range p.channels {
		p.channels[c].detector.Reset()
		p.channels[c].oversampler.Reset()
		p.channels[c].smoothed = 0
	}

	p.gainReduction = 0
	p.transientActivity = 0
}

// Parameters returns the last applied (clamped) snapshot.
func (p *Punch) Parameters() Parameters {
	return p.params
}

// SampleRate returns the host sample rate announced at construction.
func (p *Punch) SampleRate() float64 {
	return p.sampleRate
}

// ClipThreshold returns the active threshold as linear amplitude.
func (p *Punch) ClipThreshold() float64 {
	return p.clipThreshold
}

// GainReduction returns the smoothed display meter for clipper gain
// reduction, peak-detected at the oversampled rate. Side-effect free.
func (p *Punch) GainReduction() float64 {
	return p.gainReduction
}

// TransientActivity returns the smoothed display meter for detected
// transient activity. Side-effect free.
func (p *Punch) TransientActivity() float64 {
	return p.transientActivity
}
