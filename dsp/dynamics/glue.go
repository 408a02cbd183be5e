// Package dynamics provides the strip's glue compressor: a bipolar
// two-stage design with very slow control smoothing, aimed at invisible bus
// cohesion rather than obvious pumping.
package dynamics

import (
	"fmt"
	"math"

	"github.com/fsecada01/bus-channel-strip/dsp/core"
)

const (
	numChannels = 2

	defaultGlueCompress = 0.0
	defaultGlueOutput   = 0.5 // unity gain
	defaultGlueMix      = 1.0

	// compressRangeDB maps the normalized compress control onto the control
	// loop's working range.
	compressRangeDB = 14.0

	// targetSmoothing is the very slow bipolar target tracker; its slowness
	// is what makes the compression read as glue.
	targetSmoothing = 0.999
	targetFeed      = 0.001

	// avgPeakRatio is the overshoot above the running average that triggers
	// the auxiliary ratio stage.
	avgPeakRatio = 1.1
)

// GlueOption mutates glue compressor construction parameters.
type GlueOption func(*glueConfig) error

type glueConfig struct {
	compress float64
	output   float64
	mix      float64
}

func defaultGlueConfig() glueConfig {
	return glueConfig{
		compress: defaultGlueCompress,
		output:   defaultGlueOutput,
		mix:      defaultGlueMix,
	}
}

func validateUnit(name string, v float64) error {
	if v < 0 || v > 1 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("glue compressor %s must be in [0, 1]: %f", name, v)
	}

	return nil
}

// WithGlueCompress sets the compression amount in [0, 1], mapping onto a
// 0-14 dB control range.
func WithGlueCompress(compress float64) GlueOption {
	return func(cfg *glueConfig) error {
		if err := validateUnit("compress", compress); err != nil {
			return err
		}
		cfg.compress = compress
		return nil
	}
}

// WithGlueOutput sets the output level in [0, 1]; 0.5 is unity, 1 is +6 dB.
func WithGlueOutput(output float64) GlueOption {
	return func(cfg *glueConfig) error {
		if err := validateUnit("output", output); err != nil {
			return err
		}
		cfg.output = output
		return nil
	}
}

// WithGlueMix sets the dry/wet mix in [0, 1].
func WithGlueMix(mix float64) GlueOption {
	return func(cfg *glueConfig) error {
		if err := validateUnit("mix", mix); err != nil {
			return err
		}
		cfg.mix = mix
		return nil
	}
}

// glueChannel holds one channel's control-loop state.
type glueChannel struct {
	targetPos float64
	targetNeg float64

	// Two control stages per polarity, alternated sample by sample. Stage A
	// smooths at the base release speed, stage B at the dynamic release.
	controlAPos float64
	controlANeg float64
	controlBPos float64
	controlBNeg float64

	// Peak-hold running average driving the dynamic release and the
	// overshoot ratio stage.
	avg float64

	flip bool
}

func (c *glueChannel) reset() {
	*c = glueChannel{}
}

// GlueCompressor is a bipolar two-stage glue compressor over interleaved
// stereo audio. Positive and negative half-waves are tracked by separate
// control loops, and two interleaved stages with slightly different release
// behavior process alternating samples, which softens the control signal's
// spectrum.
type GlueCompressor struct {
	sampleRate float64
	compress   float64
	output     float64
	mix        float64

	// Derived per parameter change.
	compressAmount float64
	outputGain     float64
	releaseSpeed   float64

	channels [numChannels]glueChannel
}

// NewGlueCompressor creates a glue compressor at the given sample rate with
// optional configuration overrides. The default is transparent: no
// compression, unity output, fully wet.
func NewGlueCompressor(sampleRate float64, opts ...GlueOption) (*GlueCompressor, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("glue compressor sample rate must be > 0 and finite: %f", sampleRate)
	}

	cfg := defaultGlueConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	g := &GlueCompressor{
		sampleRate:   sampleRate,
		releaseSpeed: 0.001 / sampleRate,
	}
	g.compress = cfg.compress
	g.output = cfg.output
	g.mix = cfg.mix
	g.derive()

	return g, nil
}

func (g *GlueCompressor) derive() {
	g.compressAmount = g.compress * compressRangeDB
	g.outputGain = g.output * 2
}

// SetCompress sets the compression amount in [0, 1].
func (g *GlueCompressor) SetCompress(compress float64) error {
	if err := validateUnit("compress", compress); err != nil {
		return err
	}

	g.compress = compress
	g.derive()

	return nil
}

// SetOutput sets the output level in [0, 1]; 0.5 is unity.
func (g *GlueCompressor) SetOutput(output float64) error {
	if err := validateUnit("output", output); err != nil {
		return err
	}

	g.output = output
	g.derive()

	return nil
}

// SetMix sets the dry/wet mix in [0, 1].
func (g *GlueCompressor) SetMix(mix float64) error {
	if err := validateUnit("mix", mix); err != nil {
		return err
	}

	g.mix = mix

	return nil
}

// Compress returns the compression amount in [0, 1].
func (g *GlueCompressor) Compress() float64 { return g.compress }

// Output returns the output level in [0, 1].
func (g *GlueCompressor) Output() float64 { return g.output }

// Mix returns the dry/wet mix in [0, 1].
func (g *GlueCompressor) Mix() float64 { return g.mix }

// SampleRate returns the sample rate in Hz.
func (g *GlueCompressor) SampleRate() float64 { return g.sampleRate }

// Process runs an interleaved stereo block through the compressor in place.
func (g *GlueCompressor) Process(block []float64) {
	wet := g.mix
	dry := 1 - wet

	frames := len(block) / numChannels
	for i := 0; i < frames; i++ {
		for ch := 0; ch < numChannels; ch++ {
			idx := i*numChannels + ch
			block[idx] = dry*block[idx] + wet*g.processSample(block[idx], &g.channels[ch])
		}
	}
}

func (g *GlueCompressor) processSample(input float64, c *glueChannel) float64 {
	// Input conditioning rises with the compress control so the loop has
	// signal to work against.
	s := input * (1 + g.compressAmount*0.1)

	abs := math.Abs(s)
	c.targetPos = c.targetPos*targetSmoothing + abs*targetFeed
	c.targetNeg = c.targetNeg*targetSmoothing - abs*targetFeed

	controlPosTarget := c.targetPos * g.compressAmount * 0.1
	controlNegTarget := c.targetNeg * g.compressAmount * 0.1

	// Dynamic release: the hotter the running average, the faster stage B
	// lets go.
	dynamicRelease := g.releaseSpeed * (1 + c.avg*g.compressAmount*0.01)

	c.flip = !c.flip

	if c.flip {
		if s > 0 {
			c.controlAPos += (controlPosTarget - c.controlAPos) * g.releaseSpeed
			s /= 1 + c.controlAPos
		} else {
			c.controlANeg += (controlNegTarget - c.controlANeg) * g.releaseSpeed
			s /= 1 + math.Abs(c.controlANeg)
		}
	} else {
		if s > 0 {
			c.controlBPos += (controlPosTarget - c.controlBPos) * dynamicRelease
			s /= 1 + c.controlBPos
		} else {
			c.controlBNeg += (controlNegTarget - c.controlBNeg) * dynamicRelease
			s /= 1 + math.Abs(c.controlBNeg)
		}
	}

	// Auxiliary ratio stage: samples jumping well above the running average
	// get pulled down before the average catches up.
	abs = math.Abs(s)
	if abs > c.avg*avgPeakRatio {
		s /= 1 + g.compressAmount*0.1
	}

	if abs > c.avg {
		c.avg = abs
	} else {
		// The slow decays denormalize on long silence; flush them.
		c.avg = core.FlushDenormals(c.avg*targetSmoothing + abs*targetFeed)
		c.targetPos = core.FlushDenormals(c.targetPos)
		c.targetNeg = core.FlushDenormals(c.targetNeg)
	}

	s *= g.outputGain

	return core.Clamp(s, -1, 1)
}

// Reset clears all control-loop state, leaving parameters intact.
func (g *GlueCompressor) Reset() {
	for ch := range g.channels {
		g.channels[ch].reset()
	}
}
