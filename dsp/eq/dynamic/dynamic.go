// Package dynamic implements a 4-band dynamic equalizer. Each band detects
// level through a peaking sidechain filter centered on its detector
// frequency, follows it with an attack/release envelope, and modulates the
// gain of a peaking EQ filter at the band frequency: downward compression,
// upward expansion, or gating, per band.
package dynamic

import (
	"fmt"
	"math"

	"github.com/fsecada01/bus-channel-strip/dsp/core"
	"github.com/fsecada01/bus-channel-strip/dsp/filter/biquad"
)

const (
	// NumBands is the fixed band count.
	NumBands = 4

	numChannels = 2

	// detectionBoostDB is the sidechain peaking boost that focuses
	// detection around the detector frequency.
	detectionBoostDB = 6.0

	// envelopeFloorDB bounds the log-domain envelope so silence cannot
	// drive the gain computation toward infinity.
	envelopeFloorDB = -120.0

	// maxGainSwingDB caps the dynamic gain applied by a band.
	maxGainSwingDB = 24.0

	// gainStepDB is the gain change below which a band keeps its current
	// filter coefficients instead of redesigning them.
	gainStepDB = 0.05

	defaultBandFreqHz = 1000.0
	defaultAttackMs   = 5.0
	defaultReleaseMs  = 80.0
	minRatio          = 1.0
	minTimeMs         = 0.1
)

// Mode selects how a band responds to its detector envelope.
type Mode int

const (
	// ModeCompressDown reduces band gain while the envelope is above the
	// threshold.
	ModeCompressDown Mode = iota
	// ModeExpandUp raises band gain while the envelope is above the
	// threshold.
	ModeExpandUp
	// ModeGate reduces band gain while the envelope is below the threshold.
	ModeGate
)

// String returns the host-facing name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeExpandUp:
		return "Expand Up"
	case ModeGate:
		return "Gate"
	default:
		return "Compress Down"
	}
}

// BandParams is one band's complete parameter set, applied via SetBand.
type BandParams struct {
	Mode           Mode
	DetectorFreqHz float64 // sidechain detection center
	FreqHz         float64 // EQ filter center
	Q              float64
	ThresholdDB    float64
	Ratio          float64 // >= 1
	AttackMs       float64
	ReleaseMs      float64
	MakeupGainDB   float64
	Enabled        bool
}

// DefaultBandParams returns a disabled 1 kHz band with a 1:1 ratio.
func DefaultBandParams() BandParams {
	return BandParams{
		DetectorFreqHz: defaultBandFreqHz,
		FreqHz:         defaultBandFreqHz,
		Q:              biquad.QButterworth,
		Ratio:          minRatio,
		AttackMs:       defaultAttackMs,
		ReleaseMs:      defaultReleaseMs,
	}
}

type band struct {
	sampleRate float64
	params     BandParams

	// Derived on SetBand.
	attackCoeff  float64
	releaseCoeff float64
	makeupGain   float64

	sidechain  [numChannels]biquad.Section
	filter     [numChannels]biquad.Section
	envelope   [numChannels]float64
	lastGainDB [numChannels]float64

	gainReductionDB float64
}

// EQ is a 4-band dynamic equalizer over interleaved stereo audio. Bands run
// in series; each channel has its own filter and envelope state. Bands start
// disabled and pass audio through untouched until voiced with SetBand.
type EQ struct {
	sampleRate float64
	bands      [NumBands]band
}

// New creates a dynamic EQ with all bands disabled.
func New(sampleRate float64) (*EQ, error) {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return nil, fmt.Errorf("dynamic eq sample rate must be > 0 and finite: %f", sampleRate)
	}

	eq := &EQ{sampleRate: sampleRate}
	for i := range eq.bands {
		b := &eq.bands[i]
		b.sampleRate = sampleRate
		b.params = DefaultBandParams()
		b.makeupGain = 1
		for ch := 0; ch < numChannels; ch++ {
			b.sidechain[ch].SetCoefficients(biquad.Identity())
			b.filter[ch].SetCoefficients(biquad.Identity())
		}
	}

	return eq, nil
}

// SetBand applies a parameter set to one band. The sidechain filter is
// redesigned immediately; the EQ filter follows the envelope during
// processing. Filter state is preserved so bands can be re-voiced while
// audio runs.
func (eq *EQ) SetBand(index int, p BandParams) error {
	if index < 0 || index >= NumBands {
		return fmt.Errorf("dynamic eq band index out of range [0, %d): %d", NumBands, index)
	}

	if p.Ratio < minRatio || !core.IsFinite(p.Ratio) {
		return fmt.Errorf("dynamic eq ratio must be >= 1: %f", p.Ratio)
	}
	if p.AttackMs < minTimeMs || !core.IsFinite(p.AttackMs) {
		return fmt.Errorf("dynamic eq attack must be >= %v ms: %f", minTimeMs, p.AttackMs)
	}
	if p.ReleaseMs < minTimeMs || !core.IsFinite(p.ReleaseMs) {
		return fmt.Errorf("dynamic eq release must be >= %v ms: %f", minTimeMs, p.ReleaseMs)
	}
	if !core.IsFinite(p.ThresholdDB) || !core.IsFinite(p.MakeupGainDB) {
		return fmt.Errorf("dynamic eq threshold and makeup gain must be finite")
	}

	sidechain, err := biquad.Peaking(eq.sampleRate, p.DetectorFreqHz, p.Q, detectionBoostDB)
	if err != nil {
		return err
	}

	// Validate the EQ center up front; the runtime redesign reuses these
	// inputs with only the gain changing.
	flat, err := biquad.Peaking(eq.sampleRate, p.FreqHz, p.Q, 0)
	if err != nil {
		return err
	}

	b := &eq.bands[index]
	b.params = p
	b.attackCoeff = math.Exp(-1 / (p.AttackMs * 0.001 * eq.sampleRate))
	b.releaseCoeff = math.Exp(-1 / (p.ReleaseMs * 0.001 * eq.sampleRate))
	b.makeupGain = core.DBToLinear(p.MakeupGainDB)

	for ch := 0; ch < numChannels; ch++ {
		b.sidechain[ch].SetCoefficients(sidechain)
		b.filter[ch].SetCoefficients(flat)
		b.lastGainDB[ch] = 0
	}

	return nil
}

// Band returns the parameter set last applied to a band, or the defaults.
func (eq *EQ) Band(index int) BandParams {
	if index < 0 || index >= NumBands {
		return DefaultBandParams()
	}

	return eq.bands[index].params
}

// GainReductionDB reports each band's most recent gain reduction in dB.
// Positive values mean the band is pulling gain down.
func (eq *EQ) GainReductionDB() [NumBands]float64 {
	var out [NumBands]float64
	for i := range eq.bands {
		out[i] = eq.bands[i].gainReductionDB
	}

	return out
}

// SampleRate returns the sample rate in Hz.
func (eq *EQ) SampleRate() float64 {
	return eq.sampleRate
}

// Process runs an interleaved stereo block through the enabled bands in
// series, in place.
func (eq *EQ) Process(block []float64) {
	frames := len(block) / numChannels
	for i := 0; i < frames; i++ {
		for ch := 0; ch < numChannels; ch++ {
			idx := i*numChannels + ch

			s := block[idx]
			for bi := range eq.bands {
				s = eq.bands[bi].processSample(s, ch)
			}
			block[idx] = s
		}
	}
}

func (b *band) processSample(input float64, ch int) float64 {
	if !b.params.Enabled {
		return input
	}

	detection := math.Abs(b.sidechain[ch].ProcessSample(input))

	coeff := b.releaseCoeff
	if detection > b.envelope[ch] {
		coeff = b.attackCoeff
	}
	env := detection + (b.envelope[ch]-detection)*coeff
	b.envelope[ch] = env

	envDB := envelopeFloorDB
	if env > 0 {
		if db := core.LinearToDB(env); db > envelopeFloorDB {
			envDB = db
		}
	}
	overDB := envDB - b.params.ThresholdDB

	var gainDB float64
	switch b.params.Mode {
	case ModeExpandUp:
		if overDB > 0 {
			gainDB = overDB * (b.params.Ratio - 1)
		}
	case ModeGate:
		if overDB < 0 {
			gainDB = overDB * (1 - 1/b.params.Ratio)
		}
	default:
		if overDB > 0 {
			gainDB = -overDB * (1 - 1/b.params.Ratio)
		}
	}
	gainDB = core.Clamp(gainDB, -maxGainSwingDB, maxGainSwingDB)
	b.gainReductionDB = -gainDB

	// Redesign the band filter only when the gain has moved enough to
	// matter; SetCoefficients keeps the filter history running.
	if math.Abs(gainDB-b.lastGainDB[ch]) > gainStepDB {
		c, err := biquad.Peaking(b.sampleRate, b.params.FreqHz, b.params.Q, gainDB)
		if err == nil {
			b.filter[ch].SetCoefficients(c)
			b.lastGainDB[ch] = gainDB
		}
	}

	return b.filter[ch].ProcessSample(input) * b.makeupGain
}

// Reset clears envelope, filter history, and meters while keeping band
// parameters.
func (eq *EQ) Reset() {
	for i := range eq.bands {
		b := &eq.bands[i]
		b.gainReductionDB = 0
		for ch := 0; ch < numChannels; ch++ {
			b.sidechain[ch].Reset()
			b.filter[ch].Reset()
			b.envelope[ch] = 0
		}
	}
}
