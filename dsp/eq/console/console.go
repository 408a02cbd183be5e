// Package console implements a 5-band semi-parametric console channel EQ:
// low and high shelves around three peaking mid bands, run in series per
// channel. Bands start flat and are voiced one at a time without clearing
// filter state, so adjustments do not click.
package console

import (
	"fmt"
	"math"

	"github.com/fsecada01/bus-channel-strip/dsp/filter/biquad"
)

const numChannels = 2

// Band identifies one of the five EQ bands.
type Band int

const (
	// BandLF is the low shelf.
	BandLF Band = iota
	// BandLMF is the low-mid peaking band.
	BandLMF
	// BandMF is the mid peaking band.
	BandMF
	// BandHMF is the high-mid peaking band.
	BandHMF
	// BandHF is the high shelf.
	BandHF

	numBands
)

// String returns the console-facing band label.
func (b Band) String() string {
	switch b {
	case BandLF:
		return "LF"
	case BandLMF:
		return "LMF"
	case BandMF:
		return "MF"
	case BandHMF:
		return "HMF"
	case BandHF:
		return "HF"
	default:
		return fmt.Sprintf("Band(%d)", int(b))
	}
}

// EQ is a 5-band channel EQ over interleaved stereo audio.
type EQ struct {
	sampleRate float64
	sections   [numBands][numChannels]biquad.Section
}

// New creates a flat EQ for the given sample rate.
func New(sampleRate float64) (*EQ, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("console eq sample rate must be > 0 and finite: %f", sampleRate)
	}

	eq := &EQ{sampleRate: sampleRate}
	for b := range eq.sections {
		for ch := range eq.sections[b] {
			eq.sections[b][ch].SetCoefficients(biquad.Identity())
		}
	}

	return eq, nil
}

// SetBand voices one band. LF and HF design shelves, the mid bands design
// peaking sections. Filter state is preserved across the change. A gain of
// exactly 0 dB returns the band to identity.
func (eq *EQ) SetBand(band Band, freqHz, gainDB, q float64) error {
	if band < 0 || band >= numBands {
		return fmt.Errorf("console eq: unknown band %d", int(band))
	}

	var (
		coeffs biquad.Coefficients
		err    error
	)

	switch {
	case gainDB == 0:
		coeffs = biquad.Identity()
	case band == BandLF:
		coeffs, err = biquad.LowShelf(eq.sampleRate, freqHz, q, gainDB)
	case band == BandHF:
		coeffs, err = biquad.HighShelf(eq.sampleRate, freqHz, q, gainDB)
	default:
		coeffs, err = biquad.Peaking(eq.sampleRate, freqHz, q, gainDB)
	}
	if err != nil {
		return fmt.Errorf("console eq %s: %w", band, err)
	}

	for ch := range eq.sections[band] {
		eq.sections[band][ch].SetCoefficients(coeffs)
	}

	return nil
}

// Process runs an interleaved stereo block through all five bands in series,
// in place.
func (eq *EQ) Process(block []float64) {
	frames := len(block) / numChannels
	for i := 0; i < frames; i++ {
		for ch := 0; ch < numChannels; ch++ {
			idx := i*numChannels + ch

			s := block[idx]
			for b := range eq.sections {
				s = eq.sections[b][ch].ProcessSample(s)
			}

			block[idx] = s
		}
	}
}

// Reset clears all filter state, leaving the voicing intact.
func (eq *EQ) Reset() {
	for b := range eq.sections {
		for ch := range eq.sections[b] {
			eq.sections[b][ch].Reset()
		}
	}
}

// SampleRate returns the sample rate in Hz.
func (eq *EQ) SampleRate() float64 { return eq.sampleRate }
