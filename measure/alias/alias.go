// Package alias measures how much of a processed test tone's energy lands
// outside the fundamental and its harmonic series. Nonlinear stages fold
// harmonics generated above Nyquist back into the audible band; comparing
// the alias power of the same stage at different oversampling factors shows
// how much the oversampler buys.
package alias

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

const (
	defaultFFTSize      = 8192
	defaultMaxHarmonics = 16

	// captureBins widens each expected spectral line by this many bins on
	// each side to absorb window leakage.
	captureBins = 1
)

// Config holds alias analysis parameters.
type Config struct {
	// SampleRate of the analyzed signal in Hz. Required.
	SampleRate float64

	// FFTSize is the analysis length; the signal is truncated or zero-padded
	// to it. Defaults to 8192.
	FFTSize int

	// FundamentalHz is the test tone frequency. Required, below Nyquist.
	FundamentalHz float64

	// MaxHarmonics bounds how many harmonics above the fundamental count as
	// harmonic (not alias) energy. Defaults to 16.
	MaxHarmonics int
}

// Result holds the power split of the analyzed spectrum.
type Result struct {
	// FundamentalPower is the power captured at the fundamental line.
	FundamentalPower float64

	// HarmonicPower is the power captured at integer multiples of the
	// fundamental, excluding the fundamental itself.
	HarmonicPower float64

	// AliasPower is everything else between DC and Nyquist: energy at
	// frequencies with no harmonic relation to the test tone.
	AliasPower float64

	// AliasRatioDB is 10*log10(AliasPower / FundamentalPower).
	AliasRatioDB float64
}

// AnalyzeSignal windows the signal with a Hann window, transforms it, and
// splits the spectrum's power into fundamental, harmonic, and alias shares.
func AnalyzeSignal(signal []float64, cfg Config) (Result, error) {
	if cfg.SampleRate <= 0 || math.IsNaN(cfg.SampleRate) || math.IsInf(cfg.SampleRate, 0) {
		return Result{}, fmt.Errorf("alias: sample rate must be > 0 and finite: %f", cfg.SampleRate)
	}

	fftSize := cfg.FFTSize
	if fftSize <= 0 {
		fftSize = defaultFFTSize
	}
	if fftSize&(fftSize-1) != 0 {
		return Result{}, fmt.Errorf("alias: fft size must be a power of two: %d", fftSize)
	}

	nyquist := cfg.SampleRate / 2
	if cfg.FundamentalHz <= 0 || cfg.FundamentalHz >= nyquist {
		return Result{}, fmt.Errorf("alias: fundamental must be in (0, nyquist): %f", cfg.FundamentalHz)
	}

	maxHarmonics := cfg.MaxHarmonics
	if maxHarmonics <= 0 {
		maxHarmonics = defaultMaxHarmonics
	}

	if len(signal) == 0 {
		return Result{}, fmt.Errorf("alias: empty signal")
	}

	n := len(signal)
	if n > fftSize {
		n = fftSize
	}

	windowed := make([]float64, n)
	copy(windowed, signal[:n])
	vecmath.MulBlockInPlace(windowed, hann(n))

	in := make([]complex128, fftSize)
	for i, v := range windowed {
		in[i] = complex(v, 0)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return Result{}, fmt.Errorf("alias: fft plan: %w", err)
	}

	out := make([]complex128, fftSize)
	if err := plan.Forward(out, in); err != nil {
		return Result{}, fmt.Errorf("alias: forward fft: %w", err)
	}

	// Non-negative frequency bins only.
	binCount := fftSize/2 + 1
	re := make([]float64, binCount)
	im := make([]float64, binCount)
	for i := 0; i < binCount; i++ {
		re[i] = real(out[i])
		im[i] = imag(out[i])
	}

	power := make([]float64, binCount)
	vecmath.Power(power, re, im)

	return splitPower(power, cfg.SampleRate, fftSize, cfg.FundamentalHz, maxHarmonics), nil
}

// splitPower assigns each bin's power to the fundamental, a harmonic, or the
// alias bucket. The DC bin is excluded entirely.
func splitPower(power []float64, sampleRate float64, fftSize int, fundamentalHz float64, maxHarmonics int) Result {
	maxBin := len(power) - 1
	binHz := sampleRate / float64(fftSize)

	fundamentalBin := int(math.Round(fundamentalHz / binHz))
	if fundamentalBin < 1 {
		fundamentalBin = 1
	}
	if fundamentalBin > maxBin {
		fundamentalBin = maxBin
	}

	// owner[bin]: 0 alias, 1 fundamental, 2 harmonic.
	owner := make([]uint8, len(power))
	claim := func(center int, tag uint8) {
		for b := center - captureBins; b <= center+captureBins; b++ {
			if b >= 1 && b <= maxBin && owner[b] == 0 {
				owner[b] = tag
			}
		}
	}

	claim(fundamentalBin, 1)
	for k := 2; k <= maxHarmonics; k++ {
		bin := k * fundamentalBin
		if bin > maxBin {
			break
		}
		claim(bin, 2)
	}

	var res Result
	for bin := 1; bin <= maxBin; bin++ {
		switch owner[bin] {
		case 1:
			res.FundamentalPower += power[bin]
		case 2:
			res.HarmonicPower += power[bin]
		default:
			res.AliasPower += power[bin]
		}
	}

	switch {
	case res.AliasPower <= 0:
		res.AliasRatioDB = math.Inf(-1)
	case res.FundamentalPower <= 0:
		res.AliasRatioDB = math.Inf(1)
	default:
		res.AliasRatioDB = 10 * math.Log10(res.AliasPower/res.FundamentalPower)
	}

	return res
}

// hann returns Hann window coefficients of length n.
func hann(n int) []float64 {
	coeffs := make([]float64, n)
	if n == 1 {
		coeffs[0] = 1

		return coeffs
	}

	for i := range coeffs {
		coeffs[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}

	return coeffs
}
