package biquad

import (
	"fmt"
	"math"
)

// QButterworth is the Q of a single maximally flat second-order section.
const QButterworth = math.Sqrt2 / 2

func validateDesign(sampleRate, freqHz, q float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("biquad: sample rate must be positive and finite: %f", sampleRate)
	}

	if freqHz <= 0 || freqHz >= sampleRate/2 {
		return fmt.Errorf("biquad: frequency must be in (0, nyquist): %f", freqHz)
	}

	if q <= 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		return fmt.Errorf("biquad: q must be positive and finite: %f", q)
	}

	return nil
}

// Peaking designs an RBJ peaking EQ section with the given center frequency,
// quality factor, and boost/cut gain in dB. A gain of 0 dB yields a flat
// (identity-response) section.
func Peaking(sampleRate, freqHz, q, gainDB float64) (Coefficients, error) {
	if err := validateDesign(sampleRate, freqHz, q); err != nil {
		return Coefficients{}, err
	}

	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freqHz / sampleRate
	sinW0, cosW0 := math.Sincos(w0)
	alpha := sinW0 / (2 * q)

	a0 := 1 + alpha/a

	return Coefficients{
		B0: (1 + alpha*a) / a0,
		B1: (-2 * cosW0) / a0,
		B2: (1 - alpha*a) / a0,
		A1: (-2 * cosW0) / a0,
		A2: (1 - alpha/a) / a0,
	}, nil
}

// LowShelf designs an RBJ low-shelf section.
func LowShelf(sampleRate, freqHz, q, gainDB float64) (Coefficients, error) {
	if err := validateDesign(sampleRate, freqHz, q); err != nil {
		return Coefficients{}, err
	}

	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freqHz / sampleRate
	sinW0, cosW0 := math.Sincos(w0)
	alpha := sinW0 / (2 * q)
	beta := 2 * math.Sqrt(a) * alpha

	a0 := (a + 1) + (a-1)*cosW0 + beta

	return Coefficients{
		B0: a * ((a + 1) - (a-1)*cosW0 + beta) / a0,
		B1: 2 * a * ((a - 1) - (a+1)*cosW0) / a0,
		B2: a * ((a + 1) - (a-1)*cosW0 - beta) / a0,
		A1: -2 * ((a - 1) + (a+1)*cosW0) / a0,
		A2: ((a + 1) + (a-1)*cosW0 - beta) / a0,
	}, nil
}

// HighShelf designs an RBJ high-shelf section.
func HighShelf(sampleRate, freqHz, q, gainDB float64) (Coefficients, error) {
	if err := validateDesign(sampleRate, freqHz, q); err != nil {
		return Coefficients{}, err
	}

	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freqHz / sampleRate
	sinW0, cosW0 := math.Sincos(w0)
	alpha := sinW0 / (2 * q)
	beta := 2 * math.Sqrt(a) * alpha

	a0 := (a + 1) - (a-1)*cosW0 + beta

	return Coefficients{
		B0: a * ((a + 1) + (a-1)*cosW0 + beta) / a0,
		B1: -2 * a * ((a - 1) + (a+1)*cosW0) / a0,
		B2: a * ((a + 1) + (a-1)*cosW0 - beta) / a0,
		A1: 2 * ((a - 1) - (a+1)*cosW0) / a0,
		A2: ((a + 1) - (a-1)*cosW0 - beta) / a0,
	}, nil
}

// AllPass designs an RBJ all-pass section, useful as a flat placeholder with
// realistic state behavior.
func AllPass(sampleRate, freqHz, q float64) (Coefficients, error) {
	if err := validateDesign(sampleRate, freqHz, q); err != nil {
		return Coefficients{}, err
	}

	w0 := 2 * math.Pi * freqHz / sampleRate
	sinW0, cosW0 := math.Sincos(w0)
	alpha := sinW0 / (2 * q)

	a0 := 1 + alpha

	return Coefficients{
		B0: (1 - alpha) / a0,
		B1: (-2 * cosW0) / a0,
		B2: (1 + alpha) / a0,
		A1: (-2 * cosW0) / a0,
		A2: (1 - alpha) / a0,
	}, nil
}
