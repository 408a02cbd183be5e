package dynamic

import (
	"math"
	"testing"
)

const testRate = 48000.0

func stereoSine(frames int, freq, amp float64) []float64 {
	buf := make([]float64, frames*2)
	for i := 0; i < frames; i++ {
		v := amp * math.Sin(2*math.Pi*freq*float64(i)/testRate)
		buf[2*i] = v
		buf[2*i+1] = v
	}

	return buf
}

func channelRMS(block []float64, ch, skipFrames int) float64 {
	var sum float64
	n := 0
	for i := skipFrames; i < len(block)/2; i++ {
		v := block[2*i+ch]
		sum += v * v
		n++
	}

	return math.Sqrt(sum / float64(n))
}

func compressBand(freq, thresholdDB, ratio float64) BandParams {
	p := DefaultBandParams()
	p.Mode = ModeCompressDown
	p.DetectorFreqHz = freq
	p.FreqHz = freq
	p.ThresholdDB = thresholdDB
	p.Ratio = ratio
	p.AttackMs = 1
	p.ReleaseMs = 50
	p.Enabled = true

	return p
}

func TestNewValidation(t *testing.T) {
	for _, rate := range []float64{0, -48000, math.NaN(), math.Inf(1)} {
		if _, err := New(rate); err == nil {
			t.Errorf("New(%v) accepted invalid sample rate", rate)
		}
	}
}

func TestDisabledBandsPassThrough(t *testing.T) {
	eq, err := New(testRate)
	if err != nil {
		t.Fatal(err)
	}

	buf := stereoSine(512, 1000, 0.5)
	want := make([]float64, len(buf))
	copy(want, buf)

	eq.Process(buf)

	for i := range buf {
		if buf[i] != want[i] {
			t.Fatalf("disabled eq altered sample %d: %v -> %v", i, want[i], buf[i])
		}
	}
}

func TestSetBandValidation(t *testing.T) {
	eq, err := New(testRate)
	if err != nil {
		t.Fatal(err)
	}

	for _, index := range []int{-1, NumBands} {
		if err := eq.SetBand(index, DefaultBandParams()); err == nil {
			t.Errorf("band index %d accepted", index)
		}
	}

	cases := []struct {
		name   string
		mutate func(*BandParams)
	}{
		{"ratio below unity", func(p *BandParams) { p.Ratio = 0.5 }},
		{"zero attack", func(p *BandParams) { p.AttackMs = 0 }},
		{"zero release", func(p *BandParams) { p.ReleaseMs = 0 }},
		{"nan threshold", func(p *BandParams) { p.ThresholdDB = math.NaN() }},
		{"zero detector freq", func(p *BandParams) { p.DetectorFreqHz = 0 }},
		{"freq above nyquist", func(p *BandParams) { p.FreqHz = testRate }},
		{"non-positive q", func(p *BandParams) { p.Q = 0 }},
	}

	for _, tc := range cases {
		p := DefaultBandParams()
		tc.mutate(&p)
		if err := eq.SetBand(0, p); err == nil {
			t.Errorf("%s accepted", tc.name)
		}
	}
}

func TestCompressDownReducesLoudBand(t *testing.T) {
	eq, err := New(testRate)
	if err != nil {
		t.Fatal(err)
	}
	if err := eq.SetBand(0, compressBand(1000, -20, 4)); err != nil {
		t.Fatal(err)
	}

	buf := stereoSine(8192, 1000, 0.5)
	in := channelRMS(buf, 0, 2000)

	eq.Process(buf)

	out := channelRMS(buf, 0, 2000)
	if out >= in*0.5 {
		t.Errorf("compression too weak: rms %v -> %v", in, out)
	}

	if gr := eq.GainReductionDB(); gr[0] <= 0 {
		t.Errorf("gain reduction meter = %v, want > 0", gr[0])
	}
}

func TestExpandUpBoostsAboveThreshold(t *testing.T) {
	eq, err := New(testRate)
	if err != nil {
		t.Fatal(err)
	}

	p := compressBand(1000, -30, 2)
	p.Mode = ModeExpandUp
	if err := eq.SetBand(0, p); err != nil {
		t.Fatal(err)
	}

	buf := stereoSine(8192, 1000, 0.1)
	in := channelRMS(buf, 0, 2000)

	eq.Process(buf)

	out := channelRMS(buf, 0, 2000)
	if out <= in*2 {
		t.Errorf("expansion too weak: rms %v -> %v", in, out)
	}
	for i, v := range buf {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("non-finite sample %v at %d", v, i)
		}
	}
}

func TestGateCutsBelowThreshold(t *testing.T) {
	eq, err := New(testRate)
	if err != nil {
		t.Fatal(err)
	}

	p := compressBand(1000, 0, 4)
	p.Mode = ModeGate
	if err := eq.SetBand(0, p); err != nil {
		t.Fatal(err)
	}

	buf := stereoSine(8192, 1000, 0.01)
	in := channelRMS(buf, 0, 2000)

	eq.Process(buf)

	out := channelRMS(buf, 0, 2000)
	if out >= in*0.2 {
		t.Errorf("gate too weak: rms %v -> %v", in, out)
	}
}

func TestOffFrequencyToneMostlyUntouched(t *testing.T) {
	eq, err := New(testRate)
	if err != nil {
		t.Fatal(err)
	}
	if err := eq.SetBand(0, compressBand(1000, -20, 4)); err != nil {
		t.Fatal(err)
	}

	buf := stereoSine(8192, 10000, 0.5)
	in := channelRMS(buf, 0, 2000)

	eq.Process(buf)

	out := channelRMS(buf, 0, 2000)
	if out < in*0.7 {
		t.Errorf("band at 1 kHz cut a 10 kHz tone too much: rms %v -> %v", in, out)
	}
}

func TestResetClearsStateKeepsParams(t *testing.T) {
	eq, err := New(testRate)
	if err != nil {
		t.Fatal(err)
	}
	if err := eq.SetBand(0, compressBand(1000, -20, 4)); err != nil {
		t.Fatal(err)
	}

	buf := stereoSine(4096, 1000, 0.5)
	eq.Process(buf)

	if gr := eq.GainReductionDB(); gr[0] <= 0 {
		t.Fatal("expected gain reduction before reset")
	}

	eq.Reset()

	if gr := eq.GainReductionDB(); gr[0] != 0 {
		t.Errorf("meter survived reset: %v", gr[0])
	}
	for ch := 0; ch < numChannels; ch++ {
		if eq.bands[0].envelope[ch] != 0 {
			t.Errorf("envelope[%d] survived reset: %v", ch, eq.bands[0].envelope[ch])
		}
	}
	if !eq.Band(0).Enabled {
		t.Error("band parameters lost on reset")
	}
}

func TestBandAccessor(t *testing.T) {
	eq, err := New(testRate)
	if err != nil {
		t.Fatal(err)
	}

	want := DefaultBandParams()
	if got := eq.Band(-1); got != want {
		t.Errorf("Band(-1) = %+v, want defaults", got)
	}
	if got := eq.Band(2); got != want {
		t.Errorf("untouched band = %+v, want defaults", got)
	}
}

func TestModeString(t *testing.T) {
	cases := []struct {
		mode Mode
		want string
	}{
		{ModeCompressDown, "Compress Down"},
		{ModeExpandUp, "Expand Up"},
		{ModeGate, "Gate"},
		{Mode(99), "Compress Down"},
	}

	for _, tc := range cases {
		if got := tc.mode.String(); got != tc.want {
			t.Errorf("Mode(%d).String() = %q, want %q", tc.mode, got, tc.want)
		}
	}
}
