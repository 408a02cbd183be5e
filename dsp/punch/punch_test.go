package punch

import (
	"math"
	"testing"
)

func fillSine(buf []float64, freq, sampleRate, amp float64) {
	frames := len(buf) / 2
	for i := 0; i < frames; i++ {
		v := amp * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
		buf[2*i] = v
		buf[2*i+1] = v
	}
}

func TestNewDefaults(t *testing.T) {
	p, err := New(44100)
	if err != nil {
		t.Fatalf("New(44100) failed: %v", err)
	}

	if math.Abs(p.ClipThreshold()-0.891) > 0.001 {
		t.Errorf("default threshold = %v, want ~0.891 (-1 dBFS)", p.ClipThreshold())
	}

	params := p.Parameters()
	if params.ClipMode != ClipModeHard {
		t.Errorf("default mode = %v, want Hard", params.ClipMode)
	}
	if params.Oversampling.Ratio() != 8 {
		t.Errorf("default oversampling ratio = %d, want 8", params.Oversampling.Ratio())
	}
	if params.Attack != 0.2 || params.Sustain != 0 {
		t.Errorf("default shaper = %v/%v, want 0.2/0", params.Attack, params.Sustain)
	}
	if params.Mix != 1 {
		t.Errorf("default mix = %v, want 1", params.Mix)
	}
	if p.SampleRate() != 44100 {
		t.Errorf("sample rate = %v, want 44100", p.SampleRate())
	}
}

func TestNewRejectsBadSampleRate(t *testing.T) {
	for _, rate := range []float64{0, -48000, math.NaN(), math.Inf(1)} {
		if _, err := New(rate); err == nil {
			t.Errorf("New(%v) accepted an invalid sample rate", rate)
		}
	}
}

func TestUpdateParametersSnapshot(t *testing.T) {
	p, err := New(44100)
	if err != nil {
		t.Fatal(err)
	}

	p.UpdateParameters(Parameters{
		ClipThresholdDB: -3.0,
		ClipMode:        ClipModeSoft,
		Softness:        0.5,
		Oversampling:    Oversampling4x,
		Attack:          0.5,
		Sustain:         -0.2,
		AttackTimeMs:    10,
		ReleaseTimeMs:   200,
		Sensitivity:     0.7,
		Mix:             1,
	})

	if math.Abs(p.ClipThreshold()-0.708) > 0.001 {
		t.Errorf("threshold = %v, want ~0.708 (-3 dBFS)", p.ClipThreshold())
	}

	params := p.Parameters()
	if params.ClipMode != ClipModeSoft {
		t.Errorf("mode = %v, want Soft", params.ClipMode)
	}
	if params.Softness != 0.5 {
		t.Errorf("softness = %v, want 0.5", params.Softness)
	}
	if params.Attack != 0.5 || params.Sustain != -0.2 {
		t.Errorf("shaper = %v/%v, want 0.5/-0.2", params.Attack, params.Sustain)
	}
	if params.Oversampling.Ratio() != 4 {
		t.Errorf("oversampling ratio = %d, want 4", params.Oversampling.Ratio())
	}
}

func TestUpdateParametersClampsOutOfRange(t *testing.T) {
	p, err := New(48000)
	if err != nil {
		t.Fatal(err)
	}

	p.UpdateParameters(Parameters{
		ClipThresholdDB: -40,
		Softness:        3,
		Attack:          9,
		Sustain:         -9,
		AttackTimeMs:    0.001,
		ReleaseTimeMs:   9000,
		Sensitivity:     -2,
		InputGainDB:     100,
		OutputGainDB:    -100,
		Mix:             2,
	})

	params := p.Parameters()
	checks := []struct {
		name      string
		got, want float64
	}{
		{"threshold dB", params.ClipThresholdDB, -12},
		{"softness", params.Softness, 1},
		{"attack", params.Attack, 1},
		{"sustain", params.Sustain, -1},
		{"attack time", params.AttackTimeMs, 0.1},
		{"release time", params.ReleaseTimeMs, 500},
		{"sensitivity", params.Sensitivity, 0},
		{"input gain", params.InputGainDB, 24},
		{"output gain", params.OutputGainDB, -24},
		{"mix", params.Mix, 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s clamped to %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestProcessSilenceStaysSilent(t *testing.T) {
	p, err := New(44100)
	if err != nil {
		t.Fatal(err)
	}

	buf := make([]float64, 1024)
	p.Process(buf)

	for i, v := range buf {
		if v != 0 {
			t.Fatalf("silence produced output %v at index %d", v, i)
		}
	}
	if p.GainReduction() != 0 || p.TransientActivity() != 0 {
		t.Errorf("meters nonzero on silence: gr=%v transient=%v",
			p.GainReduction(), p.TransientActivity())
	}
}

func TestProcessMixZeroIsDryPassthrough(t *testing.T) {
	p, err := New(44100)
	if err != nil {
		t.Fatal(err)
	}

	params := DefaultParameters()
	params.Mix = 0
	p.UpdateParameters(params)

	buf := make([]float64, 512)
	fillSine(buf, 1000, 44100, 0.9)

	want := make([]float64, len(buf))
	copy(want, buf)

	p.Process(buf)

	for i := range buf {
		if math.Abs(buf[i]-want[i]) > 1e-12 {
			t.Fatalf("dry path altered sample %d: got %v, want %v", i, buf[i], want[i])
		}
	}
}

func TestProcessOutputGain(t *testing.T) {
	p, err := New(44100)
	if err != nil {
		t.Fatal(err)
	}

	params := DefaultParameters()
	params.Mix = 0
	params.OutputGainDB = -6
	p.UpdateParameters(params)

	buf := make([]float64, 256)
	fillSine(buf, 440, 44100, 0.5)

	want := make([]float64, len(buf))
	copy(want, buf)

	p.Process(buf)

	gain := math.Pow(10, -6.0/20.0)
	for i := range buf {
		if math.Abs(buf[i]-want[i]*gain) > 1e-9 {
			t.Fatalf("output gain mismatch at %d: got %v, want %v", i, buf[i], want[i]*gain)
		}
	}
}

func TestProcessChannelIndependence(t *testing.T) {
	p, err := New(44100)
	if err != nil {
		t.Fatal(err)
	}

	buf := make([]float64, 1024)
	for i := 0; i < len(buf); i += 2 {
		buf[i] = 0.9 * math.Sin(2*math.Pi*500*float64(i/2)/44100)
		// Right channel stays silent.
	}

	p.Process(buf)

	for i := 1; i < len(buf); i += 2 {
		if buf[i] != 0 {
			t.Fatalf("silent channel produced output %v at frame %d", buf[i], i/2)
		}
	}
}

func TestProcessClipsAboveThreshold(t *testing.T) {
	p, err := New(44100)
	if err != nil {
		t.Fatal(err)
	}

	params := DefaultParameters()
	params.ClipThresholdDB = -12
	params.Attack = 0
	params.Sustain = 0
	p.UpdateParameters(params)

	buf := make([]float64, 4096)
	fillSine(buf, 100, 44100, 1.0)

	p.Process(buf)

	threshold := p.ClipThreshold()
	// Skip the smoothing warm-up and allow for interpolation roundoff.
	for i := 512; i < len(buf); i++ {
		if math.Abs(buf[i]) > threshold*1.05 {
			t.Fatalf("sample %d = %v exceeds threshold %v", i, buf[i], threshold)
		}
	}

	if p.GainReduction() <= 0 {
		t.Errorf("gain reduction meter = %v, want > 0 while clipping", p.GainReduction())
	}
}

func TestProcessAttackBoostEmphasizesOnset(t *testing.T) {
	rate := 44100.0

	p, err := New(rate)
	if err != nil {
		t.Fatal(err)
	}

	params := DefaultParameters()
	params.ClipThresholdDB = 0
	params.Attack = 1
	params.Sensitivity = 1
	p.UpdateParameters(params)

	// Silence, then a sustained full-scale step.
	const frames = 8192
	buf := make([]float64, frames*2)
	stepFrame := 64
	for i := stepFrame; i < frames; i++ {
		buf[2*i] = 1.0
		buf[2*i+1] = 1.0
	}

	p.Process(buf)

	earlyEnd := stepFrame + int(0.005*rate)
	earlyPeak := 0.0
	for i := stepFrame; i < earlyEnd; i++ {
		if v := math.Abs(buf[2*i]); v > earlyPeak {
			earlyPeak = v
		}
	}

	lateStart := stepFrame + int(0.080*rate)
	latePeak := 0.0
	for i := lateStart; i < frames; i++ {
		if v := math.Abs(buf[2*i]); v > latePeak {
			latePeak = v
		}
	}

	if earlyPeak <= latePeak*1.02 {
		t.Errorf("attack boost missing: onset peak %v vs sustained %v", earlyPeak, latePeak)
	}
	if p.TransientActivity() <= 0 {
		t.Errorf("transient meter = %v, want > 0 after an onset", p.TransientActivity())
	}
}

func TestMetersDecayOnSilence(t *testing.T) {
	p, err := New(44100)
	if err != nil {
		t.Fatal(err)
	}

	params := DefaultParameters()
	params.ClipThresholdDB = -12
	p.UpdateParameters(params)

	loud := make([]float64, 2048)
	fillSine(loud, 100, 44100, 1.0)
	p.Process(loud)

	gr := p.GainReduction()
	if gr <= 0 {
		t.Fatalf("expected gain reduction after loud block, got %v", gr)
	}

	silence := make([]float64, 2048)
	for i := 0; i < 64; i++ {
		for j := range silence {
			silence[j] = 0
		}
		p.Process(silence)
	}

	if p.GainReduction() >= gr {
		t.Errorf("gain reduction did not decay: %v -> %v", gr, p.GainReduction())
	}
	if p.GainReduction() > 0.01 {
		t.Errorf("gain reduction stuck at %v after sustained silence", p.GainReduction())
	}
}

func TestResetClearsStatePreservesParameters(t *testing.T) {
	p, err := New(44100)
	if err != nil {
		t.Fatal(err)
	}

	params := DefaultParameters()
	params.ClipThresholdDB = -6
	params.ClipMode = ClipModeCubic
	p.UpdateParameters(params)

	buf := make([]float64, 2048)
	fillSine(buf, 200, 44100, 1.0)
	p.Process(buf)

	p.Reset()

	if p.GainReduction() != 0 || p.TransientActivity() != 0 {
		t.Errorf("meters survived reset: gr=%v transient=%v",
			p.GainReduction(), p.TransientActivity())
	}

	got := p.Parameters()
	if got.ClipThresholdDB != -6 || got.ClipMode != ClipModeCubic {
		t.Errorf("parameters lost on reset: %+v", got)
	}

	// Post-reset silence must be bit-exact silence.
	silence := make([]float64, 512)
	p.Process(silence)
	for i, v := range silence {
		if v != 0 {
			t.Fatalf("residual state after reset: %v at index %d", v, i)
		}
	}
}

func TestProcessLargeBufferChunks(t *testing.T) {
	p, err := New(48000)
	if err != nil {
		t.Fatal(err)
	}

	// Longer than the sized maximum; must be chunked, not truncated.
	buf := make([]float64, (MaxBlockFrames+500)*2)
	fillSine(buf, 1000, 48000, 0.8)

	p.Process(buf)

	for i, v := range buf {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("non-finite output %v at index %d", v, i)
		}
	}
}

func TestProcessDoesNotAllocate(t *testing.T) {
	p, err := New(44100)
	if err != nil {
		t.Fatal(err)
	}

	buf := make([]float64, 1024)
	fillSine(buf, 440, 44100, 0.7)

	allocs := testing.AllocsPerRun(16, func() {
		p.Process(buf)
	})
	if allocs != 0 {
		t.Errorf("Process allocated %.0f times per run, want 0", allocs)
	}
}
