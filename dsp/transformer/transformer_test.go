package transformer

import (
	"math"
	"testing"
)

func stereoSine(frames int, freq, rate, amp float64) []float64 {
	buf := make([]float64, frames*2)
	for i := 0; i < frames; i++ {
		v := amp * math.Sin(2*math.Pi*freq*float64(i)/rate)
		buf[2*i] = v
		buf[2*i+1] = v
	}

	return buf
}

func TestNewValidation(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Error("New(0) accepted a zero sample rate")
	}
	if _, err := New(48000, WithInputStage(2, 0)); err == nil {
		t.Error("out-of-range input drive accepted")
	}
	if _, err := New(48000, WithFrequencyResponse(-2, 0)); err == nil {
		t.Error("out-of-range low response accepted")
	}
	if _, err := New(48000, WithCompression(-0.1)); err == nil {
		t.Error("negative compression accepted")
	}
}

func TestNeutralSettingsPassThrough(t *testing.T) {
	tr, err := New(48000)
	if err != nil {
		t.Fatal(err)
	}

	buf := stereoSine(256, 1000, 48000, 0.5)
	want := make([]float64, len(buf))
	copy(want, buf)

	tr.Process(buf)

	for i := range buf {
		if buf[i] != want[i] {
			t.Fatalf("neutral transformer altered sample %d: %v -> %v", i, want[i], buf[i])
		}
	}
}

func TestSaturationAddsHarmonics(t *testing.T) {
	tr, err := New(48000,
		WithModel(ModelVintage),
		WithInputStage(0.8, 0.8),
		WithOutputStage(0.5, 0.5),
	)
	if err != nil {
		t.Fatal(err)
	}

	buf := stereoSine(4096, 1000, 48000, 0.8)
	want := make([]float64, len(buf))
	copy(want, buf)

	tr.Process(buf)

	changed := false
	for i := range buf {
		if math.Abs(buf[i]-want[i]) > 1e-6 {
			changed = true
			break
		}
	}
	if !changed {
		t.Error("saturated transformer left signal unchanged")
	}

	for i, v := range buf {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("non-finite output %v at %d", v, i)
		}
	}
}

func TestSaturationLawsBounded(t *testing.T) {
	laws := map[string]func(float64, float64) float64{
		"vintage":  vintageSaturation,
		"modern":   modernSaturation,
		"british":  britishSaturation,
		"american": americanSaturation,
	}

	for name, law := range laws {
		for x := -1.5; x <= 1.5; x += 0.01 {
			y := law(x, 0.8)
			if math.IsNaN(y) || math.IsInf(y, 0) {
				t.Fatalf("%s saturation non-finite at %v: %v", name, x, y)
			}
			if math.Abs(y) > 4 {
				t.Fatalf("%s saturation blew up at %v: %v", name, x, y)
			}
		}

		// Tiny amounts bypass entirely.
		if got := law(0.6, 0.005); got != 0.6 {
			t.Errorf("%s saturation altered signal below bypass threshold: %v", name, got)
		}
	}
}

func TestFrequencyResponseShapesSpectrum(t *testing.T) {
	const rate = 48000.0

	flat, err := New(rate)
	if err != nil {
		t.Fatal(err)
	}
	boosted, err := New(rate, WithFrequencyResponse(1, 0))
	if err != nil {
		t.Fatal(err)
	}

	// A low sine near the vintage low-shelf corner should come out louder
	// from the boosted unit.
	rms := func(tr *Transformer) float64 {
		buf := stereoSine(8192, 50, rate, 0.25)
		tr.Process(buf)

		var sum float64
		for i := 4096; i < len(buf); i += 2 {
			sum += buf[i] * buf[i]
		}

		return math.Sqrt(sum / 2048)
	}

	flatRMS := rms(flat)
	boostRMS := rms(boosted)

	if boostRMS <= flatRMS*1.05 {
		t.Errorf("low shelf boost ineffective: flat %v, boosted %v", flatRMS, boostRMS)
	}
}

func TestCompressionTamesHotSignal(t *testing.T) {
	tr, err := New(48000,
		WithInputStage(0, 0.8),
		WithCompression(1),
	)
	if err != nil {
		t.Fatal(err)
	}

	// Drive the envelope over the loading threshold.
	hot := stereoSine(4096, 200, 48000, 1.0)
	raw := make([]float64, len(hot))
	copy(raw, hot)

	trNoComp, err := New(48000, WithInputStage(0, 0.8))
	if err != nil {
		t.Fatal(err)
	}

	tr.Process(hot)
	trNoComp.Process(raw)

	peak := func(buf []float64) float64 {
		m := 0.0
		for _, v := range buf[len(buf)/2:] {
			if a := math.Abs(v); a > m {
				m = a
			}
		}
		return m
	}

	if peak(hot) >= peak(raw) {
		t.Errorf("loading compression did not reduce peak: %v vs %v", peak(hot), peak(raw))
	}
}

func TestModelString(t *testing.T) {
	cases := map[Model]string{
		ModelVintage:  "Vintage",
		ModelModern:   "Modern",
		ModelBritish:  "British",
		ModelAmerican: "American",
		Model(99):     "Vintage",
	}
	for m, want := range cases {
		if got := m.String(); got != want {
			t.Errorf("Model(%d).String() = %q, want %q", int(m), got, want)
		}
	}
}

func TestResetClearsEnvelopes(t *testing.T) {
	tr, err := New(48000, WithInputStage(0.5, 0.9), WithCompression(1))
	if err != nil {
		t.Fatal(err)
	}

	buf := stereoSine(2048, 100, 48000, 1.0)
	tr.Process(buf)

	tr.Reset()

	if tr.input.envelope[0] != 0 || tr.output.envelope[1] != 0 {
		t.Error("reset left envelope state behind")
	}
}
