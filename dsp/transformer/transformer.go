package transformer

import (
	"fmt"
	"math"

	"github.com/fsecada01/bus-channel-strip/dsp/filter/biquad"
)

const (
	numChannels = 2

	// stageCompressionThreshold is the envelope level where transformer
	// loading starts to compress.
	stageCompressionThreshold = 0.7

	// stageReleaseCoeff is the slow envelope release toward the input level.
	stageReleaseCoeff = 0.01
)

// Model selects the transformer voicing.
type Model int

const (
	// ModelVintage is warm and musical with even harmonics.
	ModelVintage Model = iota
	// ModelModern is clean with subtle odd harmonics when pushed.
	ModelModern
	// ModelBritish is tight, controlled console iron.
	ModelBritish
	// ModelAmerican balances warmth and clarity.
	ModelAmerican
)

// String returns the display name of the model.
func (m Model) String() string {
	switch m {
	case ModelVintage:
		return "Vintage"
	case ModelModern:
		return "Modern"
	case ModelBritish:
		return "British"
	case ModelAmerican:
		return "American"
	default:
		return "Vintage"
	}
}

// saturate dispatches to the model's saturation law.
func (m Model) saturate(input, amount float64) float64 {
	switch m {
	case ModelModern:
		return modernSaturation(input, amount)
	case ModelBritish:
		return britishSaturation(input, amount)
	case ModelAmerican:
		return americanSaturation(input, amount)
	default:
		return vintageSaturation(input, amount)
	}
}

// lowShelfFreq returns the model's low-end corner. Vintage iron rolls the
// bottom around 80 Hz, modern designs reach lower.
func (m Model) lowShelfFreq() float64 {
	switch m {
	case ModelModern:
		return 60
	case ModelBritish:
		return 100
	case ModelAmerican:
		return 70
	default:
		return 80
	}
}

func (m Model) highShelfFreq() float64 {
	switch m {
	case ModelModern:
		return 15000
	case ModelBritish:
		return 12000
	case ModelAmerican:
		return 10000
	default:
		return 8000
	}
}

const (
	defaultTransformerModel = ModelVintage
	minResponse             = -1.0
	maxResponse             = 1.0
	lowResponseRangeDB      = 3.0
	highResponseRangeDB     = 2.0

	// responseBypassDB leaves a shelf at identity when the requested gain is
	// within a tenth of a dB of flat.
	responseBypassDB = 0.1
)

// Option mutates transformer construction parameters.
type Option func(*config) error

type config struct {
	model        Model
	inputDrive   float64
	inputSat     float64
	outputDrive  float64
	outputSat    float64
	lowResponse  float64
	highResponse float64
	compression  float64
}

func defaultConfig() config {
	return config{model: defaultTransformerModel}
}

func unitRange(name string, v float64) error {
	if v < 0 || v > 1 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("transformer %s must be in [0, 1]: %f", name, v)
	}

	return nil
}

// WithModel selects the transformer voicing.
func WithModel(model Model) Option {
	return func(cfg *config) error {
		cfg.model = model
		return nil
	}
}

// WithInputStage sets the input transformer drive and saturation, both in
// [0, 1].
func WithInputStage(drive, saturation float64) Option {
	return func(cfg *config) error {
		if err := unitRange("input drive", drive); err != nil {
			return err
		}
		if err := unitRange("input saturation", saturation); err != nil {
			return err
		}
		cfg.inputDrive = drive
		cfg.inputSat = saturation
		return nil
	}
}

// WithOutputStage sets the output transformer drive and saturation, both in
// [0, 1].
func WithOutputStage(drive, saturation float64) Option {
	return func(cfg *config) error {
		if err := unitRange("output drive", drive); err != nil {
			return err
		}
		if err := unitRange("output saturation", saturation); err != nil {
			return err
		}
		cfg.outputDrive = drive
		cfg.outputSat = saturation
		return nil
	}
}

// WithFrequencyResponse sets the low and high shelf response, each in
// [-1, 1] from cut to boost. The shelf corners depend on the model.
func WithFrequencyResponse(low, high float64) Option {
	return func(cfg *config) error {
		if low < minResponse || low > maxResponse || math.IsNaN(low) {
			return fmt.Errorf("transformer low response must be in [-1, 1]: %f", low)
		}
		if high < minResponse || high > maxResponse || math.IsNaN(high) {
			return fmt.Errorf("transformer high response must be in [-1, 1]: %f", high)
		}
		cfg.lowResponse = low
		cfg.highResponse = high
		return nil
	}
}

// WithCompression sets the loading-compression amount in [0, 1]. The input
// stage receives 30% of it, the output stage 70%.
func WithCompression(amount float64) Option {
	return func(cfg *config) error {
		if err := unitRange("compression", amount); err != nil {
			return err
		}
		cfg.compression = amount
		return nil
	}
}

// stage holds one transformer stage's resolved settings and per-channel
// envelope state.
type stage struct {
	driveGain   float64
	saturation  float64
	compression float64
	envelope    [numChannels]float64
}

func (s *stage) processSample(input float64, ch int, model Model) float64 {
	if s.saturation < bypassThreshold {
		return input
	}

	driven := input * s.driveGain
	saturated := model.saturate(driven, s.saturation)

	if s.compression < bypassThreshold {
		return saturated
	}

	return s.compress(saturated, ch)
}

// compress applies the loading effect: instant-attack slow-release envelope
// driving a soft downward ratio above the threshold.
func (s *stage) compress(input float64, ch int) float64 {
	abs := math.Abs(input)
	env := s.envelope[ch]

	if abs > env {
		env = abs
	} else {
		env += (abs - env) * stageReleaseCoeff
	}
	s.envelope[ch] = env

	if env <= stageCompressionThreshold {
		return input
	}

	over := env - stageCompressionThreshold
	ratio := 1 + over*s.compression*2

	return input / ratio
}

func (s *stage) reset() {
	for ch := range s.envelope {
		s.envelope[ch] = 0
	}
}

// Transformer chains an input stage, model-dependent shelf coloration, and
// an output stage. Audio is interleaved stereo processed in place.
type Transformer struct {
	sampleRate float64
	model      Model

	input  stage
	output stage

	lowResponse  float64
	highResponse float64
	compression  float64

	lowShelf  [numChannels]biquad.Section
	highShelf [numChannels]biquad.Section
}

// New creates a transformer module for the given sample rate. Without
// options the module is fully neutral: no drive, no saturation, flat
// response.
func New(sampleRate float64, opts ...Option) (*Transformer, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("transformer sample rate must be > 0 and finite: %f", sampleRate)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	tr := &Transformer{sampleRate: sampleRate}
	if err := tr.apply(cfg); err != nil {
		return nil, err
	}

	return tr, nil
}

func (tr *Transformer) apply(cfg config) error {
	tr.model = cfg.model
	tr.lowResponse = cfg.lowResponse
	tr.highResponse = cfg.highResponse
	tr.compression = cfg.compression

	// The input stage runs gentler than the output stage: less saturation,
	// less loading, slightly more available drive.
	tr.input.driveGain = 1 + cfg.inputDrive*0.8
	tr.input.saturation = cfg.inputSat * 0.6
	tr.input.compression = cfg.compression * 0.3

	tr.output.driveGain = 1 + cfg.outputDrive*0.6
	tr.output.saturation = cfg.outputSat * 0.5
	tr.output.compression = cfg.compression * 0.7

	return tr.updateResponse()
}

// updateResponse rebuilds the shelf coefficients from the model corners and
// the response amounts. Filter state carries across rebuilds.
func (tr *Transformer) updateResponse() error {
	lowCoeffs := biquad.Identity()
	if lowGain := tr.lowResponse * lowResponseRangeDB; math.Abs(lowGain) > responseBypassDB {
		var err error
		lowCoeffs, err = biquad.LowShelf(tr.sampleRate, tr.model.lowShelfFreq(),
			biquad.QButterworth, lowGain)
		if err != nil {
			return err
		}
	}

	highCoeffs := biquad.Identity()
	if highGain := tr.highResponse * highResponseRangeDB; math.Abs(highGain) > responseBypassDB {
		var err error
		highCoeffs, err = biquad.HighShelf(tr.sampleRate, tr.model.highShelfFreq(),
			biquad.QButterworth, highGain)
		if err != nil {
			return err
		}
	}

	for ch := 0; ch < numChannels; ch++ {
		tr.lowShelf[ch].SetCoefficients(lowCoeffs)
		tr.highShelf[ch].SetCoefficients(highCoeffs)
	}

	return nil
}

// SetModel switches the voicing and rebuilds the shelf corners.
func (tr *Transformer) SetModel(model Model) error {
	tr.model = model

	return tr.updateResponse()
}

// SetFrequencyResponse updates the shelf amounts, each in [-1, 1].
func (tr *Transformer) SetFrequencyResponse(low, high float64) error {
	if low < minResponse || low > maxResponse || math.IsNaN(low) {
		return fmt.Errorf("transformer low response must be in [-1, 1]: %f", low)
	}
	if high < minResponse || high > maxResponse || math.IsNaN(high) {
		return fmt.Errorf("transformer high response must be in [-1, 1]: %f", high)
	}

	tr.lowResponse = low
	tr.highResponse = high

	return tr.updateResponse()
}

// Model returns the active voicing.
func (tr *Transformer) Model() Model { return tr.model }

// SampleRate returns the sample rate in Hz.
func (tr *Transformer) SampleRate() float64 { return tr.sampleRate }

// Process runs an interleaved stereo block through both stages in place.
func (tr *Transformer) Process(block []float64) {
	frames := len(block) / numChannels
	for i := 0; i < frames; i++ {
		for ch := 0; ch < numChannels; ch++ {
			idx := i*numChannels + ch

			s := block[idx]
			s = tr.input.processSample(s, ch, tr.model)
			s = tr.lowShelf[ch].ProcessSample(s)
			s = tr.highShelf[ch].ProcessSample(s)
			s = tr.output.processSample(s, ch, tr.model)

			block[idx] = s
		}
	}
}

// Reset clears the envelope and filter state.
func (tr *Transformer) Reset() {
	tr.input.reset()
	tr.output.reset()
	for ch := 0; ch < numChannels; ch++ {
		tr.lowShelf[ch].Reset()
		tr.highShelf[ch].Reset()
	}
}
