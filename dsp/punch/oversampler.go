package punch

// OversamplingFactor selects the ratio between the internal nonlinear
// processing rate and the host sample rate.
type OversamplingFactor int

const (
	// Oversampling1x disables oversampling (testing and lowest CPU).
	Oversampling1x OversamplingFactor = iota
	// Oversampling4x suits real-time mixing.
	Oversampling4x
	// Oversampling8x is the recommended default.
	Oversampling8x
	// Oversampling16x is mastering quality.
	Oversampling16x
)

// Ratio returns the numeric factor. Values outside the supported set map to
// the 8x default, keeping the factor invariant without an error path.
func (f OversamplingFactor) Ratio() int {
	switch f {
	case Oversampling1x:
		return 1
	case Oversampling4x:
		return 4
	case Oversampling8x:
		return 8
	case Oversampling16x:
		return 16
	default:
		return 8
	}
}

// String returns the host-facing name of the factor.
func (f OversamplingFactor) String() string {
	switch f {
	case Oversampling1x:
		return "1x"
	case Oversampling4x:
		return "4x"
	case Oversampling8x:
		return "8x"
	case Oversampling16x:
		return "16x"
	default:
		return "8x"
	}
}

// Oversampler performs per-channel up/down-sampling around the nonlinear
// stage. Upsampling interpolates linearly from the previous filtered output
// toward the current input; downsampling averages the oversampled taps and
// applies a fixed one-pole lowpass before decimation.
//
// The interpolation anchor is deliberately the filtered downsample history,
// not the raw previous input. The coupling between the two stages shapes the
// effective frequency response and must stay intact.
type Oversampler struct {
	factor int

	upsampleBuffer   []float64
	downsampleBuffer []float64
	filterState      float64
}

// NewOversampler sizes both buffers for the maximum factor and block size so
// runtime factor changes never reallocate.
func NewOversampler(maxFactor, maxBlockSize int) *Oversampler {
	return &Oversampler{
		factor:           maxFactor,
		upsampleBuffer:   make([]float64, maxBlockSize*maxFactor),
		downsampleBuffer: make([]float64, maxBlockSize),
	}
}

// SetFactor changes how much of the pre-sized buffers is used.
func (o *Oversampler) SetFactor(factor int) {
	o.factor = factor
}

// Factor returns the active oversampling factor.
func (o *Oversampler) Factor() int {
	return o.factor
}

// Upsample expands one input sample into factor values and returns them as a
// slice into the internal buffer, valid until the next call. idx is the
// sample's position within the current block.
func (o *Oversampler) Upsample(input float64, idx int) []float64 {
	start := idx * o.factor
	end := start + o.factor

	if o.factor == 1 {
		o.upsampleBuffer[start] = input

		return o.upsampleBuffer[start:end]
	}

	prev := o.filterState
	if idx > 0 {
		prev = o.downsampleBuffer[idx-1]
	}

	for i := 0; i < o.factor; i++ {
		t := float64(i) / float64(o.factor)
		o.upsampleBuffer[start+i] = prev*(1-t) + input*t
	}

	return o.upsampleBuffer[start:end]
}

// Downsample collapses factor processed values back to one output sample.
// idx is the sample's position within the current block.
func (o *Oversampler) Downsample(processed []float64, idx int) float64 {
	if o.factor == 1 {
		return processed[0]
	}

	var sum float64
	for _, v := range processed {
		sum += v
	}

	average := sum / float64(o.factor)

	// One-pole lowpass against residual aliasing before decimation.
	filtered := o.filterState*0.3 + average*0.7
	o.filterState = filtered
	o.downsampleBuffer[idx] = filtered

	return filtered
}

// Reset zeroes the filter state and the downsample history.
func (o *Oversampler) Reset() {
	o.filterState = 0
	for i := range o.downsampleBuffer {
		o.downsampleBuffer[i] = 0
	}
}
