package strip

// Context carries the construction-time facts a module factory needs.
type Context struct {
	// SampleRate is the host sample rate in Hz.
	SampleRate float64

	// MaxBlockSize is the largest per-channel block length the host will
	// deliver, for modules that pre-size internal buffers.
	MaxBlockSize int
}

// Module is one processing slot of the strip. Process transforms an
// interleaved stereo block in place and must not allocate; Reset clears all
// audio state without touching parameters.
type Module interface {
	Process(block []float64)
	Reset()
}
