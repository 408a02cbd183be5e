package main

import (
	"fmt"
	"os"

	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

// readStereoWAV decodes a WAV file into interleaved stereo float64 samples
// normalized to [-1, 1]. Mono input is duplicated onto both channels; extra
// channels beyond the first two are dropped.
func readStereoWAV(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("invalid wav file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, err
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, 0, fmt.Errorf("empty wav buffer")
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := 1.0 / float64(int64(1)<<(bitDepth-1))

	ch := buf.Format.NumChannels
	frames := len(buf.Data) / ch
	out := make([]float64, frames*2)

	for i := 0; i < frames; i++ {
		left := float64(buf.Data[i*ch]) * scale
		right := left
		if ch > 1 {
			right = float64(buf.Data[i*ch+1]) * scale
		}

		out[i*2] = left
		out[i*2+1] = right
	}

	return out, buf.Format.SampleRate, nil
}

// writeStereoWAV writes interleaved stereo float64 samples as a 16-bit WAV
// file. Samples are clamped to [-1, 1].
func writeStereoWAV(path string, samples []float64, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 2, 1)
	defer enc.Close()

	data := make([]float32, len(samples))
	for i, v := range samples {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		data[i] = float32(v)
	}

	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: 2,
		},
		Data:           data,
		SourceBitDepth: 16,
	}

	return enc.Write(buf)
}
