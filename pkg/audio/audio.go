// Package audio provides the in-memory waveform model handed to
// diarization and speech recognition providers, plus WAV codec,
// channel downmix and resampling helpers.
//
// The pipeline works on mono float32 samples in [-1, 1]. Decoding,
// downmixing and resampling happen once at the request boundary;
// providers that need PCM bytes re-encode via [EncodeWAV].
package audio

import (
	"github.com/MrWong99/minutescribe/pkg/timespan"
)

// Waveform is a mono audio signal at a known sample rate.
type Waveform struct {
	// Samples are normalized mono samples in [-1, 1].
	Samples []float32

	// SampleRate is the number of samples per second. Must be > 0.
	SampleRate int
}

// Duration returns the waveform length in seconds.
func (w Waveform) Duration() float64 {
	if w.SampleRate <= 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// Bounds returns the span [0, Duration) covered by the waveform.
func (w Waveform) Bounds() timespan.Span {
	return timespan.New(0, w.Duration())
}

// Slice returns the sub-waveform covering span. The span is clamped to
// the waveform bounds; the second return value is false when nothing
// remains after clamping. The returned samples alias the original
// buffer.
func (w Waveform) Slice(span timespan.Span) (Waveform, bool) {
	clipped, ok := span.Clip(w.Bounds())
	if !ok {
		return Waveform{}, false
	}
	lo := int(clipped.Start * float64(w.SampleRate))
	hi := int(clipped.End * float64(w.SampleRate))
	if hi > len(w.Samples) {
		hi = len(w.Samples)
	}
	if lo >= hi {
		return Waveform{}, false
	}
	return Waveform{Samples: w.Samples[lo:hi], SampleRate: w.SampleRate}, true
}
