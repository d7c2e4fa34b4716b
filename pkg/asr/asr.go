// Package asr defines the speech recognition provider contracts and
// the recognized-unit data model consumed by the attribution engine.
package asr

import (
	"context"

	"github.com/MrWong99/minutescribe/pkg/audio"
	"github.com/MrWong99/minutescribe/pkg/timespan"
)

// Granularity describes the atomic unit a transcriber emits.
type Granularity string

const (
	// GranularityWord means the transcriber emits one unit per
	// recognized word with word-level timestamps.
	GranularityWord Granularity = "word"

	// GranularitySegment means the transcriber emits free segments,
	// typically whole utterance chunks spanning several words.
	GranularitySegment Granularity = "segment"
)

// IsValid reports whether g is a known granularity.
func (g Granularity) IsValid() bool {
	return g == GranularityWord || g == GranularitySegment
}

// Unit is one timestamped text fragment emitted by a transcriber,
// either a single word or a free segment depending on the provider's
// granularity. Attribution treats both identically.
type Unit struct {
	Span timespan.Span
	Text string
}

// ErrorText is the unit text substituted when transcription of one
// audio segment fails. Units carrying a failure are excluded from the
// merged transcript.
const ErrorText = "[Transcription Error]"

// Transcriber recognizes speech over a whole waveform and returns
// timestamped units in chronological order.
type Transcriber interface {
	// Transcribe runs recognition over the full waveform. An empty
	// unit list with a nil error means no speech was recognized.
	Transcribe(ctx context.Context, wav audio.Waveform) ([]Unit, error)

	// Granularity reports the unit granularity this transcriber
	// emits, which selects the attribution strategy downstream.
	Granularity() Granularity
}

// SegmentTranscriber recognizes speech over a single pre-cut audio
// segment and returns plain text without timestamps. Used by the
// diarization-driven pipeline where segment boundaries come from the
// speaker turns themselves.
type SegmentTranscriber interface {
	TranscribeSegment(ctx context.Context, wav audio.Waveform) (string, error)
}
