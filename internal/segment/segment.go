// Package segment slices a waveform into per-turn audio segments for
// the diarization-driven transcription path.
package segment

import (
	"log/slog"

	"github.com/MrWong99/minutescribe/pkg/audio"
	"github.com/MrWong99/minutescribe/pkg/diarization"
	"github.com/MrWong99/minutescribe/pkg/timespan"
)

// Segment pairs an audio slice with the timeline span it was cut from.
type Segment struct {
	Audio audio.Waveform
	Span  timespan.Span
}

// Split cuts the waveform along the support of the diarization
// annotation: the union of all turn spans collapsed into maximal
// contiguous covered intervals. Each interval is clipped to the audio
// bounds; intervals that end up empty are discarded and intervals
// whose audio cannot be sliced are skipped with a warning. The result
// is ordered by start time.
//
// An annotation without turns yields an empty result, which callers
// treat as "no speech found", not as a failure.
func Split(wav audio.Waveform, ann *diarization.Annotation) []Segment {
	bounds := wav.Bounds()

	var out []Segment
	for _, span := range ann.Timeline() {
		clipped, ok := span.Clip(bounds)
		if !ok {
			continue
		}
		slice, ok := wav.Slice(clipped)
		if !ok || len(slice.Samples) == 0 {
			slog.Warn("skipping unsliceable audio segment",
				"start", clipped.Start,
				"end", clipped.End,
				"audio_duration", wav.Duration())
			continue
		}
		out = append(out, Segment{Audio: slice, Span: clipped})
	}
	return out
}
