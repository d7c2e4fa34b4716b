// Package timespan provides the half-open time interval primitive used
// throughout the diarization and transcription pipeline.
//
// A [Span] covers [Start, End) in seconds from the beginning of the
// recording. All operations are pure and never fail; degenerate or
// non-overlapping inputs produce zero values instead of errors.
package timespan

// Span is a half-open time interval [Start, End) in seconds.
//
// Start <= End is expected. Zero-length spans may exist transiently
// (e.g. from clipping) but callers discard them before use via
// [Span.IsValid].
type Span struct {
	Start float64
	End   float64
}

// New returns the span [start, end).
func New(start, end float64) Span {
	return Span{Start: start, End: end}
}

// Duration returns End - Start. Negative for inverted spans.
func (s Span) Duration() float64 {
	return s.End - s.Start
}

// IsValid reports whether the span has positive length.
func (s Span) IsValid() bool {
	return s.Start < s.End
}

// Mid returns the midpoint of the span.
func (s Span) Mid() float64 {
	return s.Start + (s.End-s.Start)/2
}

// Contains reports whether t lies within [Start, End).
func (s Span) Contains(t float64) bool {
	return t >= s.Start && t < s.End
}

// Overlap returns the overlap duration between s and other:
// max(0, min(ends) - max(starts)).
func (s Span) Overlap(other Span) float64 {
	lo := s.Start
	if other.Start > lo {
		lo = other.Start
	}
	hi := s.End
	if other.End < hi {
		hi = other.End
	}
	if hi <= lo {
		return 0
	}
	return hi - lo
}

// Intersects reports whether s and other share any positive duration.
func (s Span) Intersects(other Span) bool {
	return s.Overlap(other) > 0
}

// Dilate returns the span widened by eps on both sides.
func (s Span) Dilate(eps float64) Span {
	return Span{Start: s.Start - eps, End: s.End + eps}
}

// Clip clamps s into bounds. The second return value is false when the
// clamped span is empty, in which case the returned span must be
// discarded.
func (s Span) Clip(bounds Span) (Span, bool) {
	out := s
	if out.Start < bounds.Start {
		out.Start = bounds.Start
	}
	if out.End > bounds.End {
		out.End = bounds.End
	}
	if !out.IsValid() {
		return Span{}, false
	}
	return out, true
}
