// Package diarization defines the result model of speaker diarization
// and the query operations the attribution engine needs to answer
// "who was speaking" against it.
package diarization

import (
	"context"
	"sort"

	"github.com/MrWong99/minutescribe/pkg/audio"
	"github.com/MrWong99/minutescribe/pkg/timespan"
)

// Turn is one speaker turn produced by a diarization engine: the given
// speaker was talking during Span. Speaker labels are engine-internal
// identifiers (e.g. "SPEAKER_00") with no stability guarantees across
// runs or files.
type Turn struct {
	Span    timespan.Span
	Speaker string
}

// Provider is a speaker diarization engine. Implementations wrap an
// external model invocation and return time-stamped, speaker-labeled
// turns over the whole input.
type Provider interface {
	// Diarize runs diarization over the waveform. An empty turn list
	// with a nil error means no speech was found, which is a valid
	// outcome and distinct from a failure.
	Diarize(ctx context.Context, wav audio.Waveform) ([]Turn, error)
}

// SpeakerOverlap is the accumulated overlap of one speaker's turns
// against a queried span.
type SpeakerOverlap struct {
	Speaker string
	Seconds float64
}

// Annotation is an ordered collection of speaker turns supporting
// point and range speaker lookups.
//
// Turns are sorted by start time at construction; equal starts keep
// their input order. Lookup tie-breaks are defined in terms of this
// stored ordering, so identical inputs always resolve identically.
type Annotation struct {
	turns []Turn
}

// NewAnnotation builds an annotation from turns, dropping degenerate
// spans (start >= end) and sorting the rest by start time. The input
// slice is not modified.
func NewAnnotation(turns []Turn) *Annotation {
	kept := make([]Turn, 0, len(turns))
	for _, t := range turns {
		if t.Span.IsValid() {
			kept = append(kept, t)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Span.Start < kept[j].Span.Start
	})
	return &Annotation{turns: kept}
}

// Turns returns the stored turns in their sorted order. The returned
// slice must not be modified.
func (a *Annotation) Turns() []Turn {
	return a.turns
}

// Len returns the number of stored turns.
func (a *Annotation) Len() int {
	return len(a.turns)
}

// SpeakerAt returns the speaker of the first stored turn that overlaps
// probe. When several turns contain the probe (overlapped speech or a
// probe dilated across a boundary) the first in stored ordering wins.
// The boolean is false when no turn overlaps.
func (a *Annotation) SpeakerAt(probe timespan.Span) (string, bool) {
	for _, t := range a.turns {
		if t.Span.Intersects(probe) {
			return t.Speaker, true
		}
	}
	return "", false
}

// SpeakerOver returns the speaker whose turns have the largest total
// overlap with span. Equal totals resolve to the speaker that appears
// first in stored ordering. The boolean is false when nothing overlaps.
func (a *Annotation) SpeakerOver(span timespan.Span) (string, bool) {
	totals := a.OverlapTotals(span)
	if len(totals) == 0 {
		return "", false
	}
	best := totals[0]
	for _, o := range totals[1:] {
		if o.Seconds > best.Seconds {
			best = o
		}
	}
	return best.Speaker, true
}

// OverlapTotals accumulates per-speaker overlap durations against span.
// The result is ordered by each speaker's first appearance in the
// stored turn ordering and contains only speakers with positive
// overlap.
func (a *Annotation) OverlapTotals(span timespan.Span) []SpeakerOverlap {
	var totals []SpeakerOverlap
	index := make(map[string]int)
	for _, t := range a.turns {
		ov := t.Span.Overlap(span)
		if ov <= 0 {
			continue
		}
		if i, ok := index[t.Speaker]; ok {
			totals[i].Seconds += ov
			continue
		}
		index[t.Speaker] = len(totals)
		totals = append(totals, SpeakerOverlap{Speaker: t.Speaker, Seconds: ov})
	}
	return totals
}

// Crop returns a new annotation containing the stored turns clipped to
// bounds. Turns that fall entirely outside are dropped.
func (a *Annotation) Crop(bounds timespan.Span) *Annotation {
	var kept []Turn
	for _, t := range a.turns {
		if clipped, ok := t.Span.Clip(bounds); ok {
			kept = append(kept, Turn{Span: clipped, Speaker: t.Speaker})
		}
	}
	return &Annotation{turns: kept}
}

// Timeline returns the support of the annotation: the union of all
// turn spans collapsed into maximal contiguous covered intervals,
// ordered by start time. Touching intervals are merged.
func (a *Annotation) Timeline() []timespan.Span {
	if len(a.turns) == 0 {
		return nil
	}
	support := []timespan.Span{a.turns[0].Span}
	for _, t := range a.turns[1:] {
		last := &support[len(support)-1]
		if t.Span.Start <= last.End {
			if t.Span.End > last.End {
				last.End = t.Span.End
			}
			continue
		}
		support = append(support, t.Span)
	}
	return support
}

// Speakers returns the distinct speaker labels in order of first
// appearance in the stored ordering.
func (a *Annotation) Speakers() []string {
	seen := make(map[string]struct{}, len(a.turns))
	var out []string
	for _, t := range a.turns {
		if _, ok := seen[t.Speaker]; ok {
			continue
		}
		seen[t.Speaker] = struct{}{}
		out = append(out, t.Speaker)
	}
	return out
}
