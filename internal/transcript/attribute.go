package transcript

import (
	"github.com/MrWong99/minutescribe/pkg/asr"
	"github.com/MrWong99/minutescribe/pkg/diarization"
	"github.com/MrWong99/minutescribe/pkg/timespan"
)

// PointEpsilon is the dilation applied to a unit's midpoint before the
// point lookup. Exact point containment against a turn boundary is
// brittle in floating point; widening the probe by a tenth of a
// millisecond avoids spurious non-matches without changing which turn
// a genuinely interior point resolves to.
const PointEpsilon = 1e-4

// LabeledUnit is a recognized unit with its attributed speaker.
type LabeledUnit struct {
	Unit    asr.Unit
	Speaker string
}

// AttributionStrategy assigns a speaker label to every recognized
// unit. Implementations never fail: unresolvable units receive the
// unknown sentinel for the strategy and processing continues.
type AttributionStrategy interface {
	// Attribute labels each unit in order. The returned slice is
	// parallel to units.
	Attribute(units []asr.Unit, ann *diarization.Annotation) []LabeledUnit

	// Name identifies the strategy in logs and metrics.
	Name() string
}

// StrategyFor returns the attribution strategy matching the
// transcriber's unit granularity: point attribution for word-level
// input, range attribution for free segments.
func StrategyFor(g asr.Granularity) AttributionStrategy {
	if g == asr.GranularityWord {
		return PointStrategy{Epsilon: PointEpsilon}
	}
	return RangeStrategy{}
}

// PointStrategy attributes each unit by the speaker talking at the
// unit's midpoint. Suited to word-level units, which are short enough
// that a single interior point is representative.
type PointStrategy struct {
	// Epsilon widens the midpoint probe on both sides. Zero means an
	// exact (and boundary-brittle) point lookup.
	Epsilon float64
}

var _ AttributionStrategy = PointStrategy{}

// Name implements [AttributionStrategy].
func (PointStrategy) Name() string { return "point" }

// Attribute labels each unit by, in order of preference:
//
//  1. the first turn overlapping the dilated midpoint,
//  2. the turn with the largest overlap against the whole unit span,
//  3. the [SpeakerUnknown] sentinel.
//
// Units carrying the transcription failure text are labeled
// [SpeakerError] without a lookup.
func (s PointStrategy) Attribute(units []asr.Unit, ann *diarization.Annotation) []LabeledUnit {
	out := make([]LabeledUnit, len(units))
	for i, u := range units {
		out[i] = LabeledUnit{Unit: u, Speaker: s.speakerFor(u, ann)}
	}
	return out
}

func (s PointStrategy) speakerFor(u asr.Unit, ann *diarization.Annotation) string {
	if u.Text == asr.ErrorText {
		return SpeakerError
	}
	mid := u.Span.Mid()
	probe := timespan.Span{Start: mid, End: mid}.Dilate(s.Epsilon)
	if speaker, ok := ann.SpeakerAt(probe); ok {
		return speaker
	}
	if speaker, ok := ann.SpeakerOver(u.Span); ok {
		return speaker
	}
	return SpeakerUnknown
}

// RangeStrategy attributes each unit to the speaker covering the
// majority of its duration. Used when recognition ran independently of
// diarization and emitted free segments spanning several turns.
type RangeStrategy struct{}

var _ AttributionStrategy = RangeStrategy{}

// Name implements [AttributionStrategy].
func (RangeStrategy) Name() string { return "range" }

// Attribute accumulates per-speaker overlap against each unit's span.
// A unit is attributed to the speaker with the largest accumulated
// overlap, but only when all overlapping speech together covers at
// least half the unit's duration; below that the unit is labeled
// [SpeakerUnattributed] rather than guessed. Equal totals resolve to
// the speaker appearing first in the annotation's stored ordering.
func (RangeStrategy) Attribute(units []asr.Unit, ann *diarization.Annotation) []LabeledUnit {
	out := make([]LabeledUnit, len(units))
	for i, u := range units {
		out[i] = LabeledUnit{Unit: u, Speaker: rangeSpeakerFor(u, ann)}
	}
	return out
}

func rangeSpeakerFor(u asr.Unit, ann *diarization.Annotation) string {
	if u.Text == asr.ErrorText {
		return SpeakerError
	}

	totals := ann.OverlapTotals(u.Span)
	if len(totals) == 0 {
		return SpeakerUnattributed
	}

	var covered float64
	best := totals[0]
	for i, o := range totals {
		covered += o.Seconds
		if i > 0 && o.Seconds > best.Seconds {
			best = o
		}
	}
	if covered < u.Span.Duration()/2 {
		return SpeakerUnattributed
	}
	return best.Speaker
}
