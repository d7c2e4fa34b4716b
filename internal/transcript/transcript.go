// Package transcript turns independently produced diarization and
// speech recognition results into one ordered, speaker-attributed
// transcript.
//
// The two inputs segment the same timeline differently: diarization
// yields speaker turns, recognition yields timestamped words or free
// segments, and neither is aligned with the other. Reconciliation
// happens in two steps:
//
//  1. Attribution: every recognized unit is assigned a speaker label
//     by an [AttributionStrategy]. Point attribution matches the
//     unit's midpoint against the turns and suits word-level input;
//     range attribution demands a majority of the unit's duration be
//     covered by one speaker and suits free segments from a
//     transcriber that never saw the turn boundaries.
//
//  2. Merge: consecutive units with the same speaker are joined into
//     utterances, strictly preserving chronological order. Failed and
//     empty units are dropped without splitting the surrounding run.
//
// Attribution of a single unit never fails; units that cannot be
// resolved carry an explicit unknown label so reviewers can see where
// attribution gave up rather than receiving a silently guessed
// speaker.
package transcript

import (
	"strings"

	"github.com/MrWong99/minutescribe/pkg/timespan"
)

const (
	// SpeakerUnknown labels units whose midpoint and span matched no
	// diarization turn at all.
	SpeakerUnknown = "UNKNOWN"

	// SpeakerUnattributed labels units where known speech covered
	// less than half of the unit's duration, so no speaker can be
	// assigned with confidence.
	SpeakerUnattributed = "SPEAKER_UNKNOWN"

	// SpeakerError labels units whose transcription failed. They are
	// excluded from the merged transcript entirely.
	SpeakerError = "ERROR"
)

// Utterance is one merged run of consecutive same-speaker recognized
// units, the final transcript building block.
type Utterance struct {
	Speaker string
	Text    string
	Span    timespan.Span
}

// Render formats utterances as "speaker: text" lines joined by
// newlines, in the order given. This exact format is what the
// summarizer receives.
func Render(utterances []Utterance) string {
	lines := make([]string, len(utterances))
	for i, u := range utterances {
		lines[i] = u.Speaker + ": " + strings.TrimSpace(u.Text)
	}
	return strings.Join(lines, "\n")
}
