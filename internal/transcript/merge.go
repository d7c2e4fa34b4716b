package transcript

import "strings"

// Merge walks labeled units in their given (chronological) order and
// joins consecutive same-speaker units into utterances. The input is
// never re-sorted; interleaved speakers produce alternating
// utterances even when their spans overlap.
//
// Two kinds of units are skipped without flushing the running
// utterance, so a speaker's run survives a failed or empty unit in
// its middle:
//
//   - units labeled [SpeakerError] (failed transcription),
//   - units whose text is empty after trimming.
//
// Unit texts are trimmed and space-joined. The utterance span starts
// at its first unit's start and extends to the last unit's end.
func Merge(units []LabeledUnit) []Utterance {
	var (
		out     []Utterance
		current *Utterance
	)

	for _, lu := range units {
		if lu.Speaker == SpeakerError {
			continue
		}
		text := strings.TrimSpace(lu.Unit.Text)
		if text == "" {
			continue
		}

		if current != nil && current.Speaker == lu.Speaker {
			current.Text += " " + text
			current.Span.End = lu.Unit.Span.End
			continue
		}

		if current != nil {
			out = append(out, *current)
		}
		current = &Utterance{
			Speaker: lu.Speaker,
			Text:    text,
			Span:    lu.Unit.Span,
		}
	}

	if current != nil {
		out = append(out, *current)
	}
	return out
}
