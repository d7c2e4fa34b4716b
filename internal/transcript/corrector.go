package transcript

import (
	"strings"
)

// NameMatcher resolves a word or short phrase to a known attendee
// name based on pronunciation similarity. When matched is false,
// corrected must equal word unchanged and confidence must be 0.
//
// Implementations must be safe for concurrent use.
type NameMatcher interface {
	Match(word string, names []string) (corrected string, confidence float64, matched bool)
}

// Correction records one substitution made by a [Corrector].
type Correction struct {
	Original   string
	Corrected  string
	Confidence float64
}

// Corrector fixes up misrecognized attendee names in merged
// utterances. It is read-only after construction and safe for
// concurrent use.
type Corrector struct {
	matcher   NameMatcher
	attendees []string
}

// NewCorrector returns a [Corrector] that replaces words phonetically
// matching one of the attendee names. A nil matcher or empty attendee
// list yields a corrector that passes utterances through unchanged.
func NewCorrector(matcher NameMatcher, attendees []string) *Corrector {
	return &Corrector{matcher: matcher, attendees: attendees}
}

// Correct applies name correction to every utterance text and returns
// the corrected utterances plus the substitutions made. The input
// slice is not modified; speakers and spans pass through untouched.
func (c *Corrector) Correct(utterances []Utterance) ([]Utterance, []Correction) {
	if c == nil || c.matcher == nil || len(c.attendees) == 0 {
		return utterances, nil
	}

	out := make([]Utterance, len(utterances))
	var all []Correction
	for i, u := range utterances {
		corrected, corrections := c.correctText(u.Text)
		u.Text = corrected
		out[i] = u
		all = append(all, corrections...)
	}
	return out, all
}

// correctText tokenizes text and tests n-gram windows against the
// attendee list, longest window first so multi-word names win over
// partial single-word matches. Unmatched tokens pass through.
func (c *Corrector) correctText(text string) (string, []Correction) {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return text, nil
	}

	maxWindow := maxWordCount(c.attendees)

	var (
		output      []string
		corrections []Correction
	)

	i := 0
	for i < len(tokens) {
		window := maxWindow
		if i+window > len(tokens) {
			window = len(tokens) - i
		}

		matched := false
		for n := window; n >= 1; n-- {
			phrase := strings.Join(tokens[i:i+n], " ")
			name, conf, ok := c.matcher.Match(phrase, c.attendees)
			if !ok {
				continue
			}
			output = append(output, strings.Fields(name)...)
			corrections = append(corrections, Correction{
				Original:   phrase,
				Corrected:  name,
				Confidence: conf,
			})
			i += n
			matched = true
			break
		}

		if !matched {
			output = append(output, tokens[i])
			i++
		}
	}

	return strings.Join(output, " "), corrections
}

// maxWordCount returns the maximum number of whitespace-separated
// words in any name. Returns 1 for an empty list.
func maxWordCount(names []string) int {
	max := 1
	for _, n := range names {
		if c := len(strings.Fields(n)); c > max {
			max = c
		}
	}
	return max
}
