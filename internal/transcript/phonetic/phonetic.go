// Package phonetic matches misheard words against a list of known
// names using Double Metaphone codes with Jaro-Winkler ranking.
//
// Speech recognition regularly mangles proper nouns, and meeting
// attendee names are proper nouns the service does know in advance.
// The matcher works in two stages:
//
//  1. Phonetic filtering: Double Metaphone codes are computed for the
//     input and every known name. A name whose codes overlap the
//     input's becomes a candidate.
//
//  2. Ranking: among candidates, the name with the highest
//     Jaro-Winkler similarity wins, provided it clears the phonetic
//     threshold. When no candidate survives stage 1, a stricter pure
//     Jaro-Winkler pass over all names catches spelling-close misses
//     that phonetics disagree on.
//
// Multi-word names ("Anna-Lena Meyer") are handled by comparing full
// strings, space-stripped strings, and the best token pair.
package phonetic

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.85
)

// Option is a functional option for configuring a [Matcher].
type Option func(*Matcher)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score required
// for a phonetically-matched name to be accepted. Default: 0.70.
func WithPhoneticThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.phoneticThreshold = threshold
	}
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score required when
// no phonetic candidate exists and the matcher falls back to pure
// string similarity. Default: 0.85.
func WithFuzzyThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.fuzzyThreshold = threshold
	}
}

// Matcher resolves words to known names. It is read-only after
// construction and safe for concurrent use.
type Matcher struct {
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// New returns a [Matcher] configured with the supplied options.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Match finds the name from names most phonetically similar to word.
// word may be a single token or a space-separated phrase.
//
// When matched is false, corrected equals word unchanged and
// confidence is 0.
func (m *Matcher) Match(word string, names []string) (corrected string, confidence float64, matched bool) {
	if len(names) == 0 || strings.TrimSpace(word) == "" {
		return word, 0, false
	}

	wordLower := strings.ToLower(strings.TrimSpace(word))
	wordTokens := strings.Fields(wordLower)
	inputCodes := codesFor(wordTokens)

	type candidate struct {
		name     string
		score    float64
		phonetic bool
	}
	var best candidate

	for _, name := range names {
		nameLower := strings.ToLower(strings.TrimSpace(name))
		if nameLower == "" {
			continue
		}
		nameTokens := strings.Fields(nameLower)

		phoneticMatch := codesOverlap(inputCodes, codesFor(nameTokens))
		score := similarity(wordTokens, nameTokens, wordLower, nameLower)

		if phoneticMatch {
			if score >= m.phoneticThreshold && (!best.phonetic || score > best.score) {
				best = candidate{name: name, score: score, phonetic: true}
			}
		} else if !best.phonetic && score >= m.fuzzyThreshold && score > best.score {
			best = candidate{name: name, score: score, phonetic: false}
		}
	}

	if best.name != "" {
		return best.name, best.score, true
	}
	return word, 0, false
}

// codesFor returns the union of Double Metaphone codes for the tokens.
// Empty codes are excluded.
func codesFor(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		p, s := matchr.DoubleMetaphone(t)
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

// codesOverlap reports whether the two code sets share a code.
func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// similarity returns the highest Jaro-Winkler score between input and
// name across full strings, space-stripped strings, and the best
// token pair. The multiple comparisons keep multi-word names from
// scoring artificially low against single recognized tokens.
func similarity(inputTokens, nameTokens []string, inputFull, nameFull string) float64 {
	score := matchr.JaroWinkler(inputFull, nameFull, false)

	if len(inputTokens) > 1 || len(nameTokens) > 1 {
		joined1 := strings.Join(inputTokens, "")
		joined2 := strings.Join(nameTokens, "")
		if s := matchr.JaroWinkler(joined1, joined2, false); s > score {
			score = s
		}
	}

	for _, it := range inputTokens {
		for _, nt := range nameTokens {
			if s := matchr.JaroWinkler(it, nt, false); s > score {
				score = s
			}
		}
	}

	return score
}
